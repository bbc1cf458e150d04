// Package envview is the environment view facade: a read-only,
// non-forcing window onto other modules' already-computed core_expr
// results, used by the optimizer's cross-module inlining step without
// ever triggering recompilation of a module nobody has asked for yet.
//
// Digest follows the same idea as internal/iface's module
// interface digest — a linker-visible fingerprint that tells whether
// an upstream module's exports changed shape, not just whether its
// revision counter moved — but computed over a frozen coreir.Global's
// root expression and inlinable export set instead of an iface.Iface.
package envview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/glu-lang/core/internal/coreir"
	"github.com/glu-lang/core/internal/queryengine"
)

// View resolves symbols for the module currently being compiled
// (self). It keeps ctx (that module's query context, or nil) and db,
// but FindExpr and GetGlobal read only through the peek function the
// caller passes in, so no lookup records a dependency on ctx.
type View struct {
	ctx  *queryengine.Context
	db   *queryengine.Database
	self string
}

// New builds a View scoped to self. ctx may be nil for REPL-style
// lookups; the View records no dependency on ctx for any module it
// resolves.
func New(ctx *queryengine.Context, db *queryengine.Database, self string) *View {
	return &View{ctx: ctx, db: db, self: self}
}

// Lookup peeks at query's cached result for module without forcing it
// and without recording a dependency, regardless of ctx. peek is the
// query family's own Peek-style accessor (coreexpr.Lookup, typically).
func Lookup(peek func(module string) (*coreir.Global, bool), module string) (*coreir.Global, bool) {
	return peek(module)
}

// FindExpr resolves "@module.name" or "module.name" to the named
// export of another module's frozen, optimized core, the lookup the
// optimizer's interpreter-driven compilation step needs to inline
// across module boundaries. It never forces module's
// core_expr: a module nobody has requested yet simply has nothing to
// offer.
func (v *View) FindExpr(peek func(module string) (*coreir.Global, bool), symbol string) (*coreir.Global, bool) {
	module, name, ok := SplitSymbol(symbol)
	if !ok || module == v.self {
		return nil, false
	}
	global, ok := peek(module)
	if !ok {
		return nil, false
	}
	exprID, ok := global.Info.Inlinable[name]
	if !ok {
		return nil, false
	}
	return &coreir.Global{Arena: global.Arena, Value: exprID, Info: global.Info}, true
}

// GetGlobal returns the whole frozen Global for module, for tooling
// that wants to inspect an upstream module's exports rather than
// inline a single one (e.g. a future "show interface" REPL command).
func (v *View) GetGlobal(peek func(module string) (*coreir.Global, bool), module string) (*coreir.Global, bool) {
	if module == v.self {
		return nil, false
	}
	return peek(module)
}

// Digest computes a deterministic fingerprint of g: its root
// expression plus its inlinable export set. Structurally-equal frozen
// cores produce the same digest even across separate Arena
// allocations, so a downstream query can compare digests instead of
// revision numbers to decide whether a recompile actually changed
// anything.
func Digest(g *coreir.Global) string {
	if g == nil {
		return ""
	}
	names := make([]string, 0, len(g.Info.Inlinable))
	for name := range g.Info.Inlinable {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("envview/v1")
	fmt.Fprintf(&b, ";root=%d", shapeHash(g.Arena, g.Value))
	for _, name := range names {
		fmt.Fprintf(&b, ";%s=%d", name, shapeHash(g.Arena, g.Info.Inlinable[name]))
	}
	return b.String()
}

// shapeHash folds an expression's kind tags, literal payload
// (constant values, constructor names, identifier names), let binder
// names, recursive closures' names, parameters and bodies, match
// patterns and cast types into a single integer (dictionary-passing
// nodes contribute only their kind tag), deep enough to notice a rewritten body but cheap
// enough to run on every optimize() pass: it is not a cryptographic
// digest, only a cutoff signal for cross-module inlining decisions.
func shapeHash(arena *coreir.Arena, id coreir.ExprID) uint64 {
	var h uint64 = 1469598103934665603 // FNV offset basis
	var walk func(id coreir.ExprID)
	mix := func(s string) {
		for i := 0; i < len(s); i++ {
			h ^= uint64(s[i])
			h *= 1099511628211
		}
	}
	walk = func(id coreir.ExprID) {
		n := arena.Node(id)
		h ^= uint64(n.Kind)
		h *= 1099511628211 // FNV prime
		switch n.Kind {
		case coreir.KConst:
			mix(fmt.Sprintf("%v", n.ConstValue))
		case coreir.KIdent:
			mix(n.IdentName)
		case coreir.KCall:
			walk(n.Fn)
			for _, a := range n.Args {
				walk(a)
			}
		case coreir.KData:
			mix(n.Ctor)
			for _, f := range n.Fields {
				walk(f)
			}
		case coreir.KLet:
			mix(n.Binding.Name)
			if n.Binding.Kind == coreir.BindExpr {
				walk(n.Binding.Expr)
			}
			for _, c := range n.Binding.Closures {
				mix(c.Name)
				mix(strings.Join(c.Args, ","))
				walk(c.Body)
			}
			walk(n.Body)
		case coreir.KMatch:
			walk(n.Scrutinee)
			for _, alt := range n.Alternatives {
				mix(alt.Pattern.String())
				walk(alt.Body)
			}
		case coreir.KCast:
			mix(n.CastType)
			walk(n.CastExpr)
		}
	}
	walk(id)
	return h
}

// SplitSymbol parses a resolved symbol of the form "@module.path.name"
// or the bare "module.path.name" into its module and trailing name,
// stripping the leading @ the data model reserves for fully resolved
// symbols.
func SplitSymbol(symbol string) (module, name string, ok bool) {
	symbol = strings.TrimPrefix(symbol, "@")
	symbol = strings.Trim(symbol, `"`)
	idx := strings.LastIndex(symbol, ".")
	if idx < 0 {
		return "", "", false
	}
	return symbol[:idx], symbol[idx+1:], true
}
