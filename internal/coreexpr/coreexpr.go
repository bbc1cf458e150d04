// Package coreexpr implements core_expr: translating a
// typechecked module into the frozen, arena-allocated coreir
// representation, running the optimizer pipeline over it when enabled,
// and exposing already-compiled modules to each other for cross-module
// inlining without forcing them.
package coreexpr

import (
	"fmt"

	"github.com/glu-lang/core/internal/core"
	"github.com/glu-lang/core/internal/coreir"
	"github.com/glu-lang/core/internal/envview"
	"github.com/glu-lang/core/internal/errors"
	"github.com/glu-lang/core/internal/optimize"
	"github.com/glu-lang/core/internal/queryengine"
	"github.com/glu-lang/core/internal/settings"
	"github.com/glu-lang/core/internal/translate"
	"github.com/glu-lang/core/internal/typecheck"
)

// QueryCoreExpr is the query-engine family name for core_expr.
const QueryCoreExpr queryengine.QueryID = "core_expr"

// Result is what core_expr produces: a frozen Global, or an error if
// typechecking failed or translation could not represent the typed
// program. Digest fingerprints the Global's root expression and
// inlinable export set (envview.Digest): two recompilations that land on structurally equal
// optimized cores carry equal digests even though their arenas differ,
// which downstream queries use to keep stable identities across
// no-op recompiles.
type Result struct {
	Global *coreir.Global
	Digest string
	Err    error
}

// Translator runs core_expr(module): read typechecked_module, lower to
// coreir in a scoped arena, and optimize when cfg.Optimize is set.
type Translator struct {
	db       *queryengine.Database
	checker  *typecheck.Checker
	settings settings.Settings
}

// New builds a Translator reading typed modules through checker.
func New(db *queryengine.Database, checker *typecheck.Checker, cfg settings.Settings) *Translator {
	return &Translator{db: db, checker: checker, settings: cfg}
}

// CoreExpr runs the query as a root entry point.
func (t *Translator) CoreExpr(module string) *Result {
	val, _ := t.db.Get(QueryCoreExpr, module, t.query(module))
	return val.(*Result)
}

// CallCoreExpr is the ctx.Call-scoped variant used by the bytecode
// query, which must record core_expr as one of its own dependencies.
func (t *Translator) CallCoreExpr(ctx *queryengine.Context, module string) *Result {
	val, _ := ctx.Call(QueryCoreExpr, module, t.query(module))
	return val.(*Result)
}

func (t *Translator) query(module string) queryengine.ComputeFunc {
	return func(ctx *queryengine.Context) (interface{}, error) {
		typed := t.checker.CallTypecheckedModule(ctx, module)
		if typed.Err != nil {
			return &Result{Err: typed.Err}, nil
		}

		prog := &core.Program{Decls: make([]core.CoreExpr, len(typed.Program.Decls))}
		for i, decl := range typed.Program.Decls {
			prog.Decls[i] = decl.GetCore()
		}

		tr := translate.New()
		builder, root, err := tr.Program(prog)
		if err != nil {
			return &Result{Err: fmt.Errorf("%s: %w", errors.CT001, err)}, nil
		}

		if !t.settings.Optimize {
			builder.Arena.Freeze()
			g := &coreir.Global{
				Arena: builder.Arena,
				Value: root,
				Info:  coreir.OptimizerInfo{},
			}
			return &Result{Global: g, Digest: envview.Digest(g)}, nil
		}

		env := &crossModuleEnv{view: envview.New(ctx, t.db, module), db: t.db}
		global := optimize.Optimize(builder.Arena, root, env)
		return &Result{Global: global, Digest: envview.Digest(global)}, nil
	}
}

// Lookup peeks at the already-computed core_expr(module) without
// forcing it or recording a dependency — the find_expr facade
// operation the optimizer's cross-module inlining relies on.
func Lookup(db *queryengine.Database, module string) (*coreir.Global, bool) {
	val, err, ok := db.Peek(QueryCoreExpr, module)
	if !ok || err != nil {
		return nil, false
	}
	res, ok := val.(*Result)
	if !ok || res.Global == nil {
		return nil, false
	}
	return res.Global, true
}

// crossModuleEnv adapts envview.View into optimize.OptimizeEnv: every
// FindExpr call is a peek through this Translator's own Lookup, so
// resolving another module's export never forces that module's
// core_expr and never records it as a hard dependency.
type crossModuleEnv struct {
	view *envview.View
	db   *queryengine.Database
}

func (e *crossModuleEnv) FindExpr(symbol string) (*coreir.Global, bool) {
	return e.view.FindExpr(func(module string) (*coreir.Global, bool) {
		return Lookup(e.db, module)
	}, symbol)
}
