// Package typecheck wraps the parser, elaborator and core type checker
// behind a single query-engine entry point, typechecked_module.
package typecheck

import (
	"fmt"
	"strings"

	"github.com/glu-lang/core/internal/ast"
	"github.com/glu-lang/core/internal/core"
	"github.com/glu-lang/core/internal/elaborate"
	"github.com/glu-lang/core/internal/errors"
	"github.com/glu-lang/core/internal/lexer"
	"github.com/glu-lang/core/internal/parser"
	"github.com/glu-lang/core/internal/queryengine"
	"github.com/glu-lang/core/internal/sourcetext"
	"github.com/glu-lang/core/internal/typedast"
	"github.com/glu-lang/core/internal/types"
)

// QueryTypecheckedModule is the query-engine family name for
// typechecked_module.
const QueryTypecheckedModule queryengine.QueryID = "typechecked_module"

// Result is what typechecked_module produces: a typed AST (possibly
// partial, for IDE use on failure) paired with any error. On a
// typecheck failure both fields are populated so editor tooling can
// still navigate the best-effort tree; a source, parse or elaboration
// failure leaves Program nil.
//
// Imports lists the modules this source imports, in declaration order,
// already converted from path form ("data/structures") to dotted
// module names ("data.structures"). It is populated as soon as parsing
// succeeds, even when elaboration or typechecking later fails, because
// the global evaluation query forces each import as a dependency edge
// before deciding whether the module itself is usable — a cyclic
// import graph must surface CyclicDependency, not whatever downstream
// error the cycle happens to cause first.
//
// Meta carries the per-declaration metadata (name, export and purity flags)
// the elaborator collected, keyed by declaration name.
type Result struct {
	Program *typedast.TypedProgram
	Imports []string
	Meta    map[string]*core.DeclMeta
	Err     error
}

// Checker runs typechecked_module(module): parse, elaborate to Core,
// then type check the Core program.
type Checker struct {
	db    *queryengine.Database
	texts *sourcetext.Store
}

// New builds a Checker reading module source through texts.
func New(db *queryengine.Database, texts *sourcetext.Store) *Checker {
	return &Checker{db: db, texts: texts}
}

// TypecheckedModule runs the query as a root entry point.
func (c *Checker) TypecheckedModule(module string) *Result {
	val, _ := c.db.Get(QueryTypecheckedModule, module, c.query(module))
	c.db.MarkUntracked(QueryTypecheckedModule, module)
	return val.(*Result)
}

// CallTypecheckedModule is the ctx.Call-scoped variant for callers
// (the core-translation, bytecode and global queries) that must record
// typechecked_module as one of their own dependencies.
func (c *Checker) CallTypecheckedModule(ctx *queryengine.Context, module string) *Result {
	val, _ := ctx.Call(QueryTypecheckedModule, module, c.query(module))
	ctx.DB().MarkUntracked(QueryTypecheckedModule, module)
	return val.(*Result)
}

// query never itself returns a Go error: typecheck failure is data
// carried inside Result so a type error never
// looks like an engine malfunction.
func (c *Checker) query(module string) queryengine.ComputeFunc {
	return func(ctx *queryengine.Context) (interface{}, error) {
		text, err := c.texts.CallModuleText(ctx, module)
		if err != nil {
			return &Result{Err: err}, nil
		}

		l := lexer.New(string(text), module)
		p := parser.New(l)
		astProgram := p.Parse()
		if errs := p.Errors(); len(errs) > 0 {
			return &Result{Err: fmt.Errorf("%s: %w", errors.PAR001, errs[0])}, nil
		}
		imports := importedModules(astProgram)

		elaborator := elaborate.NewElaborator()
		coreProgram, err := elaborator.Elaborate(astProgram)
		if err != nil {
			return &Result{Imports: imports, Err: fmt.Errorf("%s: %w", errors.ELB001, err)}, nil
		}

		tc := types.NewCoreTypeChecker()
		typed, err := tc.CheckCoreProgram(coreProgram)
		if err != nil {
			return &Result{Program: typed, Imports: imports, Meta: coreProgram.Meta, Err: fmt.Errorf("%s: %w", errors.TC001, err)}, nil
		}
		return &Result{Program: typed, Imports: imports, Meta: coreProgram.Meta}, nil
	}
}

// importedModules collects the dotted module names a parsed program
// imports. Paths use "/" separators in source; query keys use dots.
func importedModules(prog *ast.Program) []string {
	if prog == nil || prog.File == nil || len(prog.File.Imports) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(prog.File.Imports))
	out := make([]string, 0, len(prog.File.Imports))
	for _, imp := range prog.File.Imports {
		name := strings.ReplaceAll(imp.Path, "/", ".")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
