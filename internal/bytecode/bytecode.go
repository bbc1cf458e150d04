// Package bytecode implements compiled_module: turning
// an optimized core expression into a callable thunk. This core has no
// real bytecode format or VM of its own, so "compile" here means
// handing core_expr's frozen Global to internal/vm's NewGlobalThunk,
// which is sufficient to satisfy the query's dependency and caching
// contract.
package bytecode

import (
	"fmt"
	"sync"

	"github.com/glu-lang/core/internal/coreexpr"
	"github.com/glu-lang/core/internal/errors"
	"github.com/glu-lang/core/internal/queryengine"
	"github.com/glu-lang/core/internal/settings"
	"github.com/glu-lang/core/internal/sourcetext"
	"github.com/glu-lang/core/internal/typecheck"
	"github.com/glu-lang/core/internal/vm"
)

// QueryCompiledModule is the query-engine family name for
// compiled_module.
const QueryCompiledModule queryengine.QueryID = "compiled_module"

// Result is what compiled_module produces: a thunk ready to be called
// by global(), or an error propagated from core_expr. FileMap is
// populated only when debug-info emission is enabled, carrying the
// byte-offset-to-(line,column) table diagnostics consumers resolve
// spans against.
type Result struct {
	Thunk   *vm.Thunk
	FileMap *sourcetext.FileMap
	Err     error
}

// Compiler runs compiled_module(module): read core_expr and wrap its
// Global as a named thunk.
type Compiler struct {
	db         *queryengine.Database
	translator *coreexpr.Translator
	checker    *typecheck.Checker
	texts      *sourcetext.Store
	settings   settings.Settings

	mu   sync.Mutex
	last map[string]lastCompile
}

// lastCompile remembers the previous compile of a module together with
// the digest of the core it was built from, so a recompile that lands
// on a structurally identical core (same digest, fresh arena) keeps
// the previous thunk identity instead of minting a new one.
type lastCompile struct {
	digest string
	result *Result
}

// New builds a Compiler reading core expressions through translator.
// checker and texts feed debug-info emission; they are consulted only
// when cfg.EmitDebugInfo is set.
func New(db *queryengine.Database, translator *coreexpr.Translator, checker *typecheck.Checker, texts *sourcetext.Store, cfg settings.Settings) *Compiler {
	return &Compiler{
		db:         db,
		translator: translator,
		checker:    checker,
		texts:      texts,
		settings:   cfg,
		last:       make(map[string]lastCompile),
	}
}

// CompiledModule runs the query as a root entry point.
func (c *Compiler) CompiledModule(module string) *Result {
	val, _ := c.db.Get(QueryCompiledModule, module, c.query(module))
	return val.(*Result)
}

// CallCompiledModule is the ctx.Call-scoped variant used by global(),
// which must record compiled_module as one of its own dependencies.
func (c *Compiler) CallCompiledModule(ctx *queryengine.Context, module string) *Result {
	val, _ := ctx.Call(QueryCompiledModule, module, c.query(module))
	return val.(*Result)
}

func (c *Compiler) query(module string) queryengine.ComputeFunc {
	return func(ctx *queryengine.Context) (interface{}, error) {
		core := c.translator.CallCoreExpr(ctx, module)
		if core.Err != nil {
			return &Result{Err: core.Err}, nil
		}
		if core.Global == nil {
			return &Result{Err: fmt.Errorf("%s: bytecode: %s: core_expr produced no global", errors.BYT001, module)}, nil
		}

		// The digest ignores source positions, so a comment-only edit
		// leaves it unchanged; with debug info on, the file map must
		// still be rebuilt, so reuse is skipped entirely.
		if core.Digest != "" && !c.settings.EmitDebugInfo {
			c.mu.Lock()
			prev, ok := c.last[module]
			c.mu.Unlock()
			if ok && prev.digest == core.Digest {
				return prev.result, nil
			}
		}

		res := &Result{Thunk: vm.NewGlobalThunk("@"+module, core.Global)}

		if c.settings.EmitDebugInfo {
			// Record typechecked_module as a dependency even though only
			// the file map is consumed: a source edit that shifts spans
			// must re-emit debug info.
			c.checker.CallTypecheckedModule(ctx, module)
			fm, err := c.texts.CallFileMap(ctx, module)
			if err != nil {
				return &Result{Err: err}, nil
			}
			res.FileMap = fm
		}

		c.mu.Lock()
		c.last[module] = lastCompile{digest: core.Digest, result: res}
		c.mu.Unlock()
		return res, nil
	}
}
