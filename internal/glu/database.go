// Package glu wires the query-engine families (module text,
// typecheck, core translation, bytecode, global evaluation, externs)
// into a single handle: one Database per compilation session, shared
// across every query family, owning the one writable
// queryengine.Database underneath them all.
//
// Nothing in this package adds new compiler behavior; it only
// assembles the already-independent query packages along the pull
// path: a request for a module's runtime value forces global ->
// bytecode -> core -> typecheck -> text, each step memoized by the
// shared queryengine.Database.
package glu

import (
	"github.com/glu-lang/core/internal/bytecode"
	"github.com/glu-lang/core/internal/coreexpr"
	"github.com/glu-lang/core/internal/envview"
	"github.com/glu-lang/core/internal/extern"
	"github.com/glu-lang/core/internal/global"
	"github.com/glu-lang/core/internal/importer"
	"github.com/glu-lang/core/internal/queryengine"
	"github.com/glu-lang/core/internal/settings"
	"github.com/glu-lang/core/internal/sourcetext"
	"github.com/glu-lang/core/internal/typecheck"
	"github.com/glu-lang/core/internal/vm"
)

// Database is the public entry point for a compilation session: the
// composed query families, each built over
// the same underlying queryengine.Database so their caches and
// revision clock are genuinely shared.
type Database struct {
	Engine     *queryengine.Database
	Texts      *sourcetext.Store
	Checker    *typecheck.Checker
	Translator *coreexpr.Translator
	Compiler   *bytecode.Compiler
	Externs    *extern.Registry
	Eval       *global.Evaluator
	Settings   settings.Settings
}

// New assembles a fresh Database. imp resolves any module name not
// covered by an inline AddModule or an extern loader.
func New(cfg settings.Settings, imp importer.Importer) *Database {
	engine := queryengine.New()
	texts := sourcetext.New(engine, imp)
	checker := typecheck.New(engine, texts)
	translator := coreexpr.New(engine, checker, cfg)
	compiler := bytecode.New(engine, translator, checker, texts, cfg)
	externs := extern.NewRegistry()
	ev := global.New(engine, texts, checker, compiler, externs, cfg)

	return &Database{
		Engine:     engine,
		Texts:      texts,
		Checker:    checker,
		Translator: translator,
		Compiler:   compiler,
		Externs:    externs,
		Eval:       ev,
		Settings:   cfg,
	}
}

// AddModule is the public add_module(module, text) operation: write or update the inline source override.
func (d *Database) AddModule(module, text string) error {
	return d.Texts.AddModule(module, text)
}

// RemoveModule deletes an inline override, falling back to whatever
// the importer resolves for module.
func (d *Database) RemoveModule(module string) {
	d.Texts.RemoveModule(module)
}

// RegisterExternLoader installs a host-provided loader for module.
func (d *Database) RegisterExternLoader(module string, loader extern.Loader) {
	d.Externs.Register(module, loader)
}

// Global forces global(module): the public,
// root-entry-point wrapper that re-roots the cached unrooted value
// against the Database's own VM handle on every call.
func (d *Database) Global(module string) *global.Result {
	return d.Eval.Global(module)
}

// TypecheckedModule forces typechecked_module(module) directly,
// bypassing global/bytecode — used by IDE-style tooling that wants a
// typed AST without compiling or running anything.
func (d *Database) TypecheckedModule(module string) *typecheck.Result {
	return d.Checker.TypecheckedModule(module)
}

// CoreExpr forces core_expr(module) directly.
func (d *Database) CoreExpr(module string) *coreexpr.Result {
	return d.Translator.CoreExpr(module)
}

// CompiledModule forces compiled_module(module) directly.
func (d *Database) CompiledModule(module string) *bytecode.Result {
	return d.Compiler.CompiledModule(module)
}

// EnvView builds the read-only environment facade
// scoped to self; pass "" for tooling lookups not tied to a module
// under compilation.
func (d *Database) EnvView(self string) *envview.View {
	return envview.New(nil, d.Engine, self)
}

// GetBinding resolves a nested field path such as "data.store.get"
// through already-computed module globals, never forcing a query.
// Errors are returned, not cached.
func (d *Database) GetBinding(dotted string) (vm.Value, string, error) {
	return d.EnvView("").GetBinding(d.Eval, dotted)
}

// Snapshot returns a read-only view sharing this Database's cache,
// usable from another goroutine.
func (d *Database) Snapshot() *queryengine.View {
	return d.Engine.Snapshot()
}

// Sweep evicts cached entries per strategy.
func (d *Database) Sweep(strategy queryengine.SweepStrategy) {
	d.Engine.Sweep(strategy)
}
