// Package global implements global_inner, global and import: the query family that forces a module's thunk to a value,
// wires extern loaders in, and performs the garbage-collection sweep
// that drops now-unneeded text/typecheck/core/bytecode intermediates
// once a module's global exists. Cycle recovery rides the query
// engine's recovery-callback mechanism (internal/queryengine/cycle.go)
// rather than a bespoke load stack.
package global

import (
	"fmt"
	"strings"

	"github.com/glu-lang/core/internal/bytecode"
	"github.com/glu-lang/core/internal/errors"
	"github.com/glu-lang/core/internal/extern"
	"github.com/glu-lang/core/internal/queryengine"
	"github.com/glu-lang/core/internal/settings"
	"github.com/glu-lang/core/internal/sourcetext"
	"github.com/glu-lang/core/internal/typecheck"
	"github.com/glu-lang/core/internal/types"
	"github.com/glu-lang/core/internal/vm"
)

// QueryGlobalInner is the query-engine family name for global_inner:
// the forced evaluation of a module's thunk, whose unrooted result the
// query engine caches.
const QueryGlobalInner queryengine.QueryID = "global_inner"

// QueryImport is the query-engine family name for import. The
// cyclic-dependency error reports only import-related participants,
// which this engine satisfies by filtering recovered cycle stacks to
// this family's keys.
const QueryImport queryengine.QueryID = "import"

// CyclicDependency is the error every participant of a cyclic import
// graph observes.
type CyclicDependency struct {
	Requested    string
	Participants []string
}

func (e *CyclicDependency) Error() string {
	return fmt.Sprintf("%s: cyclic dependency requesting %s: %s", errors.QE001, e.Requested, strings.Join(e.Participants, " -> "))
}

// innerResult is what global_inner produces and the query engine
// caches: the module's unrooted value and resolved type, or an error
// from any stage of the pipeline. It never escapes this package:
// every caller outside global_inner's own recursion sees a rooted
// Result instead, so rooting stays centralized at Global.
type innerResult struct {
	Value    *vm.Unrooted
	Type     string
	Metadata map[string]string
	Err      error
}

// Result is what the public global(module) produces: the module's
// value, re-rooted against the Evaluator's own VM handle on each
// call, or an error from any stage of the pipeline.
type Result struct {
	Value *vm.Rooted
	Type  string
	Err   error
}

// Evaluator runs global_inner(module), global(module) and
// import(module).
type Evaluator struct {
	db       *queryengine.Database
	texts    *sourcetext.Store
	checker  *typecheck.Checker
	compiler *bytecode.Compiler
	externs  *extern.Registry
	handle   *vm.Handle
	settings settings.Settings
}

// New builds an Evaluator. externs may be nil if this program
// registers no extern loaders.
func New(db *queryengine.Database, texts *sourcetext.Store, checker *typecheck.Checker, compiler *bytecode.Compiler, externs *extern.Registry, cfg settings.Settings) *Evaluator {
	ev := &Evaluator{db: db, texts: texts, checker: checker, compiler: compiler, externs: externs, handle: vm.NewHandle(), settings: cfg}
	// A cyclic import graph can close the call stack on either query
	// family: two modules whose loaders each depend on the other
	// alternate Import(a) -> GlobalInner(b) -> Import(b) ->
	// GlobalInner(a), so the re-entrant key that trips cycle detection
	// is GlobalInner(a), not Import(a). Both families must recover the
	// same way so every participant sees CyclicDependency regardless of
	// which one the engine happens to re-enter first.
	db.SetRecovery(QueryImport, ev.recoverCycle)
	db.SetRecovery(QueryGlobalInner, ev.recoverCycle)
	return ev
}

func (ev *Evaluator) recoverCycle(participants []queryengine.Key) (interface{}, error) {
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.Query != QueryImport {
			continue
		}
		names = append(names, cleanModuleName(p.Args))
	}
	// When the cycle closes on a global_inner key, the stack begins
	// with the requested module's own frame and its import() shows up
	// last; rotating that import to the front restores discovery order
	// starting from the requested module. A cycle closed on an import
	// key already starts at the right place.
	if len(names) > 1 && participants[0].Query != QueryImport {
		names = append([]string{names[len(names)-1]}, names[:len(names)-1]...)
	}
	requested := ""
	if len(names) > 0 {
		requested = names[0]
	}
	err := &CyclicDependency{Requested: requested, Participants: names}
	return &innerResult{Err: err}, nil
}

func cleanModuleName(args string) string {
	args = strings.TrimPrefix(args, "@")
	return strings.Trim(args, `"`)
}

// Global runs global_inner(module) as a root entry point and re-roots
// the cached unrooted value against this Evaluator's VM handle on
// every call: the cache behind it
// never gives a caller anything but a freshly-rooted Result.
func (ev *Evaluator) Global(module string) *Result {
	val, _ := ev.db.Get(QueryGlobalInner, module, ev.queryGlobalInner(module))
	res := val.(*innerResult)
	if res.Err != nil || res.Value == nil {
		return &Result{Type: res.Type, Err: res.Err}
	}
	return &Result{Value: vm.RootValue(ev.handle, res.Value), Type: res.Type}
}

// PeekGlobal returns module's already-computed global value and type
// without forcing any query and without recording a dependency — the
// peek the environment view builds find_var, find_type
// and get_binding on. The returned value is rooted against this
// Evaluator's handle before it escapes, same as Global.
func (ev *Evaluator) PeekGlobal(module string) (*vm.Rooted, string, bool) {
	val, qerr, ok := ev.db.Peek(QueryGlobalInner, module)
	if !ok || qerr != nil {
		return nil, "", false
	}
	res, ok := val.(*innerResult)
	if !ok || res.Err != nil || res.Value == nil {
		return nil, "", false
	}
	return vm.RootValue(ev.handle, res.Value), res.Type, true
}

// PeekMetadata returns module's cached metadata, if its global has
// already been computed.
func (ev *Evaluator) PeekMetadata(module string) (map[string]string, bool) {
	val, qerr, ok := ev.db.Peek(QueryGlobalInner, module)
	if !ok || qerr != nil {
		return nil, false
	}
	res, ok := val.(*innerResult)
	if !ok || res.Err != nil {
		return nil, false
	}
	return res.Metadata, true
}

// IsExtern reports whether module is backed by a registered extern
// loader rather than compiled source.
func (ev *Evaluator) IsExtern(module string) bool {
	if ev.externs == nil {
		return false
	}
	_, ok := ev.externs.Lookup(module)
	return ok
}

// Root is a synonym for Global kept for call sites that want the
// rooted value and type as separate return values rather than a
// Result struct.
func (ev *Evaluator) Root(module string) (*vm.Rooted, string, error) {
	res := ev.Global(module)
	if res.Err != nil {
		return nil, "", res.Err
	}
	return res.Value, res.Type, nil
}

func (ev *Evaluator) queryGlobalInner(module string) queryengine.ComputeFunc {
	return func(ctx *queryengine.Context) (interface{}, error) {
		if ev.externs != nil {
			if loader, ok := ev.externs.Lookup(module); ok {
				return ev.loadExtern(ctx, module, loader), nil
			}
		}

		typed := ev.checker.CallTypecheckedModule(ctx, module)

		// Force every source-level import as a dependency edge before
		// looking at this module's own outcome: a cyclic import graph
		// must surface CyclicDependency to every participant, not the
		// unbound-symbol error the cycle causes downstream. Imports are
		// available as soon as the module parses, even when it does not
		// typecheck.
		for _, dep := range typed.Imports {
			if _, _, err := ev.CallImport(ctx, dep); err != nil {
				return &innerResult{Err: err}, nil
			}
		}

		if typed.Err != nil {
			return &innerResult{Err: typed.Err}, nil
		}

		compiled := ev.compiler.CallCompiledModule(ctx, module)
		if compiled.Err != nil {
			return &innerResult{Err: compiled.Err}, nil
		}

		moduleType := "<unknown>"
		var lastDecl interface{ GetEffectRow() interface{} }
		if typed.Program != nil && len(typed.Program.Decls) > 0 {
			last := typed.Program.Decls[len(typed.Program.Decls)-1]
			moduleType = typedastFormatType(last.GetType())
			lastDecl = last
		}

		resolver := &importResolver{ctx: ctx, ev: ev, self: module}
		value, err := vm.CallThunk(compiled.Thunk, resolver)
		if err != nil {
			return &innerResult{Err: fmt.Errorf("%s: %w", errors.GLB001, err)}, nil
		}

		if ev.settings.RunIO && lastDecl != nil && effectRowHasIO(lastDecl.GetEffectRow()) {
			out, ran, err := vm.RunIOAction(value, resolver)
			if err != nil {
				return &innerResult{Err: fmt.Errorf("%s: %w", errors.GLB001, err)}, nil
			}
			if ran {
				value = out
			}
		}

		return &innerResult{Value: vm.NewUnrooted(vm.DeepClone(value)), Type: moduleType, Metadata: declMetadata(typed)}, nil
	}
}

// effectRowHasIO reports whether a declaration's effect row places the
// module's type in the IO effect.
func effectRowHasIO(row interface{}) bool {
	r, ok := row.(*types.Row)
	if !ok || r == nil {
		return false
	}
	_, ok = r.Labels["IO"]
	return ok
}

// declMetadata flattens the elaborator's per-declaration metadata into
// the string map the environment view's get_metadata exposes.
func declMetadata(typed *typecheck.Result) map[string]string {
	if typed == nil || len(typed.Meta) == 0 {
		return nil
	}
	out := make(map[string]string, len(typed.Meta))
	for name, meta := range typed.Meta {
		if meta == nil {
			continue
		}
		out[name] = fmt.Sprintf("export=%t pure=%t", meta.IsExport, meta.IsPure)
	}
	return out
}

func (ev *Evaluator) loadExtern(ctx *queryengine.Context, module string, loader extern.Loader) *innerResult {
	deps := make(map[string]vm.Value, len(loader.Dependencies()))
	for _, dep := range loader.Dependencies() {
		_, v, err := ev.CallImport(ctx, dep)
		if err != nil {
			return &innerResult{Err: err}
		}
		deps[dep] = v
	}
	mod, err := loader.Load(deps)
	if err != nil {
		return &innerResult{Err: fmt.Errorf("%s: extern %s: %w", errors.GLB002, module, err)}
	}
	return &innerResult{Value: vm.NewUnrooted(vm.DeepClone(mod.Value)), Type: mod.Type, Metadata: mod.Metadata}
}

// CallImport runs import(module) scoped under ctx, recording it as a
// dependency of the query currently executing and participating in
// cycle detection for the QueryImport family. It returns the resolved
// "@module" identifier and the module's value, usable directly for the
// duration of this call.
func (ev *Evaluator) CallImport(ctx *queryengine.Context, module string) (string, vm.Value, error) {
	val, _ := ctx.Call(QueryImport, module, ev.queryImport(module))
	res := val.(*innerResult)
	if res.Err != nil {
		return "", nil, res.Err
	}
	return "@" + module, res.Value.Value(), nil
}

func (ev *Evaluator) queryImport(module string) queryengine.ComputeFunc {
	return func(ctx *queryengine.Context) (interface{}, error) {
		inner, _ := ctx.Call(QueryGlobalInner, module, ev.queryGlobalInner(module))
		res := inner.(*innerResult)
		if res.Err != nil {
			return res, nil
		}

		ev.db.Sweep(queryengine.SweepStrategy{
			DiscardValues: true,
			Queries: []queryengine.QueryID{
				sourcetext.QueryModuleText,
				typecheck.QueryTypecheckedModule,
				// core_expr and compiled_module are named by their
				// family-name literals, the values of coreexpr.QueryCoreExpr
				// and bytecode.QueryCompiledModule.
				"core_expr",
				"compiled_module",
			},
		})
		return res, nil
	}
}

// importResolver adapts Evaluator.CallImport to vm.Resolver, so a
// thunk's free identifiers naming another module's global are resolved
// through the query engine rather than failing outright.
type importResolver struct {
	ctx  *queryengine.Context
	ev   *Evaluator
	self string
}

func (r *importResolver) Resolve(name string) (vm.Value, error) {
	module, ok := splitModuleIdent(name)
	if !ok {
		return nil, fmt.Errorf("%s: vm: unbound identifier %q", errors.VMR001, name)
	}
	_, v, err := r.ev.CallImport(r.ctx, module)
	return v, err
}

// splitModuleIdent parses a resolved "@module.path.name" identifier
// down to its module, mirroring envview.SplitSymbol without importing
// envview.
func splitModuleIdent(symbol string) (module string, ok bool) {
	symbol = strings.TrimPrefix(symbol, "@")
	symbol = strings.Trim(symbol, `"`)
	idx := strings.LastIndex(symbol, ".")
	if idx < 0 {
		return "", false
	}
	return symbol[:idx], true
}

// typedastFormatType mirrors typedast.FormatType without importing the
// typedast package into this file's public surface beyond what
// Evaluator already needs — kept local since Result.Type is just a
// display string, not a structured type.
func typedastFormatType(t interface{}) string {
	if t == nil {
		return "<unknown>"
	}
	if s, ok := t.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", t)
}
