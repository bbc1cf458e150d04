package vm

import (
	"fmt"

	"github.com/glu-lang/core/internal/coreir"
	"github.com/glu-lang/core/internal/errors"
)

// Thunk is the result of "compiling" a core expression: a top-level
// closure identified by its resolved `@module` symbol, not yet
// called. It carries its own arena
// because the thunk may outlive the translator invocation that
// produced it.
type Thunk struct {
	Name  string
	Arena *coreir.Arena
	Value coreir.ExprID
}

// NewGlobalThunk wraps a frozen Global as a thunk named by the
// resolved module symbol, standing in for the external VM's
// `new_global_thunk(function) → closure`.
func NewGlobalThunk(name string, global *coreir.Global) *Thunk {
	return &Thunk{Name: name, Arena: global.Arena, Value: global.Value}
}

// CallThunk runs a thunk to completion, standing in for the external
// VM's `call_thunk(closure) → value`. resolver, if non-nil, satisfies
// free identifiers naming another module's global through import().
func CallThunk(t *Thunk, resolver Resolver) (Value, error) {
	v, err := Eval(t.Arena, t.Value, NewEnv(), resolver)
	if err != nil {
		return nil, fmt.Errorf("%s: thunk %s: %w", errors.VMR001, t.Name, err)
	}
	return v, nil
}

// DeepClone copies v into fresh Go values, severing any reference into
// compilation-time scratch state before a value is cached as an
// unrooted global. ClosureValue is left
// un-cloned: a closure's Body/Arena are immutable once frozen, and its
// Env chain is already built entirely from values this function
// clones, so copying it would only duplicate already-immutable arena
// references for no benefit.
func DeepClone(v Value) Value {
	switch x := v.(type) {
	case *IntValue:
		return &IntValue{Value: x.Value}
	case *FloatValue:
		return &FloatValue{Value: x.Value}
	case *StringValue:
		return &StringValue{Value: x.Value}
	case *BoolValue:
		return &BoolValue{Value: x.Value}
	case *UnitValue:
		return &UnitValue{}
	case *ListValue:
		elems := make([]Value, len(x.Elements))
		for i, e := range x.Elements {
			elems[i] = DeepClone(e)
		}
		return &ListValue{Elements: elems}
	case *RecordValue:
		fields := make(map[string]Value, len(x.Fields))
		for k, f := range x.Fields {
			fields[k] = DeepClone(f)
		}
		return &RecordValue{Order: append([]string{}, x.Order...), Fields: fields}
	case *DataValue:
		fields := make([]Value, len(x.Fields))
		for i, f := range x.Fields {
			fields[i] = DeepClone(f)
		}
		return &DataValue{Ctor: x.Ctor, Fields: fields}
	default:
		return v
	}
}

// Unrooted is a value detached from any GC root: safe to hold in the
// query cache across snapshots, but not directly usable until rooted.
// The only way to obtain a Value from an Unrooted is RootValue.
type Unrooted struct {
	value Value
}

// NewUnrooted wraps a freshly deep-cloned value for caching.
func NewUnrooted(v Value) *Unrooted {
	return &Unrooted{value: v}
}

// Rooted is a value pinned to a VM handle's reachability set, safe to
// use directly. The only way to obtain one is RootValue; the only way
// to release it is Unroot.
type Rooted struct {
	value Value
}

// RootValue pins u against the given VM handle, standing in for the
// external VM's `root_value(variant) → rooted`. This
// implementation has no real garbage collector to register against,
// so handle is accepted only to keep the two-state ownership
// discipline explicit at call sites: every Rooted in this
// codebase was produced from a real VM handle, never conjured
// directly from a Value.
func RootValue(handle *Handle, u *Unrooted) *Rooted {
	_ = handle
	return &Rooted{value: u.value}
}

// Unroot releases a Rooted back to cacheable form, standing in for the
// external VM's `unroot(rooted)`.
func Unroot(r *Rooted) *Unrooted {
	return &Unrooted{value: r.value}
}

// Value returns the Rooted's underlying value for direct use.
func (r *Rooted) Value() Value { return r.value }

// Value returns the Unrooted's underlying value. Exported so callers
// that already hold a suitable VM handle in scope (global()'s
// re-rooting path) can inspect an unrooted value's shape before
// deciding whether re-rooting is even necessary; it never substitutes
// for calling RootValue at the point a value crosses back out to a
// caller.
func (u *Unrooted) Value() Value { return u.value }

// Handle stands in for a live VM handle: the capability required to
// root a value. This core never constructs a real VM, so Handle carries no
// state; its only purpose is to make RootValue's signature honest
// about needing one.
type Handle struct{}

// NewHandle returns a fresh VM handle.
func NewHandle() *Handle { return &Handle{} }
