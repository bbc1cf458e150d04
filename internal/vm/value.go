// Package vm implements the runtime values and evaluator that stand
// in for an external bytecode compiler and virtual machine
// (`compile`, `new_global_thunk`, `call_thunk`, `deep_clone`,
// `root_value`, `unroot`). The core itself
// never inspects a bytecode format; it only needs something that turns
// a frozen coreir expression into a callable thunk and back into a
// value, so this package plays that role directly: a small tree-
// walking interpreter over coreir, in the same Value-interface style
// as internal/eval/value.go.
package vm

import (
	"fmt"
	"strings"

	"github.com/glu-lang/core/internal/coreir"
)

// Value is a runtime value produced by evaluating a coreir expression.
type Value interface {
	Type() string
	String() string
}

// IntValue is an integer value.
type IntValue struct{ Value int }

func (v *IntValue) Type() string   { return "int" }
func (v *IntValue) String() string { return fmt.Sprintf("%d", v.Value) }

// FloatValue is a floating-point value.
type FloatValue struct{ Value float64 }

func (v *FloatValue) Type() string   { return "float" }
func (v *FloatValue) String() string { return fmt.Sprintf("%g", v.Value) }

// StringValue is a string value.
type StringValue struct{ Value string }

func (v *StringValue) Type() string   { return "string" }
func (v *StringValue) String() string { return v.Value }

// BoolValue is a boolean value.
type BoolValue struct{ Value bool }

func (v *BoolValue) Type() string { return "bool" }
func (v *BoolValue) String() string {
	if v.Value {
		return "true"
	}
	return "false"
}

// UnitValue is the unit value.
type UnitValue struct{}

func (v *UnitValue) Type() string   { return "unit" }
func (v *UnitValue) String() string { return "()" }

// ListValue is a cons-list materialized into a Go slice for ease of
// inspection; Cons/Nil data nodes are converted to and from this shape
// at evaluation time (see eval.go).
type ListValue struct{ Elements []Value }

func (v *ListValue) Type() string { return "list" }
func (v *ListValue) String() string {
	parts := make([]string, len(v.Elements))
	for i, e := range v.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// RecordValue is a record value: named fields in declaration order.
type RecordValue struct {
	Order  []string
	Fields map[string]Value
}

func (v *RecordValue) Type() string { return "record" }
func (v *RecordValue) String() string {
	parts := make([]string, len(v.Order))
	for i, name := range v.Order {
		parts[i] = fmt.Sprintf("%s: %s", name, v.Fields[name].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// DataValue is a constructor application of a user-defined ADT other
// than the built-in Record/List shapes.
type DataValue struct {
	Ctor   string
	Fields []Value
}

func (v *DataValue) Type() string { return v.Ctor }
func (v *DataValue) String() string {
	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%s(%s)", v.Ctor, strings.Join(parts, ", "))
}

// ClosureValue is a callable value: a closure's parameter list and
// body, paired with the environment it closed over. Arena is the
// frozen arena Body indexes into — a closure captured from another
// module's cached Global carries its own arena rather than the
// caller's.
type ClosureValue struct {
	Name  string
	Args  []string
	Body  coreir.ExprID
	Env   *Env
	Arena *coreir.Arena
}

func (v *ClosureValue) Type() string   { return "function" }
func (v *ClosureValue) String() string { return fmt.Sprintf("<closure %s/%d>", v.Name, len(v.Args)) }

// Env is a chained lexical environment, mirroring eval.Environment
// (internal/eval/env.go) but scoped to this package's own Value type.
type Env struct {
	values map[string]Value
	parent *Env
}

// NewEnv returns an empty root environment.
func NewEnv() *Env {
	return &Env{values: make(map[string]Value)}
}

// Child returns a new environment nested under e.
func (e *Env) Child() *Env {
	return &Env{values: make(map[string]Value), parent: e}
}

// Set binds name to value in e directly (used to tie the knot for
// recursive closures).
func (e *Env) Set(name string, value Value) {
	e.values[name] = value
}

// Extend returns a child environment with one additional binding.
func (e *Env) Extend(name string, value Value) *Env {
	child := e.Child()
	child.Set(name, value)
	return child
}

// Get looks up name through the environment chain.
func (e *Env) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.values[name]; ok {
			return v, true
		}
	}
	return nil, false
}
