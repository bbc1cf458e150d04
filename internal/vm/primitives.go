package vm

import (
	"fmt"
	"strings"

	"github.com/glu-lang/core/internal/errors"
	"github.com/glu-lang/core/internal/optimize"
)

// isPrimitive reports whether name is one of the synthetic identifiers
// the translator emits for a BinOp/UnOp, the same set the optimizer's
// constant folder treats as pure (optimize.PurePrimitives). Evaluating
// these directly, rather than looking them up as idents in env, keeps
// the VM's notion of "primitive" identical to the optimizer's.
func isPrimitive(name string) bool {
	return optimize.PurePrimitives[name]
}

func applyPrimitive(op string, args []Value) (Value, error) {
	asFloat := func(v Value) (float64, bool) {
		switch x := v.(type) {
		case *IntValue:
			return float64(x.Value), true
		case *FloatValue:
			return x.Value, true
		default:
			return 0, false
		}
	}
	bothInt := func() (int, int, bool) {
		if len(args) != 2 {
			return 0, 0, false
		}
		a, aok := args[0].(*IntValue)
		b, bok := args[1].(*IntValue)
		if !aok || !bok {
			return 0, 0, false
		}
		return a.Value, b.Value, true
	}

	switch op {
	case "$+", "$-", "$*", "$/", "$%":
		if a, b, ok := bothInt(); ok {
			switch op {
			case "$+":
				return &IntValue{Value: a + b}, nil
			case "$-":
				return &IntValue{Value: a - b}, nil
			case "$*":
				return &IntValue{Value: a * b}, nil
			case "$/":
				if b == 0 {
					return nil, fmt.Errorf("%s: vm: division by zero", errors.VMR001)
				}
				return &IntValue{Value: a / b}, nil
			case "$%":
				if b == 0 {
					return nil, fmt.Errorf("%s: vm: division by zero", errors.VMR001)
				}
				return &IntValue{Value: a % b}, nil
			}
		}
		if len(args) == 2 {
			af, aok := asFloat(args[0])
			bf, bok := asFloat(args[1])
			if aok && bok {
				switch op {
				case "$+":
					return &FloatValue{Value: af + bf}, nil
				case "$-":
					return &FloatValue{Value: af - bf}, nil
				case "$*":
					return &FloatValue{Value: af * bf}, nil
				case "$/":
					if bf == 0 {
						return nil, fmt.Errorf("%s: vm: division by zero", errors.VMR001)
					}
					return &FloatValue{Value: af / bf}, nil
				}
			}
		}
		return nil, fmt.Errorf("%s: vm: %s applied to non-numeric arguments", errors.VMR001, op)

	case "$==", "$!=", "$<", "$<=", "$>", "$>=":
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: vm: %s expects 2 arguments", errors.VMR001, op)
		}
		af, aok := asFloat(args[0])
		bf, bok := asFloat(args[1])
		if !aok || !bok {
			return nil, fmt.Errorf("%s: vm: %s applied to non-numeric arguments", errors.VMR001, op)
		}
		switch op {
		case "$==":
			return &BoolValue{Value: af == bf}, nil
		case "$!=":
			return &BoolValue{Value: af != bf}, nil
		case "$<":
			return &BoolValue{Value: af < bf}, nil
		case "$<=":
			return &BoolValue{Value: af <= bf}, nil
		case "$>":
			return &BoolValue{Value: af > bf}, nil
		case "$>=":
			return &BoolValue{Value: af >= bf}, nil
		}

	case "$&&", "$||":
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: vm: %s expects 2 arguments", errors.VMR001, op)
		}
		a, aok := args[0].(*BoolValue)
		b, bok := args[1].(*BoolValue)
		if !aok || !bok {
			return nil, fmt.Errorf("%s: vm: %s applied to non-boolean arguments", errors.VMR001, op)
		}
		if op == "$&&" {
			return &BoolValue{Value: a.Value && b.Value}, nil
		}
		return &BoolValue{Value: a.Value || b.Value}, nil

	case "$!":
		if len(args) != 1 {
			return nil, fmt.Errorf("%s: vm: $! expects 1 argument", errors.VMR001)
		}
		a, ok := args[0].(*BoolValue)
		if !ok {
			return nil, fmt.Errorf("%s: vm: $! applied to a non-boolean argument", errors.VMR001)
		}
		return &BoolValue{Value: !a.Value}, nil

	case "$neg":
		if len(args) != 1 {
			return nil, fmt.Errorf("%s: vm: $neg expects 1 argument", errors.VMR001)
		}
		if a, ok := args[0].(*IntValue); ok {
			return &IntValue{Value: -a.Value}, nil
		}
		if af, ok := asFloat(args[0]); ok {
			return &FloatValue{Value: -af}, nil
		}
		return nil, fmt.Errorf("%s: vm: $neg applied to a non-numeric argument", errors.VMR001)
	}
	return nil, fmt.Errorf("%s: vm: unknown primitive %s", errors.VMR001, op)
}

// isFieldProjection reports whether name is a "$field:X" synthetic
// identifier, the same shape the optimizer's interpreter step projects
// through known record literals (optimize/interpret.go's
// isFieldProjection). The VM applies the same projection at runtime
// against an actual RecordValue, for accesses the optimizer could not
// fold away because the record was not known statically.
func isFieldProjection(name string) bool {
	return strings.HasPrefix(name, "$field:")
}

func projectField(projName string, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s: vm: %s expects 1 argument", errors.VMR001, projName)
	}
	field := strings.TrimPrefix(projName, "$field:")
	rec, ok := args[0].(*RecordValue)
	if !ok {
		return nil, fmt.Errorf("%s: vm: %s applied to a non-record value", errors.ENV002, projName)
	}
	v, ok := rec.Fields[field]
	if !ok {
		return nil, fmt.Errorf("%s: vm: record has no field %q", errors.ENV002, field)
	}
	return v, nil
}
