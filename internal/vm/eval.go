package vm

import (
	"fmt"

	"github.com/glu-lang/core/internal/coreir"
	"github.com/glu-lang/core/internal/errors"
)

// Resolver looks up a free identifier the evaluator cannot find in its
// local environment — a reference to another module's global,
// resolved through import(). A Thunk built without a
// Resolver simply fails with an unbound-identifier error for any name
// outside its own arena, which is sufficient for single-module
// evaluation.
type Resolver interface {
	Resolve(module string) (Value, error)
}

// evalCtx threads the arena and resolver through a single evaluation,
// so recursive calls never need to re-thread them as explicit
// parameters.
type evalCtx struct {
	arena    *coreir.Arena
	resolver Resolver
}

// Eval evaluates the expression at id within env, using arena to
// resolve node contents and resolver (optional) to satisfy free
// identifiers that name another module's global.
func Eval(arena *coreir.Arena, id coreir.ExprID, env *Env, resolver Resolver) (Value, error) {
	c := &evalCtx{arena: arena, resolver: resolver}
	return c.eval(id, env)
}

func (c *evalCtx) eval(id coreir.ExprID, env *Env) (Value, error) {
	n := c.arena.Node(id)
	switch n.Kind {
	case coreir.KConst:
		return constValue(n.ConstValue), nil

	case coreir.KIdent:
		return c.resolveIdent(n.IdentName, env)

	case coreir.KData:
		return c.evalData(n, env)

	case coreir.KCall:
		return c.evalCall(n, env)

	case coreir.KLet:
		return c.evalLet(n, env)

	case coreir.KMatch:
		return c.evalMatch(n, env)

	case coreir.KCast:
		return c.eval(n.CastExpr, env)

	default:
		return nil, fmt.Errorf("%s: vm: unsupported core node %s (dictionary-passing evaluation is not implemented)", errors.VMR001, n.Kind)
	}
}

// RunIOAction forces a suspended IO action: a nullary closure produced
// by evaluating a module whose type lives in the IO effect. Values that are not nullary closures are returned
// unchanged with ran=false, so callers can apply this unconditionally.
func RunIOAction(v Value, resolver Resolver) (Value, bool, error) {
	closure, ok := v.(*ClosureValue)
	if !ok || len(closure.Args) != 0 {
		return v, false, nil
	}
	c := &evalCtx{arena: closure.Arena, resolver: resolver}
	out, err := c.eval(closure.Body, closure.Env)
	if err != nil {
		return nil, true, err
	}
	return out, true, nil
}

func constValue(v interface{}) Value {
	switch x := v.(type) {
	case int:
		return &IntValue{Value: x}
	case int64:
		return &IntValue{Value: int(x)}
	case float64:
		return &FloatValue{Value: x}
	case string:
		return &StringValue{Value: x}
	case bool:
		return &BoolValue{Value: x}
	case nil:
		return &UnitValue{}
	default:
		return &StringValue{Value: fmt.Sprintf("%v", x)}
	}
}

func (c *evalCtx) resolveIdent(name string, env *Env) (Value, error) {
	if v, ok := env.Get(name); ok {
		return v, nil
	}
	if c.resolver != nil {
		if v, err := c.resolver.Resolve(name); err == nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%s: vm: unbound identifier %q", errors.VMR001, name)
}

func (c *evalCtx) evalData(n coreir.Expr, env *Env) (Value, error) {
	switch {
	case n.Ctor == "Record":
		fields := make(map[string]Value, len(n.Fields))
		for i, name := range n.DataOrder {
			v, err := c.eval(n.Fields[i], env)
			if err != nil {
				return nil, err
			}
			fields[name] = v
		}
		return &RecordValue{Order: append([]string{}, n.DataOrder...), Fields: fields}, nil

	case n.Ctor == "Nil" && n.DataType == "List":
		return &ListValue{}, nil

	case n.Ctor == "Cons" && n.DataType == "List":
		head, err := c.eval(n.Fields[0], env)
		if err != nil {
			return nil, err
		}
		tailVal, err := c.eval(n.Fields[1], env)
		if err != nil {
			return nil, err
		}
		tail, ok := tailVal.(*ListValue)
		if !ok {
			return nil, fmt.Errorf("%s: vm: Cons tail is not a list", errors.VMR001)
		}
		elems := append([]Value{head}, tail.Elements...)
		return &ListValue{Elements: elems}, nil

	default:
		fields := make([]Value, len(n.Fields))
		for i, f := range n.Fields {
			v, err := c.eval(f, env)
			if err != nil {
				return nil, err
			}
			fields[i] = v
		}
		return &DataValue{Ctor: n.Ctor, Fields: fields}, nil
	}
}

func (c *evalCtx) evalLet(n coreir.Expr, env *Env) (Value, error) {
	if n.Binding.Kind == coreir.BindExpr {
		v, err := c.eval(n.Binding.Expr, env)
		if err != nil {
			return nil, err
		}
		return c.eval(n.Body, env.Extend(n.Binding.Name, v))
	}

	// Recursive group: tie the knot by creating the closures' shared
	// environment first, then pointing each ClosureValue's Env at it
	// before any closure is actually called.
	child := env.Child()
	for _, cl := range n.Binding.Closures {
		child.Set(cl.Name, &ClosureValue{Name: cl.Name, Args: cl.Args, Body: cl.Body, Env: child, Arena: c.arena})
	}
	return c.eval(n.Body, child)
}

func (c *evalCtx) evalCall(n coreir.Expr, env *Env) (Value, error) {
	fnNode := c.arena.Node(n.Fn)
	if fnNode.Kind == coreir.KIdent {
		if isPrimitive(fnNode.IdentName) {
			args, err := c.evalArgs(n.Args, env)
			if err != nil {
				return nil, err
			}
			return applyPrimitive(fnNode.IdentName, args)
		}
		if isFieldProjection(fnNode.IdentName) {
			args, err := c.evalArgs(n.Args, env)
			if err != nil {
				return nil, err
			}
			return projectField(fnNode.IdentName, args)
		}
	}

	fnVal, err := c.eval(n.Fn, env)
	if err != nil {
		return nil, err
	}
	closure, ok := fnVal.(*ClosureValue)
	if !ok {
		return nil, fmt.Errorf("%s: vm: call target is not a function (%s)", errors.VMR001, fnVal.Type())
	}
	args, err := c.evalArgs(n.Args, env)
	if err != nil {
		return nil, err
	}
	if len(args) != len(closure.Args) {
		return nil, fmt.Errorf("%s: vm: %s expects %d args, got %d", errors.VMR001, closure.Name, len(closure.Args), len(args))
	}
	callEnv := closure.Env
	for i, p := range closure.Args {
		callEnv = callEnv.Extend(p, args[i])
	}
	callCtx := &evalCtx{arena: closure.Arena, resolver: c.resolver}
	return callCtx.eval(closure.Body, callEnv)
}

func (c *evalCtx) evalArgs(ids []coreir.ExprID, env *Env) ([]Value, error) {
	args := make([]Value, len(ids))
	for i, id := range ids {
		v, err := c.eval(id, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (c *evalCtx) evalMatch(n coreir.Expr, env *Env) (Value, error) {
	scrutinee, err := c.eval(n.Scrutinee, env)
	if err != nil {
		return nil, err
	}
	for _, alt := range n.Alternatives {
		bound, ok := matchPattern(alt.Pattern, scrutinee)
		if !ok {
			continue
		}
		matchEnv := env
		for name, v := range bound {
			matchEnv = matchEnv.Extend(name, v)
		}
		return c.eval(alt.Body, matchEnv)
	}
	return nil, fmt.Errorf("%s: vm: non-exhaustive match at runtime", errors.VMR001)
}

func matchPattern(p coreir.Pattern, v Value) (map[string]Value, bool) {
	switch p.Kind {
	case coreir.PIdent:
		if p.Name == "_" {
			return map[string]Value{}, true
		}
		return map[string]Value{p.Name: v}, true

	case coreir.PLiteral:
		return matchLiteral(p.Value, v)

	case coreir.PConstructor:
		return matchConstructor(p, v)

	case coreir.PRecord:
		rec, ok := v.(*RecordValue)
		if !ok {
			return nil, false
		}
		bound := map[string]Value{}
		for _, fp := range p.RecordFields {
			fv, ok := rec.Fields[fp.Name]
			if !ok {
				return nil, false
			}
			sub, ok := matchPattern(fp.Pattern, fv)
			if !ok {
				return nil, false
			}
			for k, v := range sub {
				bound[k] = v
			}
		}
		return bound, true

	default:
		return nil, false
	}
}

func matchLiteral(want interface{}, v Value) (map[string]Value, bool) {
	switch want := want.(type) {
	case bool:
		bv, ok := v.(*BoolValue)
		return map[string]Value{}, ok && bv.Value == want
	case int:
		iv, ok := v.(*IntValue)
		return map[string]Value{}, ok && iv.Value == want
	case float64:
		fv, ok := v.(*FloatValue)
		return map[string]Value{}, ok && fv.Value == want
	case string:
		sv, ok := v.(*StringValue)
		return map[string]Value{}, ok && sv.Value == want
	default:
		return map[string]Value{}, false
	}
}

func matchConstructor(p coreir.Pattern, v Value) (map[string]Value, bool) {
	var ctor string
	var fields []Value
	switch d := v.(type) {
	case *ListValue:
		if p.Ctor == "Nil" {
			ctor, fields = "Nil", nil
		} else if p.Ctor == "Cons" && len(d.Elements) > 0 {
			ctor = "Cons"
			fields = []Value{d.Elements[0], &ListValue{Elements: d.Elements[1:]}}
		} else {
			return nil, false
		}
	case *DataValue:
		ctor, fields = d.Ctor, d.Fields
	default:
		return nil, false
	}
	if ctor != p.Ctor || len(fields) != len(p.Fields) {
		return nil, false
	}
	bound := map[string]Value{}
	for i, sub := range p.Fields {
		fb, ok := matchPattern(sub, fields[i])
		if !ok {
			return nil, false
		}
		for k, v := range fb {
			bound[k] = v
		}
	}
	return bound, true
}
