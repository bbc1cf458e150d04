// Package translate lowers the typechecker's ANF core.Program into the
// frozen, arena-allocated coreir representation the optimizer and
// bytecode queries operate on.
package translate

import (
	"fmt"

	"github.com/glu-lang/core/internal/ast"
	"github.com/glu-lang/core/internal/core"
	"github.com/glu-lang/core/internal/coreir"
)

// Translator lowers one ANF core.Program into a single coreir.Builder
// arena. Each Translator is single-use: it owns a fresh arena, so two
// modules never share storage.
type Translator struct {
	b       *coreir.Builder
	freshID int
}

// New starts a translator with its own fresh arena.
func New() *Translator {
	return &Translator{b: coreir.NewBuilder()}
}

// Program translates every top-level declaration into a single body,
// sequenced as nested lets so later declarations can reference earlier
// ones by name (top-level bindings in ANF already carry their name via
// an enclosing Let/LetRec, so this mostly just chains them).
func (t *Translator) Program(prog *core.Program) (*coreir.Builder, coreir.ExprID, error) {
	if len(prog.Decls) == 0 {
		return t.b, t.b.Const(ast.Pos{}, nil), nil
	}
	var last coreir.ExprID
	for _, decl := range prog.Decls {
		id, err := t.expr(decl)
		if err != nil {
			return nil, 0, err
		}
		last = id
	}
	return t.b, last, nil
}

func (t *Translator) freshName(prefix string) string {
	t.freshID++
	return fmt.Sprintf("$%s%d", prefix, t.freshID)
}

func (t *Translator) expr(e core.CoreExpr) (coreir.ExprID, error) {
	switch n := e.(type) {
	case *core.Var:
		return t.b.Ident(n.Span(), n.Name), nil

	case *core.Lit:
		return t.b.Const(n.Span(), n.Value), nil

	case *core.Lambda:
		return t.lambdaAsClosure(n)

	case *core.Let:
		value, err := t.expr(n.Value)
		if err != nil {
			return 0, err
		}
		body, err := t.expr(n.Body)
		if err != nil {
			return 0, err
		}
		return t.b.Let(n.Span(), n.Name, value, body), nil

	case *core.LetRec:
		closures := make([]coreir.Closure, len(n.Bindings))
		for i, rb := range n.Bindings {
			cl, err := t.closure(rb.Name, rb.Value)
			if err != nil {
				return 0, err
			}
			closures[i] = cl
		}
		body, err := t.expr(n.Body)
		if err != nil {
			return 0, err
		}
		return t.b.LetRec(n.Span(), closures, body), nil

	case *core.App:
		fn, err := t.expr(n.Func)
		if err != nil {
			return 0, err
		}
		args, err := t.exprs(n.Args)
		if err != nil {
			return 0, err
		}
		return t.b.Call(n.Span(), fn, args), nil

	case *core.If:
		cond, err := t.expr(n.Cond)
		if err != nil {
			return 0, err
		}
		thenID, err := t.expr(n.Then)
		if err != nil {
			return 0, err
		}
		elseID, err := t.expr(n.Else)
		if err != nil {
			return 0, err
		}
		return t.b.Match(n.Span(), cond, []coreir.Alternative{
			{Pattern: coreir.Pattern{Kind: coreir.PLiteral, Value: true}, Body: thenID},
			{Pattern: coreir.Pattern{Kind: coreir.PLiteral, Value: false}, Body: elseID},
		}), nil

	case *core.Match:
		scrutinee, err := t.expr(n.Scrutinee)
		if err != nil {
			return 0, err
		}
		alts := make([]coreir.Alternative, len(n.Arms))
		for i, arm := range n.Arms {
			pat, err := t.pattern(arm.Pattern)
			if err != nil {
				return 0, err
			}
			body, err := t.expr(arm.Body)
			if err != nil {
				return 0, err
			}
			alts[i] = coreir.Alternative{Pattern: pat, Body: body}
		}
		return t.b.Match(n.Span(), scrutinee, alts), nil

	case *core.BinOp:
		left, err := t.expr(n.Left)
		if err != nil {
			return 0, err
		}
		right, err := t.expr(n.Right)
		if err != nil {
			return 0, err
		}
		op := t.b.Ident(n.Span(), "$"+n.Op)
		return t.b.Call(n.Span(), op, []coreir.ExprID{left, right}), nil

	case *core.UnOp:
		operand, err := t.expr(n.Operand)
		if err != nil {
			return 0, err
		}
		op := t.b.Ident(n.Span(), "$"+n.Op)
		return t.b.Call(n.Span(), op, []coreir.ExprID{operand}), nil

	case *core.Record:
		names := make([]string, 0, len(n.Fields))
		for name := range n.Fields {
			names = append(names, name)
		}
		sortStrings(names)
		fields := make([]coreir.ExprID, len(names))
		for i, name := range names {
			id, err := t.expr(n.Fields[name])
			if err != nil {
				return 0, err
			}
			fields[i] = id
		}
		return t.b.Data(n.Span(), "Record", "Record", names, fields), nil

	case *core.RecordAccess:
		rec, err := t.expr(n.Record)
		if err != nil {
			return 0, err
		}
		proj := t.b.Ident(n.Span(), "$field:"+n.Field)
		return t.b.Call(n.Span(), proj, []coreir.ExprID{rec}), nil

	case *core.List:
		tail := t.b.Data(n.Span(), "Nil", "List", nil, nil)
		for i := len(n.Elements) - 1; i >= 0; i-- {
			head, err := t.expr(n.Elements[i])
			if err != nil {
				return 0, err
			}
			tail = t.b.Data(n.Span(), "Cons", "List", []string{"head", "tail"}, []coreir.ExprID{head, tail})
		}
		return tail, nil

	case *core.DictAbs:
		params := make([]coreir.DictParam, len(n.Params))
		for i, p := range n.Params {
			params[i] = coreir.DictParam{Name: p.Name, ClassName: p.ClassName, Type: p.Type}
		}
		body, err := t.expr(n.Body)
		if err != nil {
			return 0, err
		}
		return t.b.DictAbs(n.Span(), params, body), nil

	case *core.DictApp:
		dict, err := t.expr(n.Dict)
		if err != nil {
			return 0, err
		}
		args, err := t.exprs(n.Args)
		if err != nil {
			return 0, err
		}
		return t.b.DictApp(n.Span(), dict, n.Method, args), nil

	case *core.DictRef:
		return t.b.DictRef(n.Span(), n.ClassName, n.TypeName), nil

	default:
		return 0, fmt.Errorf("translate: unhandled core node %T", e)
	}
}

func (t *Translator) exprs(es []core.CoreExpr) ([]coreir.ExprID, error) {
	out := make([]coreir.ExprID, len(es))
	for i, e := range es {
		id, err := t.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

// lambdaAsClosure lowers a Lambda appearing outside a let/letrec
// binder (it is atomic in ANF, so it can appear directly as a call
// argument) into a synthetic single-closure recursive let, since
// coreir has no bare function-value node: every callable is a named
// Closure inside a Recursive LetBinding.
func (t *Translator) lambdaAsClosure(lam *core.Lambda) (coreir.ExprID, error) {
	name := t.freshName("lambda")
	cl, err := t.closure(name, lam)
	if err != nil {
		return 0, err
	}
	ref := t.b.Ident(lam.Span(), name)
	return t.b.LetRec(lam.Span(), []coreir.Closure{cl}, ref), nil
}

func (t *Translator) closure(name string, value core.CoreExpr) (coreir.Closure, error) {
	lam, ok := value.(*core.Lambda)
	if !ok {
		// Non-lambda recursive binding (e.g. a thunk referencing
		// itself): model as a zero-argument closure.
		body, err := t.expr(value)
		if err != nil {
			return coreir.Closure{}, err
		}
		return coreir.Closure{Name: name, Args: nil, Body: body}, nil
	}
	body, err := t.expr(lam.Body)
	if err != nil {
		return coreir.Closure{}, err
	}
	return coreir.Closure{Name: name, Args: append([]string{}, lam.Params...), Body: body}, nil
}

func (t *Translator) pattern(p core.CorePattern) (coreir.Pattern, error) {
	switch n := p.(type) {
	case *core.VarPattern:
		return coreir.Pattern{Kind: coreir.PIdent, Name: n.Name}, nil
	case *core.WildcardPattern:
		return coreir.Pattern{Kind: coreir.PIdent, Name: "_"}, nil
	case *core.LitPattern:
		return coreir.Pattern{Kind: coreir.PLiteral, Value: n.Value}, nil
	case *core.ConstructorPattern:
		args := make([]coreir.Pattern, len(n.Args))
		for i, a := range n.Args {
			sub, err := t.pattern(a)
			if err != nil {
				return coreir.Pattern{}, err
			}
			args[i] = sub
		}
		return coreir.Pattern{Kind: coreir.PConstructor, Ctor: n.Name, Fields: args}, nil
	case *core.RecordPattern:
		names := make([]string, 0, len(n.Fields))
		for name := range n.Fields {
			names = append(names, name)
		}
		sortStrings(names)
		fields := make([]coreir.RecordFieldPattern, len(names))
		for i, name := range names {
			sub, err := t.pattern(n.Fields[name])
			if err != nil {
				return coreir.Pattern{}, err
			}
			fields[i] = coreir.RecordFieldPattern{Name: name, Pattern: sub}
		}
		return coreir.Pattern{Kind: coreir.PRecord, RecordFields: fields}, nil
	case *core.ListPattern:
		// Lower to nested Cons/Nil constructor patterns, matching the
		// List expression's own Cons/Nil translation.
		var tail coreir.Pattern
		if n.Tail != nil {
			sub, err := t.pattern(*n.Tail)
			if err != nil {
				return coreir.Pattern{}, err
			}
			tail = sub
		} else {
			tail = coreir.Pattern{Kind: coreir.PConstructor, Ctor: "Nil"}
		}
		for i := len(n.Elements) - 1; i >= 0; i-- {
			head, err := t.pattern(n.Elements[i])
			if err != nil {
				return coreir.Pattern{}, err
			}
			tail = coreir.Pattern{Kind: coreir.PConstructor, Ctor: "Cons", Fields: []coreir.Pattern{head, tail}}
		}
		return tail, nil
	default:
		return coreir.Pattern{}, fmt.Errorf("translate: unhandled core pattern %T", p)
	}
}

func sortStrings(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}
