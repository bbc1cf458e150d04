package coreir

import (
	"fmt"
	"strings"
)

// String renders the expression at id for debugging and test
// assertions, in the same "let x = v in body" style internal/core's
// ANF printer uses.
func (a *Arena) String(id ExprID) string {
	n := a.Node(id)
	switch n.Kind {
	case KConst:
		return fmt.Sprintf("%v", n.ConstValue)
	case KIdent:
		return n.IdentName
	case KData:
		parts := make([]string, len(n.Fields))
		for i, f := range n.Fields {
			parts[i] = a.String(f)
		}
		return fmt.Sprintf("%s{%s}", n.Ctor, strings.Join(parts, ", "))
	case KCall:
		args := make([]string, len(n.Args))
		for i, arg := range n.Args {
			args[i] = a.String(arg)
		}
		return fmt.Sprintf("%s(%s)", a.String(n.Fn), strings.Join(args, ", "))
	case KLet:
		if n.Binding.Kind == BindRecursive {
			names := make([]string, len(n.Binding.Closures))
			for i, c := range n.Binding.Closures {
				names[i] = c.Name
			}
			return fmt.Sprintf("let rec %s in %s", strings.Join(names, ", "), a.String(n.Body))
		}
		return fmt.Sprintf("let %s = %s in %s", n.Binding.Name, a.String(n.Binding.Expr), a.String(n.Body))
	case KMatch:
		arms := make([]string, len(n.Alternatives))
		for i, alt := range n.Alternatives {
			arms[i] = fmt.Sprintf("%s -> %s", alt.Pattern.String(), a.String(alt.Body))
		}
		return fmt.Sprintf("match %s with %s end", a.String(n.Scrutinee), strings.Join(arms, " | "))
	case KCast:
		return fmt.Sprintf("(%s : %s)", a.String(n.CastExpr), n.CastType)
	case KDictAbs:
		params := make([]string, len(n.DictParams))
		for i, p := range n.DictParams {
			params[i] = fmt.Sprintf("%s: %s[%s]", p.Name, p.ClassName, p.Type)
		}
		return fmt.Sprintf("DictAbs([%s], %s)", strings.Join(params, ", "), a.String(n.DictBody))
	case KDictApp:
		args := make([]string, len(n.DictArgs))
		for i, arg := range n.DictArgs {
			args[i] = a.String(arg)
		}
		return fmt.Sprintf("DictApp(%s.%s, [%s])", a.String(n.Dict), n.DictMethod, strings.Join(args, ", "))
	case KDictRef:
		return fmt.Sprintf("dict_%s_%s", n.DictClassName, n.DictTypeName)
	default:
		return "<invalid>"
	}
}

// String renders a Pattern for diagnostics.
func (p Pattern) String() string {
	switch p.Kind {
	case PIdent:
		return p.Name
	case PLiteral:
		return fmt.Sprintf("%v", p.Value)
	case PConstructor:
		parts := make([]string, len(p.Fields))
		for i, f := range p.Fields {
			parts[i] = f.String()
		}
		return fmt.Sprintf("%s(%s)", p.Ctor, strings.Join(parts, ", "))
	case PRecord:
		parts := make([]string, len(p.RecordFields))
		for i, f := range p.RecordFields {
			parts[i] = fmt.Sprintf("%s=%s", f.Name, f.Pattern.String())
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	default:
		return "<invalid pattern>"
	}
}
