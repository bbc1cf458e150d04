package optimize

import "github.com/glu-lang/core/internal/coreir"

// DeadCodeElimination returns a Rule that drops a let-binding when its
// bound name(s) are never referenced in its body and its value is
// pure. It is run once before interpreter-driven compilation
// and once after, so inlining-created dead code is also swept.
//
// References are detected structurally (does any Ident anywhere under
// body spell this name) rather than via precise lexical scoping, which
// means a binding shadowed by an inner same-named binder is
// conservatively treated as "used". This never removes a binding that
// is genuinely needed; it can occasionally keep one that lexical
// scoping would prove dead.
func DeadCodeElimination(purity PurityInfo) Rule {
	return func(b *coreir.Builder, arena *coreir.Arena, id coreir.ExprID) (coreir.ExprID, bool) {
		n := arena.Node(id)
		if n.Kind != coreir.KLet {
			return id, false
		}

		if n.Binding.Kind == coreir.BindExpr {
			if referencesName(arena, n.Body, n.Binding.Name) {
				return id, false
			}
			if !purity[n.Binding.Expr] {
				return id, false
			}
			return n.Body, true
		}

		for _, c := range n.Binding.Closures {
			if referencesName(arena, n.Body, c.Name) {
				return id, false
			}
			for _, other := range n.Binding.Closures {
				if other.Name != c.Name && referencesName(arena, other.Body, c.Name) {
					return id, false
				}
			}
		}
		return n.Body, true
	}
}

func referencesName(arena *coreir.Arena, id coreir.ExprID, name string) bool {
	n := arena.Node(id)
	switch n.Kind {
	case coreir.KIdent:
		return n.IdentName == name
	case coreir.KConst, coreir.KDictRef:
		return false
	case coreir.KData:
		for _, f := range n.Fields {
			if referencesName(arena, f, name) {
				return true
			}
		}
		return false
	case coreir.KCall:
		if referencesName(arena, n.Fn, name) {
			return true
		}
		for _, a := range n.Args {
			if referencesName(arena, a, name) {
				return true
			}
		}
		return false
	case coreir.KLet:
		if n.Binding.Kind == coreir.BindExpr {
			if referencesName(arena, n.Binding.Expr, name) {
				return true
			}
		} else {
			for _, c := range n.Binding.Closures {
				if referencesName(arena, c.Body, name) {
					return true
				}
			}
		}
		return referencesName(arena, n.Body, name)
	case coreir.KMatch:
		if referencesName(arena, n.Scrutinee, name) {
			return true
		}
		for _, alt := range n.Alternatives {
			if referencesName(arena, alt.Body, name) {
				return true
			}
		}
		return false
	case coreir.KCast:
		return referencesName(arena, n.CastExpr, name)
	case coreir.KDictAbs:
		return referencesName(arena, n.DictBody, name)
	case coreir.KDictApp:
		if referencesName(arena, n.Dict, name) {
			return true
		}
		for _, a := range n.DictArgs {
			if referencesName(arena, a, name) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
