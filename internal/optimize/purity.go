package optimize

import "github.com/glu-lang/core/internal/coreir"

// PurePrimitives names call targets known to be pure regardless of
// what arguments they receive (arithmetic, comparisons, and similar
// primitives installed by the translator for BinOp/UnOp lowering).
// Anything else applied via Call is treated conservatively as
// possibly-impure, since we have no whole-program effect system to
// prove closures pure.
var PurePrimitives = map[string]bool{
	"$+": true, "$-": true, "$*": true, "$/": true, "$%": true,
	"$==": true, "$!=": true, "$<": true, "$<=": true, "$>": true, "$>=": true,
	"$&&": true, "$||": true, "$!": true, "$neg": true,
}

// PurityInfo maps every ExprID reachable from the analyzed root to
// whether evaluating it can be proven free of observable effects.
type PurityInfo map[coreir.ExprID]bool

// AnalyzePurity computes the pure set for every node reachable from
// id: constants, identifiers, closures (and closure-binding lets) are
// pure; applications are pure only when calling a known pure
// primitive with pure arguments.
func AnalyzePurity(arena *coreir.Arena, id coreir.ExprID) PurityInfo {
	info := make(PurityInfo)
	var visit func(coreir.ExprID) bool
	visit = func(id coreir.ExprID) bool {
		if p, ok := info[id]; ok {
			return p
		}
		n := arena.Node(id)
		var pure bool
		switch n.Kind {
		case coreir.KConst, coreir.KIdent, coreir.KDictRef:
			pure = true

		case coreir.KData:
			pure = true
			for _, f := range n.Fields {
				pure = pure && visit(f)
			}

		case coreir.KCall:
			fn := arena.Node(n.Fn)
			calleePure := fn.Kind == coreir.KIdent && PurePrimitives[fn.IdentName]
			pure = calleePure
			for _, a := range n.Args {
				pure = pure && visit(a)
			}

		case coreir.KLet:
			if n.Binding.Kind == coreir.BindRecursive {
				// Defining closures has no effect; only calling them
				// might. Each closure body's purity is recorded for
				// inlining decisions but does not affect the let's own
				// purity.
				for _, c := range n.Binding.Closures {
					visit(c.Body)
				}
				pure = visit(n.Body)
			} else {
				pure = visit(n.Binding.Expr) && visit(n.Body)
			}

		case coreir.KMatch:
			pure = visit(n.Scrutinee)
			for _, alt := range n.Alternatives {
				pure = pure && visit(alt.Body)
			}

		case coreir.KCast:
			pure = visit(n.CastExpr)

		case coreir.KDictAbs:
			pure = true
			visit(n.DictBody)

		case coreir.KDictApp:
			// Supplemented feature: dictionary method dispatch may
			// resolve to a user-defined, possibly-effectful instance
			// method, so it is never assumed pure.
			pure = false
			visit(n.Dict)
			for _, a := range n.DictArgs {
				visit(a)
			}

		default:
			pure = false
		}
		info[id] = pure
		return pure
	}
	visit(id)
	return info
}
