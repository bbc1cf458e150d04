package optimize

import "github.com/glu-lang/core/internal/coreir"

// CostInfo approximates the compiled size of every node reachable
// from an analyzed root, one unit per node plus
// its children.
type CostInfo map[coreir.ExprID]int

// InlineBudget bounds how much compiled-size a single inlining
// decision (local beta-reduction or cross-module inlining) may add.
const InlineBudget = 40

// AnalyzeCost computes a bottom-up size estimate for every node under
// id.
func AnalyzeCost(arena *coreir.Arena, id coreir.ExprID) CostInfo {
	info := make(CostInfo)
	var visit func(coreir.ExprID) int
	visit = func(id coreir.ExprID) int {
		if c, ok := info[id]; ok {
			return c
		}
		n := arena.Node(id)
		cost := 1
		switch n.Kind {
		case coreir.KData:
			for _, f := range n.Fields {
				cost += visit(f)
			}
		case coreir.KCall:
			cost += visit(n.Fn)
			for _, a := range n.Args {
				cost += visit(a)
			}
		case coreir.KLet:
			if n.Binding.Kind == coreir.BindExpr {
				cost += visit(n.Binding.Expr)
			} else {
				for _, c := range n.Binding.Closures {
					cost += visit(c.Body)
				}
			}
			cost += visit(n.Body)
		case coreir.KMatch:
			cost += visit(n.Scrutinee)
			for _, alt := range n.Alternatives {
				cost += visit(alt.Body)
			}
		case coreir.KCast:
			cost += visit(n.CastExpr)
		case coreir.KDictAbs:
			cost += visit(n.DictBody)
		case coreir.KDictApp:
			cost += visit(n.Dict)
			for _, a := range n.DictArgs {
				cost += visit(a)
			}
		}
		info[id] = cost
		return cost
	}
	visit(id)
	return info
}
