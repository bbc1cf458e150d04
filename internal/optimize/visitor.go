// Package optimize implements the core optimizer pipeline: the unnecessary-allocation rewrite, purity
// analysis, dead-code elimination, cost analysis and interpreter-driven
// compilation that turn a translated core_expr into a Global.
package optimize

import "github.com/glu-lang/core/internal/coreir"

// Rule rewrites a single node after its children have already been
// processed. It returns the node unchanged (ok=false) when it does not
// apply.
type Rule func(b *coreir.Builder, arena *coreir.Arena, id coreir.ExprID) (coreir.ExprID, bool)

// walk applies rule bottom-up over the tree rooted at id: children are
// visited first, then rule runs on the (possibly rebuilt) node. If
// every child
// came back unchanged, the parent is returned as-is (identity lift, no
// allocation); otherwise a new node is built from the changed children,
// using the same-arena producer (b and arena share a lifetime for every
// rewrite pass in this package — cross-arena lifting is a distinct
// concern, used by Optimize's initial copy and by cross-module inlining
// in interpret.go).
func walk(b *coreir.Builder, arena *coreir.Arena, id coreir.ExprID, rule Rule) coreir.ExprID {
	n := arena.Node(id)
	changed := false
	var rebuilt coreir.Expr = n

	walkChild := func(child coreir.ExprID) coreir.ExprID {
		newChild := walk(b, arena, child, rule)
		if newChild != child {
			changed = true
		}
		return newChild
	}

	switch n.Kind {
	case coreir.KConst, coreir.KIdent, coreir.KDictRef:
		// leaves: nothing to recurse into

	case coreir.KData:
		fields := make([]coreir.ExprID, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = walkChild(f)
		}
		rebuilt.Fields = fields

	case coreir.KCall:
		rebuilt.Fn = walkChild(n.Fn)
		args := make([]coreir.ExprID, len(n.Args))
		for i, a := range n.Args {
			args[i] = walkChild(a)
		}
		rebuilt.Args = args

	case coreir.KLet:
		binding := n.Binding
		if binding.Kind == coreir.BindExpr {
			binding.Expr = walkChild(binding.Expr)
		} else {
			closures := make([]coreir.Closure, len(binding.Closures))
			for i, c := range binding.Closures {
				c.Body = walkChild(c.Body)
				closures[i] = c
			}
			binding.Closures = closures
		}
		rebuilt.Binding = binding
		rebuilt.Body = walkChild(n.Body)

	case coreir.KMatch:
		rebuilt.Scrutinee = walkChild(n.Scrutinee)
		alts := make([]coreir.Alternative, len(n.Alternatives))
		for i, alt := range n.Alternatives {
			alt.Body = walkChild(alt.Body)
			alts[i] = alt
		}
		rebuilt.Alternatives = alts

	case coreir.KCast:
		rebuilt.CastExpr = walkChild(n.CastExpr)

	case coreir.KDictAbs:
		rebuilt.DictBody = walkChild(n.DictBody)

	case coreir.KDictApp:
		rebuilt.Dict = walkChild(n.Dict)
		args := make([]coreir.ExprID, len(n.DictArgs))
		for i, a := range n.DictArgs {
			args[i] = walkChild(a)
		}
		rebuilt.DictArgs = args
	}

	current := id
	if changed {
		current = b.Rebuild(rebuilt)
	}

	newID, ruleChanged := rule(b, arena, current)
	if ruleChanged {
		return newID
	}
	return current
}
