package optimize

import "github.com/glu-lang/core/internal/coreir"

// Optimize runs the fixed seven-step pipeline over (arena, id) and
// returns a Global holding the optimized expression and its
// optimizer_info summary. The result lives in a fresh
// builder/arena: every reachable node is rebuilt (or identity-lifted
// when a step leaves it untouched), and the returned arena is frozen
// before it is handed back, matching core_expr's "the result is
// frozen" contract.
//
// Optimization never fails outward: any step that cannot make
// progress on a given shape simply leaves that node as-is.
func Optimize(arena *coreir.Arena, id coreir.ExprID, env OptimizeEnv) *coreir.Global {
	b := coreir.NewBuilder()
	root := copyCrossArena(b, arena, id)

	// 1. Unnecessary-allocation rewrite.
	root = walk(b, b.Arena, root, UnnecessaryAllocationRewrite)

	// 2. Purity analysis.
	purity := AnalyzePurity(b.Arena, root)

	// 3. Dependency graph + DCE (pass 1).
	root = walk(b, b.Arena, root, DeadCodeElimination(purity))

	// 4. Index the tree's local closures for step 5. Cost analysis runs
	// inside step 5, per candidate body, to bound both local
	// beta-reduction and cross-module inlining.
	local := collectLocalClosures(b.Arena, root)

	// 5. Interpreter-driven compilation.
	root = walk(b, b.Arena, root, interpretRule(local, env))

	// 6. Dead-code elimination (pass 2): inlining in step 5 can leave
	// bindings unused that weren't before.
	purityAfter := AnalyzePurity(b.Arena, root)
	root = walk(b, b.Arena, root, DeadCodeElimination(purityAfter))

	// 7. Freeze and package. Local closures are re-collected against the
	// post-inlining tree so Inlinable reflects what downstream modules
	// can actually still find by name.
	finalCost := AnalyzeCost(b.Arena, root)
	inlinable := collectInlinable(b, collectLocalClosures(b.Arena, root), finalCost)
	b.Arena.Freeze()

	return &coreir.Global{
		Arena: b.Arena,
		Value: root,
		Info: coreir.OptimizerInfo{
			Inlinable: inlinable,
			Cost:      finalCost,
		},
	}
}

// collectLocalClosures flatly indexes every recursive closure bound
// anywhere in the tree by name, so step 5 can beta-reduce calls to
// locally-defined functions in addition to cross-module ones. Like
// DeadCodeElimination's reference check, this ignores lexical
// shadowing: a closure redefined under the same name deeper in the
// tree overwrites the outer entry, which only affects which
// definition gets inlined, never correctness of the un-inlined call.
func collectLocalClosures(arena *coreir.Arena, id coreir.ExprID) map[string]coreir.Closure {
	out := make(map[string]coreir.Closure)
	var visit func(coreir.ExprID)
	visit = func(id coreir.ExprID) {
		n := arena.Node(id)
		if n.Kind != coreir.KLet {
			return
		}
		if n.Binding.Kind == coreir.BindRecursive {
			for _, c := range n.Binding.Closures {
				out[c.Name] = c
				visit(c.Body)
			}
		} else {
			visit(n.Binding.Expr)
		}
		visit(n.Body)
	}
	visit(id)
	return out
}

// collectInlinable names every closure small enough to stay within
// InlineBudget and packages each as a standalone single-closure
// Global — the same self-contained "let rec f = closure in f" shape
// lambdaAsClosure produces for bare function values — so another
// module's OptimizeEnv.FindExpr can hand it straight to
// betaReduceClosure.
func collectInlinable(b *coreir.Builder, local map[string]coreir.Closure, cost CostInfo) map[string]coreir.ExprID {
	out := make(map[string]coreir.ExprID)
	for name, c := range local {
		bodyCost, ok := cost[c.Body]
		if !ok || bodyCost > InlineBudget {
			continue
		}
		pos := b.Arena.Node(c.Body).Pos
		ref := b.Ident(pos, name)
		out[name] = b.LetRec(pos, []coreir.Closure{c}, ref)
	}
	return out
}
