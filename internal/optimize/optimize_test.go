package optimize

import (
	"testing"

	"github.com/glu-lang/core/internal/ast"
	"github.com/glu-lang/core/internal/coreir"
)

// Property 4/idempotence: optimizing an
// already-optimized expression returns a structurally equal result.
func TestOptimizeIsIdempotent(t *testing.T) {
	b := coreir.NewBuilder()
	pos := ast.Pos{}

	// let a = 1 in let b = 2 in a + b. The interpreter folds only calls
	// whose arguments are literals and does not propagate let-bound
	// constants, so both bindings and the sum survive unchanged.
	opIdent := b.Ident(pos, "$+")
	a := b.Ident(pos, "a")
	bi := b.Ident(pos, "b")
	sum := b.Call(pos, opIdent, []coreir.ExprID{a, bi})
	letB := b.Let(pos, "b", b.Const(pos, 2), sum)
	root := b.Let(pos, "a", b.Const(pos, 1), letB)

	once := Optimize(b.Arena, root, NoEnv{})
	twice := Optimize(once.Arena, once.Value, NoEnv{})

	if !coreir.Equal(once.Arena, once.Value, twice.Arena, twice.Value) {
		t.Fatalf("optimize(optimize(e)) != optimize(e)")
	}
}

// The full pipeline constant-folds a primitive call on two literals,
// 1 + 2, down to a bare literal.
func TestOptimizeConstantFolds(t *testing.T) {
	b := coreir.NewBuilder()
	pos := ast.Pos{}

	opIdent := b.Ident(pos, "$+")
	one := b.Const(pos, 1)
	two := b.Const(pos, 2)
	sum := b.Call(pos, opIdent, []coreir.ExprID{one, two})

	out := Optimize(b.Arena, sum, NoEnv{})
	n := out.Arena.Node(out.Value)
	if n.Kind != coreir.KConst {
		t.Fatalf("optimized kind = %v, want Const", n.Kind)
	}
	if n.ConstValue != 3 {
		t.Fatalf("optimized value = %v, want 3", n.ConstValue)
	}
}

// No optimization step introduces a free variable: optimizing a
// closure that only ever reads its own parameter must not leave any
// identifier unbound by the closure's argument list.
func TestOptimizeIntroducesNoFreeVariables(t *testing.T) {
	b := coreir.NewBuilder()
	pos := ast.Pos{}

	// let rec id = \x -> x in let unused = 2 in id
	param := b.Ident(pos, "x")
	closure := coreir.Closure{Name: "id", Args: []string{"x"}, Body: param}
	ref := b.Ident(pos, "id")
	inner := b.Let(pos, "unused", b.Const(pos, 2), ref)
	root := b.LetRec(pos, []coreir.Closure{closure}, inner)

	out := Optimize(b.Arena, root, NoEnv{})

	var check func(id coreir.ExprID, bound map[string]bool)
	check = func(id coreir.ExprID, bound map[string]bool) {
		n := out.Arena.Node(id)
		switch n.Kind {
		case coreir.KIdent:
			// $-prefixed names are primitives/resolved globals, not
			// local variables, and are exempt from this check.
			if len(n.IdentName) > 0 && n.IdentName[0] == '$' {
				return
			}
			if !bound[n.IdentName] {
				t.Fatalf("free variable %q introduced by optimization", n.IdentName)
			}
		case coreir.KLet:
			child := cloneBoundSet(bound)
			if n.Binding.Kind == coreir.BindExpr {
				check(n.Binding.Expr, bound)
				child[n.Binding.Name] = true
			} else {
				for _, c := range n.Binding.Closures {
					child[c.Name] = true
				}
				for _, c := range n.Binding.Closures {
					grandchild := cloneBoundSet(child)
					for _, p := range c.Args {
						grandchild[p] = true
					}
					check(c.Body, grandchild)
				}
			}
			check(n.Body, child)
		case coreir.KCall:
			check(n.Fn, bound)
			for _, a := range n.Args {
				check(a, bound)
			}
		case coreir.KData:
			for _, f := range n.Fields {
				check(f, bound)
			}
		case coreir.KMatch:
			check(n.Scrutinee, bound)
			for _, alt := range n.Alternatives {
				check(alt.Body, bound)
			}
		case coreir.KCast:
			check(n.CastExpr, bound)
		}
	}
	check(out.Value, map[string]bool{})
}

func cloneBoundSet(m map[string]bool) map[string]bool {
	cp := make(map[string]bool, len(m)+1)
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
