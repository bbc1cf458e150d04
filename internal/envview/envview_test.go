package envview

import (
	"testing"

	"github.com/glu-lang/core/internal/ast"
	"github.com/glu-lang/core/internal/coreir"
)

func TestSplitSymbolStripsAtAndQuotes(t *testing.T) {
	cases := []struct {
		in, module, name string
		ok               bool
	}{
		{`@"math.add"`, "math", "add", true},
		{"@math.add", "math", "add", true},
		{"math.add", "math", "add", true},
		{"math.utils.add", "math.utils", "add", true},
		{"noDot", "", "", false},
	}
	for _, c := range cases {
		module, name, ok := SplitSymbol(c.in)
		if ok != c.ok || module != c.module || name != c.name {
			t.Errorf("SplitSymbol(%q) = (%q, %q, %v), want (%q, %q, %v)", c.in, module, name, ok, c.module, c.name, c.ok)
		}
	}
}

func TestFindExprResolvesInlinableExport(t *testing.T) {
	b := coreir.NewBuilder()
	answer := b.Const(ast.Pos{}, 42)
	b.Arena.Freeze()

	global := &coreir.Global{
		Arena: b.Arena,
		Value: answer,
		Info:  coreir.OptimizerInfo{Inlinable: map[string]coreir.ExprID{"answer": answer}},
	}

	v := New(nil, nil, "self")
	peek := func(module string) (*coreir.Global, bool) {
		if module == "math" {
			return global, true
		}
		return nil, false
	}

	got, ok := v.FindExpr(peek, "math.answer")
	if !ok {
		t.Fatal("expected FindExpr to resolve math.answer")
	}
	if got.Arena.Node(got.Value).ConstValue != 42 {
		t.Errorf("resolved expr = %v, want Const(42)", got.Arena.Node(got.Value))
	}
}

func TestFindExprRefusesSelfReference(t *testing.T) {
	v := New(nil, nil, "math")
	peek := func(module string) (*coreir.Global, bool) {
		t.Fatal("peek should never be called for a self-reference")
		return nil, false
	}
	if _, ok := v.FindExpr(peek, "math.answer"); ok {
		t.Fatal("expected FindExpr to refuse resolving its own module's symbol")
	}
}

func TestFindExprMissingExportFails(t *testing.T) {
	b := coreir.NewBuilder()
	b.Const(ast.Pos{}, 1)
	b.Arena.Freeze()
	global := &coreir.Global{Arena: b.Arena, Info: coreir.OptimizerInfo{Inlinable: map[string]coreir.ExprID{}}}

	v := New(nil, nil, "self")
	peek := func(module string) (*coreir.Global, bool) { return global, true }
	if _, ok := v.FindExpr(peek, "math.missing"); ok {
		t.Fatal("expected FindExpr to fail for an un-exported name")
	}
}

func TestDigestStableAcrossSeparateArenas(t *testing.T) {
	build := func(v int) *coreir.Global {
		b := coreir.NewBuilder()
		c := b.Const(ast.Pos{}, v)
		b.Arena.Freeze()
		return &coreir.Global{Arena: b.Arena, Info: coreir.OptimizerInfo{Inlinable: map[string]coreir.ExprID{"x": c}}}
	}

	g1 := build(7)
	g2 := build(7)
	if Digest(g1) != Digest(g2) {
		t.Errorf("expected equal digests for structurally identical exports, got %q vs %q", Digest(g1), Digest(g2))
	}

	g3 := build(8)
	if Digest(g1) == Digest(g3) {
		t.Error("expected different digests for different exported shapes")
	}
}

func TestDigestNilGlobal(t *testing.T) {
	if Digest(nil) != "" {
		t.Error("expected Digest(nil) to return the empty string")
	}
}
