package coreir

import "github.com/glu-lang/core/internal/ast"

// Builder constructs nodes in a single Arena. It is the only
// intended way to allocate: callers never construct Expr values by
// hand, so Fields/Args/Closures always index the same arena they were
// built from.
type Builder struct {
	*Arena
}

// NewBuilder starts a fresh arena and a builder over it.
func NewBuilder() *Builder {
	return &Builder{Arena: NewArena()}
}

func (b *Builder) Const(pos ast.Pos, value interface{}) ExprID {
	return b.Arena.alloc(Expr{Kind: KConst, Pos: pos, ConstValue: value})
}

func (b *Builder) Ident(pos ast.Pos, name string) ExprID {
	return b.Arena.alloc(Expr{Kind: KIdent, Pos: pos, IdentName: name})
}

func (b *Builder) Data(pos ast.Pos, ctor, dataType string, order []string, fields []ExprID) ExprID {
	return b.Arena.alloc(Expr{Kind: KData, Pos: pos, Ctor: ctor, DataType: dataType, DataOrder: order, Fields: fields})
}

func (b *Builder) Call(pos ast.Pos, fn ExprID, args []ExprID) ExprID {
	return b.Arena.alloc(Expr{Kind: KCall, Pos: pos, Fn: fn, Args: args})
}

// Let builds a non-recursive `let name = value in body`.
func (b *Builder) Let(pos ast.Pos, name string, value, body ExprID) ExprID {
	return b.Arena.alloc(Expr{
		Kind:    KLet,
		Pos:     pos,
		Binding: LetBinding{Kind: BindExpr, Name: name, Expr: value},
		Body:    body,
	})
}

// LetRec builds a `let rec c0, c1, ... in body` recursive group.
func (b *Builder) LetRec(pos ast.Pos, closures []Closure, body ExprID) ExprID {
	return b.Arena.alloc(Expr{
		Kind:    KLet,
		Pos:     pos,
		Binding: LetBinding{Kind: BindRecursive, Closures: closures},
		Body:    body,
	})
}

func (b *Builder) Match(pos ast.Pos, scrutinee ExprID, alts []Alternative) ExprID {
	return b.Arena.alloc(Expr{Kind: KMatch, Pos: pos, Scrutinee: scrutinee, Alternatives: alts})
}

func (b *Builder) Cast(pos ast.Pos, expr ExprID, typ string) ExprID {
	return b.Arena.alloc(Expr{Kind: KCast, Pos: pos, CastExpr: expr, CastType: typ})
}

func (b *Builder) DictAbs(pos ast.Pos, params []DictParam, body ExprID) ExprID {
	return b.Arena.alloc(Expr{Kind: KDictAbs, Pos: pos, DictParams: params, DictBody: body})
}

func (b *Builder) DictApp(pos ast.Pos, dict ExprID, method string, args []ExprID) ExprID {
	return b.Arena.alloc(Expr{Kind: KDictApp, Pos: pos, Dict: dict, DictMethod: method, DictArgs: args})
}

func (b *Builder) DictRef(pos ast.Pos, className, typeName string) ExprID {
	return b.Arena.alloc(Expr{Kind: KDictRef, Pos: pos, DictClassName: className, DictTypeName: typeName})
}

// Rebuild allocates a pre-assembled Expr as-is. It exists for the
// optimizer's generic tree-rewriting walker, which reconstructs a node
// from already-processed children without re-deriving each field by
// Kind.
func (b *Builder) Rebuild(e Expr) ExprID {
	return b.Arena.alloc(e)
}
