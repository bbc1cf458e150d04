// Package coreir implements the frozen, arena-allocated Core IR that
// the optimizer and bytecode queries operate on: Const, Ident, Data,
// Call, Let, Match and Cast nodes addressed by ExprID within a single
// Arena, never mutated after construction.
package coreir

import "github.com/glu-lang/core/internal/ast"

// ExprID indexes a node within an Arena. The zero value is never a
// valid node; NewArena reserves index 0, so the first allocated node is
// 1 and a missing ExprID reads as obviously wrong rather than silently
// aliasing the root.
type ExprID int

// Arena owns a single lifetime's worth of Expr nodes. IR graphs built
// in one arena are never mutated in place; rewrites allocate into a
// fresh region (see Builder) and the old nodes are left untouched,
// which is what lets the optimizer share unchanged subtrees with the
// input tree at zero cost.
type Arena struct {
	nodes  []Expr
	frozen bool
}

// NewArena returns an empty, writable arena.
func NewArena() *Arena {
	return &Arena{nodes: []Expr{{}}} // index 0 reserved/invalid
}

// Node returns the node at id. Panics on an out-of-range id, since
// that always indicates a builder bug (a dangling ExprID from another
// arena), not recoverable program state.
func (a *Arena) Node(id ExprID) Expr {
	return a.nodes[id]
}

// Freeze seals the arena against further allocation. core_expr returns
// only frozen arenas.
func (a *Arena) Freeze() {
	a.frozen = true
}

// Frozen reports whether Freeze has been called.
func (a *Arena) Frozen() bool {
	return a.frozen
}

func (a *Arena) alloc(e Expr) ExprID {
	if a.frozen {
		panic("coreir: alloc into a frozen arena")
	}
	a.nodes = append(a.nodes, e)
	return ExprID(len(a.nodes) - 1)
}

// Kind discriminates an Expr's variant.
type Kind int

const (
	KConst Kind = iota
	KIdent
	KData
	KCall
	KLet
	KMatch
	KCast

	// Dictionary-passing nodes, carried over from the ANF core the
	// typechecker still emits for type-class resolution (not one of
	// the seven core variants above, but needed so dictionary-passing
	// programs optimize soundly instead of falling outside the IR).
	KDictAbs
	KDictApp
	KDictRef
)

func (k Kind) String() string {
	switch k {
	case KConst:
		return "Const"
	case KIdent:
		return "Ident"
	case KData:
		return "Data"
	case KCall:
		return "Call"
	case KLet:
		return "Let"
	case KMatch:
		return "Match"
	case KCast:
		return "Cast"
	case KDictAbs:
		return "DictAbs"
	case KDictApp:
		return "DictApp"
	case KDictRef:
		return "DictRef"
	default:
		return "Unknown"
	}
}

// Expr is one Core IR node. Only the fields relevant to Kind are
// populated; this mirrors a tagged union with a single Go struct
// rather than an interface-per-variant, which keeps arena storage a
// flat, cache-friendly slice instead of a slice of pointers.
type Expr struct {
	Kind Kind
	Pos  ast.Pos

	// KConst
	ConstValue interface{}

	// KIdent
	IdentName string

	// KData
	Ctor      string
	DataType  string // declaring type name, used by the unnecessary-allocation rewrite
	DataOrder []string // field names in the type's declared row order
	Fields    []ExprID

	// KCall
	Fn   ExprID
	Args []ExprID

	// KLet
	Binding LetBinding
	Body    ExprID

	// KMatch
	Scrutinee    ExprID
	Alternatives []Alternative

	// KCast
	CastExpr ExprID
	CastType string

	// KDictAbs
	DictParams []DictParam
	DictBody   ExprID

	// KDictApp
	Dict       ExprID // must resolve to KIdent or KDictRef in ANF
	DictMethod string
	DictArgs   []ExprID

	// KDictRef
	DictClassName string
	DictTypeName  string
}

// DictParam is one dictionary parameter bound by a DictAbs, in
// canonical order.
type DictParam struct {
	Name      string
	ClassName string
	Type      string
}

// LetBindingKind discriminates LetBinding.
type LetBindingKind int

const (
	BindExpr LetBindingKind = iota
	BindRecursive
)

// LetBinding is either Expr(e) — a single non-recursive binding named
// by the enclosing Let — or Recursive([closures]) — a mutually
// recursive group, each closure binding its own name.
type LetBinding struct {
	Kind LetBindingKind

	// BindExpr
	Name string
	Expr ExprID

	// BindRecursive
	Closures []Closure
}

// Closure is {name, args, body}: one member of a recursive binding
// group.
type Closure struct {
	Name string
	Args []string
	Body ExprID
}

// Alternative is one arm of a Match: a Pattern guarding a body.
type Alternative struct {
	Pattern Pattern
	Body    ExprID
}

// PatternKind discriminates Pattern.
type PatternKind int

const (
	PIdent PatternKind = iota
	PLiteral
	PConstructor
	PRecord
)

// Pattern is Ident | Literal | Constructor(ctor, fields) | Record(fields).
type Pattern struct {
	Kind PatternKind

	// PIdent
	Name string

	// PLiteral
	Value interface{}

	// PConstructor
	Ctor   string
	Fields []Pattern

	// PRecord: field name -> sub-pattern, in the pattern's written order
	RecordFields []RecordFieldPattern
}

// RecordFieldPattern is one `name = pattern` entry of a Record pattern.
type RecordFieldPattern struct {
	Name    string
	Pattern Pattern
}
