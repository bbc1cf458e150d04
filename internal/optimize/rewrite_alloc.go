package optimize

import "github.com/glu-lang/core/internal/coreir"

// UnnecessaryAllocationRewrite recognizes
// `match Data(ctor, [e0..en]) with | {f0=p0, ..., fk=pk} -> body end`,
// where the scrutinee is a record literal immediately destructured by
// a single record pattern, and rewrites it to a right-associative
// sequence of lets — one per field of the record's declared row, in
// declaration order, nested so the first field binds outermost.
// Non-matching shapes pass through unchanged.
func UnnecessaryAllocationRewrite(b *coreir.Builder, arena *coreir.Arena, id coreir.ExprID) (coreir.ExprID, bool) {
	n := arena.Node(id)
	if n.Kind != coreir.KMatch || len(n.Alternatives) != 1 {
		return id, false
	}
	alt := n.Alternatives[0]
	if alt.Pattern.Kind != coreir.PRecord {
		return id, false
	}

	scrutinee := arena.Node(n.Scrutinee)
	if scrutinee.Kind != coreir.KData || scrutinee.DataOrder == nil {
		return id, false
	}

	bound := make(map[string]string, len(alt.Pattern.RecordFields))
	for _, fp := range alt.Pattern.RecordFields {
		if fp.Pattern.Kind == coreir.PIdent {
			bound[fp.Name] = fp.Pattern.Name
		}
	}

	body := alt.Body
	for i := len(scrutinee.DataOrder) - 1; i >= 0; i-- {
		fieldName := scrutinee.DataOrder[i]
		bindName, ok := bound[fieldName]
		if !ok {
			bindName = "dummy"
		}
		body = b.Let(n.Pos, bindName, scrutinee.Fields[i], body)
	}
	return body, true
}
