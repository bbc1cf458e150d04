package coreir

// OptimizerInfo is the interpreter's per-module optimizer summary
// consulted by cross-module inlining when compiling a
// dependent module.
type OptimizerInfo struct {
	// Inlinable lists top-level symbols small and pure enough to be
	// inlined into callers in other modules.
	Inlinable map[string]ExprID

	// Cost is the compiled-size estimate computed for each node,
	// indexed by ExprID within Value's arena.
	Cost map[ExprID]int
}

// Global wraps the result of core_expr / the optimizer: a frozen
// expression plus the metadata downstream consumers (cross-module
// inlining, debug info) need.
type Global struct {
	Arena *Arena
	Value ExprID
	Info  OptimizerInfo
}

// Equal reports whether a and b are structurally equal up to symbol
// identity: the same tree shape and literal values, treating bound
// names positionally rather than by their exact spelling. This is the
// comparison the optimizer's idempotence and rewrite tests rely on.
func Equal(aArena *Arena, a ExprID, bArena *Arena, b ExprID) bool {
	return equalRenaming(aArena, a, bArena, b, map[string]string{}, map[string]string{})
}

func equalRenaming(aArena *Arena, a ExprID, bArena *Arena, b ExprID, aToB, bToA map[string]string) bool {
	an, bn := aArena.Node(a), bArena.Node(b)
	if an.Kind != bn.Kind {
		return false
	}
	switch an.Kind {
	case KConst:
		return an.ConstValue == bn.ConstValue
	case KIdent:
		if mapped, ok := aToB[an.IdentName]; ok {
			return mapped == bn.IdentName
		}
		if _, ok := bToA[bn.IdentName]; ok {
			return false // bn.IdentName already bound to a different a-name
		}
		return an.IdentName == bn.IdentName
	case KData:
		if an.Ctor != bn.Ctor || len(an.Fields) != len(bn.Fields) {
			return false
		}
		for i := range an.Fields {
			if !equalRenaming(aArena, an.Fields[i], bArena, bn.Fields[i], aToB, bToA) {
				return false
			}
		}
		return true
	case KCall:
		if len(an.Args) != len(bn.Args) {
			return false
		}
		if !equalRenaming(aArena, an.Fn, bArena, bn.Fn, aToB, bToA) {
			return false
		}
		for i := range an.Args {
			if !equalRenaming(aArena, an.Args[i], bArena, bn.Args[i], aToB, bToA) {
				return false
			}
		}
		return true
	case KLet:
		if an.Binding.Kind != bn.Binding.Kind {
			return false
		}
		if an.Binding.Kind == BindRecursive {
			if len(an.Binding.Closures) != len(bn.Binding.Closures) {
				return false
			}
			childA, childB := cloneRenaming(aToB), cloneRenaming(bToA)
			for i := range an.Binding.Closures {
				ca, cb := an.Binding.Closures[i], bn.Binding.Closures[i]
				if len(ca.Args) != len(cb.Args) {
					return false
				}
				childA[ca.Name] = cb.Name
				childB[cb.Name] = ca.Name
				for j := range ca.Args {
					childA[ca.Args[j]] = cb.Args[j]
					childB[cb.Args[j]] = ca.Args[j]
				}
			}
			for i := range an.Binding.Closures {
				if !equalRenaming(aArena, an.Binding.Closures[i].Body, bArena, bn.Binding.Closures[i].Body, childA, childB) {
					return false
				}
			}
			return equalRenaming(aArena, an.Body, bArena, bn.Body, childA, childB)
		}
		if !equalRenaming(aArena, an.Binding.Expr, bArena, bn.Binding.Expr, aToB, bToA) {
			return false
		}
		childA, childB := cloneRenaming(aToB), cloneRenaming(bToA)
		childA[an.Binding.Name] = bn.Binding.Name
		childB[bn.Binding.Name] = an.Binding.Name
		return equalRenaming(aArena, an.Body, bArena, bn.Body, childA, childB)
	case KMatch:
		if len(an.Alternatives) != len(bn.Alternatives) {
			return false
		}
		if !equalRenaming(aArena, an.Scrutinee, bArena, bn.Scrutinee, aToB, bToA) {
			return false
		}
		for i := range an.Alternatives {
			pa, pb := an.Alternatives[i].Pattern, bn.Alternatives[i].Pattern
			childA, childB := cloneRenaming(aToB), cloneRenaming(bToA)
			if !bindPattern(pa, pb, childA, childB) {
				return false
			}
			if !equalRenaming(aArena, an.Alternatives[i].Body, bArena, bn.Alternatives[i].Body, childA, childB) {
				return false
			}
		}
		return true
	case KCast:
		return an.CastType == bn.CastType && equalRenaming(aArena, an.CastExpr, bArena, bn.CastExpr, aToB, bToA)
	case KDictAbs:
		if len(an.DictParams) != len(bn.DictParams) {
			return false
		}
		for i := range an.DictParams {
			if an.DictParams[i].ClassName != bn.DictParams[i].ClassName || an.DictParams[i].Type != bn.DictParams[i].Type {
				return false
			}
		}
		childA, childB := cloneRenaming(aToB), cloneRenaming(bToA)
		for i := range an.DictParams {
			childA[an.DictParams[i].Name] = bn.DictParams[i].Name
			childB[bn.DictParams[i].Name] = an.DictParams[i].Name
		}
		return equalRenaming(aArena, an.DictBody, bArena, bn.DictBody, childA, childB)
	case KDictApp:
		if an.DictMethod != bn.DictMethod || len(an.DictArgs) != len(bn.DictArgs) {
			return false
		}
		if !equalRenaming(aArena, an.Dict, bArena, bn.Dict, aToB, bToA) {
			return false
		}
		for i := range an.DictArgs {
			if !equalRenaming(aArena, an.DictArgs[i], bArena, bn.DictArgs[i], aToB, bToA) {
				return false
			}
		}
		return true
	case KDictRef:
		return an.DictClassName == bn.DictClassName && an.DictTypeName == bn.DictTypeName
	default:
		return false
	}
}

func cloneRenaming(m map[string]string) map[string]string {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func bindPattern(pa, pb Pattern, aToB, bToA map[string]string) bool {
	if pa.Kind != pb.Kind {
		return false
	}
	switch pa.Kind {
	case PIdent:
		aToB[pa.Name] = pb.Name
		bToA[pb.Name] = pa.Name
		return true
	case PLiteral:
		return pa.Value == pb.Value
	case PConstructor:
		if pa.Ctor != pb.Ctor || len(pa.Fields) != len(pb.Fields) {
			return false
		}
		for i := range pa.Fields {
			if !bindPattern(pa.Fields[i], pb.Fields[i], aToB, bToA) {
				return false
			}
		}
		return true
	case PRecord:
		if len(pa.RecordFields) != len(pb.RecordFields) {
			return false
		}
		for i := range pa.RecordFields {
			if pa.RecordFields[i].Name != pb.RecordFields[i].Name {
				return false
			}
			if !bindPattern(pa.RecordFields[i].Pattern, pb.RecordFields[i].Pattern, aToB, bToA) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
