package optimize

import "github.com/glu-lang/core/internal/coreir"

// OptimizeEnv provides find_expr over already-compiled modules, used
// by cross-module inlining.
type OptimizeEnv interface {
	FindExpr(symbol string) (*coreir.Global, bool)
}

// NoEnv is an OptimizeEnv with no cross-module symbols visible; use it
// when optimizing a module in isolation (e.g. tests).
type NoEnv struct{}

func (NoEnv) FindExpr(string) (*coreir.Global, bool) { return nil, false }

// interpretRule returns the Rule driving step 5: constant folding,
// beta-reduction of small/pure local closures, record-field
// projection through known Data records, and cross-module inlining
// bounded by InlineBudget. On any unrepresentable shape it leaves the
// node untouched — optimization is never fatal.
//
// local indexes every recursive closure bound anywhere in the tree
// being optimized (collectLocalClosures), consulted before env so a
// call to a same-module function is beta-reduced without round-
// tripping through the cross-module Global wrapper shape.
func interpretRule(local map[string]coreir.Closure, env OptimizeEnv) Rule {
	return func(b *coreir.Builder, arena *coreir.Arena, id coreir.ExprID) (coreir.ExprID, bool) {
		n := arena.Node(id)
		if n.Kind != coreir.KCall {
			return id, false
		}

		if folded, ok := foldConstant(b, arena, n); ok {
			return folded, true
		}

		fn := arena.Node(n.Fn)
		if fn.Kind == coreir.KIdent && isFieldProjection(fn.IdentName) {
			if projected, ok := projectField(arena, fn.IdentName, n.Args); ok {
				return projected, true
			}
		}

		if fn.Kind == coreir.KIdent {
			if closure, ok := local[fn.IdentName]; ok {
				if reduced, ok := reduceClosure(b, arena, closure, n.Args); ok {
					return reduced, true
				}
			}
			if global, ok := env.FindExpr(fn.IdentName); ok {
				if reduced, ok := betaReduceClosure(b, global.Arena, global.Value, n.Args); ok {
					return reduced, true
				}
			}
		}

		return id, false
	}
}

// reduceClosure beta-reduces a call to a closure already known to
// live in the same arena being walked (a local function), skipping
// the cross-arena copy betaReduceClosure needs for another module's
// frozen Global.
func reduceClosure(b *coreir.Builder, arena *coreir.Arena, closure coreir.Closure, callArgs []coreir.ExprID) (coreir.ExprID, bool) {
	if len(closure.Args) != len(callArgs) {
		return 0, false
	}
	bodyCost := AnalyzeCost(arena, closure.Body)[closure.Body]
	if bodyCost > InlineBudget {
		return 0, false
	}
	return substitute(b, arena, closure.Body, closure.Args, callArgs), true
}

func foldConstant(b *coreir.Builder, arena *coreir.Arena, n coreir.Expr) (coreir.ExprID, bool) {
	fn := arena.Node(n.Fn)
	if fn.Kind != coreir.KIdent || !PurePrimitives[fn.IdentName] {
		return 0, false
	}
	args := make([]interface{}, len(n.Args))
	for i, a := range n.Args {
		an := arena.Node(a)
		if an.Kind != coreir.KConst {
			return 0, false
		}
		args[i] = an.ConstValue
	}
	result, ok := applyPrimitive(fn.IdentName, args)
	if !ok {
		return 0, false
	}
	return b.Const(n.Pos, result), true
}

func applyPrimitive(op string, args []interface{}) (interface{}, bool) {
	asFloat := func(v interface{}) (float64, bool) {
		switch x := v.(type) {
		case int:
			return float64(x), true
		case int64:
			return float64(x), true
		case float64:
			return float64(x), true
		default:
			return 0, false
		}
	}
	bothInt := func() (int, int, bool) {
		if len(args) != 2 {
			return 0, 0, false
		}
		a, aok := args[0].(int)
		b, bok := args[1].(int)
		return a, b, aok && bok
	}

	switch op {
	case "$+", "$-", "$*", "$/", "$%":
		if a, b, ok := bothInt(); ok {
			switch op {
			case "$+":
				return a + b, true
			case "$-":
				return a - b, true
			case "$*":
				return a * b, true
			case "$/":
				if b == 0 {
					return nil, false
				}
				return a / b, true
			case "$%":
				if b == 0 {
					return nil, false
				}
				return a % b, true
			}
		}
		if len(args) == 2 {
			af, aok := asFloat(args[0])
			bf, bok := asFloat(args[1])
			if aok && bok {
				switch op {
				case "$+":
					return af + bf, true
				case "$-":
					return af - bf, true
				case "$*":
					return af * bf, true
				case "$/":
					if bf == 0 {
						return nil, false
					}
					return af / bf, true
				}
			}
		}
		return nil, false

	case "$==", "$!=", "$<", "$<=", "$>", "$>=":
		if len(args) != 2 {
			return nil, false
		}
		af, aok := asFloat(args[0])
		bf, bok := asFloat(args[1])
		if !aok || !bok {
			return nil, false
		}
		switch op {
		case "$==":
			return af == bf, true
		case "$!=":
			return af != bf, true
		case "$<":
			return af < bf, true
		case "$<=":
			return af <= bf, true
		case "$>":
			return af > bf, true
		case "$>=":
			return af >= bf, true
		}
	case "$&&", "$||":
		if len(args) != 2 {
			return nil, false
		}
		a, aok := args[0].(bool)
		bv, bok := args[1].(bool)
		if !aok || !bok {
			return nil, false
		}
		if op == "$&&" {
			return a && bv, true
		}
		return a || bv, true
	case "$!":
		if len(args) != 1 {
			return nil, false
		}
		a, ok := args[0].(bool)
		if !ok {
			return nil, false
		}
		return !a, true
	case "$neg":
		if len(args) != 1 {
			return nil, false
		}
		if a, ok := args[0].(int); ok {
			return -a, true
		}
		if af, ok := asFloat(args[0]); ok {
			return -af, true
		}
	}
	return nil, false
}

func isFieldProjection(name string) bool {
	return len(name) > len("$field:") && name[:len("$field:")] == "$field:"
}

func projectField(arena *coreir.Arena, projName string, args []coreir.ExprID) (coreir.ExprID, bool) {
	if len(args) != 1 {
		return 0, false
	}
	field := projName[len("$field:"):]
	rec := arena.Node(args[0])
	if rec.Kind != coreir.KData || rec.DataOrder == nil {
		return 0, false
	}
	for i, name := range rec.DataOrder {
		if name == field {
			return rec.Fields[i], true
		}
	}
	return 0, false
}

// betaReduceClosure inlines a call to another module's closure, found
// via env in that module's frozen Global, when its cost is within
// InlineBudget, copying the body into b's arena first. defArena/defID must name a single-closure
// LetRec whose Closure is reachable as the Let's body reference
// (the shape the translator always produces for a named function).
func betaReduceClosure(b *coreir.Builder, defArena *coreir.Arena, defID coreir.ExprID, callArgs []coreir.ExprID) (coreir.ExprID, bool) {
	defNode := defArena.Node(defID)
	if defNode.Kind != coreir.KLet || defNode.Binding.Kind != coreir.BindRecursive || len(defNode.Binding.Closures) != 1 {
		return 0, false
	}
	closure := defNode.Binding.Closures[0]
	if len(closure.Args) != len(callArgs) {
		return 0, false
	}
	bodyCost := AnalyzeCost(defArena, closure.Body)[closure.Body]
	if bodyCost > InlineBudget {
		return 0, false
	}

	copied := copyCrossArena(b, defArena, closure.Body)
	return substitute(b, b.Arena, copied, closure.Args, callArgs), true
}

// copyCrossArena deep-copies the subtree rooted at id from src into
// dst's arena: the cross-arena producer used when lifting a node out
// of another module's already-frozen arena.
func copyCrossArena(dst *coreir.Builder, src *coreir.Arena, id coreir.ExprID) coreir.ExprID {
	n := src.Node(id)
	switch n.Kind {
	case coreir.KConst:
		return dst.Const(n.Pos, n.ConstValue)
	case coreir.KIdent:
		return dst.Ident(n.Pos, n.IdentName)
	case coreir.KData:
		fields := make([]coreir.ExprID, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = copyCrossArena(dst, src, f)
		}
		return dst.Data(n.Pos, n.Ctor, n.DataType, append([]string{}, n.DataOrder...), fields)
	case coreir.KCall:
		fn := copyCrossArena(dst, src, n.Fn)
		args := make([]coreir.ExprID, len(n.Args))
		for i, a := range n.Args {
			args[i] = copyCrossArena(dst, src, a)
		}
		return dst.Call(n.Pos, fn, args)
	case coreir.KLet:
		body := copyCrossArena(dst, src, n.Body)
		if n.Binding.Kind == coreir.BindRecursive {
			closures := make([]coreir.Closure, len(n.Binding.Closures))
			for i, c := range n.Binding.Closures {
				closures[i] = coreir.Closure{Name: c.Name, Args: append([]string{}, c.Args...), Body: copyCrossArena(dst, src, c.Body)}
			}
			return dst.LetRec(n.Pos, closures, body)
		}
		value := copyCrossArena(dst, src, n.Binding.Expr)
		return dst.Let(n.Pos, n.Binding.Name, value, body)
	case coreir.KMatch:
		scrutinee := copyCrossArena(dst, src, n.Scrutinee)
		alts := make([]coreir.Alternative, len(n.Alternatives))
		for i, alt := range n.Alternatives {
			alts[i] = coreir.Alternative{Pattern: alt.Pattern, Body: copyCrossArena(dst, src, alt.Body)}
		}
		return dst.Match(n.Pos, scrutinee, alts)
	case coreir.KCast:
		return dst.Cast(n.Pos, copyCrossArena(dst, src, n.CastExpr), n.CastType)
	case coreir.KDictAbs:
		return dst.DictAbs(n.Pos, append([]coreir.DictParam{}, n.DictParams...), copyCrossArena(dst, src, n.DictBody))
	case coreir.KDictApp:
		dict := copyCrossArena(dst, src, n.Dict)
		args := make([]coreir.ExprID, len(n.DictArgs))
		for i, a := range n.DictArgs {
			args[i] = copyCrossArena(dst, src, a)
		}
		return dst.DictApp(n.Pos, dict, n.DictMethod, args)
	case coreir.KDictRef:
		return dst.DictRef(n.Pos, n.DictClassName, n.DictTypeName)
	default:
		return dst.Const(n.Pos, nil)
	}
}

// substitute replaces references to params[i] with args[i] throughout
// body. Introduced binders inside body are not renamed, so a param
// name that happens to be rebound internally will shadow correctly at
// runtime but stop substitution below that point — the usual
// capture-avoidance caveat for a non-hygienic substitution, acceptable
// here because the translator's fresh-name generator keeps bound names
// unique within a module.
func substitute(b *coreir.Builder, arena *coreir.Arena, id coreir.ExprID, params []string, args []coreir.ExprID) coreir.ExprID {
	paramArg := make(map[string]coreir.ExprID, len(params))
	for i, p := range params {
		paramArg[p] = args[i]
	}
	var walk func(coreir.ExprID) coreir.ExprID
	walk = func(id coreir.ExprID) coreir.ExprID {
		n := arena.Node(id)
		switch n.Kind {
		case coreir.KIdent:
			if repl, ok := paramArg[n.IdentName]; ok {
				return repl
			}
			return id
		case coreir.KConst, coreir.KDictRef:
			return id
		case coreir.KData:
			fields := make([]coreir.ExprID, len(n.Fields))
			for i, f := range n.Fields {
				fields[i] = walk(f)
			}
			return b.Data(n.Pos, n.Ctor, n.DataType, n.DataOrder, fields)
		case coreir.KCall:
			fn := walk(n.Fn)
			args := make([]coreir.ExprID, len(n.Args))
			for i, a := range n.Args {
				args[i] = walk(a)
			}
			return b.Call(n.Pos, fn, args)
		case coreir.KLet:
			if n.Binding.Kind == coreir.BindRecursive {
				closures := make([]coreir.Closure, len(n.Binding.Closures))
				for i, c := range n.Binding.Closures {
					closures[i] = coreir.Closure{Name: c.Name, Args: c.Args, Body: walk(c.Body)}
				}
				return b.LetRec(n.Pos, closures, walk(n.Body))
			}
			return b.Let(n.Pos, n.Binding.Name, walk(n.Binding.Expr), walk(n.Body))
		case coreir.KMatch:
			alts := make([]coreir.Alternative, len(n.Alternatives))
			for i, alt := range n.Alternatives {
				alts[i] = coreir.Alternative{Pattern: alt.Pattern, Body: walk(alt.Body)}
			}
			return b.Match(n.Pos, walk(n.Scrutinee), alts)
		case coreir.KCast:
			return b.Cast(n.Pos, walk(n.CastExpr), n.CastType)
		case coreir.KDictAbs:
			return b.DictAbs(n.Pos, n.DictParams, walk(n.DictBody))
		case coreir.KDictApp:
			args := make([]coreir.ExprID, len(n.DictArgs))
			for i, a := range n.DictArgs {
				args[i] = walk(a)
			}
			return b.DictApp(n.Pos, walk(n.Dict), n.DictMethod, args)
		default:
			return id
		}
	}
	return walk(id)
}
