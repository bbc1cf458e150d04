package envview

import (
	"fmt"
	"strings"

	"github.com/glu-lang/core/internal/errors"
	"github.com/glu-lang/core/internal/vm"
)

// Globals is the peek-only window onto already-computed module globals
// that the facade's symbol lookups run over. The global evaluation
// query's Evaluator implements it; nothing reached through this
// interface ever forces a query.
type Globals interface {
	PeekGlobal(module string) (*vm.Rooted, string, bool)
	PeekMetadata(module string) (map[string]string, bool)
	IsExtern(module string) bool
}

// VarKind distinguishes ordinary compiled globals from extern-loaded
// ones in find_var results.
type VarKind int

const (
	VarGlobal VarKind = iota
	VarExtern
)

func (k VarKind) String() string {
	if k == VarExtern {
		return "extern-global"
	}
	return "global"
}

// UndefinedBinding is returned by GetBinding when no module prefix of
// the dotted name resolves to a computed global.
type UndefinedBinding struct {
	Name string
}

func (e *UndefinedBinding) Error() string {
	return fmt.Sprintf("%s: undefined binding %q", errors.ENV001, e.Name)
}

// UndefinedField is returned by GetBinding when a path walks into a
// field the resolved value does not carry.
type UndefinedField struct {
	Name  string
	Field string
}

func (e *UndefinedField) Error() string {
	return fmt.Sprintf("%s: %q has no field %q", errors.ENV002, e.Name, e.Field)
}

// OperatorNotAField is returned when a bare operator appears as a path
// segment outside parentheses: `math.(+)` names the field "+",
// `math.+` is a lexing accident, not a field access.
type OperatorNotAField struct {
	Name     string
	Operator string
}

func (e *OperatorNotAField) Error() string {
	return fmt.Sprintf("%s: operator %q must be parenthesized to name a field in %q", errors.ENV004, e.Operator, e.Name)
}

// GetBinding resolves a nested field path like "data.store.get" or
// "math.(+)": module prefixes are scanned from longest to shortest
// until a computed global matches, then the remaining path is walked
// through that global's record value. Errors are never
// cached because this never touches the query engine.
func (v *View) GetBinding(g Globals, dotted string) (vm.Value, string, error) {
	value, typ, _, err := v.resolveBinding(g, dotted)
	return value, typ, err
}

// FindVar resolves symbol to its variable kind and type: a global or
// extern-global lookup over already-computed modules.
func (v *View) FindVar(g Globals, symbol string) (VarKind, string, bool) {
	_, typ, module, err := v.resolveBinding(g, symbol)
	if err != nil {
		return VarGlobal, "", false
	}
	if g.IsExtern(module) {
		return VarExtern, typ, true
	}
	return VarGlobal, typ, true
}

// FindType resolves symbol to its type's display form.
func (v *View) FindType(g Globals, symbol string) (string, bool) {
	_, typ, _, err := v.resolveBinding(g, symbol)
	if err != nil {
		return "", false
	}
	return typ, true
}

// FindKind resolves symbol's kind. Every type this core's value
// surface can name is ground, so a resolvable symbol uniformly has
// kind Type; higher kinds would come from the external typechecker,
// which this facade does not force.
func (v *View) FindKind(g Globals, symbol string) (string, bool) {
	if _, ok := v.FindType(g, symbol); !ok {
		return "", false
	}
	return "Type", true
}

// FindTypeInfo resolves symbol to its recorded alias, if the owning
// module's metadata declares one under "alias".
func (v *View) FindTypeInfo(g Globals, symbol string) (string, bool) {
	meta, ok := v.GetMetadata(g, symbol)
	if !ok {
		return "", false
	}
	alias, ok := meta["alias"]
	return alias, ok
}

// GetMetadata returns the metadata recorded for symbol's owning
// module: extern modules carry what their loader declared, compiled
// modules carry per-declaration attributes.
func (v *View) GetMetadata(g Globals, symbol string) (map[string]string, bool) {
	segs, err := splitBindingPath(symbol)
	if err != nil {
		return nil, false
	}
	for i := len(segs); i >= 1; i-- {
		module := strings.Join(segs[:i], ".")
		if meta, ok := g.PeekMetadata(module); ok {
			return meta, true
		}
	}
	return nil, false
}

// resolveBinding is the shared path resolution behind GetBinding,
// FindVar and FindType. It returns the resolved value, its display
// type, and the module prefix that matched.
func (v *View) resolveBinding(g Globals, dotted string) (vm.Value, string, string, error) {
	segs, err := splitBindingPath(dotted)
	if err != nil {
		return nil, "", "", err
	}

	for i := len(segs); i >= 1; i-- {
		module := strings.Join(segs[:i], ".")
		rooted, typ, ok := g.PeekGlobal(module)
		if !ok {
			continue
		}
		value := rooted.Value()
		for _, field := range segs[i:] {
			rec, ok := value.(*vm.RecordValue)
			if !ok {
				return nil, "", "", &UndefinedField{Name: dotted, Field: field}
			}
			fv, ok := rec.Fields[field]
			if !ok {
				return nil, "", "", &UndefinedField{Name: dotted, Field: field}
			}
			value = fv
		}
		if len(segs) > i {
			typ = value.Type()
		}
		return value, typ, module, nil
	}
	return nil, "", "", &UndefinedBinding{Name: dotted}
}

// splitBindingPath splits a dotted binding path into segments,
// unwrapping parenthesized operator names and rejecting bare operator
// segments. A leading @ (resolved-symbol form) is stripped first.
func splitBindingPath(dotted string) ([]string, error) {
	name := strings.TrimPrefix(dotted, "@")
	name = strings.Trim(name, `"`)
	if name == "" {
		return nil, &UndefinedBinding{Name: dotted}
	}
	parts := strings.Split(name, ".")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.HasPrefix(p, "(") && strings.HasSuffix(p, ")") && len(p) > 2 {
			segs = append(segs, p[1:len(p)-1])
			continue
		}
		if p == "" || !isIdentSegment(p) {
			return nil, &OperatorNotAField{Name: dotted, Operator: p}
		}
		segs = append(segs, p)
	}
	return segs, nil
}

func isIdentSegment(s string) bool {
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
