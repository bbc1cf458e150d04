package envview

import (
	"testing"

	"github.com/glu-lang/core/internal/vm"
)

// fakeGlobals is an in-memory Globals: the already-computed module set
// a facade lookup would otherwise peek out of the query engine.
type fakeGlobals struct {
	values  map[string]vm.Value
	types   map[string]string
	meta    map[string]map[string]string
	externs map[string]bool
}

func (f *fakeGlobals) PeekGlobal(module string) (*vm.Rooted, string, bool) {
	v, ok := f.values[module]
	if !ok {
		return nil, "", false
	}
	return vm.RootValue(vm.NewHandle(), vm.NewUnrooted(v)), f.types[module], true
}

func (f *fakeGlobals) PeekMetadata(module string) (map[string]string, bool) {
	m, ok := f.meta[module]
	return m, ok
}

func (f *fakeGlobals) IsExtern(module string) bool { return f.externs[module] }

func storeGlobals() *fakeGlobals {
	inner := &vm.RecordValue{
		Order: []string{"get"},
		Fields: map[string]vm.Value{
			"get": &vm.IntValue{Value: 42},
		},
	}
	store := &vm.RecordValue{
		Order: []string{"store", "+"},
		Fields: map[string]vm.Value{
			"store": inner,
			"+":     &vm.IntValue{Value: 1},
		},
	}
	return &fakeGlobals{
		values:  map[string]vm.Value{"data": store, "host.clock": &vm.IntValue{Value: 0}},
		types:   map[string]string{"data": "record", "host.clock": "int"},
		meta:    map[string]map[string]string{"host.clock": {"alias": "Instant"}},
		externs: map[string]bool{"host.clock": true},
	}
}

func TestGetBindingWalksNestedRecords(t *testing.T) {
	v := New(nil, nil, "self")
	g := storeGlobals()

	value, typ, err := v.GetBinding(g, "data.store.get")
	if err != nil {
		t.Fatalf("GetBinding: %v", err)
	}
	if iv, ok := value.(*vm.IntValue); !ok || iv.Value != 42 {
		t.Fatalf("value = %v, want 42", value)
	}
	if typ != "int" {
		t.Fatalf("type = %q, want int", typ)
	}
}

func TestGetBindingScansLongestModulePrefixFirst(t *testing.T) {
	v := New(nil, nil, "self")
	g := storeGlobals()

	// "host.clock" must match as a module name before "host" is even
	// tried (which does not exist here).
	value, typ, err := v.GetBinding(g, "host.clock")
	if err != nil {
		t.Fatalf("GetBinding: %v", err)
	}
	if _, ok := value.(*vm.IntValue); !ok {
		t.Fatalf("value = %T, want *vm.IntValue", value)
	}
	if typ != "int" {
		t.Fatalf("type = %q, want int", typ)
	}
}

func TestGetBindingUnwrapsParenthesizedOperator(t *testing.T) {
	v := New(nil, nil, "self")
	g := storeGlobals()

	value, _, err := v.GetBinding(g, "data.(+)")
	if err != nil {
		t.Fatalf("GetBinding: %v", err)
	}
	if iv, ok := value.(*vm.IntValue); !ok || iv.Value != 1 {
		t.Fatalf("value = %v, want 1", value)
	}
}

func TestGetBindingRejectsBareOperatorSegment(t *testing.T) {
	v := New(nil, nil, "self")
	g := storeGlobals()

	_, _, err := v.GetBinding(g, "data.+")
	if err == nil {
		t.Fatal("expected an operator-not-a-field error")
	}
	if _, ok := err.(*OperatorNotAField); !ok {
		t.Fatalf("err = %T (%v), want *OperatorNotAField", err, err)
	}
}

func TestGetBindingUndefined(t *testing.T) {
	v := New(nil, nil, "self")
	g := storeGlobals()

	_, _, err := v.GetBinding(g, "nowhere.at.all")
	if _, ok := err.(*UndefinedBinding); !ok {
		t.Fatalf("err = %T (%v), want *UndefinedBinding", err, err)
	}

	_, _, err = v.GetBinding(g, "data.store.missing")
	if _, ok := err.(*UndefinedField); !ok {
		t.Fatalf("err = %T (%v), want *UndefinedField", err, err)
	}
}

func TestFindVarDistinguishesExterns(t *testing.T) {
	v := New(nil, nil, "self")
	g := storeGlobals()

	kind, typ, ok := v.FindVar(g, "data.store.get")
	if !ok || kind != VarGlobal || typ != "int" {
		t.Fatalf("FindVar(data.store.get) = (%v, %q, %v)", kind, typ, ok)
	}

	kind, _, ok = v.FindVar(g, "host.clock")
	if !ok || kind != VarExtern {
		t.Fatalf("FindVar(host.clock) = (%v, %v), want extern", kind, ok)
	}
}

func TestFindTypeAndKind(t *testing.T) {
	v := New(nil, nil, "self")
	g := storeGlobals()

	typ, ok := v.FindType(g, "host.clock")
	if !ok || typ != "int" {
		t.Fatalf("FindType = (%q, %v)", typ, ok)
	}
	kind, ok := v.FindKind(g, "host.clock")
	if !ok || kind != "Type" {
		t.Fatalf("FindKind = (%q, %v)", kind, ok)
	}
	if _, ok := v.FindKind(g, "missing"); ok {
		t.Fatal("FindKind should fail for an unresolvable symbol")
	}
}

func TestMetadataAndTypeInfo(t *testing.T) {
	v := New(nil, nil, "self")
	g := storeGlobals()

	meta, ok := v.GetMetadata(g, "host.clock")
	if !ok || meta["alias"] != "Instant" {
		t.Fatalf("GetMetadata = (%v, %v)", meta, ok)
	}
	alias, ok := v.FindTypeInfo(g, "host.clock")
	if !ok || alias != "Instant" {
		t.Fatalf("FindTypeInfo = (%q, %v)", alias, ok)
	}
	if _, ok := v.FindTypeInfo(g, "data"); ok {
		t.Fatal("FindTypeInfo should fail when no alias metadata exists")
	}
}
