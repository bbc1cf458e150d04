package sourcetext

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/glu-lang/core/internal/queryengine"
)

type fakeImporter struct {
	root string
}

func (f *fakeImporter) Resolve(module string) (string, bool) {
	path := filepath.Join(f.root, module+".glu")
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func (f *fakeImporter) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	db := queryengine.New()
	return New(db, &fakeImporter{root: dir}), dir
}

func TestModuleTextInlineShadowsResolved(t *testing.T) {
	store, dir := newTestStore(t)
	if err := os.WriteFile(filepath.Join(dir, "m.glu"), []byte("resolved"), 0o644); err != nil {
		t.Fatal(err)
	}

	text, err := store.ModuleText("m")
	if err != nil {
		t.Fatalf("ModuleText: %v", err)
	}
	if string(text) != "resolved" {
		t.Fatalf("text = %q, want %q", text, "resolved")
	}

	// An inline add_module shadows the resolved source.
	if err := store.AddModule("m", "inline"); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	text, err = store.ModuleText("m")
	if err != nil {
		t.Fatalf("ModuleText after AddModule: %v", err)
	}
	if string(text) != "inline" {
		t.Fatalf("text = %q, want %q", text, "inline")
	}

	// Removing the inline entry falls back to the resolved source.
	store.RemoveModule("m")
	text, err = store.ModuleText("m")
	if err != nil {
		t.Fatalf("ModuleText after RemoveModule: %v", err)
	}
	if string(text) != "resolved" {
		t.Fatalf("text after RemoveModule = %q, want %q", text, "resolved")
	}
}

func TestAddModuleIdempotence(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.AddModule("m", "1 + 2"); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	if _, err := store.ModuleText("m"); err != nil {
		t.Fatalf("ModuleText: %v", err)
	}

	// Re-adding identical text must not invalidate anything: file_map,
	// derived purely from module_text, should not need recomputation.
	fm1, err := store.FileMap("m")
	if err != nil {
		t.Fatalf("FileMap: %v", err)
	}
	if err := store.AddModule("m", "1 + 2"); err != nil {
		t.Fatalf("AddModule (repeat): %v", err)
	}
	fm2, err := store.FileMap("m")
	if err != nil {
		t.Fatalf("FileMap (repeat): %v", err)
	}
	if fm1 != fm2 {
		t.Fatalf("file_map recomputed after idempotent add_module: %p != %p", fm1, fm2)
	}
}

func TestModuleNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.ModuleText("missing"); err == nil {
		t.Fatal("expected an error for an unresolvable module")
	}
}

func TestFileMapPosition(t *testing.T) {
	fm := newFileMap([]byte("ab\ncd\nef"))
	cases := []struct {
		offset   int
		line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{5, 2, 3},
		{6, 3, 1},
	}
	for _, c := range cases {
		line, col := fm.Position(c.offset)
		if line != c.line || col != c.col {
			t.Errorf("Position(%d) = (%d,%d), want (%d,%d)", c.offset, line, col, c.line, c.col)
		}
	}
}
