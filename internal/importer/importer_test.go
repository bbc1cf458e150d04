package importer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestModulePathDottedToSlash(t *testing.T) {
	if got, want := modulePath("data.structures.list"), filepath.Join("data", "structures", "list.glu"); got != want {
		t.Errorf("modulePath = %q, want %q", got, want)
	}
}

func TestResolvePrefersProjectOverStdlib(t *testing.T) {
	projectRoot := t.TempDir()
	stdlibRoot := t.TempDir()

	if err := os.MkdirAll(filepath.Join(projectRoot, "m"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projectRoot, "m", "lib.glu"), []byte("project"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(stdlibRoot, "m"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stdlibRoot, "m", "lib.glu"), []byte("stdlib"), 0o644); err != nil {
		t.Fatal(err)
	}

	imp := &FSImporter{ProjectRoot: projectRoot, StdlibRoot: stdlibRoot, UseStandardLib: true}
	path, ok := imp.Resolve("m.lib")
	if !ok {
		t.Fatal("expected Resolve to find m.lib")
	}
	data, err := imp.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "project" {
		t.Errorf("Read = %q, want project source to take precedence over stdlib", data)
	}
}

func TestResolveFallsBackToStdlibWhenEnabled(t *testing.T) {
	projectRoot := t.TempDir()
	stdlibRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(stdlibRoot, "m"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stdlibRoot, "m", "lib.glu"), []byte("stdlib"), 0o644); err != nil {
		t.Fatal(err)
	}

	imp := &FSImporter{ProjectRoot: projectRoot, StdlibRoot: stdlibRoot, UseStandardLib: true}
	path, ok := imp.Resolve("m.lib")
	if !ok {
		t.Fatal("expected Resolve to fall back to stdlib")
	}
	data, err := imp.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "stdlib" {
		t.Errorf("Read = %q, want stdlib source", data)
	}
}

func TestResolveIgnoresStdlibWhenDisabled(t *testing.T) {
	projectRoot := t.TempDir()
	stdlibRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(stdlibRoot, "m"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stdlibRoot, "m", "lib.glu"), []byte("stdlib"), 0o644); err != nil {
		t.Fatal(err)
	}

	imp := &FSImporter{ProjectRoot: projectRoot, StdlibRoot: stdlibRoot, UseStandardLib: false}
	if _, ok := imp.Resolve("m.lib"); ok {
		t.Fatal("expected Resolve to refuse the stdlib fallback when UseStandardLib is false")
	}
}

func TestResolveMissingModuleFails(t *testing.T) {
	imp := &FSImporter{ProjectRoot: t.TempDir()}
	if _, ok := imp.Resolve("nowhere.at.all"); ok {
		t.Fatal("expected Resolve to fail for a module with no backing file")
	}
}
