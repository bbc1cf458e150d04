// Package importer locates and reads the resolved source for a module
// name, honoring the project/stdlib search order the CLI and test
// harness both rely on.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glu-lang/core/internal/errors"
)

// Importer locates and reads the resolved (non-inline) source for a
// module path.
type Importer interface {
	// Resolve turns a module name (e.g. "data.structures") into the
	// file path that module.replace(".", "/") + ".glu" would name, and
	// reports whether a file exists there.
	Resolve(module string) (path string, ok bool)

	// Read reads the bytes at a path previously returned by Resolve.
	Read(path string) ([]byte, error)
}

// FSImporter resolves modules against a project root and an optional
// standard-library root, mirroring the search order of a typical
// module loader: project tree first, stdlib only when enabled.
type FSImporter struct {
	ProjectRoot    string
	StdlibRoot     string
	UseStandardLib bool
}

// NewFSImporter builds an FSImporter rooted at the working directory,
// with the standard library located relative to the executable or
// GLU_STDLIB, matching the project's existing search conventions.
func NewFSImporter(useStandardLib bool) *FSImporter {
	return &FSImporter{
		ProjectRoot:    findProjectRoot(),
		StdlibRoot:     findStdlibPath(),
		UseStandardLib: useStandardLib,
	}
}

// modulePath converts a dotted module name into the relative file path
// the resolution rule names: module.replace(".", "/") + ".glu".
func modulePath(module string) string {
	return strings.ReplaceAll(module, ".", string(filepath.Separator)) + ".glu"
}

func (imp *FSImporter) Resolve(module string) (string, bool) {
	rel := modulePath(module)

	if imp.ProjectRoot != "" {
		candidate := filepath.Join(imp.ProjectRoot, rel)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}

	if imp.UseStandardLib && imp.StdlibRoot != "" {
		candidate := filepath.Join(imp.StdlibRoot, rel)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}

	return "", false
}

func (imp *FSImporter) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errors.ST001, err)
	}
	return data, nil
}

func findProjectRoot() string {
	markers := []string{"go.mod", ".git", "glu.yaml"}

	dir, err := os.Getwd()
	if err != nil {
		return "."
	}

	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}

func findStdlibPath() string {
	if stdlib := os.Getenv("GLU_STDLIB"); stdlib != "" {
		return stdlib
	}
	if exe, err := os.Executable(); err == nil {
		stdlib := filepath.Join(filepath.Dir(exe), "..", "stdlib")
		if info, err := os.Stat(stdlib); err == nil && info.IsDir() {
			return stdlib
		}
	}
	return ""
}
