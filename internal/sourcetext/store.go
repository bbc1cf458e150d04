// Package sourcetext implements the module text store: the inline
// override map plus importer-backed resolution that the rest of the
// pipeline consults as module_text.
package sourcetext

import (
	"fmt"
	"sync"

	"github.com/glu-lang/core/internal/errors"
	"github.com/glu-lang/core/internal/importer"
	"github.com/glu-lang/core/internal/lexer"
	"github.com/glu-lang/core/internal/queryengine"
)

// QueryModuleText is the query-engine family name for module_text.
const QueryModuleText queryengine.QueryID = "module_text"

// QueryFileMap is the query-engine family name for the derived
// byte-offset-to-(line,column) translation table.
const QueryFileMap queryengine.QueryID = "file_map"

// Store is the module text store. module_text consults the inline
// override map first; absent an override, it asks the importer to
// locate and read the resolved source.
type Store struct {
	db       *queryengine.Database
	importer importer.Importer

	mu     sync.Mutex
	inline map[string]string
}

// New builds a Store backed by db and resolving non-inline source
// through imp.
func New(db *queryengine.Database, imp importer.Importer) *Store {
	return &Store{
		db:       db,
		importer: imp,
		inline:   make(map[string]string),
	}
}

// AddModule writes or updates the inline entry for module. If text
// differs from the current inline value, the cached module_text entry
// is explicitly invalidated; if identical, nothing is invalidated
// (idempotence of text updates).
func (s *Store) AddModule(module, text string) error {
	if module == "" {
		return fmt.Errorf("%s: add_module: empty module name", errors.ST002)
	}

	s.mu.Lock()
	old, existed := s.inline[module]
	changed := !existed || old != text
	s.inline[module] = text
	s.mu.Unlock()

	if changed {
		s.db.Invalidate(QueryModuleText, module)
	}
	return nil
}

// RemoveModule deletes the inline entry for module, if any. Subsequent
// reads fall back to the importer-resolved source.
func (s *Store) RemoveModule(module string) {
	s.mu.Lock()
	_, existed := s.inline[module]
	delete(s.inline, module)
	s.mu.Unlock()

	if existed {
		s.db.Invalidate(QueryModuleText, module)
	}
}

// queryText is the ComputeFunc for module_text(module): inline override
// first, else importer resolution.
func (s *Store) queryText(module string) queryengine.ComputeFunc {
	return func(ctx *queryengine.Context) (interface{}, error) {
		s.mu.Lock()
		text, ok := s.inline[module]
		s.mu.Unlock()
		if ok {
			return lexer.Normalize([]byte(text)), nil
		}

		path, found := s.importer.Resolve(module)
		if !found {
			return nil, fmt.Errorf("%s: module %q not found", errors.ST001, module)
		}
		data, err := s.importer.Read(path)
		if err != nil {
			return nil, err
		}
		return lexer.Normalize(data), nil
	}
}

// ModuleText runs module_text(module) as a root query, returning the
// normalized source bytes. The entry is flagged volatile: source text
// may change between revisions (inline edits, or the importer's
// backing file changing on disk) without a matching SetInput, so
// revalidation always re-examines it directly instead of trusting the
// last verified revision.
func (s *Store) ModuleText(module string) ([]byte, error) {
	val, err := s.db.Get(QueryModuleText, module, s.queryText(module))
	s.db.MarkVolatile(QueryModuleText, module)
	if err != nil {
		return nil, err
	}
	return val.([]byte), nil
}

// CallModuleText is the ctx.Call-scoped variant used by dependent
// queries (typecheck, file_map) so a read of module_text is recorded
// as one of their dependencies.
func (s *Store) CallModuleText(ctx *queryengine.Context, module string) ([]byte, error) {
	val, err := ctx.Call(QueryModuleText, module, s.queryText(module))
	ctx.DB().MarkVolatile(QueryModuleText, module)
	if err != nil {
		return nil, err
	}
	return val.([]byte), nil
}

// FileMap runs file_map(module), a pure derivation of module_text used
// for diagnostics. Because it depends only on module_text, editing an
// unrelated module never invalidates it (invalidation locality).
func (s *Store) FileMap(module string) (*FileMap, error) {
	val, err := s.db.Get(QueryFileMap, module, s.queryFileMap(module))
	if err != nil {
		return nil, err
	}
	return val.(*FileMap), nil
}

// CallFileMap is the ctx.Call-scoped variant used by the bytecode
// query when debug-info emission needs the file map as a recorded
// dependency.
func (s *Store) CallFileMap(ctx *queryengine.Context, module string) (*FileMap, error) {
	val, err := ctx.Call(QueryFileMap, module, s.queryFileMap(module))
	if err != nil {
		return nil, err
	}
	return val.(*FileMap), nil
}

func (s *Store) queryFileMap(module string) queryengine.ComputeFunc {
	return func(ctx *queryengine.Context) (interface{}, error) {
		text, err := s.CallModuleText(ctx, module)
		if err != nil {
			return nil, err
		}
		return newFileMap(text), nil
	}
}
