package queryengine

import "github.com/google/uuid"

// View is a read-only handle onto a Database, usable from another
// goroutine.
// Views can execute memoized queries but cannot call SetInput.
type View struct {
	db *Database
}

// Get executes a query against the view. Writes attempted by compute
// (via SetInput on ctx.DB()) fail with ErrReadOnly.
func (v *View) Get(query QueryID, args string, compute ComputeFunc) (interface{}, error) {
	return v.db.Get(query, args, compute)
}

// Peek reads a cached value without recomputing.
func (v *View) Peek(query QueryID, args string) (interface{}, error, bool) {
	return v.db.Peek(query, args)
}

// Revision reports the view's underlying revision.
func (v *View) Revision() Revision { return v.db.Revision() }

// Snapshot returns a read-only handle sharing this database's cache
// with other concurrent readers.
func (db *Database) Snapshot() *View {
	return &View{db: &Database{
		id:       db.id,
		s:        db.s,
		recovery: db.recovery,
		readOnly: true,
	}}
}

// Fork creates an isolated sub-database seeded from the current state
// of db, for speculative or parallel exploration.
// Entries are copied (not shared) so writes inside the fork — cycle
// recovery aside — never mutate the parent.
func (db *Database) Fork() *Database {
	db.s.mu.RLock()
	defer db.s.mu.RUnlock()

	fork := &Database{
		id: uuid.New(),
		s: &store{
			revision:   db.s.revision,
			entries:    make(map[Key]*entry, len(db.s.entries)),
			dependents: make(map[Key]map[Key]bool, len(db.s.dependents)),
		},
		recovery: db.recovery,
	}
	for k, e := range db.s.entries {
		e.mu.Lock()
		cp := &entry{
			value:      e.value,
			err:        e.err,
			computed:   e.computed,
			dirty:      e.dirty,
			input:      e.input,
			untracked:  e.untracked,
			volatile:   e.volatile,
			deps:       append([]Key{}, e.deps...),
			recompute:  e.recompute,
			verifiedAt: e.verifiedAt,
			changedAt:  e.changedAt,
		}
		e.mu.Unlock()
		fork.s.entries[k] = cp
	}
	for k, set := range db.s.dependents {
		cp := make(map[Key]bool, len(set))
		for dk, v := range set {
			cp[dk] = v
		}
		fork.s.dependents[k] = cp
	}
	return fork
}
