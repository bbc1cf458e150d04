package queryengine

// SweepStrategy configures Sweep.
//
//   - DiscardValues evicts cached values, forcing recomputation on next
//     access. Used by the global evaluation query to
//     drop text/typecheck/core/bytecode intermediates once a module's
//     global has been produced.
//   - AllRevisions evicts regardless of how recently an entry was
//     verified; without it, entries confirmed valid in the current
//     revision are left alone.
//   - Queries scopes the sweep to specific query families; empty means
//     every query.
type SweepStrategy struct {
	DiscardValues bool
	AllRevisions  bool
	Queries       []QueryID
}

// Sweep evicts cached entries matching strategy. Input-valued entries
// (set via SetInput) are never evicted.
func (db *Database) Sweep(strategy SweepStrategy) {
	db.s.mu.Lock()
	defer db.s.mu.Unlock()

	scoped := func(q QueryID) bool {
		if len(strategy.Queries) == 0 {
			return true
		}
		for _, want := range strategy.Queries {
			if want == q {
				return true
			}
		}
		return false
	}

	for key, e := range db.s.entries {
		if !scoped(key.Query) {
			continue
		}
		if e.input {
			continue
		}
		if !strategy.AllRevisions && e.verifiedAt == db.s.revision {
			continue
		}
		if strategy.DiscardValues {
			for _, d := range e.deps {
				delete(db.s.dependents[d], key)
			}
			delete(db.s.entries, key)
			delete(db.s.dependents, key)
		}
	}
}
