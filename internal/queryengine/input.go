package queryengine

import "fmt"

// ErrReadOnly is returned by SetInput when called against a snapshot or
// fork view rather than the owning root Database.
var ErrReadOnly = fmt.Errorf("queryengine: set_input called on a read-only view")

// SetInput mutates an input-valued query and bumps the global revision.
// All transitive dependents become maybe-dirty.
func (db *Database) SetInput(query QueryID, args string, value interface{}) error {
	if db.readOnly {
		return ErrReadOnly
	}
	key := Key{Query: query, Args: args}
	e := db.getOrCreate(key)

	e.mu.Lock()
	changed := !e.computed || !resultsEqual(e.value, e.err, value, nil)
	e.value, e.err = value, nil
	e.computed = true
	e.input = true
	e.dirty = false
	e.mu.Unlock()

	db.s.mu.Lock()
	db.s.revision++
	if changed {
		e.changedAt = db.s.revision
	}
	e.verifiedAt = db.s.revision
	db.s.mu.Unlock()

	if changed {
		db.propagateDirty(key)
	}
	return nil
}

// Invalidate marks a specific memoized entry dirty without replacing
// its inputs, so its dependents re-examine it on their next read. The
// source-text store calls it when an inline override's text changes
// and when an override is removed.
func (db *Database) Invalidate(query QueryID, args string) {
	key := Key{Query: query, Args: args}
	db.s.mu.Lock()
	e, ok := db.s.entries[key]
	db.s.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.dirty = true
	e.mu.Unlock()
	db.propagateDirty(key)
}

// propagateDirty marks key and every transitive dependent maybe-dirty.
// This is the "invalidation locality" guarantee:
// only the transitive dependents of the changed entry are touched.
func (db *Database) propagateDirty(key Key) {
	db.s.mu.Lock()
	seen := map[Key]bool{key: true}
	queue := []Key{key}
	var touched []Key
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		for dependent := range db.s.dependents[k] {
			if seen[dependent] {
				continue
			}
			seen[dependent] = true
			queue = append(queue, dependent)
			touched = append(touched, dependent)
		}
	}
	db.s.mu.Unlock()

	for _, k := range touched {
		db.s.mu.RLock()
		e := db.s.entries[k]
		db.s.mu.RUnlock()
		if e == nil || e.input {
			continue
		}
		e.mu.Lock()
		e.dirty = true
		e.mu.Unlock()
	}
}

// Peek returns a cached value without recomputing or recording a
// dependency. The bool is false if nothing has
// been computed for this key yet.
func (db *Database) Peek(query QueryID, args string) (interface{}, error, bool) {
	key := Key{Query: query, Args: args}
	db.s.mu.RLock()
	e, ok := db.s.entries[key]
	db.s.mu.RUnlock()
	if !ok {
		return nil, nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.computed {
		return nil, nil, false
	}
	return e.value, e.err, true
}

// MarkVolatile flags an entry as a synthetic low-durability read:
// its revalidation always recomputes the entry itself, so staleness
// protection relies entirely on the structural-equality early cutoff
// of whatever value it produces. Call after the entry's
// first Get/Call.
func (db *Database) MarkVolatile(query QueryID, args string) {
	key := Key{Query: query, Args: args}
	db.s.mu.RLock()
	e, ok := db.s.entries[key]
	db.s.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.volatile = true
	e.mu.Unlock()
}

// MarkUntracked flags an entry as an untracked read:
// downstream revalidation can never trust that this entry's value is
// unchanged just because its own dependencies didn't change, because
// the computation it wraps (the external typechecker) may have
// observed state the engine cannot see edges for.
func (db *Database) MarkUntracked(query QueryID, args string) {
	key := Key{Query: query, Args: args}
	db.s.mu.RLock()
	e, ok := db.s.entries[key]
	db.s.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.untracked = true
	e.mu.Unlock()
}
