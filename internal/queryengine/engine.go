package queryengine

import (
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// ComputeFunc produces the value for a query invocation. It receives a
// Context scoped to this invocation, used to call further queries so
// that their results are recorded as dependencies.
type ComputeFunc func(ctx *Context) (interface{}, error)

// entry is one memoized cell: (query-id, argument) -> boxed result.
type entry struct {
	mu sync.Mutex // at-most-one-concurrent-producer

	value interface{}
	err   error

	computed  bool
	dirty     bool // maybe-dirty: an input changed, needs revalidation
	input     bool // set via SetInput; has no recompute function
	untracked bool // typechecked_module-style untracked read
	volatile  bool // synthetic low-durability read (module_text)

	deps      []Key
	recompute ComputeFunc

	verifiedAt Revision // revision at which this entry was last confirmed valid
	changedAt  Revision // revision at which the VALUE last structurally changed
}

// store is the shared memoization table. Database and its Snapshot
// views point at the same *store, so concurrent readers genuinely
// share one cache. Fork
// allocates a fresh store so writes inside the fork never race with,
// or mutate, the parent's.
type store struct {
	mu         sync.RWMutex
	revision   Revision
	entries    map[Key]*entry
	dependents map[Key]map[Key]bool // dep key -> set of keys that read it
}

// Database is the query engine's memoization table plus revision clock.
// The zero value is not usable; construct with New.
type Database struct {
	id       uuid.UUID
	s        *store
	recovery map[QueryID]RecoveryFunc
	readOnly bool
}

// New creates an empty, writable Database at revision 0.
func New() *Database {
	return &Database{
		id: uuid.New(),
		s: &store{
			entries:    make(map[Key]*entry),
			dependents: make(map[Key]map[Key]bool),
		},
		recovery: make(map[QueryID]RecoveryFunc),
	}
}

// ID returns the database's identity: New and Fork mint a fresh one,
// while a Snapshot carries the id of the database it was taken from.
func (db *Database) ID() uuid.UUID { return db.id }

// Revision returns the current global revision.
func (db *Database) Revision() Revision {
	db.s.mu.RLock()
	defer db.s.mu.RUnlock()
	return db.s.revision
}

// Context is handed to a ComputeFunc; it tracks the chain of
// in-progress queries on this call path (for cycle detection) and
// accumulates the dependencies observed by the current frame.
type Context struct {
	db    *Database
	stack []Key
	deps  *[]Key
}

// DB exposes the owning Database for operations that don't themselves
// record a dependency (Peek, Snapshot, Fork).
func (ctx *Context) DB() *Database { return ctx.db }

// Call invokes another query from within a ComputeFunc. The call is
// memoized exactly like a top-level Get, and — critically — is
// recorded as a dependency of the query currently executing, and
// checked against the in-progress call stack for cycles.
func (ctx *Context) Call(query QueryID, args string, compute ComputeFunc) (interface{}, error) {
	key := Key{Query: query, Args: args}

	for i, k := range ctx.stack {
		if k == key {
			participants := append([]Key{}, ctx.stack[i:]...)
			return ctx.db.recover(query, participants)
		}
	}

	value, err := ctx.db.get(ctx.childContext(key), key, compute)
	if ctx.deps != nil {
		*ctx.deps = append(*ctx.deps, key)
	}
	return value, err
}

func (ctx *Context) childContext(key Key) *Context {
	stack := make([]Key, len(ctx.stack)+1)
	copy(stack, ctx.stack)
	stack[len(stack)-1] = key
	deps := make([]Key, 0)
	return &Context{db: ctx.db, stack: stack, deps: &deps}
}

// Get is the root entry point: compute or return the cached result for
// (query, args). Unlike Call, it starts a fresh call stack, so Get is
// safe to invoke concurrently from unrelated top-level requests.
func (db *Database) Get(query QueryID, args string, compute ComputeFunc) (interface{}, error) {
	key := Key{Query: query, Args: args}
	ctx := &Context{db: db, stack: []Key{key}, deps: new([]Key)}
	return db.get(ctx, key, compute)
}

func (db *Database) getOrCreate(key Key) *entry {
	db.s.mu.Lock()
	defer db.s.mu.Unlock()
	e, ok := db.s.entries[key]
	if !ok {
		e = &entry{}
		db.s.entries[key] = e
	}
	return e
}

func (db *Database) get(ctx *Context, key Key, compute ComputeFunc) (interface{}, error) {
	e := db.getOrCreate(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.computed && !e.dirty {
		return e.value, e.err
	}

	if e.computed && e.dirty {
		if db.revalidate(e) {
			e.dirty = false
			return e.value, e.err
		}
	}

	value, err := compute(ctx)

	db.s.mu.Lock()
	changed := !e.computed || !resultsEqual(e.value, e.err, value, err)
	e.recompute = compute
	e.deps = *ctx.deps
	e.value, e.err = value, err
	e.computed = true
	e.dirty = false
	if changed {
		e.changedAt = db.s.revision
	}
	e.verifiedAt = db.s.revision
	db.registerDependents(key, e.deps)
	db.s.mu.Unlock()

	return value, err
}

// revalidate re-checks a maybe-dirty entry's dependencies without
// recomputing the entry itself: a pure edit that does not affect a
// downstream query re-uses its cached result (early cutoff).
//
// Caller must hold e.mu.
func (db *Database) revalidate(e *entry) bool {
	if e.input || e.volatile {
		return false
	}
	for _, dep := range e.deps {
		db.s.mu.RLock()
		de := db.s.entries[dep]
		db.s.mu.RUnlock()
		if de == nil {
			return false
		}

		if de.dirty && de != e {
			de.mu.Lock()
			if de.dirty {
				if !db.revalidate(de) {
					if de.recompute != nil {
						ctx := &Context{db: db, stack: []Key{dep}, deps: new([]Key)}
						value, err := de.recompute(ctx)
						db.s.mu.Lock()
						changed := !resultsEqual(de.value, de.err, value, err)
						de.value, de.err = value, err
						de.deps = *ctx.deps
						db.registerDependents(dep, de.deps)
						if changed {
							de.changedAt = db.s.revision
						}
						de.verifiedAt = db.s.revision
						db.s.mu.Unlock()
					}
				}
				de.dirty = false
			}
			de.mu.Unlock()
		}

		if de.untracked || de.volatile || de.changedAt > e.verifiedAt {
			return false
		}
	}
	db.s.mu.Lock()
	e.verifiedAt = db.s.revision
	db.s.mu.Unlock()
	return true
}

func (db *Database) registerDependents(key Key, deps []Key) {
	for _, d := range deps {
		if db.s.dependents[d] == nil {
			db.s.dependents[d] = make(map[Key]bool)
		}
		db.s.dependents[d][key] = true
	}
}

// resultsEqual implements the structural-equality comparison early
// cutoff relies on. Values are compared with
// reflect.DeepEqual; error identity is compared by message, since Go
// error values rarely implement a richer equality.
func resultsEqual(v1 interface{}, err1 error, v2 interface{}, err2 error) bool {
	if (err1 == nil) != (err2 == nil) {
		return false
	}
	if err1 != nil {
		return err1.Error() == err2.Error()
	}
	return reflect.DeepEqual(v1, v2)
}
