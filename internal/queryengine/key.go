// Package queryengine implements the demand-driven, memoized query graph
// that sits underneath every compiler phase: module text, typechecking,
// core translation, optimization, bytecode emission, and global
// evaluation are all expressed as queries against a single Database.
package queryengine

import "fmt"

// QueryID names a family of queries, e.g. "module_text" or "global".
// Recovery callbacks and sweep scoping are keyed by QueryID.
type QueryID string

// Key identifies one memoized entry: a query applied to a specific,
// already-encoded argument string. Callers are responsible for
// canonicalizing their arguments into Args (usually just the module
// name, or "module|expectedType").
type Key struct {
	Query QueryID
	Args  string
}

func (k Key) String() string {
	return fmt.Sprintf("%s(%s)", k.Query, k.Args)
}

// Revision is a monotonically increasing counter bumped on every input
// change.
type Revision uint64
