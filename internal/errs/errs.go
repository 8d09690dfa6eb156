// Package errs holds the sentinel errors the cursor layer surfaces to its
// callers, matching the teacher's pkg/db/error.go style of plain
// errors.New values checked with errors.Is.
package errs

import "errors"

var (
	// ErrNotFound: no key matches (search, update, remove without
	// overwrite, iteration end).
	ErrNotFound = errors.New("lsm: not found")

	// ErrDuplicateKey: a non-overwrite insert collides with an existing
	// key.
	ErrDuplicateKey = errors.New("lsm: duplicate key")

	// ErrInvalidArgument: wrong URI scheme, cross-URI compare, or a
	// missing required key/value.
	ErrInvalidArgument = errors.New("lsm: invalid argument")

	// ErrValueNotSet: attempt to insert/update with the reserved empty
	// (tombstone) value.
	ErrValueNotSet = errors.New("lsm: value not set")

	// ErrResource: out-of-memory or chunk-open failure surfaced from a
	// collaborator.
	ErrResource = errors.New("lsm: resource error")

	// ErrLockOrder is a fatal, should-be-unreachable assertion failure:
	// the schema lock was about to be acquired without the tree lock
	// already held.
	ErrLockOrder = errors.New("lsm: lock-order violation: schema lock acquired without tree lock held")
)
