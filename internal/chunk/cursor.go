// Package chunk implements the external collaborator the cursor layer
// consumes: an ordered Key/Value map with its own cursor abstraction, in two
// variants (a live, mutable, skiplist-backed primary chunk, and a sealed,
// immutable, on-disk chunk), plus the chunk vector bookkeeping (reference
// counts, approximate size and count) the tree and cursor layers need.
package chunk

import "errors"

// ErrReadOnly is returned by Insert on a sealed on-disk chunk's cursor.
// Writes only ever target the tree's primary chunk; the cursor layer never
// calls Insert on anything else, but the contract still rejects it rather
// than silently no-opping.
var ErrReadOnly = errors.New("chunk: cannot insert into a sealed on-disk chunk")

// Cursor is the per-chunk cursor contract the LSM cursor layer drives. It
// mirrors the capability set spec'd for the underlying ordered-map store:
// open/close (via newMemCursor/newDiskCursor and Close), reset, next, prev,
// search, search_near, set_key, set_value, insert, get_key, get_value.
type Cursor interface {
	// Reset clears the cursor's position. A subsequent Next/Prev seeds
	// from the beginning/end.
	Reset()

	// Next advances to the next larger key. If the cursor is unpositioned,
	// it seeds at the smallest key. Returns ok=false at end of chunk.
	Next() (ok bool, err error)

	// Prev advances to the next smaller key. If the cursor is
	// unpositioned, it seeds at the largest key. Returns ok=false at the
	// start of chunk.
	Prev() (ok bool, err error)

	// Search positions the cursor at the exact key set by SetKey.
	// Returns ok=false if absent.
	Search() (ok bool, err error)

	// SearchNear positions the cursor at the key nearest the key set by
	// SetKey. cmp is 0 for an exact match, -1 if the landed key is
	// smaller, +1 if larger. Returns ok=false if the chunk is empty.
	SearchNear() (cmp int, ok bool, err error)

	// SetKey stages a key for Search, SearchNear, or Insert.
	SetKey(key []byte)

	// SetValue stages a value for Insert.
	SetValue(value []byte)

	// Insert writes the staged key/value, positioning the cursor there.
	Insert() error

	// Key returns the key at the cursor's current position.
	Key() []byte

	// Value returns the value at the cursor's current position.
	Value() []byte

	// Close releases the cursor. It does not affect the underlying chunk.
	Close() error
}
