// Package base holds the small, dependency-free types shared across the
// chunk, cursor, and tree packages: the tombstone convention and the cursor
// flag bitmask.
package base

// Tombstone is the sentinel value marking a logical delete. It is a
// zero-length, non-nil slice so that callers comparing against it by value
// (rather than by IsTombstone) still see the expected "present but empty"
// shape.
var Tombstone = []byte{}

// IsTombstone reports whether v is the tombstone sentinel. Length, not
// nilness, is what matters: a nil value and an empty-but-non-nil value are
// both tombstones, matching the convention that the application can never
// store a legitimate zero-length value.
func IsTombstone(v []byte) bool {
	return len(v) == 0
}
