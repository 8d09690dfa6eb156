// Package compare defines the key-ordering function used throughout the
// tree, chunk, and cursor packages.
package compare

import "bytes"

// Compare orders two keys, returning <0, 0, or >0 the way bytes.Compare does.
// All chunks in a tree must agree on the same Compare; mixing comparators
// across chunks of one tree produces undefined iteration order.
type Compare func(a, b []byte) int

// Default is the byte-lexicographic comparator used when a tree is opened
// without an explicit Compare option.
func Default(a, b []byte) int {
	return bytes.Compare(a, b)
}
