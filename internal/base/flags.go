package base

// CursorFlags is the bitmask of state an LSM cursor carries between calls.
type CursorFlags uint32

const (
	// UPDATED is set once the cursor has performed its first write, which
	// gates the one-time chunk-switch check in the write path.
	UPDATED CursorFlags = 1 << iota
	// ITERATE_NEXT records that the cursor last moved forward, so a bare
	// Next/Prev call knows whether it must re-seed.
	ITERATE_NEXT
	// ITERATE_PREV is the reverse-direction counterpart of ITERATE_NEXT.
	ITERATE_PREV
	// MULTIPLE records that two or more per-chunk cursors are positioned
	// at a key equal to current's, so the merge iterator must advance the
	// duplicates out of the way.
	MULTIPLE
	// MERGE marks a cursor opened via InitMerge: fixed chunk count, no
	// Bloom filters, never re-syncs.
	MERGE
	// OVERWRITE controls duplicate-key/not-found semantics on write.
	OVERWRITE
	// RAW names the chunk cursors' raw mode. It is never set: per-chunk
	// cursors (chunk.Cursor) carry no flags and always work on raw bytes
	// and overwrite on Insert.
	RAW
	// KEY_SET records that the cursor's key field holds a valid key.
	KEY_SET
	// VALUE_SET records that the cursor's value field holds a valid
	// value.
	VALUE_SET
)

// Has reports whether all bits in mask are set.
func (f CursorFlags) Has(mask CursorFlags) bool {
	return f&mask == mask
}

// Set returns f with mask's bits set.
func (f CursorFlags) Set(mask CursorFlags) CursorFlags {
	return f | mask
}

// Clear returns f with mask's bits cleared.
func (f CursorFlags) Clear(mask CursorFlags) CursorFlags {
	return f &^ mask
}
