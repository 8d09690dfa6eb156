package skiplist

// Iterator walks a Skiplist's entries in key order. It is a simple value
// holder, not a snapshot: concurrent Upserts on the list are visible to an
// iterator that re-seeks past them, matching the chunk cursor's own
// unsynchronized-between-writes contract.
type Iterator struct {
	list *Skiplist
	nd   *node
}

// NewIterator returns an unpositioned iterator over list.
func (s *Skiplist) NewIterator() *Iterator {
	return &Iterator{list: s}
}

// Valid reports whether the iterator is positioned at an entry.
func (it *Iterator) Valid() bool {
	return it.nd != nil
}

// Key returns the key at the iterator's current position.
func (it *Iterator) Key() []byte {
	return it.nd.key
}

// Value returns the value at the iterator's current position.
func (it *Iterator) Value() []byte {
	return it.nd.value
}

// First positions the iterator at the smallest key.
func (it *Iterator) First() {
	it.list.mu.RLock()
	defer it.list.mu.RUnlock()
	it.nd = it.list.head.tower[0]
}

// Last positions the iterator at the largest key.
func (it *Iterator) Last() {
	it.list.mu.RLock()
	defer it.list.mu.RUnlock()
	it.nd = it.list.predecessorLocked(nil)
}

// SeekGE positions the iterator at the first key >= target.
func (it *Iterator) SeekGE(target []byte) {
	it.list.mu.RLock()
	defer it.list.mu.RUnlock()
	it.nd = it.list.seekGELocked(target)
}

// SeekLE positions the iterator at the last key <= target.
func (it *Iterator) SeekLE(target []byte) {
	it.list.mu.RLock()
	defer it.list.mu.RUnlock()
	it.nd = it.list.seekLELocked(target)
}

// Next advances the iterator to the next larger key.
func (it *Iterator) Next() {
	it.list.mu.RLock()
	defer it.list.mu.RUnlock()
	if it.nd == nil {
		return
	}
	it.nd = it.nd.tower[0]
}

// Prev moves the iterator to the next smaller key.
func (it *Iterator) Prev() {
	it.list.mu.RLock()
	defer it.list.mu.RUnlock()
	it.nd = it.list.predecessorLocked(it.nd)
}
