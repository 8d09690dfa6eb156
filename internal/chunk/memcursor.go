package chunk

import "lsmtree/internal/skiplist"

var _ Cursor = (*memCursor)(nil)

// memCursor is the per-chunk Cursor over a live, mutable primary chunk.
type memCursor struct {
	chunk *Chunk
	it    *skiplist.Iterator

	stagedKey   []byte
	stagedValue []byte
}

func newMemCursor(c *Chunk) *memCursor {
	return &memCursor{chunk: c, it: c.mem.NewIterator()}
}

func (c *memCursor) Reset() {
	c.it = c.chunk.mem.NewIterator()
}

func (c *memCursor) Next() (bool, error) {
	if !c.it.Valid() {
		c.it.First()
	} else {
		c.it.Next()
	}
	return c.it.Valid(), nil
}

func (c *memCursor) Prev() (bool, error) {
	if !c.it.Valid() {
		c.it.Last()
	} else {
		c.it.Prev()
	}
	return c.it.Valid(), nil
}

func (c *memCursor) Search() (bool, error) {
	c.it.SeekGE(c.stagedKey)
	if c.it.Valid() && c.chunk.mem.Compare(c.it.Key(), c.stagedKey) == 0 {
		return true, nil
	}
	c.it = c.chunk.mem.NewIterator()
	return false, nil
}

// SearchNear prefers the floor: the largest key <= the staged key. It falls
// back to the ceiling only when no key <= target exists. This is what makes
// "smaller preferred" fall out naturally when a single chunk is asked for a
// key that isn't present.
func (c *memCursor) SearchNear() (int, bool, error) {
	c.it.SeekLE(c.stagedKey)
	if c.it.Valid() {
		if c.chunk.mem.Compare(c.it.Key(), c.stagedKey) == 0 {
			return 0, true, nil
		}
		return -1, true, nil
	}

	c.it.SeekGE(c.stagedKey)
	if c.it.Valid() {
		return 1, true, nil
	}
	return 0, false, nil
}

func (c *memCursor) SetKey(key []byte) {
	c.stagedKey = key
}

func (c *memCursor) SetValue(value []byte) {
	c.stagedValue = value
}

func (c *memCursor) Insert() error {
	c.chunk.mem.Upsert(c.stagedKey, c.stagedValue)
	c.chunk.IncrCount()
	c.chunk.ReserveArena(uint(len(c.stagedKey) + len(c.stagedValue)))
	c.it.SeekGE(c.stagedKey)
	return nil
}

func (c *memCursor) Key() []byte {
	return c.it.Key()
}

func (c *memCursor) Value() []byte {
	return c.it.Value()
}

func (c *memCursor) Close() error {
	return nil
}
