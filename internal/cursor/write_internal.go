package cursor

import "lsmtree/internal/base"

// prepareWrite implements the write path's common prelude: on the first
// write of this cursor, take the tree lock and perform a chunk switch if
// the observed dsk_gen still matches the tree's (meaning no other writer
// has already switched), then resync once. If another thread switched
// concurrently between our dsk_gen observation and taking the lock, we skip
// our own switch and resync once to pick up theirs. This single re-sync,
// not a retry loop, mirrors the source behavior: a second concurrent switch
// landing in the gap is a known, accepted race rather than something this
// layer loops to close.
func (c *Cursor) prepareWrite() error {
	if err := c.sync(); err != nil {
		return err
	}
	if c.flags.Has(base.UPDATED) {
		return nil
	}

	c.tree.Lock()
	if c.dskGen == c.tree.DskGen() {
		if err := c.tree.Switch(); err != nil {
			c.tree.Unlock()
			return err
		}
	}
	c.tree.Unlock()

	c.flags = c.flags.Set(base.UPDATED)
	return c.sync()
}

// writePrimary writes the cursor's staged key/value to the primary chunk's
// cursor (always the newest entry in the snapshot) and runs the post-write
// threshold check.
func (c *Cursor) writePrimary() error {
	primaryIdx := len(c.cursors) - 1
	cur := c.cursors[primaryIdx]

	cur.SetKey(c.key)
	cur.SetValue(c.value)
	if err := cur.Insert(); err != nil {
		return err
	}
	c.primary.IncrCount()

	c.flags = c.flags.Clear(base.ITERATE_NEXT | base.ITERATE_PREV)
	c.current = primaryIdx
	c.key = cur.Key()
	c.value = cur.Value()

	if c.primary.MemSize() <= c.tree.Threshold() {
		return nil
	}

	c.tree.Lock()
	defer c.tree.Unlock()
	if c.dskGen == c.tree.DskGen() {
		if err := c.tree.Switch(); err != nil {
			return err
		}
	}
	return nil
}
