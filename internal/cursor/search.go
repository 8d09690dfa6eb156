package cursor

import (
	"lsmtree/internal/base"
	"lsmtree/internal/chunk"
)

// Search looks up the key set by SetKey, scanning chunks newest to oldest
// so a tombstone or newer value shadows older ones without further lookup.
func (c *Cursor) Search() (bool, error) {
	if err := c.checkKey(); err != nil {
		return false, err
	}
	if err := c.sync(); err != nil {
		return false, err
	}
	c.flags = c.flags.Clear(base.ITERATE_NEXT | base.ITERATE_PREV)

	for i := len(c.cursors) - 1; i >= 0; i-- {
		if c.blooms[i] != nil && !c.blooms[i].MayContain(c.key) {
			continue
		}

		cur := c.cursors[i]
		cur.SetKey(c.key)
		ok, err := cur.Search()
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}

		c.current = i
		c.key = cur.Key()
		c.value = cur.Value()
		if base.IsTombstone(c.value) {
			c.flags = c.flags.Clear(base.KEY_SET | base.VALUE_SET)
			return false, nil
		}
		c.flags = c.flags.Set(base.KEY_SET | base.VALUE_SET)
		return true, nil
	}

	c.flags = c.flags.Clear(base.KEY_SET | base.VALUE_SET)
	return false, nil
}

// SearchNear returns the closest key to the one set by SetKey, classifying
// it exact (0), smaller (-1), or larger (+1). When no exact match exists
// anywhere, the smaller candidate is preferred over the larger one -- a
// deliberate tie-break, not an arbitrary choice.
func (c *Cursor) SearchNear() (exact int, ok bool, err error) {
	if err := c.checkKey(); err != nil {
		return 0, false, err
	}
	if err := c.sync(); err != nil {
		return 0, false, err
	}
	c.flags = c.flags.Clear(base.ITERATE_NEXT | base.ITERATE_PREV)

	smallerIdx, largerIdx := -1, -1

	for i := len(c.cursors) - 1; i >= 0; i-- {
		cur := c.cursors[i]
		cur.SetKey(c.key)
		cmp, posOK, serr := cur.SearchNear()
		if serr != nil {
			return 0, false, serr
		}
		if !posOK {
			continue
		}

		if cmp == 0 {
			if !base.IsTombstone(cur.Value()) {
				c.current = i
				c.key = cur.Key()
				c.value = cur.Value()
				c.flags = c.flags.Set(base.KEY_SET | base.VALUE_SET)
				return 0, true, nil
			}
			// Exact match is a tombstone: hop to a neighbor.
			cmp, posOK = hopOffTombstone(cur, c.key)
			if !posOK {
				continue
			}
		} else if base.IsTombstone(cur.Value()) {
			cmp, posOK = hopOffTombstone(cur, c.key)
			if !posOK {
				continue
			}
		}

		if cmp > 0 {
			if largerIdx == -1 || c.tree.Comparator()(cur.Key(), c.cursors[largerIdx].Key()) < 0 {
				largerIdx = i
			}
		} else if cmp < 0 {
			if smallerIdx == -1 || c.tree.Comparator()(cur.Key(), c.cursors[smallerIdx].Key()) > 0 {
				smallerIdx = i
			}
		}
	}

	if smallerIdx >= 0 {
		c.current = smallerIdx
		c.key = c.cursors[smallerIdx].Key()
		c.value = c.cursors[smallerIdx].Value()
		c.flags = c.flags.Set(base.KEY_SET | base.VALUE_SET)
		return -1, true, nil
	}
	if largerIdx >= 0 {
		c.current = largerIdx
		c.key = c.cursors[largerIdx].Key()
		c.value = c.cursors[largerIdx].Value()
		c.flags = c.flags.Set(base.KEY_SET | base.VALUE_SET)
		return 1, true, nil
	}

	c.flags = c.flags.Clear(base.KEY_SET | base.VALUE_SET)
	return 0, false, nil
}

// hopOffTombstone steps a per-chunk cursor positioned at a tombstone
// forward until it lands on a non-tombstone, and if that fails, re-seeks to
// the original key and steps backward instead. It returns the new
// classification (always >0 after a forward hop, <0 after a backward hop)
// and whether a non-tombstone position was found at all.
func hopOffTombstone(cur chunk.Cursor, originalKey []byte) (cmp int, ok bool) {
	for {
		next, err := cur.Next()
		if err != nil || !next {
			break
		}
		if !base.IsTombstone(cur.Value()) {
			return 1, true
		}
	}

	cur.SetKey(originalKey)
	if _, ok, err := cur.SearchNear(); err != nil || !ok {
		return 0, false
	}

	for {
		prev, err := cur.Prev()
		if err != nil || !prev {
			break
		}
		if !base.IsTombstone(cur.Value()) {
			return -1, true
		}
	}
	return 0, false
}
