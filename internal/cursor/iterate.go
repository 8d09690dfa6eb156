package cursor

import "lsmtree/internal/base"

// Next advances the cursor forward, returning ok=false at end of keyspace.
func (c *Cursor) Next() (bool, error) {
	if err := c.sync(); err != nil {
		return false, err
	}

	if !c.flags.Has(base.ITERATE_NEXT) {
		landed, err := c.seed(true)
		if err != nil {
			return false, err
		}
		if landed {
			if !c.pickCurrent(true) {
				c.current = -1
				c.flags = c.flags.Clear(base.KEY_SET | base.VALUE_SET)
				return false, nil
			}
			if err := c.advance(true); err != nil {
				return false, err
			}
		}
	} else {
		if err := c.advance(true); err != nil {
			return false, err
		}
	}

	for {
		if !c.pickCurrent(true) {
			c.current = -1
			c.flags = c.flags.Clear(base.KEY_SET | base.VALUE_SET)
			return false, nil
		}
		if !base.IsTombstone(c.value) {
			c.flags = c.flags.Set(base.KEY_SET | base.VALUE_SET)
			return true, nil
		}
		if err := c.advance(true); err != nil {
			return false, err
		}
	}
}

// Prev advances the cursor backward, returning ok=false at the start of the
// keyspace.
func (c *Cursor) Prev() (bool, error) {
	if err := c.sync(); err != nil {
		return false, err
	}

	if !c.flags.Has(base.ITERATE_PREV) {
		landed, err := c.seed(false)
		if err != nil {
			return false, err
		}
		if landed {
			if !c.pickCurrent(false) {
				c.current = -1
				c.flags = c.flags.Clear(base.KEY_SET | base.VALUE_SET)
				return false, nil
			}
			if err := c.advance(false); err != nil {
				return false, err
			}
		}
	} else {
		if err := c.advance(false); err != nil {
			return false, err
		}
	}

	for {
		if !c.pickCurrent(false) {
			c.current = -1
			c.flags = c.flags.Clear(base.KEY_SET | base.VALUE_SET)
			return false, nil
		}
		if !base.IsTombstone(c.value) {
			c.flags = c.flags.Set(base.KEY_SET | base.VALUE_SET)
			return true, nil
		}
		if err := c.advance(false); err != nil {
			return false, err
		}
	}
}

// seed positions every per-chunk cursor ahead of (forward) or behind
// (reverse) the user key, or at the beginning/end of the chunk if no key is
// set. It is called once per direction, the first time Next/Prev is called
// since the cursor was last reset, repositioned by Search/SearchNear, or
// resynced. It reports whether any per-chunk cursor landed exactly on the
// user key -- per spec.md §4.3, that case must still fall into the
// iterating branch for one advancement step, so Next/Prev returns the key
// after the seeded one rather than the seeded key itself.
func (c *Cursor) seed(forward bool) (landed bool, err error) {
	c.flags = c.flags.Clear(base.MULTIPLE)
	hasKey := c.flags.Has(base.KEY_SET)

	for i, cur := range c.cursors {
		if !hasKey {
			cur.Reset()
			var ok bool
			if forward {
				ok, err = cur.Next()
			} else {
				ok, err = cur.Prev()
			}
			if err != nil {
				return false, err
			}
			c.valid[i] = ok
			continue
		}

		cur.SetKey(c.key)
		cmp, ok, err := cur.SearchNear()
		if err != nil {
			return false, err
		}
		if !ok {
			c.valid[i] = false
			continue
		}
		c.valid[i] = true

		if cmp == 0 {
			landed = true
			continue
		}

		// SearchNear prefers the floor (cmp<0 means "landed before key").
		// Forward iteration needs every cursor at >= key, so a floor
		// landing must step forward once; reverse needs <= key, so a
		// ceiling landing (cmp>0) must step backward once.
		if forward && cmp < 0 {
			ok2, err := cur.Next()
			if err != nil {
				return false, err
			}
			c.valid[i] = ok2
		} else if !forward && cmp > 0 {
			ok2, err := cur.Prev()
			if err != nil {
				return false, err
			}
			c.valid[i] = ok2
		}
	}

	if forward {
		c.flags = c.flags.Set(base.ITERATE_NEXT).Clear(base.ITERATE_PREV)
	} else {
		c.flags = c.flags.Set(base.ITERATE_PREV).Clear(base.ITERATE_NEXT)
	}
	return landed, nil
}

// advance implements the iterating branch: if MULTIPLE, walk every
// per-chunk cursor sitting at current's key (other than current itself)
// and step it out of the way, then step current itself.
func (c *Cursor) advance(forward bool) error {
	if c.flags.Has(base.MULTIPLE) && c.current >= 0 {
		currentKey := c.cursors[c.current].Key()
		for i, cur := range c.cursors {
			if i == c.current || !c.valid[i] {
				continue
			}
			if c.tree.Comparator()(cur.Key(), currentKey) != 0 {
				continue
			}
			var ok bool
			var err error
			if forward {
				ok, err = cur.Next()
			} else {
				ok, err = cur.Prev()
			}
			if err != nil {
				return err
			}
			c.valid[i] = ok
		}
	}

	if c.current >= 0 && c.valid[c.current] {
		cur := c.cursors[c.current]
		var ok bool
		var err error
		if forward {
			ok, err = cur.Next()
		} else {
			ok, err = cur.Prev()
		}
		if err != nil {
			return err
		}
		c.valid[c.current] = ok
	}
	return nil
}

// pickCurrent scans every positioned per-chunk cursor and selects the
// smallest (forward) or largest (reverse) key, using the tree's
// comparator. Chunks are scanned newest (highest index) to oldest, and a
// tie never replaces the incumbent -- which is what makes "newest chunk
// wins" fall out of iteration order rather than an explicit tie-break.
func (c *Cursor) pickCurrent(forward bool) bool {
	best := -1
	c.flags = c.flags.Clear(base.MULTIPLE)

	for i := len(c.cursors) - 1; i >= 0; i-- {
		if !c.valid[i] {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		cmp := c.tree.Comparator()(c.cursors[i].Key(), c.cursors[best].Key())
		switch {
		case forward && cmp < 0, !forward && cmp > 0:
			best = i
		case cmp == 0:
			c.flags = c.flags.Set(base.MULTIPLE)
		}
	}

	if best == -1 {
		return false
	}
	c.current = best
	c.key = c.cursors[best].Key()
	c.value = c.cursors[best].Value()
	return true
}
