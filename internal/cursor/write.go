package cursor

import (
	"lsmtree/internal/base"
	"lsmtree/internal/errs"
)

// Insert writes the staged key/value to the primary chunk. With OVERWRITE
// clear, a prior Search for the key must fail (otherwise duplicate-key); by
// default OVERWRITE is set and no duplicate check is performed.
func (c *Cursor) Insert() error {
	if err := c.checkKey(); err != nil {
		return err
	}
	if err := c.checkValue(); err != nil {
		return err
	}
	if err := c.prepareWrite(); err != nil {
		return err
	}

	if !c.flags.Has(base.OVERWRITE) {
		value := c.value
		found, err := c.Search()
		if err != nil {
			return err
		}
		if found {
			return errs.ErrDuplicateKey
		}
		c.value = value
	}

	return c.writePrimary()
}

// Update writes the staged key/value to the primary chunk. With OVERWRITE
// clear, a prior Search for the key must succeed.
func (c *Cursor) Update() error {
	if err := c.checkKey(); err != nil {
		return err
	}
	if err := c.checkValue(); err != nil {
		return err
	}
	if err := c.prepareWrite(); err != nil {
		return err
	}

	if !c.flags.Has(base.OVERWRITE) {
		value := c.value
		found, err := c.Search()
		if err != nil {
			return err
		}
		if !found {
			return errs.ErrNotFound
		}
		c.value = value
	}

	return c.writePrimary()
}

// Remove writes the tombstone sentinel to the primary chunk for the staged
// key. With OVERWRITE clear, a prior Search for the key must succeed.
func (c *Cursor) Remove() error {
	if err := c.checkKey(); err != nil {
		return err
	}
	if err := c.prepareWrite(); err != nil {
		return err
	}

	if !c.flags.Has(base.OVERWRITE) {
		found, err := c.Search()
		if err != nil {
			return err
		}
		if !found {
			return errs.ErrNotFound
		}
	}

	c.value = base.Tombstone
	return c.writePrimary()
}
