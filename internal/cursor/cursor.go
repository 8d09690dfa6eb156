// Package cursor implements the LSM cursor: the composite iterator that
// presents a single logically-ordered key/value view over a tree's ordered
// chunk vector. This is the hard engineering core of the storage engine --
// merge iteration, Bloom-gated search, tombstone discipline, dsk_gen
// synchronization, and the write path's chunk-switch trigger.
package cursor

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"lsmtree/internal/base"
	"lsmtree/internal/bloomfilter"
	"lsmtree/internal/chunk"
	"lsmtree/internal/errs"
	"lsmtree/internal/tree"
)

// Option configures Open.
type Option struct {
	// Overwrite controls duplicate-key/not-found semantics on write.
	// DefaultOption sets it, matching the underlying store's default open
	// mode, which sets overwrite unless the caller explicitly disables it;
	// the zero Option leaves it clear.
	Overwrite bool
}

// DefaultOption is the option set with Overwrite enabled, for callers with
// no other preference. Open uses the Option it is given as is.
var DefaultOption = Option{Overwrite: true}

// Cursor is a single-session, non-thread-safe iterator over one LSM tree.
type Cursor struct {
	tree *tree.Tree
	uri  string
	log  hclog.Logger

	flags base.CursorFlags

	cursors []chunk.Cursor
	blooms  []*bloomfilter.Filter
	chunks  []*chunk.Chunk
	valid   []bool

	current int
	primary *chunk.Chunk

	key   []byte
	value []byte

	dskGen uint64
	synced bool

	mergeNChunks int
}

// Open creates a new LSM cursor over t. uri must have the "lsm:" prefix;
// the schema/catalog layer that would normally route a generic URI to an
// LSM tree creator is out of scope here, so Open is handed an
// already-constructed tree.
func Open(uri string, t *tree.Tree, opt Option, log hclog.Logger) (*Cursor, error) {
	if !strings.HasPrefix(uri, "lsm:") {
		return nil, fmt.Errorf("%w: uri %q missing lsm: prefix", errs.ErrInvalidArgument, uri)
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}

	c := &Cursor{
		tree:         t,
		uri:          uri,
		log:          log,
		current:      -1,
		mergeNChunks: -1,
	}
	if opt.Overwrite {
		c.flags = c.flags.Set(base.OVERWRITE)
	}
	return c, nil
}

// InitMerge pins the cursor to nchunks chunks, disables Bloom filters, and
// disables future re-sync. The caller must hold the tree lock while calling
// InitMerge, since nchunks must match the tree's chunk count at this
// instant and there is no validation of that requirement -- this is
// preserved as-is from the source algorithm, not strengthened.
func (c *Cursor) InitMerge(nchunks int) error {
	c.flags = c.flags.Set(base.MERGE)
	c.mergeNChunks = nchunks
	c.closeCursorsBestEffort()
	return c.openCursors(nchunks)
}

// sync reconciles the cursor's chunk array with the tree's current dsk_gen,
// per the sync/open-cursors protocol. MERGE cursors never resync.
func (c *Cursor) sync() error {
	if c.flags.Has(base.MERGE) {
		return nil
	}
	if c.synced && c.dskGen == c.tree.DskGen() {
		return nil
	}

	if c.flags.Has(base.KEY_SET) {
		k := make([]byte, len(c.key))
		copy(k, c.key)
		c.key = k
		c.flags = c.flags.Clear(base.ITERATE_NEXT | base.ITERATE_PREV)
	}

	if err := c.closeCursorsBestEffort(); err != nil {
		c.log.Warn("sync: error closing prior per-chunk cursors", "uri", c.uri, "error", err)
	}

	return c.openCursors(-1)
}

// openCursors implements steps 3-10 of the sync/open-cursors protocol. On
// the normal resync path it acquires the tree lock itself; for a MERGE
// cursor (the InitMerge path) the caller already holds it.
// nchunksOverride < 0 means "use the tree's current chunk count" (the
// normal resync path); >= 0 pins the count (the InitMerge path).
func (c *Cursor) openCursors(nchunksOverride int) error {
	if !c.flags.Has(base.MERGE) {
		c.tree.Lock()
		defer c.tree.Unlock()
	}

	chunks := c.tree.Chunks()
	nchunks := len(chunks)
	if nchunksOverride >= 0 && nchunksOverride < nchunks {
		nchunks = nchunksOverride
	}
	if nchunks == 0 {
		return fmt.Errorf("%w: tree has no chunks", errs.ErrResource)
	}

	cursors := make([]chunk.Cursor, nchunks)
	blooms := make([]*bloomfilter.Filter, nchunks)
	snap := make([]*chunk.Chunk, nchunks)
	for i := 0; i < nchunks; i++ {
		ch := chunks[i]
		cursors[i] = ch.NewCursor()
		snap[i] = ch
		if ch.BloomURI != "" && !c.flags.Has(base.MERGE) {
			f, err := bloomfilter.Open(ch.BloomURI)
			if err != nil {
				c.log.Warn("sync: failed to open bloom filter", "chunk", ch.URI, "error", err)
			} else {
				blooms[i] = f
			}
		}
	}

	primary := chunks[nchunks-1]
	primary.IncrNCursor()

	c.cursors = cursors
	c.blooms = blooms
	c.chunks = snap
	c.valid = make([]bool, nchunks)
	c.current = -1
	c.primary = primary
	c.dskGen = c.tree.DskGen()
	c.synced = true
	return nil
}

// closeCursorsBestEffort closes every per-chunk cursor and detaches from the
// primary, aggregating errors but always running to completion.
func (c *Cursor) closeCursorsBestEffort() error {
	var merr *multierror.Error
	for _, cur := range c.cursors {
		if cur == nil {
			continue
		}
		if err := cur.Close(); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if c.primary != nil {
		c.primary.DecrNCursor()
		c.primary = nil
	}
	c.cursors = nil
	c.blooms = nil
	c.chunks = nil
	c.valid = nil
	c.current = -1
	c.synced = false
	return merr.ErrorOrNil()
}

// Compare orders a and b's keys using the tree's comparator. It does not
// sync and rejects cursors opened on different URIs.
func (c *Cursor) Compare(other *Cursor) (int, error) {
	if c.uri != other.uri {
		return 0, fmt.Errorf("%w: compare across different URIs %q and %q", errs.ErrInvalidArgument, c.uri, other.uri)
	}
	if !c.flags.Has(base.KEY_SET) || !other.flags.Has(base.KEY_SET) {
		return 0, fmt.Errorf("%w: compare requires both cursors' keys to be set", errs.ErrInvalidArgument)
	}
	return c.tree.Comparator()(c.key, other.key), nil
}

// SetKey stages key for the next Search, SearchNear, Insert, Update, or
// Remove call.
func (c *Cursor) SetKey(key []byte) {
	c.key = key
	c.flags = c.flags.Set(base.KEY_SET)
}

// SetValue stages value for the next Insert or Update call.
func (c *Cursor) SetValue(value []byte) {
	c.value = value
	c.flags = c.flags.Set(base.VALUE_SET)
}

// Key returns the key at the cursor's current position.
func (c *Cursor) Key() []byte {
	return c.key
}

// Value returns the value at the cursor's current position.
func (c *Cursor) Value() []byte {
	return c.value
}

// Reset clears the cursor's position. It resyncs first like the other
// operations, so its per-chunk cursors are closed and reopened only when
// the tree's dsk_gen has moved.
func (c *Cursor) Reset() error {
	if err := c.sync(); err != nil {
		return err
	}
	if c.current >= 0 && c.current < len(c.cursors) {
		c.cursors[c.current].Reset()
	}
	c.current = -1
	c.flags = c.flags.Clear(base.KEY_SET | base.VALUE_SET | base.ITERATE_NEXT | base.ITERATE_PREV)
	return nil
}

// Close closes every per-chunk cursor and detaches from the primary. Unlike
// every other operation, Close does not go through sync: a cursor that was
// never used must not trigger a resync merely by being closed.
func (c *Cursor) Close() error {
	return c.closeCursorsBestEffort()
}

func (c *Cursor) checkKey() error {
	if !c.flags.Has(base.KEY_SET) {
		return fmt.Errorf("%w: key not set", errs.ErrInvalidArgument)
	}
	return nil
}

// checkValue implements the WT_LSM_NEEDVALUE compound check: a value must
// be staged, and it must not be the empty tombstone sentinel.
func (c *Cursor) checkValue() error {
	if !c.flags.Has(base.VALUE_SET) {
		return errs.ErrValueNotSet
	}
	if base.IsTombstone(c.value) {
		return errs.ErrValueNotSet
	}
	return nil
}
