package chunk

import (
	"fmt"
	"sync/atomic"

	"lsmtree/internal/arena"
	"lsmtree/internal/compare"
	"lsmtree/internal/skiplist"
)

// defaultArenaBudget is the out-of-GC accounting headroom given to each
// in-memory chunk's arena. It does not bound chunk size -- the skiplist's
// own Size() is what the tree compares against its switch threshold -- it
// is a secondary signal mirrored alongside MemSize for operational logging.
const defaultArenaBudget = 8 << 20

// Chunk is one entry in the tree's ordered chunk vector: either the live,
// in-memory primary (backed by a skiplist) or a sealed on-disk table.
type Chunk struct {
	// URI identifies the chunk; for an in-memory chunk it is synthetic
	// (e.g. "lsm:tree/000003.mem"), for an on-disk chunk it is the sealed
	// file's path.
	URI string
	// BloomURI is the path to the chunk's persisted Bloom filter, set
	// only for on-disk chunks.
	BloomURI string

	onDisk bool
	mem    *skiplist.Skiplist
	disk   *diskChunk
	arena  *arena.Arena

	// ncursor is the number of LSM cursors currently attached to this
	// chunk as their primary. Incremented/decremented atomically per
	// invariant 3 of the cursor layer.
	ncursor atomic.Int64

	// count is an approximate entry count, intentionally incremented
	// without synchronization: it is a sizing heuristic, not a precise
	// counter.
	count uint64
}

// NewMemChunk constructs a new, empty in-memory (primary) chunk.
func NewMemChunk(uri string, cmp compare.Compare) *Chunk {
	return &Chunk{
		URI:   uri,
		mem:   skiplist.New(cmp),
		arena: arena.New(defaultArenaBudget),
	}
}

// OnDisk reports whether this chunk is sealed.
func (c *Chunk) OnDisk() bool {
	return c.onDisk
}

// MemSize returns the chunk's approximate in-memory footprint. Only
// meaningful for a live chunk; sealed chunks return 0.
func (c *Chunk) MemSize() uint {
	if c.mem == nil {
		return 0
	}
	return c.mem.Size()
}

// Count returns the chunk's approximate entry count. Like IncrCount, this
// is an unsynchronized read of a heuristic counter, not a precise value.
func (c *Chunk) Count() uint64 {
	return c.count
}

// IncrCount bumps the approximate entry count. Deliberately non-atomic per
// the write path's "best-effort, no lock" contract for this counter.
func (c *Chunk) IncrCount() {
	c.count++
}

// ArenaBytes returns the bytes reserved so far in this chunk's accounting
// arena.
func (c *Chunk) ArenaBytes() uint {
	if c.arena == nil {
		return 0
	}
	return c.arena.Len()
}

// ReserveArena accounts size bytes against the chunk's arena budget. Best
// effort: the arena is a secondary signal, so exhaustion is silently
// ignored rather than blocking the write that triggered it.
func (c *Chunk) ReserveArena(size uint) {
	if c.arena == nil {
		return
	}
	_, _ = c.arena.Allocate(size)
}

// ArenaAvailable returns the bytes remaining in this chunk's arena budget.
func (c *Chunk) ArenaAvailable() uint {
	if c.arena == nil {
		return 0
	}
	return c.arena.Available()
}

// ArenaCap returns this chunk's total arena budget.
func (c *Chunk) ArenaCap() uint {
	if c.arena == nil {
		return 0
	}
	return c.arena.Cap()
}

// IncrNCursor atomically increments the chunk's cursor reference count.
func (c *Chunk) IncrNCursor() {
	c.ncursor.Add(1)
}

// DecrNCursor atomically decrements the chunk's cursor reference count.
func (c *Chunk) DecrNCursor() {
	c.ncursor.Add(-1)
}

// NCursor returns the current cursor reference count.
func (c *Chunk) NCursor() int64 {
	return c.ncursor.Load()
}

// Seal writes the chunk's contents to path and returns a new sealed Chunk
// backed by the resulting on-disk table. The receiver (the in-memory chunk
// being switched out) is left untouched; the caller is responsible for
// replacing it in the tree's chunk vector.
func (c *Chunk) Seal(path string, cmp compare.Compare) (*Chunk, error) {
	if c.mem == nil {
		return nil, fmt.Errorf("chunk: %s: cannot seal a non-memory chunk", c.URI)
	}

	it := c.mem.NewIterator()
	var entries []record
	for it.First(); it.Valid(); it.Next() {
		entries = append(entries, record{key: it.Key(), value: it.Value()})
	}

	dc, err := sealChunk(path, entries, cmp)
	if err != nil {
		return nil, err
	}

	sealed := &Chunk{
		URI:    path,
		onDisk: true,
		disk:   dc,
	}
	sealed.count = uint64(len(entries))
	return sealed, nil
}

// OpenSealed reopens a previously sealed chunk file.
func OpenSealed(path, bloomURI string, cmp compare.Compare) (*Chunk, error) {
	dc, err := openDiskChunk(path, cmp)
	if err != nil {
		return nil, err
	}
	return &Chunk{
		URI:      path,
		BloomURI: bloomURI,
		onDisk:   true,
		disk:     dc,
		count:    uint64(len(dc.recs)),
	}, nil
}

// NewCursor opens a new per-chunk cursor over c.
func (c *Chunk) NewCursor() Cursor {
	if c.onDisk {
		return newDiskCursor(c)
	}
	return newMemCursor(c)
}

// Close releases the chunk's accounting arena (its mmap region) and, for a
// sealed chunk, its open file. An in-memory chunk's skiplist is left to the
// GC once unreferenced.
func (c *Chunk) Close() error {
	if c.arena != nil {
		if err := c.arena.Close(); err != nil {
			return err
		}
	}
	if c.disk != nil {
		return c.disk.Close()
	}
	return nil
}
