// Package tree implements the LSM tree structure the cursor layer syncs
// against: the ordered chunk vector, dsk_gen generation counter, threshold,
// and the tree-lock-before-schema-lock chunk-switch operation.
package tree

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"lsmtree/internal/bloomfilter"
	"lsmtree/internal/chunk"
	"lsmtree/internal/compare"
	"lsmtree/internal/config"
	"lsmtree/internal/schema"
)

// Tree is the LSM tree: an ordered chunk vector (oldest first, primary
// last) plus the structural operations that mutate it.
type Tree struct {
	URI string

	mu       sync.Mutex
	lockHeld atomic.Bool

	dskGen atomic.Uint64

	cfg        config.Config
	cmp        compare.Compare
	schemaLock schema.Lock
	logger     hclog.Logger

	chunksMu sync.RWMutex
	chunks   []*chunk.Chunk
	nextID   uint64
}

var _ schema.TreeLocker = (*Tree)(nil)

// Open creates a new tree at uri, backed by cfg.Dir for sealed chunks, with
// one empty in-memory primary chunk. cmp defaults to byte-lexicographic
// ordering if nil.
func Open(uri string, cfg config.Config, cmp compare.Compare, logger hclog.Logger) (*Tree, error) {
	if cmp == nil {
		cmp = compare.Default
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	t := &Tree{
		URI:    uri,
		cfg:    cfg,
		cmp:    cmp,
		logger: logger,
	}
	primary := chunk.NewMemChunk(t.memChunkURI(), cmp)
	t.chunks = []*chunk.Chunk{primary}
	return t, nil
}

func (t *Tree) memChunkURI() string {
	id := atomic.AddUint64(&t.nextID, 1)
	return fmt.Sprintf("%s/%06d.mem", t.URI, id)
}

func (t *Tree) sealedChunkPath(id uint64) string {
	return filepath.Join(t.cfg.Dir, fmt.Sprintf("%06d.chunk", id))
}

func (t *Tree) bloomPath(id uint64) string {
	return filepath.Join(t.cfg.Dir, fmt.Sprintf("%06d.bloom", id))
}

// Comparator returns the tree's key-ordering function.
func (t *Tree) Comparator() compare.Compare {
	return t.cmp
}

// Threshold returns the in-memory byte size that triggers a chunk switch.
func (t *Tree) Threshold() uint {
	return t.cfg.Threshold
}

// Lock acquires the tree's structural spinlock. It must be released with
// Unlock; it is not reentrant.
func (t *Tree) Lock() {
	t.mu.Lock()
	t.lockHeld.Store(true)
}

// Unlock releases the tree lock.
func (t *Tree) Unlock() {
	t.lockHeld.Store(false)
	t.mu.Unlock()
}

// TreeLockHeld reports whether the tree lock is currently held. Used by
// schema.Lock.Acquire to enforce the tree-lock-before-schema-lock order.
func (t *Tree) TreeLockHeld() bool {
	return t.lockHeld.Load()
}

// DskGen returns the tree's current generation counter.
func (t *Tree) DskGen() uint64 {
	return t.dskGen.Load()
}

// Chunks returns a snapshot of the current chunk vector, oldest first,
// primary last. Callers must not mutate the returned slice.
func (t *Tree) Chunks() []*chunk.Chunk {
	t.chunksMu.RLock()
	defer t.chunksMu.RUnlock()
	out := make([]*chunk.Chunk, len(t.chunks))
	copy(out, t.chunks)
	return out
}

// Primary returns the current primary (newest, in-memory) chunk.
func (t *Tree) Primary() *chunk.Chunk {
	t.chunksMu.RLock()
	defer t.chunksMu.RUnlock()
	return t.chunks[len(t.chunks)-1]
}

// Logger returns the tree's logger, for callers (e.g. pkg/lsm's Flusher
// adapter) that need to report a best-effort Switch failure without a
// return path for it.
func (t *Tree) Logger() hclog.Logger {
	return t.logger
}

// Switch seals the current primary chunk to disk and allocates a new empty
// in-memory primary. The caller must hold the tree lock (t.Lock()) before
// calling Switch; Switch acquires the schema lock nested inside it, which
// will panic via errs.ErrLockOrder if that invariant is violated.
func (t *Tree) Switch() error {
	release := t.schemaLock.Acquire(t)
	defer release()

	t.chunksMu.Lock()
	defer t.chunksMu.Unlock()

	old := t.chunks[len(t.chunks)-1]
	id := atomic.AddUint64(&t.nextID, 1)
	path := t.sealedChunkPath(id)

	sealed, err := old.Seal(path, t.cmp)
	if err != nil {
		return fmt.Errorf("tree: switch: seal %s: %w", old.URI, err)
	}

	if keys := sealedKeys(sealed); len(keys) > 0 {
		filter := bloomfilter.Build(keys, len(keys), t.cfg.BloomFalsePositiveRate)
		bloomURI := t.bloomPath(id)
		if err := filter.WriteTo(bloomURI); err != nil {
			t.logger.Warn("chunk switch: failed to persist bloom filter", "chunk", sealed.URI, "error", err)
		} else {
			sealed.BloomURI = bloomURI
		}
	}

	next := chunk.NewMemChunk(t.memChunkURI(), t.cmp)
	t.chunks[len(t.chunks)-1] = sealed
	t.chunks = append(t.chunks, next)
	t.dskGen.Add(1)

	t.logger.Info("chunk switch",
		"sealed", sealed.URI,
		"primary", next.URI,
		"dsk_gen", t.dskGen.Load(),
		"sealed_arena_bytes", old.ArenaBytes(),
	)

	// old's accounting arena tracks no caller data (keys/values live in the
	// skiplist's own Go-heap nodes), so releasing it here can't disturb a
	// cursor still mid-resync against old's skiplist.
	if err := old.Close(); err != nil {
		t.logger.Warn("chunk switch: failed to release old chunk's arena", "chunk", old.URI, "error", err)
	}
	return nil
}

// sealedKeys extracts a sealed chunk's keys for Bloom construction. Reading
// the just-sealed in-memory records back via a cursor is simpler and no
// less correct than threading the key list through Seal, since block
// indexing of the sealed file is out of scope.
func sealedKeys(sealed *chunk.Chunk) [][]byte {
	cur := sealed.NewCursor()
	var keys [][]byte
	for {
		ok, err := cur.Next()
		if err != nil || !ok {
			break
		}
		keys = append(keys, cur.Key())
	}
	return keys
}
