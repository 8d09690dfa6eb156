// Package arena provides a byte-budget accountant backed by an OS-mmap'd
// scratch region. It does not place caller data in the mmap'd region itself
// (chunk keys/values live in ordinary Go slices); it exists so an in-memory
// chunk can track its own approximate size the way a real packed allocator
// would, without asking the Go GC to account for it.
package arena

import (
	"errors"
	"sync"

	"lsmtree/internal/arch"
	"lsmtree/internal/mmap"
)

var ErrArenaFull = errors.New("allocation failed because arena is full")

// Arena tracks how many bytes have been reserved against a fixed budget. It
// is safe for concurrent use.
type Arena struct {
	position arch.AtomicUint
	buffer   []byte
	mmapped  bool
	closed   sync.Once
}

// New returns an Arena with the given byte budget, backed by an anonymous
// mmap region of exactly that length (or a heap slice if mmap fails). Cap
// reports the budget.
func New(size uint) *Arena {
	a := &Arena{}

	buf, err := mmap.New(int(size))
	if err != nil {
		// Fall back to a plain heap allocation; size accounting still
		// works, we just lose the out-of-GC benefit.
		buf = make([]byte, size)
	} else {
		a.mmapped = true
	}
	a.buffer = buf

	return a
}

// Allocate reserves size bytes from the budget and returns the offset at
// which the reservation starts. It returns ErrArenaFull once the budget is
// exhausted. Callers that only care about size accounting, not a usable
// address, can discard the returned offset.
func (a *Arena) Allocate(size uint) (offset uint, err error) {
	newPosition := uint(a.position.Add(arch.UintToArchSize(size)))
	if newPosition > uint(len(a.buffer)) {
		return 0, ErrArenaFull
	}
	return newPosition - size, nil
}

// Len returns the number of bytes reserved so far.
func (a *Arena) Len() uint {
	return uint(a.position.Load())
}

// Cap returns the total byte budget.
func (a *Arena) Cap() uint {
	return uint(len(a.buffer))
}

// Available returns the number of bytes remaining in the budget.
func (a *Arena) Available() uint {
	c, used := a.Cap(), a.Len()
	if used >= c {
		return 0
	}
	return c - used
}

// Reset returns the full budget to the pool, for reuse by a fresh chunk.
func (a *Arena) Reset() {
	a.position.Store(0)
}

// Close releases the backing mmap region, if any.
func (a *Arena) Close() error {
	var err error
	a.closed.Do(func() {
		if a.mmapped {
			err = mmap.Free(a.buffer)
		}
	})
	return err
}
