// Package bloomfilter wraps github.com/bits-and-blooms/bloom/v3 into the
// narrow contract the cursor layer needs from a per-chunk membership
// filter: build it once while a chunk is sealed, persist it next to the
// chunk file, and probe it cheaply on every point lookup thereafter.
package bloomfilter

import (
	"bufio"
	"fmt"
	"os"

	"github.com/bits-and-blooms/bloom/v3"
)

// DefaultFalsePositiveRate governs the bits-per-key the filter allocates
// when Build is called without an explicit rate.
const DefaultFalsePositiveRate = 0.01

// Filter is a probabilistic membership test for one on-disk chunk's keys.
type Filter struct {
	bf *bloom.BloomFilter
}

// Build constructs a filter sized for n expected keys at the given false
// positive rate, then adds every key.
func Build(keys [][]byte, n int, falsePositiveRate float64) *Filter {
	if falsePositiveRate <= 0 {
		falsePositiveRate = DefaultFalsePositiveRate
	}
	if n < 1 {
		n = 1
	}
	bf := bloom.NewWithEstimates(uint(n), falsePositiveRate)
	for _, k := range keys {
		bf.Add(k)
	}
	return &Filter{bf: bf}
}

// MayContain reports whether key could be present. false is definitive
// (the chunk can be skipped); true requires checking the chunk itself.
func (f *Filter) MayContain(key []byte) bool {
	if f == nil || f.bf == nil {
		return true
	}
	return f.bf.Test(key)
}

// WriteTo persists the filter to path.
func (f *Filter) WriteTo(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("bloomfilter: create %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if _, err := f.bf.WriteTo(w); err != nil {
		return fmt.Errorf("bloomfilter: write %s: %w", path, err)
	}
	return w.Flush()
}

// Open reopens a filter previously persisted by WriteTo.
func Open(path string) (*Filter, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bloomfilter: open %s: %w", path, err)
	}
	defer file.Close()

	bf := &bloom.BloomFilter{}
	if _, err := bf.ReadFrom(bufio.NewReader(file)); err != nil {
		return nil, fmt.Errorf("bloomfilter: read %s: %w", path, err)
	}
	return &Filter{bf: bf}, nil
}
