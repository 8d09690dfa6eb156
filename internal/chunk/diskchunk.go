package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/ncw/directio"

	"lsmtree/internal/compare"
)

// record is one key/value pair as stored in a sealed on-disk chunk file.
type record struct {
	key   []byte
	value []byte
}

// diskChunk is a sealed, immutable sorted table. Unlike the teacher's
// pkg/sstable.SSTable, which keeps only an *os.File handle and a reader
// latch, diskChunk additionally keeps the fully decoded record list in
// memory: block indexing and compression are explicitly out of scope for
// this layer, so reading the whole (small, already-sealed) chunk back at
// open time is the simplest faithful substitute for a real block index.
type diskChunk struct {
	path   string
	file   *os.File
	latch  atomic.Int32
	cmp    compare.Compare
	recs   []record
}

// sealChunk writes entries (already sorted by cmp) to path in the teacher's
// directio block-aligned style and returns a diskChunk ready for reading.
func sealChunk(path string, entries []record, cmp compare.Compare) (*diskChunk, error) {
	w, err := newDiskWriter(path)
	if err != nil {
		return nil, fmt.Errorf("chunk: seal %s: %w", path, err)
	}

	var buf bytes.Buffer
	for _, r := range entries {
		if err := writeRecord(&buf, r); err != nil {
			w.Close()
			return nil, err
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		w.Close()
		return nil, fmt.Errorf("chunk: seal %s: write records: %w", path, err)
	}

	footer := make([]byte, 8)
	binary.BigEndian.PutUint64(footer, uint64(buf.Len()))
	if _, err := w.Write(footer); err != nil {
		w.Close()
		return nil, fmt.Errorf("chunk: seal %s: write footer: %w", path, err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("chunk: seal %s: %w", path, err)
	}

	return openDiskChunk(path, cmp)
}

func writeRecord(buf *bytes.Buffer, r record) error {
	var lenbuf [4]byte
	binary.BigEndian.PutUint32(lenbuf[:], uint32(len(r.key)))
	buf.Write(lenbuf[:])
	buf.Write(r.key)
	binary.BigEndian.PutUint32(lenbuf[:], uint32(len(r.value)))
	buf.Write(lenbuf[:])
	buf.Write(r.value)
	return nil
}

// openDiskChunk opens an already-sealed chunk file and decodes its records.
func openDiskChunk(path string, cmp compare.Compare) (*diskChunk, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chunk: open %s: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("chunk: stat %s: %w", path, err)
	}

	block := len(directio.AlignedBlock(directio.BlockSize))
	if stat.Size() < int64(block) {
		file.Close()
		return nil, fmt.Errorf("chunk: %s: truncated footer block", path)
	}

	footerBlock := make([]byte, block)
	if _, err := file.ReadAt(footerBlock, stat.Size()-int64(block)); err != nil {
		file.Close()
		return nil, fmt.Errorf("chunk: %s: read footer: %w", path, err)
	}
	dataLen := binary.BigEndian.Uint64(footerBlock[:8])

	data := make([]byte, dataLen)
	if dataLen > 0 {
		if _, err := file.ReadAt(data, 0); err != nil && err != io.EOF {
			file.Close()
			return nil, fmt.Errorf("chunk: %s: read records: %w", path, err)
		}
	}

	recs, err := decodeRecords(data)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("chunk: %s: decode: %w", path, err)
	}

	return &diskChunk{path: path, file: file, cmp: cmp, recs: recs}, nil
}

func decodeRecords(data []byte) ([]record, error) {
	var recs []record
	off := 0
	for off < len(data) {
		if off+4 > len(data) {
			return nil, fmt.Errorf("truncated key length at offset %d", off)
		}
		klen := int(binary.BigEndian.Uint32(data[off : off+4]))
		off += 4
		if off+klen > len(data) {
			return nil, fmt.Errorf("truncated key at offset %d", off)
		}
		key := data[off : off+klen]
		off += klen

		if off+4 > len(data) {
			return nil, fmt.Errorf("truncated value length at offset %d", off)
		}
		vlen := int(binary.BigEndian.Uint32(data[off : off+4]))
		off += 4
		if off+vlen > len(data) {
			return nil, fmt.Errorf("truncated value at offset %d", off)
		}
		value := data[off : off+vlen]
		off += vlen

		recs = append(recs, record{key: key, value: value})
	}
	return recs, nil
}

// Read returns a reader over the sealed file and a release func, matching
// the teacher's reference-counted Read/Close-when-idle pattern.
func (d *diskChunk) Read() (r io.ReaderAt, release func()) {
	d.latch.Add(1)
	return d.file, func() { d.latch.Add(-1) }
}

func (d *diskChunk) Close() error {
	return d.file.Close()
}

// search returns the index of the exact match for key, or -1.
func (d *diskChunk) search(key []byte) int {
	i, ok := d.find(key)
	if ok {
		return i
	}
	return -1
}

// find performs binary search, returning the insertion point and whether
// the key at that point (if any) is an exact match.
func (d *diskChunk) find(key []byte) (idx int, exact bool) {
	lo, hi := 0, len(d.recs)
	for lo < hi {
		mid := (lo + hi) / 2
		c := d.cmp(d.recs[mid].key, key)
		if c == 0 {
			return mid, true
		} else if c < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, false
}
