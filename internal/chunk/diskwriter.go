package chunk

import (
	"io"
	"os"
	"sync"

	"github.com/ncw/directio"
)

// diskWriter wraps a directio file, writing data in multiples of the block
// size the way the teacher's storage.Writer does; a short final write is
// padded rather than left misaligned, since O_DIRECT requires aligned I/O.
type diskWriter struct {
	file  *os.File
	block int
}

var blockSizeOnce sync.Once
var blockSize int

func newDiskWriter(name string) (*diskWriter, error) {
	file, err := directio.OpenFile(name, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	blockSizeOnce.Do(func() {
		blockSize = len(directio.AlignedBlock(directio.BlockSize))
	})

	return &diskWriter{file: file, block: blockSize}, nil
}

var _ io.WriteCloser = (*diskWriter)(nil)

// Write pads buf up to a multiple of the block size before writing. Callers
// that need the unpadded length back (to know where the record stream
// actually ends on a later read) must track it themselves; sealChunk does,
// via the footer it appends after all records.
func (w *diskWriter) Write(buf []byte) (n int, err error) {
	if len(buf) == 0 {
		return 0, nil
	}

	rem := len(buf) % w.block
	if rem == 0 {
		return w.file.Write(buf)
	}

	pad := make([]byte, w.block-rem)
	padded := append(buf, pad...)
	n, err = w.file.Write(padded)
	if n > len(buf) {
		n = len(buf)
	}
	return n, err
}

func (w *diskWriter) Close() error {
	return w.file.Close()
}
