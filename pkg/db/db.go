// Package db is a convenience wrapper around pkg/lsm for callers that want
// a directory-locked, single-tree key/value store rather than driving a
// cursor directly. It mirrors the teacher's pkg/db.Open in shape -- an
// exclusive directory lock, a data subdirectory, best-effort cleanup on a
// failed open -- generalized to the one tree this repo's scope covers.
package db

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"lsmtree/internal/compare"
	"lsmtree/internal/config"
	closeutil "lsmtree/pkg"
	"lsmtree/pkg/lsm"
)

// DataDirectoryName is the subdirectory sealed chunks and Bloom filters are
// written to, underneath the directory passed to Open.
const DataDirectoryName = "data"

// DB is a single LSM tree plus the directory lock and logger it was opened
// with.
type DB struct {
	tree *lsm.Tree
	cmp  compare.Compare
	log  hclog.Logger

	lockFile *os.File
	closers  []closeutil.Close
}

// Open acquires an exclusive lock on directory, creates its data
// subdirectory if needed, and opens (or creates) a single LSM tree rooted
// there. cmp defaults to byte-lexicographic order if nil.
func Open(directory string, cmp compare.Compare, logger hclog.Logger) (db *DB, err error) {
	if cmp == nil {
		cmp = compare.Default
	}

	dataDir := filepath.Join(directory, DataDirectoryName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("db: create data directory: %w", err)
	}

	lockFile, err := os.OpenFile(filepath.Join(directory, "db.lock"), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("db: create lock file: %w", err)
	}
	defer func() {
		if db == nil {
			_ = lockFile.Close()
		}
	}()
	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return nil, fmt.Errorf("db: lock directory %s: %w", directory, err)
	}

	cfg, err := loadOrDefaultConfig(directory, dataDir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	tr, err := lsm.OpenTree("lsm:"+filepath.Base(directory), cfg, cmp, logger)
	if err != nil {
		return nil, fmt.Errorf("db: open tree: %w", err)
	}

	unlock := closeutil.Close(func() {
		_ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)
		_ = lockFile.Close()
	})

	db = &DB{
		tree:     tr,
		cmp:      cmp,
		log:      logger,
		lockFile: lockFile,
		closers:  []closeutil.Close{unlock},
	}
	return db, nil
}

func loadOrDefaultConfig(directory, dataDir string) (config.Config, error) {
	path := filepath.Join(directory, "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return config.Default(dataDir), nil
	}
	return config.Load(path, dataDir)
}

// newCursor opens a fresh write-overwrite cursor over db's tree.
func (db *DB) newCursor() (*lsm.Cursor, error) {
	return lsm.Open(db.tree.URI, db.tree, lsm.DefaultOption, db.log)
}

// Set inserts or replaces the value for key.
func (db *DB) Set(key, value []byte) error {
	c, err := db.newCursor()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	c.SetKey(key)
	c.SetValue(value)
	return c.Update()
}

// Get returns the value for key, or ok=false if it is absent or deleted.
func (db *DB) Get(key []byte) (value []byte, ok bool, err error) {
	c, err := db.newCursor()
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = c.Close() }()

	c.SetKey(key)
	ok, err = c.Search()
	if err != nil || !ok {
		return nil, false, err
	}
	return c.Value(), true, nil
}

// Delete removes key, writing the tombstone sentinel.
func (db *DB) Delete(key []byte) error {
	c, err := db.newCursor()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	c.SetKey(key)
	return c.Remove()
}

// NewCursor returns a fresh cursor over db's tree for callers that need
// iteration or search_near, which this convenience wrapper doesn't expose
// directly.
func (db *DB) NewCursor() (*lsm.Cursor, error) {
	return db.newCursor()
}

// Tree returns the underlying tree, for callers (e.g. cmd/lsmctl) that need
// to force a chunk switch or inspect dsk_gen directly.
func (db *DB) Tree() *lsm.Tree {
	return db.tree
}

// Close releases the directory lock. Best effort, aggregating failures
// rather than stopping at the first one.
func (db *DB) Close() error {
	var merr *multierror.Error
	for _, c := range db.closers {
		if err := c.Close(); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}
