// Package lsm is the public entry point for the LSM cursor layer: it opens
// a tree and hands back a cursor, without implementing a general
// schema/catalog layer (routing a bare "lsm:" URI to a tree creator is
// explicitly out of scope, per the source's schema_create.c).
package lsm

import (
	"github.com/hashicorp/go-hclog"

	"lsmtree/internal/compare"
	"lsmtree/internal/config"
	"lsmtree/internal/cursor"
	"lsmtree/internal/logging"
	"lsmtree/internal/tree"
)

// Option configures a cursor opened on a tree. DefaultOption has Overwrite
// set; the zero Option has it clear.
type Option = cursor.Option

// DefaultOption is the option set with Overwrite enabled. Open passes the
// Option it is given through unchanged; a zero Option is not replaced.
var DefaultOption = cursor.DefaultOption

// Cursor is the LSM cursor: forward/reverse iteration, search, search_near,
// and the write path (insert/update/remove), all against a single tree.
type Cursor = cursor.Cursor

// Tree is an LSM tree: an ordered chunk vector plus the structural
// operations (chunk switch) that mutate it.
type Tree = tree.Tree

// OpenTree creates a new tree at uri, backed by cfg.Dir for sealed chunks.
// cmp defaults to byte-lexicographic order if nil; logger defaults to a
// no-op logger if nil.
func OpenTree(uri string, cfg config.Config, cmp compare.Compare, logger hclog.Logger) (*Tree, error) {
	if logger == nil {
		logger = logging.NoOp()
	}
	return tree.Open(uri, cfg, cmp, logger)
}

// Open opens a cursor over t. uri must carry the "lsm:" prefix; opt is
// typically DefaultOption.
func Open(uri string, t *Tree, opt Option, logger hclog.Logger) (*Cursor, error) {
	if logger == nil {
		logger = logging.NoOp()
	}
	return cursor.Open(uri, t, opt, logger)
}
