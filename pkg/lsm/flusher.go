package lsm

import "lsmtree/pkg/storage"

// TreeFlusher adapts a Tree to storage.Flusher, reporting the primary
// chunk's arena accounting and triggering a chunk switch on Flush. It lets
// operational code (a background policy, a REPL stats command) decide when
// to force a flush without depending on the cursor/tree package directly.
type TreeFlusher struct {
	tree *Tree
}

var _ storage.Flusher = (*TreeFlusher)(nil)

// NewTreeFlusher wraps t.
func NewTreeFlusher(t *Tree) *TreeFlusher {
	return &TreeFlusher{tree: t}
}

// Flush forces a chunk switch, sealing the current primary. Errors are
// logged rather than returned, matching storage.Flusher's signature.
func (f *TreeFlusher) Flush() {
	f.tree.Lock()
	defer f.tree.Unlock()
	if err := f.tree.Switch(); err != nil {
		f.tree.Logger().Warn("flusher: switch failed", "error", err)
	}
}

// AvailableBytes returns the primary chunk's remaining arena budget.
func (f *TreeFlusher) AvailableBytes() uint {
	return f.tree.Primary().ArenaAvailable()
}

// UsedBytes returns the primary chunk's reserved arena bytes.
func (f *TreeFlusher) UsedBytes() uint {
	return f.tree.Primary().ArenaBytes()
}

// TotalBytes returns the primary chunk's total arena budget.
func (f *TreeFlusher) TotalBytes() uint {
	return f.tree.Primary().ArenaCap()
}
