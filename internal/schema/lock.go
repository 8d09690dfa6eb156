// Package schema holds the schema-layer lock the write path's chunk-switch
// operation must take nested inside the tree lock. It exists at this layer
// only as a deadlock-avoidance primitive: no actual schema/catalog state
// lives here, consistent with schema/metadata being out of scope for the
// cursor layer.
package schema

import (
	"sync"

	"lsmtree/internal/errs"
)

// TreeLocker reports whether its tree lock is currently held. It does not
// say which goroutine holds it. The schema lock's Acquire uses it to enforce the
// tree-lock-before-schema-lock order structurally: Acquire simply refuses
// to proceed if the tree lock isn't already held.
type TreeLocker interface {
	TreeLockHeld() bool
}

// Lock is the schema lock. It must only ever be acquired with a TreeLocker
// reporting its tree lock held; acquiring it any other way is a lock-order
// bug, not a contention path that can be retried.
type Lock struct {
	mu sync.Mutex
}

// Acquire takes the schema lock and returns a func to release it. It panics
// with errs.ErrLockOrder if tree reports its lock not held -- this is the
// "should be unreachable" fatal kind from the error design, not a recoverable
// condition.
func (l *Lock) Acquire(tree TreeLocker) func() {
	if !tree.TreeLockHeld() {
		panic(errs.ErrLockOrder)
	}
	l.mu.Lock()
	return l.mu.Unlock
}
