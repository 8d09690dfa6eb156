// Package logging centralizes the structured logger used across the tree
// and cursor packages at the points the design calls out as operationally
// significant: chunk switches and sync/reconciliation failures. A lock-order
// violation panics (see internal/schema) and is not logged.
package logging

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// New returns a logger named for the given component, writing to stderr at
// the given level (e.g. "debug", "info", "warn").
func New(name, level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  hclog.LevelFromString(level),
		Output: os.Stderr,
	})
}

// NoOp returns a logger that discards everything, for tests that don't want
// log output on the wire.
func NoOp() hclog.Logger {
	return hclog.NewNullLogger()
}
