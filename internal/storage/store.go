package storage

import (
	"context"
	"errors"
)

// ErrDirty is returned when a rewrite is refused because the target has
// uncommitted changes.
var ErrDirty = errors.New("target has uncommitted changes")

// HeaderStore reads and replaces the content of a single target header.
type HeaderStore interface {
	// Load reads the full content of the target.
	Load(ctx context.Context) (*Snapshot, error)

	// Replace overwrites the target with content.
	Replace(ctx context.Context, content []byte) error
}

// Snapshot is the target's content as read at the start of a run.
type Snapshot struct {
	Path    string
	Content []byte
}
