// internal/storage/storage.go
package storage

import (
	"errors"

	"github.com/cameramfd/extension/pkg/core"
)

// ErrNotFound is returned by LoadSnapshot when nothing was saved for a key.
var ErrNotFound = errors.New("snapshot not found")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// SaveSnapshot stores s, replacing any snapshot of the same (owner, slot).
	SaveSnapshot(s *core.Snapshot) error
	// LoadSnapshot returns the latest snapshot of (owner, slot) or ErrNotFound.
	LoadSnapshot(owner string, slot int) (*core.Snapshot, error)
	// ListSnapshots returns the snapshots of owner ordered by slot.
	ListSnapshots(owner string) ([]core.Snapshot, error)
	// DeleteOwner drops every snapshot of owner and reports how many went.
	DeleteOwner(owner string) (int, error)
}
