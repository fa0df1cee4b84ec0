// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/cameramfd/extension/internal/config"
	"github.com/cameramfd/extension/internal/storage"
	"github.com/cameramfd/extension/pkg/core"
)

type key struct {
	owner string
	slot  int
}

// Backend keeps snapshots in memory and exports them to JSON on Close
type Backend struct {
	cfg     config.MemoryConfig
	version string
	fs      afero.Fs
	now     func() time.Time

	snapshots map[key]core.Snapshot

	lastExportPath string
	mu             sync.RWMutex
}

// Option customizes a Backend.
type Option func(*Backend)

// WithFs writes exports to fs instead of the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(b *Backend) { b.fs = fs }
}

// WithClock sets the clock that stamps export names and documents.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// New creates a new memory backend. version is written into the export.
func New(cfg config.MemoryConfig, version string, opts ...Option) *Backend {
	b := &Backend{
		cfg:       cfg,
		version:   version,
		fs:        afero.NewOsFs(),
		now:       time.Now,
		snapshots: make(map[key]core.Snapshot),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports the snapshots when an output directory is configured
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.OutputDir == "" || len(b.snapshots) == 0 {
		return nil
	}
	return b.exportJSON()
}

func (b *Backend) SaveSnapshot(s *core.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := *s
	cp.Cameras = append([]core.CameraSummary(nil), s.Cameras...)
	b.snapshots[key{s.Owner, s.Slot}] = cp
	return nil
}

func (b *Backend) LoadSnapshot(owner string, slot int) (*core.Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.snapshots[key{owner, slot}]
	if !ok {
		return nil, fmt.Errorf("load %s/%d: %w", owner, slot, storage.ErrNotFound)
	}
	return &s, nil
}

func (b *Backend) ListSnapshots(owner string) ([]core.Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []core.Snapshot
	for k, s := range b.snapshots {
		if k.owner == owner {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out, nil
}

func (b *Backend) DeleteOwner(owner string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for k := range b.snapshots {
		if k.owner == owner {
			delete(b.snapshots, k)
			n++
		}
	}
	return n, nil
}

// all returns every snapshot. The caller holds the lock.
func (b *Backend) all() []core.Snapshot {
	out := make([]core.Snapshot, 0, len(b.snapshots))
	for _, s := range b.snapshots {
		out = append(out, s)
	}
	return out
}

// GetExportedFilePath returns the file written by the last export.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
