// Package sqlitestorage implements the storage.Backend interface on SQLite. It
// wraps the GORM backend; the SQLite-specific concerns are opening the file or
// in-memory database and the periodic disk dump via VACUUM INTO.
package sqlitestorage

import (
	"fmt"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/cameramfd/extension/internal/database"
	"github.com/cameramfd/extension/internal/logging"
	"github.com/cameramfd/extension/pkg/core"
	gormstorage "github.com/cameramfd/extension/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path         string // Database file; empty keeps the database in memory
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      *logging.SlogManager
	stopChan chan struct{}
	done     chan struct{}

	// changes counts writes; dumped is its value at the last dump
	changes atomic.Uint64
	dumped  atomic.Uint64
}

// New creates a new SQLite storage backend.
func New(cfg Config, logManager *logging.SlogManager) (*Backend, error) {
	db, err := database.OpenSQLite(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}
	if logManager == nil {
		logManager = logging.NewSlogManager()
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		LogManager: logManager,
	})

	return &Backend{
		Backend: gormBackend,
		db:      db,
		cfg:     cfg,
		log:     logManager,
	}, nil
}

func (b *Backend) dumping() bool {
	return b.cfg.DumpPath != ""
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.dumping() && b.cfg.DumpInterval > 0 {
		b.stopChan = make(chan struct{})
		b.done = make(chan struct{})
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, closes the embedded GORM backend and writes
// a final dump.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		<-b.done
		b.stopChan = nil
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if b.dumping() {
		if err := b.Dump(); err != nil {
			return err
		}
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSnapshot queues s and marks the database as changed since the last dump.
func (b *Backend) SaveSnapshot(s *core.Snapshot) error {
	b.changes.Add(1)
	return b.Backend.SaveSnapshot(s)
}

// DeleteOwner removes the snapshots of owner.
func (b *Backend) DeleteOwner(owner string) (int, error) {
	n, err := b.Backend.DeleteOwner(owner)
	if n > 0 {
		b.changes.Add(1)
	}
	return n, err
}

// Dirty reports whether anything was written since the last dump.
func (b *Backend) Dirty() bool {
	return b.changes.Load() != b.dumped.Load()
}

// Dump writes queued saves and snapshots the database to DumpPath.
func (b *Backend) Dump() error {
	mark := b.changes.Load()
	if err := b.Flush(); err != nil {
		return err
	}
	if err := database.DumpToFile(b.db, b.cfg.DumpPath); err != nil {
		return err
	}
	b.dumped.Store(mark)
	return nil
}

// dumpLoop dumps the database every DumpInterval when something changed.
func (b *Backend) dumpLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if !b.Dirty() {
				continue
			}
			start := time.Now()
			if err := b.Dump(); err != nil {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
			} else {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Dumped to disk in %s", time.Since(start)), "DEBUG")
			}
		}
	}
}
