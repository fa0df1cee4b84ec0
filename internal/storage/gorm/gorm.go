// Package gormstorage implements the storage.Backend interface on GORM. Saves
// are queued and written in batches by a background goroutine; reads flush the
// queue first so they always see earlier saves.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cameramfd/extension/internal/logging"
	"github.com/cameramfd/extension/internal/model"
	"github.com/cameramfd/extension/internal/model/convert"
	"github.com/cameramfd/extension/internal/queue"
	"github.com/cameramfd/extension/internal/storage"
	"github.com/cameramfd/extension/pkg/core"
)

// DefaultWriteInterval is how often queued saves are written.
const DefaultWriteInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	LogManager    *logging.SlogManager
	WriteInterval time.Duration
}

type slotKey struct {
	owner string
	slot  int
}

// Backend implements storage.Backend on a GORM database.
type Backend struct {
	deps     Dependencies
	saves    *queue.Coalescing[slotKey, model.ScenarioSnapshot]
	flushMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new GORM storage backend. deps.DB must be set.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.WriteInterval <= 0 {
		deps.WriteInterval = DefaultWriteInterval
	}
	return &Backend{
		deps:  deps,
		saves: queue.New[slotKey, model.ScenarioSnapshot](),
	}
}

// DB returns the underlying database handle.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend: no database")
	}
	if err := b.setupDB(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writeLoop()
	return nil
}

func (b *Backend) setupDB() error {
	log := b.deps.LogManager

	log.WriteLog("setupDB", "Migrating schema", "INFO")
	if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.WriteLog("setupDB", "Database setup complete", "INFO")
	return nil
}

// Close stops the writer goroutine and writes what is still queued.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		<-b.done
		b.stopChan = nil
	}
	return b.Flush()
}

// SaveSnapshot queues s for the writer.
func (b *Backend) SaveSnapshot(s *core.Snapshot) error {
	b.saves.Push(slotKey{s.Owner, s.Slot}, convert.CoreToSnapshot(*s))
	return nil
}

// LoadSnapshot returns the saved snapshot of (owner, slot).
func (b *Backend) LoadSnapshot(owner string, slot int) (*core.Snapshot, error) {
	if err := b.Flush(); err != nil {
		return nil, err
	}

	var row model.ScenarioSnapshot
	err := b.deps.DB.Where("owner = ? AND slot = ?", owner, slot).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load %s/%d: %w", owner, slot, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s/%d: %w", owner, slot, err)
	}

	s, err := convert.SnapshotToCore(row)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSnapshots returns the saved snapshots of owner ordered by slot.
func (b *Backend) ListSnapshots(owner string) ([]core.Snapshot, error) {
	if err := b.Flush(); err != nil {
		return nil, err
	}

	var rows []model.ScenarioSnapshot
	if err := b.deps.DB.Where("owner = ?", owner).Order("slot").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", owner, err)
	}

	out := make([]core.Snapshot, 0, len(rows))
	for _, row := range rows {
		s, err := convert.SnapshotToCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// DeleteOwner removes every snapshot of owner.
func (b *Backend) DeleteOwner(owner string) (int, error) {
	if err := b.Flush(); err != nil {
		return 0, err
	}

	res := b.deps.DB.Where("owner = ?", owner).Delete(&model.ScenarioSnapshot{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete %s: %w", owner, res.Error)
	}
	return int(res.RowsAffected), nil
}

// Pending returns the number of (owner, slot) pairs with a queued save.
func (b *Backend) Pending() int {
	return b.saves.Len()
}

// Flush writes all queued saves in one transaction. On failure the batch is
// restored unless a newer save for the same slot arrived meanwhile.
func (b *Backend) Flush() error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	if b.saves.Empty() {
		return nil
	}

	keys, items := b.saves.Drain()
	tx := b.deps.DB.Begin()
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}, {Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at", "scenario", "current_camera", "owned", "cameras", "saved_at"}),
	}).Create(&items).Error; err != nil {
		tx.Rollback()
		b.saves.Restore(keys, items)
		b.deps.LogManager.WriteLog(":DB:WRITER:", fmt.Sprintf("Error writing snapshots: %v", err), "ERROR")
		return fmt.Errorf("writing %d snapshots: %w", len(items), err)
	}
	if err := tx.Commit().Error; err != nil {
		b.saves.Restore(keys, items)
		return fmt.Errorf("committing snapshots: %w", err)
	}
	return nil
}

func (b *Backend) writeLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.WriteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			n := b.saves.Len()
			if n == 0 {
				continue
			}
			if err := b.Flush(); err == nil {
				b.deps.LogManager.WriteLog(":DB:WRITER:", fmt.Sprintf("Wrote %d snapshots in %s", n, time.Since(start)), "DEBUG")
			}
		}
	}
}
