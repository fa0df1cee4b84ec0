// Package postgres provides the storage.Backend on PostgreSQL: the GORM backend
// over a connection built from the db.* settings.
package postgres

import (
	"fmt"

	"github.com/cameramfd/extension/internal/database"
	"github.com/cameramfd/extension/internal/logging"
	gormstorage "github.com/cameramfd/extension/internal/storage/gorm"
)

// MaxOpenConns bounds the connection pool.
const MaxOpenConns = 10

// New connects to PostgreSQL and returns a GORM backend on it.
func New(logManager *logging.SlogManager) (*gormstorage.Backend, error) {
	db, err := database.OpenPostgres()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(MaxOpenConns)

	return gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		LogManager: logManager,
	}), nil
}
