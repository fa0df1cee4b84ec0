// Package database opens the GORM connections behind the snapshot stores.
package database

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNoDumpPath is returned by DumpToFile without a target.
var ErrNoDumpPath = errors.New("sqlite dump path not set")

// sqlitePragmas trade durability for speed. A file database is either a
// throwaway or backed by periodic dumps.
var sqlitePragmas = []string{
	"PRAGMA user_version = 1",
	"PRAGMA journal_mode = MEMORY",
	"PRAGMA synchronous = OFF",
	"PRAGMA cache_size = -8000",
	"PRAGMA temp_store = MEMORY",
}

// PostgresDSN builds the connection string from the db.* settings.
func PostgresDSN() string {
	sslmode := viper.GetString("db.sslmode")
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		viper.GetString("db.host"),
		viper.GetString("db.port"),
		viper.GetString("db.username"),
		viper.GetString("db.password"),
		viper.GetString("db.database"),
		sslmode,
	)
}

func gormConfig(batch int) *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        batch,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}
}

// OpenPostgres connects with the db.* settings.
func OpenPostgres() (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  PostgresDSN(),
		PreferSimpleProtocol: true,
	}), gormConfig(1000))
}

// OpenSQLite opens the database file at path, or a private in-memory database
// when path is empty. Every connection of the returned pool shares the same
// in-memory database; two calls never do.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = fmt.Sprintf("file:camera_mfd_%s?mode=memory&cache=shared", uuid.NewString())
	}

	cfg := gormConfig(500)
	cfg.PrepareStmt = true
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}

	for _, pragma := range sqlitePragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return db, nil
}

// DumpToFile snapshots db into path with VACUUM INTO. The dump is written
// next to path and renamed over it, so a failed dump leaves the previous one
// intact.
func DumpToFile(db *gorm.DB, path string) error {
	if path == "" {
		return ErrNoDumpPath
	}

	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale dump: %w", err)
	}

	quoted := strings.ReplaceAll(tmp, "'", "''")
	if err := db.Exec("VACUUM INTO 'file:" + quoted + "'").Error; err != nil {
		return fmt.Errorf("vacuum into %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing dump: %w", err)
	}
	return nil
}
