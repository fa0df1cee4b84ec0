package main

import (
	"fmt"

	"github.com/cameramfd/extension/internal/config"
	"github.com/cameramfd/extension/internal/logging"
	"github.com/cameramfd/extension/internal/storage"
	"github.com/cameramfd/extension/internal/storage/memory"
	pgstorage "github.com/cameramfd/extension/internal/storage/postgres"
	sqlitestorage "github.com/cameramfd/extension/internal/storage/sqlite"
)

type storageFactory func(config.StorageConfig, *logging.SlogManager) (storage.Backend, error)

// storageFactories maps storage.type to its constructor. An empty type is the
// memory store.
var storageFactories = map[string]storageFactory{
	"memory": func(cfg config.StorageConfig, _ *logging.SlogManager) (storage.Backend, error) {
		return memory.New(cfg.Memory, CurrentExtensionVersion), nil
	},
	"sqlite": func(cfg config.StorageConfig, lm *logging.SlogManager) (storage.Backend, error) {
		return sqlitestorage.New(sqlitestorage.Config{
			Path:         cfg.SQLite.Path,
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
		}, lm)
	},
	"postgres": func(_ config.StorageConfig, lm *logging.SlogManager) (storage.Backend, error) {
		return pgstorage.New(lm)
	},
}

func createStorageBackend(cfg config.StorageConfig, logManager *logging.SlogManager) (storage.Backend, error) {
	kind := cfg.Type
	if kind == "" {
		kind = "memory"
	}
	factory, ok := storageFactories[kind]
	if !ok {
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	backend, err := factory(cfg, logManager)
	if err != nil {
		return nil, fmt.Errorf("creating %s storage: %w", kind, err)
	}
	return backend, nil
}

// initStorage opens the configured store. On failure the session runs without
// one and :SAVE:/:LOAD: report it.
func initStorage() error {
	cfg := config.GetStorageConfig()
	backend, err := createStorageBackend(cfg, SlogManager)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing %s storage: %w", cfg.Type, err)
	}
	storageBackend = backend
	Logger.Info("Storage backend initialized", "type", cfg.Type)
	return nil
}
