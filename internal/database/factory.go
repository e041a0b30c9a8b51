package database

import (
	"fmt"

	"rw-go/internal/config"
	"rw-go/internal/database/migrations"
	"rw-go/internal/rw"
)

// NewStoreFromConfig creates a store based on the database config type.
// The sqlite store lives in DataDir; the memory store is for tests and dry runs.
func NewStoreFromConfig(cfg config.DatabaseConfig, clock rw.Clock) (*SQLiteStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return Open(cfg.DataDir, clock)
	case "memory":
		s, err := NewSQLiteStore(memoryPath, clock)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", rw.ErrStorageUnavailable, err)
		}
		if err := migrations.MigrateUp(s.db); err != nil {
			s.Close()
			return nil, fmt.Errorf("%w: %v", rw.ErrStorageUnavailable, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
