// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/fieldtrace/trackstats/internal/config"
	"github.com/fieldtrace/trackstats/internal/storage/memory"
	"github.com/fieldtrace/trackstats/internal/storage/postgres"
	sqlitestorage "github.com/fieldtrace/trackstats/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(cfg.Postgres, log), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{Path: cfg.SQLite.Path}, log), nil
	case "memory", "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
