// Package postgres implements the storage.Backend interface on PostgreSQL
// by wrapping the GORM backend.
package postgres

import (
	"fmt"

	"github.com/fieldtrace/trackstats/internal/config"
	"github.com/fieldtrace/trackstats/internal/database"
	gormstorage "github.com/fieldtrace/trackstats/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Backend wraps the GORM backend with a Postgres connection.
type Backend struct {
	*gormstorage.Backend
	cfg config.DBConfig
	log zerolog.Logger
}

// New creates a new Postgres backend. The connection is opened by Init.
func New(cfg config.DBConfig, log zerolog.Logger) *Backend {
	return &Backend{cfg: cfg, log: log}
}

// Init connects and migrates the schema.
func (b *Backend) Init() error {
	db, err := database.GetPostgresDB(b.cfg, b.log)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	b.Backend = gormstorage.New(gormstorage.Dependencies{DB: db, Logger: b.log})
	return b.Backend.Init()
}

// Close closes the embedded GORM backend.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}
