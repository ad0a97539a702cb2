// Package sqlitestorage implements the storage.Backend interface on SQLite.
// It wraps the GORM backend via composition; the only SQLite-specific concerns
// are opening the database and, for in-memory databases, dumping to disk at
// the end of every run via VACUUM INTO.
package sqlitestorage

import (
	"fmt"
	"time"

	"github.com/fieldtrace/trackstats/internal/database"
	gormstorage "github.com/fieldtrace/trackstats/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path     string // database file; empty keeps the database in memory
	DumpPath string // VACUUM INTO target after each run when in memory
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg Config
	log zerolog.Logger
}

// New creates a new SQLite storage backend. The database is opened by Init.
func New(cfg Config, log zerolog.Logger) *Backend {
	return &Backend{cfg: cfg, log: log}
}

// Init opens the database and migrates the schema.
func (b *Backend) Init() error {
	db, err := database.GetSqliteDB(b.cfg.Path, b.log)
	if err != nil {
		return fmt.Errorf("failed to open SQLite DB: %w", err)
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

// EndRun writes the run and dumps an in-memory database to disk.
func (b *Backend) EndRun() error {
	if err := b.Backend.EndRun(); err != nil {
		return err
	}
	if b.cfg.Path != "" || b.cfg.DumpPath == "" {
		return nil
	}

	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.DB(), b.cfg.DumpPath); err != nil {
		return err
	}
	b.log.Debug().Dur("duration", time.Since(start)).Str("path", b.cfg.DumpPath).Msg("Dumped memory DB to disk")
	return nil
}
