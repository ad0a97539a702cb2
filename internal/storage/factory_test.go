package storage_test

import (
	"testing"

	"github.com/fieldtrace/trackstats/internal/config"
	"github.com/fieldtrace/trackstats/internal/storage"
	gormstorage "github.com/fieldtrace/trackstats/internal/storage/gorm"
	"github.com/fieldtrace/trackstats/internal/storage/memory"
	"github.com/fieldtrace/trackstats/internal/storage/postgres"
	sqlitestorage "github.com/fieldtrace/trackstats/internal/storage/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ storage.Backend    = (*memory.Backend)(nil)
	_ storage.Exportable = (*memory.Backend)(nil)
	_ storage.Backend    = (*gormstorage.Backend)(nil)
	_ storage.Backend    = (*sqlitestorage.Backend)(nil)
	_ storage.Backend    = (*postgres.Backend)(nil)
)

func TestNewBackend(t *testing.T) {
	log := zerolog.Nop()

	tests := []struct {
		name     string
		cfg      config.StorageConfig
		expected any
	}{
		{"memory", config.StorageConfig{Type: "memory"}, &memory.Backend{}},
		{"default", config.StorageConfig{}, &memory.Backend{}},
		{"sqlite", config.StorageConfig{Type: "sqlite"}, &sqlitestorage.Backend{}},
		{"postgres", config.StorageConfig{Type: "postgres"}, &postgres.Backend{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := storage.NewBackend(tt.cfg, log)
			require.NoError(t, err)
			assert.IsType(t, tt.expected, b)
		})
	}
}

func TestNewBackend_Unknown(t *testing.T) {
	b, err := storage.NewBackend(config.StorageConfig{Type: "mongo"}, zerolog.Nop())
	assert.Nil(t, b)
	assert.ErrorContains(t, err, "unknown storage type: mongo")
}
