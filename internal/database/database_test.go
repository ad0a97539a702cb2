package database

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fieldtrace/trackstats/internal/config"
	"github.com/fieldtrace/trackstats/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.DBConfig{Host: "db", Port: "5433", Username: "u", Password: "p", Database: "stats"})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=stats sslmode=disable", dsn)
}

func TestGetSqliteDB_FileAndSetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := GetSqliteDB(path, zerolog.New(io.Discard))
	require.NoError(t, err)

	require.NoError(t, Setup(db, zerolog.New(io.Discard)))
	for _, m := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := GetSqliteDB("", zerolog.New(io.Discard))
	require.NoError(t, err)
	require.NoError(t, Setup(db, zerolog.New(io.Discard)))
	require.NoError(t, db.Create(&model.Run{UUID: "dump-test", Segment: "h1"}).Error)

	out := filepath.Join(t.TempDir(), "dump.db")
	require.NoError(t, DumpMemoryDBToDisk(db, out))

	disk, err := GetSqliteDB(out, zerolog.New(io.Discard))
	require.NoError(t, err)
	var run model.Run
	require.NoError(t, disk.Where("uuid = ?", "dump-test").First(&run).Error)
	assert.Equal(t, "h1", run.Segment)
}

func TestDumpMemoryDBToDisk_NoPath(t *testing.T) {
	assert.Error(t, DumpMemoryDBToDisk(nil, ""))
}
