package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/fieldtrace/trackstats/internal/config"
	"github.com/fieldtrace/trackstats/internal/influx"
	"github.com/fieldtrace/trackstats/internal/storage"
)

func initStorage() (storage.Backend, error) {
	storageCfg := config.GetStorageConfig()

	backend, err := storage.NewBackend(storageCfg, DBLogger)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return nil, err
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err, "type", storageCfg.Type)
		return nil, err
	}
	closers = append(closers, closerFunc(backend.Close))
	Logger.Info("Storage backend initialized", "type", storageCfg.Type)
	return backend, nil
}

// initInflux connects the metrics sink. It returns nil when influx is
// disabled or cannot be set up; the run continues without it.
func initInflux(ctx context.Context) *influx.Manager {
	cfg := config.GetInfluxConfig()
	backup := filepath.Join(config.GetLoggingConfig().Dir, "influx_backup.lp.gz")

	m := influx.NewManager(cfg, DBLogger, backup)
	if err := m.Connect(ctx); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			Logger.Error("Failed to set up InfluxDB", "error", err)
		}
		return nil
	}
	closers = append(closers, closerFunc(m.Close))
	return m
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
