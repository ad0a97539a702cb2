// Package kinematics computes window-averaged speed and cumulative distance
// for tracked entities from their world positions.
package kinematics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fieldtrace/trackstats/internal/geo"
	intOtel "github.com/fieldtrace/trackstats/internal/otel"
	"github.com/fieldtrace/trackstats/internal/trackstore"
	"github.com/fieldtrace/trackstats/pkg/core"
)

// MpsToKmh converts metres per second to kilometres per hour.
const MpsToKmh = 3.6

// Skip reasons recorded in Stats and metrics.
const (
	SkipMissingEnd      = "missing_end"
	SkipMissingPosition = "missing_position"
	SkipZeroElapsed     = "zero_elapsed"
	SkipBadPosition     = "bad_position"
)

// Config controls the engine.
type Config struct {
	Window  int                // frames per window
	FPS     float64            // frames per second of the source video
	Classes []core.EntityClass // classes to measure
}

// DefaultConfig matches the analysis defaults: 5-frame windows at 24 fps,
// players only.
func DefaultConfig() Config {
	return Config{Window: 5, FPS: 24, Classes: []core.EntityClass{core.Player}}
}

// Validate checks the configuration. Referees and the ball have no reported
// kinematics: the ball's single-point detections are too noisy for window
// averaging.
func (c Config) Validate() error {
	if c.Window < 1 {
		return fmt.Errorf("window must be at least 1 frame, got %d", c.Window)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %f", c.FPS)
	}
	if len(c.Classes) == 0 {
		return errors.New("no entity classes to measure")
	}
	for _, class := range c.Classes {
		if class == core.Ball || class == core.Referee {
			return fmt.Errorf("class %q is excluded from kinematics", class)
		}
	}
	return nil
}

// Stats summarises one run.
type Stats struct {
	Windows   int            // windows per class
	Evaluated int            // (id, window) pairs that produced a speed
	Written   int            // frame records written
	Skipped   map[string]int // (id, window) pairs skipped, by reason
}

// Dependencies are optional collaborators of the engine.
type Dependencies struct {
	Logger  *slog.Logger
	Metrics *intOtel.Metrics
}

// Engine computes speed and cumulative distance per entity.
type Engine struct {
	cfg     Config
	acc     *Accumulator
	logger  *slog.Logger
	metrics *intOtel.Metrics
}

// NewEngine validates cfg and creates an engine.
func NewEngine(cfg Config, deps Dependencies) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kinematics config: %w", err)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:     cfg,
		acc:     NewAccumulator(),
		logger:  logger,
		metrics: deps.Metrics,
	}, nil
}

// Accumulator exposes the running totals of the last run.
func (e *Engine) Accumulator() *Accumulator {
	return e.acc
}

// Run measures every configured class in store and writes speed_kmh and
// distance_m into each frame of every evaluated window. Ids missing at either
// window endpoint, or without a world position there, are skipped for that
// window only.
func (e *Engine) Run(ctx context.Context, store *trackstore.Store) (Stats, error) {
	e.acc.Reset()
	stats := Stats{Skipped: make(map[string]int)}

	n := store.Len()
	windows := Windows(n, e.cfg.Window)
	stats.Windows = len(windows)

	for _, class := range e.cfg.Classes {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		for _, w := range windows {
			if err := e.runWindow(ctx, store, class, w, &stats); err != nil {
				return stats, err
			}
		}
		e.logger.Debug("Kinematics computed", "class", class, "frames", n, "windows", len(windows))
	}

	e.logger.Info("Kinematics run complete",
		"evaluated", stats.Evaluated,
		"written", stats.Written,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

func (e *Engine) runWindow(ctx context.Context, store *trackstore.Store, class core.EntityClass, w Window, stats *Stats) error {
	ids := store.IDs(w.Start, class)
	elapsed := float64(w.Elapsed()) / e.cfg.FPS

	for _, id := range ids {
		startRec, _ := store.Lookup(w.Start, class, id)
		endRec, ok := store.Lookup(w.End, class, id)
		if !ok {
			e.skip(ctx, class, SkipMissingEnd, stats)
			continue
		}
		startPos, okStart := startRec.World()
		endPos, okEnd := endRec.World()
		if !okStart || !okEnd {
			e.skip(ctx, class, SkipMissingPosition, stats)
			continue
		}
		if elapsed == 0 {
			e.skip(ctx, class, SkipZeroElapsed, stats)
			continue
		}

		displacement, err := geo.Displacement(startPos, endPos)
		if err != nil {
			e.skip(ctx, class, SkipBadPosition, stats)
			continue
		}
		speed := displacement / elapsed * MpsToKmh
		total := e.acc.Add(class, id, displacement)

		written, err := store.WriteRange(class, id, w.Start, w.End, speed, total)
		if err != nil {
			return fmt.Errorf("write %s track %d frames %d-%d: %w", class, id, w.Start, w.End, err)
		}
		stats.Evaluated++
		stats.Written += written
		e.metrics.WindowEvaluated(ctx, string(class))
	}
	return nil
}

func (e *Engine) skip(ctx context.Context, class core.EntityClass, reason string, stats *Stats) {
	stats.Skipped[reason]++
	e.metrics.WindowSkipped(ctx, string(class), reason)
}
