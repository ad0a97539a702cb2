// Package gormstorage implements the storage.Backend interface on any gorm
// dialect. Rows are queued per run and written in batches when the run ends.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/database"
	"github.com/fieldtrace/trackstats/internal/model"
	"github.com/fieldtrace/trackstats/internal/model/convert"
	"github.com/fieldtrace/trackstats/internal/queue"
	"github.com/fieldtrace/trackstats/internal/report"
	"github.com/fieldtrace/trackstats/internal/summary"
	"github.com/fieldtrace/trackstats/pkg/core"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// BatchSize is the number of rows per INSERT.
const BatchSize = 1000

// ErrNoRun is returned when results are recorded outside StartRun/EndRun.
var ErrNoRun = errors.New("no run in progress")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// queues holds the rows of the current run awaiting insertion.
type queues struct {
	Frames  *queue.Queue[report.FrameRow]
	Summary *queue.Queue[summary.Row]
	Bands   *queue.Queue[bands.Row]
}

func newQueues() *queues {
	return &queues{
		Frames:  queue.New[report.FrameRow](),
		Summary: queue.New[summary.Row](),
		Bands:   queue.New[bands.Row](),
	}
}

// Backend implements storage.Backend with gorm.
type Backend struct {
	deps   Dependencies
	queues *queues

	mu                sync.Mutex
	run               *model.Run
	lastWriteDuration time.Duration
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps, queues: newQueues()}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend has no database")
	}
	return database.Setup(b.deps.DB, b.deps.Logger)
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartRun inserts the run row and clears any queued rows.
func (b *Backend) StartRun(seg core.Segment) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	run := convert.SegmentToRun(seg)
	if err := b.deps.DB.Create(&run).Error; err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	b.run = &run
	b.queues.Frames.Clear()
	b.queues.Summary.Clear()
	b.queues.Bands.Clear()

	b.deps.Logger.Debug().Str("runId", run.UUID).Uint("id", run.ID).Msg("Run started")
	return nil
}

func (b *Backend) requireRun() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.run == nil {
		return ErrNoRun
	}
	return nil
}

// RecordFrames queues per-frame rows.
func (b *Backend) RecordFrames(rows []report.FrameRow) error {
	if err := b.requireRun(); err != nil {
		return err
	}
	b.queues.Frames.Push(rows...)
	return nil
}

// RecordSummary queues summary rows.
func (b *Backend) RecordSummary(rows []summary.Row) error {
	if err := b.requireRun(); err != nil {
		return err
	}
	b.queues.Summary.Push(rows...)
	return nil
}

// RecordBands queues speed-band rows.
func (b *Backend) RecordBands(rows []bands.Row) error {
	if err := b.requireRun(); err != nil {
		return err
	}
	b.queues.Bands.Push(rows...)
	return nil
}

// EndRun writes every queued row in one transaction and stamps the run's end time.
func (b *Backend) EndRun() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoRun
	}
	run := b.run
	b.run = nil

	start := time.Now()
	summaries := convert.SummaryRowsToStats(run.ID, b.queues.Summary.Drain())
	bandRows := convert.BandRowsToStats(run.ID, b.queues.Bands.Drain())
	frames := 0

	err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
		for {
			batch := b.queues.Frames.PopBatch(BatchSize)
			if batch == nil {
				break
			}
			if err := tx.Create(convert.FrameRowsToStats(run.ID, batch)).Error; err != nil {
				return fmt.Errorf("frame stats: %w", err)
			}
			frames += len(batch)
		}
		if len(summaries) > 0 {
			if err := tx.CreateInBatches(summaries, BatchSize).Error; err != nil {
				return fmt.Errorf("summary stats: %w", err)
			}
		}
		if len(bandRows) > 0 {
			if err := tx.CreateInBatches(bandRows, BatchSize).Error; err != nil {
				return fmt.Errorf("band stats: %w", err)
			}
		}
		end := time.Now().UTC()
		return tx.Model(run).Update("end_time", end).Error
	})
	if err != nil {
		b.queues.Frames.Clear()
		return fmt.Errorf("failed to write run %s: %w", run.UUID, err)
	}

	b.lastWriteDuration = time.Since(start)
	b.deps.Logger.Info().
		Str("runId", run.UUID).
		Int("frames", frames).
		Int("summary", len(summaries)).
		Int("bands", len(bandRows)).
		Dur("duration", b.lastWriteDuration).
		Msg("Run written")
	return nil
}

// GetLastDBWriteDuration returns the duration of the last EndRun write.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastWriteDuration
}

// LoadRun reads a stored run and its rows back.
func (b *Backend) LoadRun(runID string) (core.Segment, []report.FrameRow, []summary.Row, []bands.Row, error) {
	var run model.Run
	if err := b.deps.DB.Where("uuid = ?", runID).First(&run).Error; err != nil {
		return core.Segment{}, nil, nil, nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	var frames []model.FrameStat
	if err := b.deps.DB.Where("run_id = ?", run.ID).Order("object_type, frame_num, track_id").Find(&frames).Error; err != nil {
		return core.Segment{}, nil, nil, nil, err
	}
	var summaries []model.SummaryStat
	if err := b.deps.DB.Where("run_id = ?", run.ID).Order("id").Find(&summaries).Error; err != nil {
		return core.Segment{}, nil, nil, nil, err
	}
	var bandRows []model.BandStat
	if err := b.deps.DB.Where("run_id = ?", run.ID).Order("id").Find(&bandRows).Error; err != nil {
		return core.Segment{}, nil, nil, nil, err
	}

	return convert.RunToSegment(run),
		convert.StatsToFrameRows(frames),
		convert.StatsToSummaryRows(summaries),
		convert.StatsToBandRows(bandRows),
		nil
}
