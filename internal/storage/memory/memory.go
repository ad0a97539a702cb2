// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync"

	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/config"
	"github.com/fieldtrace/trackstats/internal/report"
	"github.com/fieldtrace/trackstats/internal/summary"
	"github.com/fieldtrace/trackstats/pkg/core"
)

// ErrNoRun is returned when results are recorded outside StartRun/EndRun.
var ErrNoRun = errors.New("no run in progress")

// RunRecord groups a run with all its result rows
type RunRecord struct {
	Segment core.Segment
	Frames  []report.FrameRow
	Summary []summary.Row
	Bands   []bands.Row
}

// Backend stores run results in memory and exports each run to JSON
type Backend struct {
	cfg     config.MemoryConfig
	current *RunRecord
	runs    []RunRecord

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRun begins recording a new run
func (b *Backend) StartRun(seg core.Segment) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = &RunRecord{Segment: seg}
	return nil
}

// EndRun finalizes and exports the run
func (b *Backend) EndRun() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return ErrNoRun
	}
	run := *b.current
	b.current = nil
	b.runs = append(b.runs, run)

	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportJSON(run)
}

// RecordFrames stores per-frame rows
func (b *Backend) RecordFrames(rows []report.FrameRow) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return ErrNoRun
	}
	b.current.Frames = append(b.current.Frames, rows...)
	return nil
}

// RecordSummary stores summary rows
func (b *Backend) RecordSummary(rows []summary.Row) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return ErrNoRun
	}
	b.current.Summary = append(b.current.Summary, rows...)
	return nil
}

// RecordBands stores speed-band rows
func (b *Backend) RecordBands(rows []bands.Row) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return ErrNoRun
	}
	b.current.Bands = append(b.current.Bands, rows...)
	return nil
}

// Runs returns every finished run in completion order
func (b *Backend) Runs() []RunRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]RunRecord, len(b.runs))
	copy(out, b.runs)
	return out
}

// GetExportedFilePath returns the path of the last exported run
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
