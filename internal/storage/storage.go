// internal/storage/storage.go
package storage

import (
	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/report"
	"github.com/fieldtrace/trackstats/internal/summary"
	"github.com/fieldtrace/trackstats/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management
	StartRun(seg core.Segment) error
	EndRun() error

	// Result recording
	RecordFrames(rows []report.FrameRow) error
	RecordSummary(rows []summary.Row) error
	RecordBands(rows []bands.Row) error
}

// Exportable is an optional interface for storage backends that produce
// a file per run.
type Exportable interface {
	GetExportedFilePath() string
}
