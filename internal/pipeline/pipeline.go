// Package pipeline runs the analysis stages for one segment: ingest, ball gap
// fill, windowed kinematics, reports, storage and metrics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/chart"
	"github.com/fieldtrace/trackstats/internal/config"
	"github.com/fieldtrace/trackstats/internal/gapfill"
	"github.com/fieldtrace/trackstats/internal/influx"
	"github.com/fieldtrace/trackstats/internal/ingest"
	"github.com/fieldtrace/trackstats/internal/kinematics"
	"github.com/fieldtrace/trackstats/internal/logging"
	intOtel "github.com/fieldtrace/trackstats/internal/otel"
	"github.com/fieldtrace/trackstats/internal/report"
	"github.com/fieldtrace/trackstats/internal/storage"
	"github.com/fieldtrace/trackstats/internal/summary"
	"github.com/fieldtrace/trackstats/internal/util"
	"github.com/fieldtrace/trackstats/pkg/core"
	"github.com/google/uuid"
)

// ErrPublish marks storage or metrics failures that happened after the
// reports were written.
var ErrPublish = errors.New("publish failed")

// Options are the analysis parameters.
type Options struct {
	Kinematics kinematics.Config
	Bands      bands.Thresholds
	Report     config.ReportConfig
}

// OptionsFromConfig builds Options from the typed config sections.
func OptionsFromConfig(k config.KinematicsConfig, b config.BandsConfig, r config.ReportConfig) (Options, error) {
	opts := Options{
		Kinematics: kinematics.Config{Window: k.Window, FPS: k.FPS},
		Bands:      bands.Thresholds{HSR: b.HSRKmh, Sprint: b.SprintKmh},
		Report:     r,
	}
	for _, name := range k.Classes {
		class, err := core.ParseEntityClass(name)
		if err != nil {
			return Options{}, fmt.Errorf("kinematics.classes: %w", err)
		}
		if !slices.Contains(opts.Kinematics.Classes, class) {
			opts.Kinematics.Classes = append(opts.Kinematics.Classes, class)
		}
	}
	return opts, nil
}

// Dependencies are the optional sinks of a pipeline.
type Dependencies struct {
	Logger  *slog.Logger
	Metrics *intOtel.Metrics
	Storage storage.Backend
	Influx  *influx.Manager
}

// Result is everything one analysed segment produced.
type Result struct {
	Segment    core.Segment
	Dir        string
	Files      []string
	Kinematics kinematics.Stats
	BallFilled int
	Frames     []report.FrameRow
	Summary    []summary.Row
	Bands      []bands.Row
}

// Pipeline analyses segments one at a time.
type Pipeline struct {
	opts   Options
	deps   Dependencies
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current core.Segment
}

// New validates opts and creates a pipeline.
func New(opts Options, deps Dependencies) (*Pipeline, error) {
	if err := opts.Kinematics.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kinematics config: %w", err)
	}
	if err := opts.Bands.Validate(); err != nil {
		return nil, fmt.Errorf("invalid band thresholds: %w", err)
	}

	base := deps.Logger
	if base == nil {
		base = slog.Default()
	}
	p := &Pipeline{opts: opts, deps: deps, now: time.Now}
	p.logger = slog.New(logging.NewContextHandler(base.Handler(), p.contextAttrs))
	return p, nil
}

// Logger returns the pipeline logger, which tags records with the current run.
func (p *Pipeline) Logger() *slog.Logger {
	return p.logger
}

func (p *Pipeline) contextAttrs() []slog.Attr {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current.ID == "" {
		return nil
	}
	return []slog.Attr{
		slog.String("runId", p.current.ID),
		slog.String("segment", p.current.Name),
	}
}

func (p *Pipeline) setCurrent(seg core.Segment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = seg
}

func (p *Pipeline) segmentDir(name string) string {
	return filepath.Join(p.opts.Report.OutputDir, util.SanitizeName(name))
}

func (p *Pipeline) exporter(dir string) *report.Exporter {
	return &report.Exporter{Dir: dir, Compress: p.opts.Report.Compress, Logger: p.logger}
}

// Analyze runs every stage on the track file at path. The segment label
// defaults to report.segment, then to the file name without extensions.
// Reports are written to <outputDir>/<segment>. A storage or metrics failure
// returns the complete Result together with an ErrPublish error.
func (p *Pipeline) Analyze(ctx context.Context, path, segment string) (Result, error) {
	if segment == "" {
		segment = p.opts.Report.Segment
	}
	if segment == "" {
		segment = util.SegmentFromPath(path)
	}

	seg := core.Segment{
		ID:        uuid.NewString(),
		Name:      segment,
		Source:    path,
		StartTime: p.now().UTC(),
		FPS:       p.opts.Kinematics.FPS,
		Window:    p.opts.Kinematics.Window,
		Classes:   p.opts.Kinematics.Classes,
		HSRKmh:    p.opts.Bands.HSR,
		SprintKmh: p.opts.Bands.Sprint,
	}
	p.setCurrent(seg)
	defer p.setCurrent(core.Segment{})

	loaded, err := ingest.LoadFile(path)
	if err != nil {
		return Result{}, err
	}
	seg.Frames = loaded.Frames
	store := loaded.Store
	p.logger.Info("Track file loaded", "path", path, "frames", loaded.Frames, "records", loaded.Records)

	res := Result{Segment: seg, Dir: p.segmentDir(seg.Name)}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	fill, err := gapfill.FillClass(store, core.Ball, core.BallTrackID)
	switch {
	case errors.Is(err, gapfill.ErrNoSamples):
		p.logger.Warn("No ball detections, ball track left empty")
	case err != nil:
		return Result{}, err
	default:
		res.BallFilled = fill.Filled
		p.deps.Metrics.FramesFilled(ctx, core.Ball.String(), fill.Filled)
		p.logger.Debug("Ball track filled", "frames", fill.Frames, "filled", fill.Filled)
	}

	engine, err := kinematics.NewEngine(p.opts.Kinematics, kinematics.Dependencies{
		Logger:  p.logger,
		Metrics: p.deps.Metrics,
	})
	if err != nil {
		return Result{}, err
	}
	res.Kinematics, err = engine.Run(ctx, store)
	if err != nil {
		return Result{}, err
	}
	store.Freeze()

	classes := p.opts.Kinematics.Classes
	res.Frames = report.FullRows(store, classes)
	res.Summary = summary.Build(store, classes)
	res.Bands, err = bands.Aggregate(report.BandSamples(res.Frames), p.opts.Bands, seg.FPS, seg.Name)
	if err != nil {
		return Result{}, err
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := p.writeReports(ctx, &res); err != nil {
		return Result{}, err
	}

	if err := p.publish(ctx, &res); err != nil {
		return res, fmt.Errorf("%w: %w", ErrPublish, err)
	}

	p.logger.Info("Segment analysed",
		"dir", res.Dir,
		"frames", len(res.Frames),
		"entities", len(res.Summary),
		"ballFilled", res.BallFilled,
	)
	return res, nil
}

func (p *Pipeline) writeReports(ctx context.Context, res *Result) error {
	exp := p.exporter(res.Dir)

	tables := []struct {
		name string
		rows int
		fn   func() (string, error)
	}{
		{"full", len(res.Frames), func() (string, error) { return exp.ExportFull(res.Frames) }},
		{"summary", len(res.Summary), func() (string, error) { return exp.ExportSummary(res.Summary) }},
		{"bands", len(res.Bands), func() (string, error) { return exp.ExportBands(res.Bands) }},
	}
	for _, t := range tables {
		path, err := t.fn()
		if err != nil {
			return fmt.Errorf("%s report: %w", t.name, err)
		}
		if path == "" {
			continue
		}
		res.Files = append(res.Files, path)
		p.deps.Metrics.RowsExported(ctx, t.name, t.rows)
		p.logger.Debug("Report written", "report", t.name, "path", path, "rows", t.rows)
	}

	if !p.opts.Report.Charts {
		return nil
	}
	title := res.Segment.Name
	profile := filepath.Join(res.Dir, chart.SpeedProfileFile)
	switch err := chart.SpeedProfile(res.Frames, title+" speed", profile); {
	case errors.Is(err, chart.ErrNoData):
	case err != nil:
		return err
	default:
		res.Files = append(res.Files, profile)
	}
	page := filepath.Join(res.Dir, chart.BandsPageFile)
	switch err := chart.WriteBandsPage(page, res.Bands, title+" speed bands"); {
	case errors.Is(err, chart.ErrNoData):
	case err != nil:
		return err
	default:
		res.Files = append(res.Files, page)
	}
	return nil
}

// publish hands the results to the storage backend and the metrics sink.
// Both are attempted; their errors are joined.
func (p *Pipeline) publish(ctx context.Context, res *Result) error {
	var errs []error

	if st := p.deps.Storage; st != nil {
		if err := storeRun(st, res); err != nil {
			p.logger.Error("Failed to store run", "error", err)
			errs = append(errs, fmt.Errorf("storage: %w", err))
		} else if ex, ok := st.(storage.Exportable); ok && ex.GetExportedFilePath() != "" {
			res.Files = append(res.Files, ex.GetExportedFilePath())
			p.logger.Info("Run exported", "path", ex.GetExportedFilePath())
		}
	}

	if m := p.deps.Influx; m != nil {
		n, err := m.WriteRun(res.Segment, res.Summary, res.Bands)
		if err != nil {
			p.logger.Error("Failed to write metrics", "error", err, "points", n)
			errs = append(errs, fmt.Errorf("influx: %w", err))
		} else {
			p.deps.Metrics.RowsExported(ctx, "influx", n)
		}
	}

	return errors.Join(errs...)
}

func storeRun(st storage.Backend, res *Result) error {
	if err := st.StartRun(res.Segment); err != nil {
		return err
	}
	if err := st.RecordFrames(res.Frames); err != nil {
		return err
	}
	if err := st.RecordSummary(res.Summary); err != nil {
		return err
	}
	if err := st.RecordBands(res.Bands); err != nil {
		return err
	}
	return st.EndRun()
}

// Bands recomputes the speed-band table of a segment directory from its
// per-frame table and writes it next to it. The segment label defaults to the
// directory name.
func (p *Pipeline) Bands(ctx context.Context, dir, segment string) ([]bands.Row, string, error) {
	if segment == "" {
		segment = filepath.Base(filepath.Clean(dir))
	}

	rows, err := report.LoadFull(dir)
	if err != nil {
		return nil, "", err
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	out, err := bands.Aggregate(report.BandSamples(rows), p.opts.Bands, p.opts.Kinematics.FPS, segment)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", dir, err)
	}
	path, err := p.exporter(dir).ExportBands(out)
	if err != nil {
		return nil, "", err
	}
	p.deps.Metrics.RowsExported(ctx, "bands", len(out))
	p.logger.Info("Speed bands written", "path", path, "tracks", len(out), "segment", segment)
	return out, path, nil
}

// Concat joins the band tables of dirs into out.
func (p *Pipeline) Concat(dirs []string, out string) (string, error) {
	rows, err := report.ConcatBands(dirs)
	if err != nil {
		return "", err
	}
	path, err := p.exporter(filepath.Dir(out)).ExportBandsAs(filepath.Base(out), rows)
	if err != nil {
		return "", err
	}
	p.logger.Info("Speed bands concatenated", "path", path, "segments", len(dirs), "rows", len(rows))
	return path, nil
}
