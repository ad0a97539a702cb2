package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/queue"
	"github.com/fieldtrace/trackstats/internal/report"
	"github.com/fieldtrace/trackstats/internal/util"
)

// BatchResult collects the outcome of a multi-segment run.
type BatchResult struct {
	Segments  []Result
	Failed    map[string]error // by input path
	BandsPath string           // concatenated band table, empty when no rows
}

// Batch analyses every track file in order, each as its own segment named
// after the file, then writes the concatenated band table into the output
// directory. A failing segment is logged and skipped.
func (p *Pipeline) Batch(ctx context.Context, paths []string) (BatchResult, error) {
	pending := queue.New[string]()
	pending.Push(paths...)

	res := BatchResult{Failed: make(map[string]error)}
	var all []bands.Row

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path, ok := pending.TryPop()
		if !ok {
			break
		}

		seg, err := p.Analyze(ctx, path, util.SegmentFromPath(path))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, err
		}
		if err != nil {
			p.logger.Error("Segment failed", "path", path, "error", err, "remaining", pending.Len())
			res.Failed[path] = err
			if !errors.Is(err, ErrPublish) {
				continue
			}
		}
		res.Segments = append(res.Segments, seg)
		all = append(all, seg.Bands...)
	}

	path, err := p.exporter(p.opts.Report.OutputDir).ExportBandsAs(report.AllBandsFile, all)
	if err != nil {
		return res, err
	}
	res.BandsPath = path

	p.logger.Info("Batch complete",
		"segments", len(res.Segments),
		"failed", len(res.Failed),
		"bands", path,
	)
	if len(res.Failed) > 0 {
		return res, fmt.Errorf("%d of %d segments failed", len(res.Failed), len(paths))
	}
	return res, nil
}
