// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldtrace/trackstats/internal/util"
)

// RunExport is the root JSON structure of an exported run
type RunExport struct {
	RunID     string       `json:"runId"`
	Segment   string       `json:"segment"`
	Source    string       `json:"source"`
	StartTime time.Time    `json:"startTime"`
	Frames    int          `json:"frames"`
	FPS       float64      `json:"fps"`
	Window    int          `json:"window"`
	Classes   []string     `json:"classes"`
	HSRKmh    float64      `json:"hsrKmh"`
	SprintKmh float64      `json:"sprintKmh"`
	Entities  []EntityJSON `json:"entities"`
	Bands     []BandJSON   `json:"bands"`
	Series    []SeriesJSON `json:"series"`
}

// EntityJSON is the summary of one tracked entity
type EntityJSON struct {
	ObjectType     string  `json:"objectType"`
	TrackID        int     `json:"trackId"`
	FinalDistanceM float64 `json:"finalDistanceM"`
	AvgSpeedKmh    float64 `json:"avgSpeedKmh"`
	MaxSpeedKmh    float64 `json:"maxSpeedKmh"`
}

// BandJSON is the speed band split of one track
type BandJSON struct {
	TrackID int     `json:"trackId"`
	Low     float64 `json:"low"`
	HSR     float64 `json:"hsr"`
	Sprint  float64 `json:"sprint"`
}

// SeriesJSON is the per-frame series of one entity.
// Each point is [frameNum, speedKmh, totalDistanceM].
type SeriesJSON struct {
	ObjectType string      `json:"objectType"`
	TrackID    int         `json:"trackId"`
	Points     [][]float64 `json:"points"`
}

type seriesKey struct {
	class string
	id    int
}

// exportJSON writes the run to a (optionally gzipped) JSON file
func (b *Backend) exportJSON(run RunRecord) error {
	export := buildExport(run)

	// Build filename
	name := util.SanitizeName(run.Segment.Name)
	if name == "" {
		name = "run"
	}
	timestamp := run.Segment.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeJSON(outputPath, export, b.cfg.CompressOutput); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func buildExport(run RunRecord) RunExport {
	seg := run.Segment
	export := RunExport{
		RunID:     seg.ID,
		Segment:   seg.Name,
		Source:    seg.Source,
		StartTime: seg.StartTime,
		Frames:    seg.Frames,
		FPS:       seg.FPS,
		Window:    seg.Window,
		Classes:   make([]string, 0, len(seg.Classes)),
		HSRKmh:    seg.HSRKmh,
		SprintKmh: seg.SprintKmh,
		Entities:  make([]EntityJSON, 0, len(run.Summary)),
		Bands:     make([]BandJSON, 0, len(run.Bands)),
		Series:    make([]SeriesJSON, 0),
	}
	for _, c := range seg.Classes {
		export.Classes = append(export.Classes, c.String())
	}

	for _, r := range run.Summary {
		export.Entities = append(export.Entities, EntityJSON{
			ObjectType:     r.Class.String(),
			TrackID:        int(r.TrackID),
			FinalDistanceM: r.FinalDistanceM,
			AvgSpeedKmh:    r.AvgSpeedKmh,
			MaxSpeedKmh:    r.MaxSpeedKmh,
		})
	}

	for _, r := range run.Bands {
		export.Bands = append(export.Bands, BandJSON{
			TrackID: int(r.TrackID),
			Low:     r.LowM,
			HSR:     r.HSRM,
			Sprint:  r.SprintM,
		})
	}

	// Group frames into one series per entity, in first-seen order
	index := make(map[seriesKey]int)
	for _, r := range run.Frames {
		key := seriesKey{class: r.Class.String(), id: int(r.TrackID)}
		i, ok := index[key]
		if !ok {
			i = len(export.Series)
			index[key] = i
			export.Series = append(export.Series, SeriesJSON{
				ObjectType: key.class,
				TrackID:    key.id,
				Points:     make([][]float64, 0),
			})
		}
		export.Series[i].Points = append(export.Series[i].Points,
			[]float64{float64(r.Frame), r.SpeedKmh, r.TotalDistanceM})
	}

	return export
}

func writeJSON(path string, data RunExport, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if !compress {
		return json.NewEncoder(f).Encode(data)
	}

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		return err
	}
	return gzWriter.Close()
}
