// Package convert provides functions to convert between GORM models and report rows
package convert

import (
	"encoding/json"

	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/model"
	"github.com/fieldtrace/trackstats/internal/report"
	"github.com/fieldtrace/trackstats/internal/summary"
	"github.com/fieldtrace/trackstats/pkg/core"
	"gorm.io/datatypes"
)

// RunParameters is the JSON document stored with every run.
type RunParameters struct {
	Classes   []string `json:"classes"`
	HSRKmh    float64  `json:"hsrKmh"`
	SprintKmh float64  `json:"sprintKmh"`
}

// parametersToJSON converts run parameters to datatypes.JSON for DB storage.
func parametersToJSON(p RunParameters) datatypes.JSON {
	if p.Classes == nil {
		p.Classes = []string{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// SegmentToRun converts a core.Segment to a GORM model.Run.
func SegmentToRun(s core.Segment) model.Run {
	p := RunParameters{HSRKmh: s.HSRKmh, SprintKmh: s.SprintKmh}
	for _, c := range s.Classes {
		p.Classes = append(p.Classes, c.String())
	}
	return model.Run{
		UUID:       s.ID,
		Segment:    s.Name,
		Source:     s.Source,
		StartTime:  s.StartTime,
		Frames:     s.Frames,
		FPS:        s.FPS,
		Window:     s.Window,
		Parameters: parametersToJSON(p),
	}
}

// FrameRowsToStats converts per-frame report rows for the run with primary key runID.
func FrameRowsToStats(runID uint, rows []report.FrameRow) []model.FrameStat {
	out := make([]model.FrameStat, len(rows))
	for i, r := range rows {
		out[i] = model.FrameStat{
			RunID:          runID,
			ObjectType:     r.Class.String(),
			TrackID:        int(r.TrackID),
			FrameNum:       r.Frame,
			SpeedKmh:       r.SpeedKmh,
			TotalDistanceM: r.TotalDistanceM,
		}
	}
	return out
}

// SummaryRowsToStats converts summary rows.
func SummaryRowsToStats(runID uint, rows []summary.Row) []model.SummaryStat {
	out := make([]model.SummaryStat, len(rows))
	for i, r := range rows {
		out[i] = model.SummaryStat{
			RunID:          runID,
			ObjectType:     r.Class.String(),
			TrackID:        int(r.TrackID),
			FinalDistanceM: r.FinalDistanceM,
			AvgSpeedKmh:    r.AvgSpeedKmh,
			MaxSpeedKmh:    r.MaxSpeedKmh,
		}
	}
	return out
}

// BandRowsToStats converts speed-band rows.
func BandRowsToStats(runID uint, rows []bands.Row) []model.BandStat {
	out := make([]model.BandStat, len(rows))
	for i, r := range rows {
		out[i] = model.BandStat{
			RunID:             runID,
			TrackID:           int(r.TrackID),
			LowSpeedDistanceM: r.LowM,
			HSRDistanceM:      r.HSRM,
			SprintDistanceM:   r.SprintM,
			Segment:           r.Segment,
		}
	}
	return out
}
