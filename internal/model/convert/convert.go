package convert

import (
	"encoding/json"

	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/model"
	"github.com/fieldtrace/trackstats/internal/report"
	"github.com/fieldtrace/trackstats/internal/summary"
	"github.com/fieldtrace/trackstats/pkg/core"
)

// objectType maps a stored object_type back to a class, defaulting to player.
func objectType(s string) core.EntityClass {
	class, err := core.ParseEntityClass(s)
	if err != nil {
		return core.Player
	}
	return class
}

// RunToSegment converts a GORM model.Run back to a core.Segment. Parameters
// that fail to decode are left empty.
func RunToSegment(r model.Run) core.Segment {
	seg := core.Segment{
		ID:        r.UUID,
		Name:      r.Segment,
		Source:    r.Source,
		StartTime: r.StartTime,
		Frames:    r.Frames,
		FPS:       r.FPS,
		Window:    r.Window,
	}
	if p, err := RunParametersOf(r); err == nil {
		seg.HSRKmh = p.HSRKmh
		seg.SprintKmh = p.SprintKmh
		for _, name := range p.Classes {
			seg.Classes = append(seg.Classes, objectType(name))
		}
	}
	return seg
}

// RunParametersOf decodes the stored parameters of a run.
func RunParametersOf(r model.Run) (RunParameters, error) {
	var p RunParameters
	if len(r.Parameters) == 0 {
		return p, nil
	}
	err := json.Unmarshal(r.Parameters, &p)
	return p, err
}

// StatsToFrameRows converts stored frame stats to report rows.
func StatsToFrameRows(stats []model.FrameStat) []report.FrameRow {
	out := make([]report.FrameRow, len(stats))
	for i, s := range stats {
		out[i] = report.FrameRow{
			Class:          objectType(s.ObjectType),
			TrackID:        core.TrackID(s.TrackID),
			Frame:          s.FrameNum,
			SpeedKmh:       s.SpeedKmh,
			TotalDistanceM: s.TotalDistanceM,
		}
	}
	return out
}

// StatsToSummaryRows converts stored summary stats to summary rows.
func StatsToSummaryRows(stats []model.SummaryStat) []summary.Row {
	out := make([]summary.Row, len(stats))
	for i, s := range stats {
		out[i] = summary.Row{
			Class:          objectType(s.ObjectType),
			TrackID:        core.TrackID(s.TrackID),
			FinalDistanceM: s.FinalDistanceM,
			AvgSpeedKmh:    s.AvgSpeedKmh,
			MaxSpeedKmh:    s.MaxSpeedKmh,
		}
	}
	return out
}

// StatsToBandRows converts stored band stats to band rows.
func StatsToBandRows(stats []model.BandStat) []bands.Row {
	out := make([]bands.Row, len(stats))
	for i, s := range stats {
		out[i] = bands.Row{
			TrackID: core.TrackID(s.TrackID),
			LowM:    s.LowSpeedDistanceM,
			HSRM:    s.HSRDistanceM,
			SprintM: s.SprintDistanceM,
			Segment: s.Segment,
		}
	}
	return out
}
