// Package report builds and writes the tabular outputs of an analysis run.
package report

import (
	"slices"

	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/trackstore"
	"github.com/fieldtrace/trackstats/pkg/core"
)

// FrameRow is one measured entity in one frame.
type FrameRow struct {
	Class          core.EntityClass
	TrackID        core.TrackID
	Frame          int
	SpeedKmh       float64
	TotalDistanceM float64
}

// FullRows lists every (frame, entity) of classes that carries both speed and
// distance, ordered by class, frame and track id.
func FullRows(store *trackstore.Store, classes []core.EntityClass) []FrameRow {
	var rows []FrameRow
	for _, class := range classes {
		for frame, tracks := range store.History(class) {
			ids := make([]core.TrackID, 0, len(tracks))
			for id := range tracks {
				ids = append(ids, id)
			}
			slices.Sort(ids)

			for _, id := range ids {
				rec := tracks[id]
				speed, okSpeed := rec.Speed()
				dist, okDist := rec.Distance()
				if !okSpeed || !okDist {
					continue
				}
				rows = append(rows, FrameRow{
					Class:          class,
					TrackID:        id,
					Frame:          frame,
					SpeedKmh:       speed,
					TotalDistanceM: dist,
				})
			}
		}
	}
	return rows
}

// BandSamples converts full rows into speed-band input.
func BandSamples(rows []FrameRow) []bands.Sample {
	out := make([]bands.Sample, len(rows))
	for i, r := range rows {
		out[i] = bands.Sample{TrackID: r.TrackID, SpeedKmh: r.SpeedKmh}
	}
	return out
}
