// Package summary reduces per-frame kinematics to one row per entity.
package summary

import (
	"slices"

	"github.com/fieldtrace/trackstats/internal/trackstore"
	"github.com/fieldtrace/trackstats/pkg/core"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Row summarises one entity over the segment.
type Row struct {
	Class          core.EntityClass
	TrackID        core.TrackID
	FinalDistanceM float64
	AvgSpeedKmh    float64
	MaxSpeedKmh    float64
}

type entry struct {
	final  float64
	speeds []float64
}

// Build summarises every entity of classes that carries at least one
// distance value. The final distance is the last one recorded; average and
// maximum speed are 0 when the entity has no speed values. Rows are ordered
// by class, then track id.
func Build(store *trackstore.Store, classes []core.EntityClass) []Row {
	var rows []Row
	for _, class := range classes {
		entries := make(map[core.TrackID]*entry)
		for _, tracks := range store.History(class) {
			for id, rec := range tracks {
				dist, ok := rec.Distance()
				if !ok {
					continue
				}
				e, seen := entries[id]
				if !seen {
					e = &entry{}
					entries[id] = e
				}
				e.final = dist
				if speed, ok := rec.Speed(); ok {
					e.speeds = append(e.speeds, speed)
				}
			}
		}

		ids := make([]core.TrackID, 0, len(entries))
		for id := range entries {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		for _, id := range ids {
			e := entries[id]
			row := Row{Class: class, TrackID: id, FinalDistanceM: e.final}
			if len(e.speeds) > 0 {
				row.AvgSpeedKmh = stat.Mean(e.speeds, nil)
				row.MaxSpeedKmh = floats.Max(e.speeds)
			}
			rows = append(rows, row)
		}
	}
	return rows
}
