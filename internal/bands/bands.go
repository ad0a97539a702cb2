// Package bands splits the distance covered by each entity into speed bands.
package bands

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/fieldtrace/trackstats/pkg/core"
	"gonum.org/v1/gonum/floats"
)

// Band is a speed band label.
type Band string

const (
	Low    Band = "low"
	HSR    Band = "hsr"
	Sprint Band = "sprint"
)

// All lists the bands in report order.
var All = []Band{Low, HSR, Sprint}

// Thresholds are the lower bounds, in km/h, of the hsr and sprint bands.
type Thresholds struct {
	HSR    float64
	Sprint float64
}

// DefaultThresholds returns 20 km/h for high-speed running and 25 km/h for sprinting.
func DefaultThresholds() Thresholds {
	return Thresholds{HSR: 20, Sprint: 25}
}

// Validate requires 0 <= HSR < Sprint.
func (th Thresholds) Validate() error {
	if th.HSR < 0 {
		return fmt.Errorf("hsr threshold must not be negative, got %f", th.HSR)
	}
	if th.Sprint <= th.HSR {
		return fmt.Errorf("sprint threshold %f must be above hsr threshold %f", th.Sprint, th.HSR)
	}
	return nil
}

// Classify returns the band of speed. Lower bounds are inclusive.
func (th Thresholds) Classify(speedKmh float64) Band {
	switch {
	case speedKmh >= th.Sprint:
		return Sprint
	case speedKmh >= th.HSR:
		return HSR
	default:
		return Low
	}
}

// FrameDistance is the distance in metres covered during one frame at speedKmh.
// It is unrelated to the cumulative window distance of the kinematics engine.
func FrameDistance(speedKmh, fps float64) float64 {
	return speedKmh * 1000 / 3600 / fps
}

// Sample is one per-frame speed of one track.
type Sample struct {
	TrackID  core.TrackID
	SpeedKmh float64
}

// Row is the band split of one track.
type Row struct {
	TrackID core.TrackID
	LowM    float64
	HSRM    float64
	SprintM float64
	Segment string
}

// Total returns the distance over all bands.
func (r Row) Total() float64 {
	return floats.Sum([]float64{r.LowM, r.HSRM, r.SprintM})
}

// Distance returns the distance in band b.
func (r Row) Distance(b Band) float64 {
	switch b {
	case Low:
		return r.LowM
	case HSR:
		return r.HSRM
	case Sprint:
		return r.SprintM
	}
	return 0
}

func (r *Row) add(b Band, d float64) {
	switch b {
	case Low:
		r.LowM += d
	case HSR:
		r.HSRM += d
	case Sprint:
		r.SprintM += d
	}
}

var errNonFinite = errors.New("speed is not a finite number")

// Aggregate sums per-frame distances by track and band. Rows are ordered by
// track id; a band no frame fell into reports zero.
func Aggregate(samples []Sample, th Thresholds, fps float64, segment string) ([]Row, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %f", fps)
	}

	byTrack := make(map[core.TrackID]*Row)
	for i, s := range samples {
		if math.IsNaN(s.SpeedKmh) || math.IsInf(s.SpeedKmh, 0) {
			return nil, fmt.Errorf("sample %d of track %d: %w", i, s.TrackID, errNonFinite)
		}
		row, ok := byTrack[s.TrackID]
		if !ok {
			row = &Row{TrackID: s.TrackID, Segment: segment}
			byTrack[s.TrackID] = row
		}
		row.add(th.Classify(s.SpeedKmh), FrameDistance(s.SpeedKmh, fps))
	}

	ids := make([]core.TrackID, 0, len(byTrack))
	for id := range byTrack {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, *byTrack[id])
	}
	return rows, nil
}
