// Package gapfill completes sparse per-frame bounding boxes of a single
// always-present track, such as the ball.
package gapfill

import (
	"errors"
	"fmt"

	"github.com/fieldtrace/trackstats/internal/trackstore"
	"github.com/fieldtrace/trackstats/pkg/core"
)

// ErrNoSamples is returned when a sequence has no detection at all.
var ErrNoSamples = errors.New("no known samples to fill from")

// Sample is one frame of the input sequence. Present is false for a missed detection.
type Sample struct {
	Box     core.BBox
	Present bool
}

// Fill returns one box per input sample. Each coordinate is interpolated
// linearly between the surrounding known samples; a trailing gap keeps the
// last known value and a leading gap takes the first known value.
func Fill(samples []Sample) ([]core.BBox, error) {
	known := make([]int, 0, len(samples))
	for i, s := range samples {
		if s.Present {
			known = append(known, i)
		}
	}
	if len(known) == 0 {
		return nil, ErrNoSamples
	}

	out := make([]core.BBox, len(samples))
	first, last := known[0], known[len(known)-1]
	for i := 0; i < first; i++ {
		out[i] = samples[first].Box
	}
	for i := last; i < len(samples); i++ {
		out[i] = samples[last].Box
	}
	for k := 0; k+1 < len(known); k++ {
		lo, hi := known[k], known[k+1]
		for i := lo; i < hi; i++ {
			out[i] = interpolate(samples[lo].Box, samples[hi].Box, float64(i-lo)/float64(hi-lo))
		}
	}
	return out, nil
}

func interpolate(a, b core.BBox, t float64) core.BBox {
	if t == 0 {
		return a
	}
	var out core.BBox
	for c := range out {
		out[c] = a[c] + (b[c]-a[c])*t
	}
	return out
}

// Result reports what FillClass changed.
type Result struct {
	Frames int
	Filled int // frames that had no detection before
}

// FillClass completes the track id of class in store and replaces the class's
// frame list with exactly one record per frame under id. Records that existed
// keep their other attributes.
func FillClass(store *trackstore.Store, class core.EntityClass, id core.TrackID) (Result, error) {
	history := store.History(class)
	samples := make([]Sample, len(history))
	for i, tracks := range history {
		if rec, ok := tracks[id]; ok {
			samples[i] = Sample{Box: rec.BBox, Present: true}
		}
	}

	boxes, err := Fill(samples)
	if err != nil {
		return Result{}, fmt.Errorf("fill %s track %d: %w", class, id, err)
	}

	res := Result{Frames: len(boxes)}
	frames := make([]core.Tracks, len(boxes))
	for i, box := range boxes {
		rec, ok := history[i][id]
		if !ok {
			res.Filled++
		}
		rec.BBox = box
		frames[i] = core.Tracks{id: rec}
	}
	if err := store.ReplaceClass(class, frames); err != nil {
		return Result{}, err
	}
	return res, nil
}
