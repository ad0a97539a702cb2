package kinematics

import "github.com/fieldtrace/trackstats/pkg/core"

type accumulatorKey struct {
	class core.EntityClass
	id    core.TrackID
}

// Accumulator holds the running cumulative distance of every (class, id)
// during one engine run.
type Accumulator struct {
	totals map[accumulatorKey]float64
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{totals: make(map[accumulatorKey]float64)}
}

// Add adds a window displacement and returns the new running total.
func (a *Accumulator) Add(class core.EntityClass, id core.TrackID, meters float64) float64 {
	k := accumulatorKey{class, id}
	a.totals[k] += meters
	return a.totals[k]
}

// Total returns the running total for (class, id); false if nothing was added.
func (a *Accumulator) Total(class core.EntityClass, id core.TrackID) (float64, bool) {
	v, ok := a.totals[accumulatorKey{class, id}]
	return v, ok
}

// Len returns the number of (class, id) pairs with a total.
func (a *Accumulator) Len() int {
	return len(a.totals)
}

// Reset clears every total.
func (a *Accumulator) Reset() {
	clear(a.totals)
}
