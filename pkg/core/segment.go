package core

import "time"

// Segment describes one analysed run (a video or a time window of one) and
// the parameters it was analysed with.
type Segment struct {
	ID        string // run id, unique per analysis
	Name      string // caller label written to the band report
	Source    string // input track file
	StartTime time.Time
	Frames    int
	FPS       float64
	Window    int
	Classes   []EntityClass
	HSRKmh    float64
	SprintKmh float64
}
