// pkg/core/record.go
package core

// Record is the attribute record of one entity in one frame.
// Optional attributes are nil until the stage that owns them sets them.
type Record struct {
	BBox          BBox
	PositionWorld *Position2D // set by the perspective transform
	SpeedKmh      *float64    // set by the kinematics engine
	DistanceM     *float64    // cumulative, set by the kinematics engine
}

// World returns the world position, if known.
func (r Record) World() (Position2D, bool) {
	if r.PositionWorld == nil {
		return Position2D{}, false
	}
	return *r.PositionWorld, true
}

// Speed returns the window speed in km/h, if computed.
func (r Record) Speed() (float64, bool) {
	if r.SpeedKmh == nil {
		return 0, false
	}
	return *r.SpeedKmh, true
}

// Distance returns the cumulative distance in metres, if computed.
func (r Record) Distance() (float64, bool) {
	if r.DistanceM == nil {
		return 0, false
	}
	return *r.DistanceM, true
}

// Clone returns a copy that shares no pointers with r.
func (r Record) Clone() Record {
	out := Record{BBox: r.BBox}
	if r.PositionWorld != nil {
		p := *r.PositionWorld
		out.PositionWorld = &p
	}
	if r.SpeedKmh != nil {
		v := *r.SpeedKmh
		out.SpeedKmh = &v
	}
	if r.DistanceM != nil {
		v := *r.DistanceM
		out.DistanceM = &v
	}
	return out
}

// Tracks is the per-frame id -> record table of one class.
type Tracks map[TrackID]Record

// Frame maps every class to its tracks for one frame.
type Frame map[EntityClass]Tracks
