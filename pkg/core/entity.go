// pkg/core/entity.go
package core

import (
	"fmt"
	"strings"
)

// EntityClass is the category of a tracked object.
type EntityClass string

const (
	Player  EntityClass = "player"
	Referee EntityClass = "referee"
	Ball    EntityClass = "ball"
)

// BallTrackID is the id the detector assigns to the single ball track.
const BallTrackID TrackID = 1

// TrackID is the tracker-assigned identifier of one physical entity.
// The tracker keeps it stable across frames; nothing here verifies that.
type TrackID int

// EntityClasses lists every known class in report order.
var EntityClasses = []EntityClass{Player, Referee, Ball}

// ParseEntityClass maps tracker class names onto an EntityClass.
// Goalkeepers are folded into players.
func ParseEntityClass(name string) (EntityClass, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "player", "players", "goalkeeper", "goalkeepers":
		return Player, nil
	case "referee", "referees":
		return Referee, nil
	case "ball":
		return Ball, nil
	default:
		return "", fmt.Errorf("unknown entity class %q", name)
	}
}

// String implements fmt.Stringer.
func (c EntityClass) String() string {
	return string(c)
}
