// Package geo converts pitch coordinates to and from simplefeatures geometry
// and measures displacement between them.
package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fieldtrace/trackstats/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Pitch coordinates are a local Cartesian frame in metres, so geometry is
// always built with DimXY and no SRID.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// PositionFromString parses an "x,y" string into a core.Position2D.
// Tracker exports sometimes serialise position tuples this way.
func PositionFromString(coords string) (core.Position2D, error) {
	coordsSplit := strings.Split(strings.Trim(strings.TrimSpace(coords), "()[]"), ",")
	if len(coordsSplit) != 2 {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	return core.Position2D{X: x, Y: y}, nil
}

// ToPoint converts a position to a geom.Point. NaN or infinite coordinates
// are rejected with ErrInvalidCoordinates.
func ToPoint(p core.Position2D) (geom.Point, error) {
	pt, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.X, Y: p.Y},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: %w", ErrInvalidCoordinates, err)
	}
	return pt, nil
}

// FromPoint converts a geom.Point back to a position. The boolean is false for
// an empty point.
func FromPoint(pt geom.Point) (core.Position2D, bool) {
	coords, ok := pt.Coordinates()
	if !ok {
		return core.Position2D{}, false
	}
	return core.Position2D{X: coords.X, Y: coords.Y}, true
}

// Displacement returns the straight-line distance in metres between a and b.
func Displacement(a, b core.Position2D) (float64, error) {
	pa, err := ToPoint(a)
	if err != nil {
		return 0, err
	}
	pb, err := ToPoint(b)
	if err != nil {
		return 0, err
	}
	d, ok := geom.Distance(pa.AsGeometry(), pb.AsGeometry())
	if !ok {
		return 0, ErrInvalidCoordinates
	}
	return d, nil
}
