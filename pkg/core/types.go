// pkg/core/types.go
package core

// Position2D is a perspective-corrected pitch coordinate in metres.
type Position2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BBox is a pixel bounding box (x1, y1, x2, y2).
// Consumers assume x1 <= x2 and y1 <= y2; it is not enforced.
type BBox [4]float64

// Center returns the pixel centre of the box.
func (b BBox) Center() (float64, float64) {
	return (b[0] + b[2]) / 2, (b[1] + b[3]) / 2
}

// FootPosition returns the bottom-centre of the box, used as the ground
// contact point for people.
func (b BBox) FootPosition() (float64, float64) {
	return (b[0] + b[2]) / 2, b[3]
}

// Width returns x2 - x1.
func (b BBox) Width() float64 {
	return b[2] - b[0]
}

// Height returns y2 - y1.
func (b BBox) Height() float64 {
	return b[3] - b[1]
}
