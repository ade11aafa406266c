package valueobjects

import (
	"math"

	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
)

// Vector is a 2D coordinate or displacement on the board surface.
// Positions, velocities and pins all use it.
type Vector struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NewPosition creates a position with validation
func NewPosition(x, y float64) (Vector, error) {
	if !isValidCoordinate(x) || !isValidCoordinate(y) {
		return Vector{}, pkgerrors.NewValidation("invalid coordinates: must be finite numbers")
	}
	return Vector{X: x, Y: y}, nil
}

// Add returns v + o
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o
func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale multiplies both components by k
func (v Vector) Scale(k float64) Vector {
	return Vector{X: v.X * k, Y: v.Y * k}
}

// Len returns the Euclidean length
func (v Vector) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// DistanceTo calculates the Euclidean distance to another position
func (v Vector) DistanceTo(other Vector) float64 {
	return v.Sub(other).Len()
}

// Equals checks if two vectors are equal within a small epsilon
func (v Vector) Equals(other Vector) bool {
	const epsilon = 1e-9
	return math.Abs(v.X-other.X) < epsilon &&
		math.Abs(v.Y-other.Y) < epsilon
}

// IsFinite reports whether neither component is NaN or infinite
func (v Vector) IsFinite() bool {
	return isValidCoordinate(v.X) && isValidCoordinate(v.Y)
}

// isValidCoordinate checks if a coordinate is a valid finite number
func isValidCoordinate(c float64) bool {
	return !math.IsNaN(c) && !math.IsInf(c, 0)
}
