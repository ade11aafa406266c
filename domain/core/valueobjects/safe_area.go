package valueobjects

import "math"

// minSafeExtent keeps the safe area usable on viewports smaller than a card.
const minSafeExtent = 100

// Margins is the fixed padding between a card edge and the viewport edge.
// Bottom is larger by default to keep clear of the control bar.
type Margins struct {
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
}

// SafeArea is the region node centers must stay inside: the viewport inset by
// the card half extents plus margins.
type SafeArea struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
}

// Float64Source is the part of math/rand the placement code needs.
type Float64Source interface {
	Float64() float64
}

// NewSafeArea derives the safe area for a viewport. ok is false while the
// viewport is degenerate (zero, negative or non-finite width or height).
func NewSafeArea(width, height, cardHalfWidth, cardHalfHeight float64, margins Margins) (SafeArea, bool) {
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return SafeArea{}, false
	}

	minX := margins.Left + cardHalfWidth
	minY := margins.Top + cardHalfHeight
	area := SafeArea{
		MinX: minX,
		MaxX: math.Max(minX+minSafeExtent, width-margins.Right-cardHalfWidth),
		MinY: minY,
		MaxY: math.Max(minY+minSafeExtent, height-margins.Bottom-cardHalfHeight),
	}
	return area, true
}

// Center returns the centroid
func (a SafeArea) Center() Vector {
	return Vector{X: (a.MinX + a.MaxX) / 2, Y: (a.MinY + a.MaxY) / 2}
}

// Width returns the horizontal extent
func (a SafeArea) Width() float64 {
	return a.MaxX - a.MinX
}

// Height returns the vertical extent
func (a SafeArea) Height() float64 {
	return a.MaxY - a.MinY
}

// Contains reports whether p lies inside the area, bounds included
func (a SafeArea) Contains(p Vector) bool {
	return p.X >= a.MinX && p.X <= a.MaxX && p.Y >= a.MinY && p.Y <= a.MaxY
}

// Clamp moves p onto the nearest point of the area
func (a SafeArea) Clamp(p Vector) Vector {
	return Vector{
		X: math.Max(a.MinX, math.Min(a.MaxX, p.X)),
		Y: math.Max(a.MinY, math.Min(a.MaxY, p.Y)),
	}
}

// RandomPoint draws a point uniformly from the area
func (a SafeArea) RandomPoint(rng Float64Source) Vector {
	return Vector{
		X: a.MinX + rng.Float64()*a.Width(),
		Y: a.MinY + rng.Float64()*a.Height(),
	}
}
