package services

import (
	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
)

// BoundaryConfig configures containment
type BoundaryConfig struct {
	// Impulse is the inward velocity added when a node is about to leave the area
	Impulse float64
}

// DefaultBoundaryConfig returns default configuration
func DefaultBoundaryConfig() *BoundaryConfig {
	return &BoundaryConfig{Impulse: 2}
}

// BoundaryPolicy keeps unpinned node centers inside the safe area.
// A soft inward nudge is applied to the velocity first; the integrated
// coordinate is then hard-clamped. Axes are handled independently.
type BoundaryPolicy struct {
	config *BoundaryConfig
}

// NewBoundaryPolicy creates a new boundary policy
func NewBoundaryPolicy(config *BoundaryConfig) *BoundaryPolicy {
	if config == nil {
		config = DefaultBoundaryConfig()
	}
	return &BoundaryPolicy{config: config}
}

// Nudge returns vel corrected by the inward impulse on every axis where the
// predicted coordinate pos+vel falls outside the area.
func (p *BoundaryPolicy) Nudge(area valueobjects.SafeArea, pos, vel valueobjects.Vector) valueobjects.Vector {
	return valueobjects.Vector{
		X: p.nudgeAxis(pos.X+vel.X, vel.X, area.MinX, area.MaxX),
		Y: p.nudgeAxis(pos.Y+vel.Y, vel.Y, area.MinY, area.MaxY),
	}
}

func (p *BoundaryPolicy) nudgeAxis(next, v, lo, hi float64) float64 {
	switch {
	case next < lo:
		return v + p.config.Impulse
	case next > hi:
		return v - p.config.Impulse
	}
	return v
}

// Clamp hard-limits a coordinate to the area
func (p *BoundaryPolicy) Clamp(area valueobjects.SafeArea, pos valueobjects.Vector) valueobjects.Vector {
	return area.Clamp(pos)
}

// Step nudges vel, integrates pos by it and clamps the result. It returns the
// new position and the velocity to carry into the next step.
func (p *BoundaryPolicy) Step(area valueobjects.SafeArea, pos, vel valueobjects.Vector) (valueobjects.Vector, valueobjects.Vector) {
	vel = p.Nudge(area, pos, vel)
	return p.Clamp(area, pos.Add(vel)), vel
}
