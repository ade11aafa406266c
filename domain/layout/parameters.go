package layout

import (
	"fmt"
	"math"

	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
)

// Fixed simulation constants. Only Parameters are tunable at runtime.
const (
	// BaseLinkDistance is the rest length of a zero-weight link
	BaseLinkDistance = 250.0
	// BaseRepulsion is the many-body strength before RepulsionMultiplier
	BaseRepulsion = -150.0
	// MaxInteractionDistance cuts off many-body repulsion
	MaxInteractionDistance = 400.0
	// CollisionStrength is the fraction of an overlap resolved per pass
	CollisionStrength = 0.7
	// CollisionIterations is the number of relaxation passes per tick
	CollisionIterations = 2
	// MinDistance floors pair distances in repulsion and collision
	MinDistance = 1.0

	// VelocityDecay is the fraction of velocity removed each tick
	VelocityDecay = 0.3
	// AlphaDecay is the geometric decay rate of alpha per tick
	AlphaDecay = 0.02
	// AlphaMin is the floor below which ticking pauses
	AlphaMin = 0.001
	// InitialAlpha is used once, for the first population of the board
	InitialAlpha = 1.0
	// RestartAlpha is used for every later reconciliation or resize
	RestartAlpha = 0.3
	// DragAlphaTarget is held while at least one node is being dragged
	DragAlphaTarget = 0.3
)

// Parameters are the live-adjustable options of an engine. Changes apply on
// the next tick without a reconciliation.
type Parameters struct {
	LinkStrengthMultiplier float64              `json:"linkStrengthMultiplier"`
	RepulsionMultiplier    float64              `json:"repulsionMultiplier"`
	CollisionRadius        float64              `json:"collisionRadius"`
	CenterGravityStrength  float64              `json:"centerGravityStrength"`
	ViewportWidth          float64              `json:"viewportWidth"`
	ViewportHeight         float64              `json:"viewportHeight"`
	CardHalfWidth          float64              `json:"cardHalfWidth"`
	CardHalfHeight         float64              `json:"cardHalfHeight"`
	Margins                valueobjects.Margins `json:"margins"`
}

// DefaultParameters returns the board defaults. The viewport is left unknown.
func DefaultParameters() Parameters {
	return Parameters{
		LinkStrengthMultiplier: 0.8,
		RepulsionMultiplier:    1.0,
		CollisionRadius:        120,
		CenterGravityStrength:  0.03,
		CardHalfWidth:          150,
		CardHalfHeight:         100,
		Margins: valueobjects.Margins{
			Top:    50,
			Bottom: 80,
			Left:   30,
			Right:  30,
		},
	}
}

// Validate rejects negative or non-finite values. A zero viewport is valid
// and means "dimensions unknown".
func (p Parameters) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"linkStrengthMultiplier", p.LinkStrengthMultiplier},
		{"repulsionMultiplier", p.RepulsionMultiplier},
		{"collisionRadius", p.CollisionRadius},
		{"centerGravityStrength", p.CenterGravityStrength},
		{"viewportWidth", p.ViewportWidth},
		{"viewportHeight", p.ViewportHeight},
		{"cardHalfWidth", p.CardHalfWidth},
		{"cardHalfHeight", p.CardHalfHeight},
		{"margins.top", p.Margins.Top},
		{"margins.bottom", p.Margins.Bottom},
		{"margins.left", p.Margins.Left},
		{"margins.right", p.Margins.Right},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return pkgerrors.NewValidation(fmt.Sprintf("%s must be a finite non-negative number, got %v", f.name, f.value))
		}
	}
	if p.CenterGravityStrength > 1 {
		return pkgerrors.NewValidation("centerGravityStrength must not exceed 1")
	}
	return nil
}

// SafeArea derives the containment region for the configured viewport
func (p Parameters) SafeArea() (valueobjects.SafeArea, bool) {
	return valueobjects.NewSafeArea(p.ViewportWidth, p.ViewportHeight, p.CardHalfWidth, p.CardHalfHeight, p.Margins)
}

// WithViewport returns a copy with new viewport dimensions
func (p Parameters) WithViewport(width, height float64) Parameters {
	p.ViewportWidth = width
	p.ViewportHeight = height
	return p
}

// linkDistance is the rest length for a link of the given weight;
// heavier links are shorter.
func linkDistance(weight float64) float64 {
	return BaseLinkDistance / (1 + 2*weight)
}
