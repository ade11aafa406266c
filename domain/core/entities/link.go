package entities

import (
	"fmt"
	"math"

	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
)

// Link is an undirected similarity relation between two notes. Links carry
// no identity; the whole set is rebuilt whenever the note set changes.
type Link struct {
	Source valueobjects.NoteID `json:"source"`
	Target valueobjects.NoteID `json:"target"`
	Weight float64             `json:"weight"`
}

// NewLink creates a link with validation
func NewLink(source, target valueobjects.NoteID, weight float64) (Link, error) {
	if source.IsEmpty() || target.IsEmpty() {
		return Link{}, pkgerrors.NewValidation("link endpoints are required")
	}
	if source == target {
		return Link{}, pkgerrors.NewValidation("cannot link a note to itself")
	}
	if math.IsNaN(weight) || weight < 0 || weight > 1 {
		return Link{}, pkgerrors.NewValidation(fmt.Sprintf("link weight %v outside [0,1]", weight))
	}
	return Link{Source: source, Target: target, Weight: weight}, nil
}

// Touches reports whether id is one of the endpoints
func (l Link) Touches(id valueobjects.NoteID) bool {
	return l.Source == id || l.Target == id
}
