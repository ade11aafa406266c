package entities

import (
	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
	"github.com/samejima-ai/minute-board-app/pkg/utils"
)

// Note is an immutable text record produced upstream and placed on the board.
type Note struct {
	ID         valueobjects.NoteID   `json:"id" yaml:"id" validate:"required"`
	Category   valueobjects.Category `json:"type" yaml:"type" validate:"required,oneof=PROPOSAL ISSUE DECISION INFO"`
	Summary    string                `json:"summary" yaml:"summary"`
	Detail     string                `json:"detail" yaml:"detail"`
	Importance *float64              `json:"importance,omitempty" yaml:"importance,omitempty" validate:"omitempty,gte=0,lte=1"`
	Keywords   []string              `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Validate checks the record before it may enter the layout
func (n Note) Validate() error {
	if n.ID.IsEmpty() {
		return pkgerrors.NewValidation("id is required")
	}
	if err := utils.ValidateStruct(n); err != nil {
		return pkgerrors.NewValidationWithCause("invalid note "+n.ID.String(), err)
	}
	return nil
}

// KeywordSet returns the normalized tag set used for similarity
func (n Note) KeywordSet() valueobjects.KeywordSet {
	return valueobjects.NewKeywordSet(n.Keywords...)
}

// SameContent reports whether two notes carry the same visible content.
// Used for upstream de-duplication; ids are ignored.
func (n Note) SameContent(other Note) bool {
	return n.Detail == other.Detail &&
		n.Category == other.Category &&
		n.Summary == other.Summary
}

// Clone returns a deep copy so callers cannot mutate shared slices
func (n Note) Clone() Note {
	out := n
	if n.Importance != nil {
		importance := *n.Importance
		out.Importance = &importance
	}
	if n.Keywords != nil {
		out.Keywords = append([]string(nil), n.Keywords...)
	}
	return out
}
