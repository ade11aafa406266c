package commands

import (
	"unicode/utf8"

	"github.com/samejima-ai/minute-board-app/domain/core/entities"
	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
	"github.com/samejima-ai/minute-board-app/pkg/utils"
)

// summaryFallbackRunes is how much of the detail becomes the summary when
// none was supplied.
const summaryFallbackRunes = 30

// AddNoteCommand represents a new note arriving from the upstream pipeline
type AddNoteCommand struct {
	Type       string   `json:"type" validate:"max=32"`
	Summary    string   `json:"summary" validate:"max=200"`
	Detail     string   `json:"detail" validate:"required,max=5000"`
	Importance *float64 `json:"importance,omitempty" validate:"omitempty,gte=0,lte=1"`
	Keywords   []string `json:"keywords" validate:"max=20,dive,min=1,max=40"`
}

// Validate checks the command's field constraints
func (c AddNoteCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return pkgerrors.NewValidationWithCause("invalid note", err)
	}
	return nil
}

// ToNote builds the note under id. Unknown types become INFO and an empty
// summary is derived from the detail.
func (c AddNoteCommand) ToNote(id valueobjects.NoteID) entities.Note {
	summary := c.Summary
	if summary == "" {
		summary = SummaryFromDetail(c.Detail)
	}
	note := entities.Note{
		ID:       id,
		Category: valueobjects.CategoryOrDefault(c.Type),
		Summary:  summary,
		Detail:   c.Detail,
		Keywords: append([]string(nil), c.Keywords...),
	}
	if c.Importance != nil {
		importance := *c.Importance
		note.Importance = &importance
	}
	return note
}

// SummaryFromDetail truncates detail to a short label
func SummaryFromDetail(detail string) string {
	if utf8.RuneCountInString(detail) <= summaryFallbackRunes {
		return detail
	}
	return string([]rune(detail)[:summaryFallbackRunes]) + "..."
}
