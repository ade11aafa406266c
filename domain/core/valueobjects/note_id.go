package valueobjects

import (
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
)

// NoteID is the opaque identity of a note. Nodes and links refer to notes by it.
type NoteID string

// NewNoteID mints a fresh random identifier
func NewNoteID() NoteID {
	return NoteID(uuid.New().String())
}

// ParseNoteID validates an externally supplied identifier
func ParseNoteID(value string) (NoteID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", pkgerrors.NewValidation("note id cannot be empty")
	}
	return NoteID(trimmed), nil
}

// String returns the string representation
func (id NoteID) String() string {
	return string(id)
}

// IsEmpty reports whether the id is blank
func (id NoteID) IsEmpty() bool {
	return strings.TrimSpace(string(id)) == ""
}
