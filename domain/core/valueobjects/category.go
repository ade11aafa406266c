package valueobjects

import (
	"fmt"
	"strings"

	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
)

// Category classifies a note. The set of variants is closed.
type Category string

const (
	CategoryProposal Category = "PROPOSAL"
	CategoryIssue    Category = "ISSUE"
	CategoryDecision Category = "DECISION"
	CategoryInfo     Category = "INFO"
)

// Categories lists every valid variant in display order
func Categories() []Category {
	return []Category{CategoryProposal, CategoryIssue, CategoryDecision, CategoryInfo}
}

// ParseCategory parses a category name case-insensitively
func ParseCategory(value string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(value)))
	if !c.IsValid() {
		return "", pkgerrors.NewValidation(fmt.Sprintf("unknown category %q", value))
	}
	return c, nil
}

// CategoryOrDefault parses value and falls back to INFO for anything unrecognized
func CategoryOrDefault(value string) Category {
	c, err := ParseCategory(value)
	if err != nil {
		return CategoryInfo
	}
	return c
}

// IsValid reports whether c is one of the four variants
func (c Category) IsValid() bool {
	switch c {
	case CategoryProposal, CategoryIssue, CategoryDecision, CategoryInfo:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
