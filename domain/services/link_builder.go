package services

import (
	"github.com/samejima-ai/minute-board-app/domain/core/entities"
	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
)

// LinkBuilderConfig configures link discovery
type LinkBuilderConfig struct {
	Threshold float64 // Minimum similarity for a link to be emitted
}

// DefaultLinkBuilderConfig returns default configuration
func DefaultLinkBuilderConfig() *LinkBuilderConfig {
	return &LinkBuilderConfig{Threshold: 0.1}
}

// LinkBuilder turns an ordered note list into a weighted link set.
// It is stateless: the same notes in the same order always give the same links.
type LinkBuilder struct {
	config     *LinkBuilderConfig
	calculator SimilarityCalculator
}

// NewLinkBuilder creates a new link builder
func NewLinkBuilder(config *LinkBuilderConfig, calculator SimilarityCalculator) *LinkBuilder {
	if config == nil {
		config = DefaultLinkBuilderConfig()
	}
	if calculator == nil {
		calculator = NewDefaultSimilarityCalculator(nil)
	}
	return &LinkBuilder{
		config:     config,
		calculator: calculator,
	}
}

// Build compares every unordered pair (i<j) and emits a link when the score
// reaches the threshold. O(n²); n is capped upstream.
func (b *LinkBuilder) Build(notes []entities.Note) []entities.Link {
	links := make([]entities.Link, 0)
	if len(notes) < 2 {
		return links
	}

	// Pre-extract features once per note
	def, fast := b.calculator.(*DefaultSimilarityCalculator)
	var keywords []valueobjects.KeywordSet
	if fast {
		keywords = make([]valueobjects.KeywordSet, len(notes))
		for i := range notes {
			keywords[i] = notes[i].KeywordSet()
		}
	}

	for i := 0; i < len(notes); i++ {
		for j := i + 1; j < len(notes); j++ {
			var sim float64
			if fast {
				sim = def.score(notes[i].Category, keywords[i], notes[j].Category, keywords[j])
			} else {
				sim = b.calculator.Calculate(notes[i], notes[j])
			}
			if sim < b.config.Threshold {
				continue
			}

			link, err := entities.NewLink(notes[i].ID, notes[j].ID, sim)
			if err != nil {
				// Duplicate ids or an out-of-range custom score; skip the pair
				continue
			}
			links = append(links, link)
		}
	}

	return links
}
