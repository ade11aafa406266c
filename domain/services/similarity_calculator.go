package services

import (
	"math"

	"github.com/samejima-ai/minute-board-app/domain/core/entities"
	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
)

// SimilarityCalculator calculates similarity between notes
// This is a domain service that encapsulates similarity algorithms
type SimilarityCalculator interface {
	// Calculate calculates similarity between two notes (0.0 to 1.0)
	Calculate(a, b entities.Note) float64
}

// SimilarityConfig configures the similarity calculation
type SimilarityConfig struct {
	CategoryBonus float64 // Flat bonus when both notes share a category
	MaxScore      float64 // Upper cap applied after the bonus
}

// DefaultSimilarityConfig returns the board's scoring rule
func DefaultSimilarityConfig() *SimilarityConfig {
	return &SimilarityConfig{
		CategoryBonus: 0.2,
		MaxScore:      1.0,
	}
}

// DefaultSimilarityCalculator scores keyword overlap plus a same-category bonus
type DefaultSimilarityCalculator struct {
	config *SimilarityConfig
}

// NewDefaultSimilarityCalculator creates a new similarity calculator
func NewDefaultSimilarityCalculator(config *SimilarityConfig) *DefaultSimilarityCalculator {
	if config == nil {
		config = DefaultSimilarityConfig()
	}
	return &DefaultSimilarityCalculator{config: config}
}

// Calculate calculates similarity between two notes
func (sc *DefaultSimilarityCalculator) Calculate(a, b entities.Note) float64 {
	return sc.score(a.Category, a.KeywordSet(), b.Category, b.KeywordSet())
}

func (sc *DefaultSimilarityCalculator) score(catA valueobjects.Category, kwA valueobjects.KeywordSet, catB valueobjects.Category, kwB valueobjects.KeywordSet) float64 {
	sim := JaccardSimilarity(kwA, kwB)
	if catA == catB {
		sim += sc.config.CategoryBonus
	}
	return math.Min(sim, sc.config.MaxScore)
}

// JaccardSimilarity calculates Jaccard index: |A ∩ B| / |A ∪ B|.
// Either set being empty yields 0.
func JaccardSimilarity(a, b valueobjects.KeywordSet) float64 {
	if a.Len() == 0 || b.Len() == 0 {
		return 0.0
	}

	intersection := a.IntersectionSize(b)
	union := a.Len() + b.Len() - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union)
}
