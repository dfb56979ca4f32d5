package similarity

import (
	"context"

	"github.com/agnivade/levenshtein"
)

// LevenshteinOracle is a local, dependency-free fallback used when no remote
// similarity service is configured. Scores are 1 - distance/maxLen over runes.
type LevenshteinOracle struct{}

func NewLevenshteinOracle() *LevenshteinOracle {
	return &LevenshteinOracle{}
}

func (o *LevenshteinOracle) Similarity(_ context.Context, a, b string) (float64, error) {
	if a == b {
		return 1.0, nil
	}

	aLen := len([]rune(a))
	bLen := len([]rune(b))
	maxLen := aLen
	if bLen > maxLen {
		maxLen = bLen
	}
	if maxLen == 0 {
		return 1.0, nil
	}

	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen), nil
}
