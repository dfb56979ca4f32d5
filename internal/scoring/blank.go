package scoring

import (
	"context"
	"regexp"
	"strings"

	"github.com/exam-platform/grading-service/internal/similarity"
)

var blankSeparator = regexp.MustCompile(`】\s*?【`)

// ParseBlanks splits a fill-blank answer into its ordered blank segments.
// Text outside the outermost 【…】 pair is ignored; a string without
// delimiters parses as a single blank.
func ParseBlanks(s string) []string {
	if i := strings.Index(s, "【"); i >= 0 {
		s = s[i+len("【"):]
	}
	if i := strings.LastIndex(s, "】"); i >= 0 {
		s = s[:i]
	}
	return blankSeparator.Split(s, -1)
}

// scoreBlanksOrdered compares each submitted blank against the reference
// blank at the same position. A blank earns its share of the full points only
// when its similarity reaches 0.9.
func scoreBlanksOrdered(ctx context.Context, oracle similarity.Oracle, submitted, reference string, fullPoints float64) (float64, error) {
	submittedBlanks := ParseBlanks(submitted)
	referenceBlanks := ParseBlanks(reference)

	blankCount := len(referenceBlanks)
	if blankCount != len(submittedBlanks) {
		return 0, nil
	}

	var score float64
	for i := 0; i < blankCount; i++ {
		similar, err := oracle.Similarity(ctx, submittedBlanks[i], referenceBlanks[i])
		if err != nil {
			return 0, err
		}
		score += blankTierScore(similar, blankCount, fullPoints)
	}
	return score, nil
}

// scoreBlanksUnordered concatenates all blanks on both sides and compares the
// two concatenations once. The historical formula is kept verbatim; it
// algebraically reduces to similarity * fullPoints.
func scoreBlanksUnordered(ctx context.Context, oracle similarity.Oracle, submitted, reference string, fullPoints float64) (float64, error) {
	submittedBlanks := ParseBlanks(submitted)
	referenceBlanks := ParseBlanks(reference)

	blankCount := len(referenceBlanks)
	if blankCount != len(submittedBlanks) {
		return 0, nil
	}

	similar, err := oracle.Similarity(ctx, strings.Join(submittedBlanks, ""), strings.Join(referenceBlanks, ""))
	if err != nil {
		return 0, err
	}

	perBlankWeight := 1.0 / float64(blankCount)
	return (similar / perBlankWeight) * (fullPoints / float64(blankCount)), nil
}

// blankTierScore maps one blank's similarity to its point share:
// below 0.9 earns nothing, 0.9 through 1.0 earns the full share.
func blankTierScore(similar float64, blankCount int, fullPoints float64) float64 {
	switch {
	case similar < 0.9:
		return 0
	case similar <= 1.0:
		return fullPoints / float64(blankCount)
	default:
		return 0
	}
}
