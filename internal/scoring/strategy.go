package scoring

import (
	"context"

	"github.com/exam-platform/grading-service/internal/models"
	"github.com/exam-platform/grading-service/internal/similarity"
)

// Full point values per question type. These are grading-policy constants,
// not question attributes.
const (
	SingleChoicePoints = 5.0
	FillBlankPoints    = 5.0
	ShortAnswerPoints  = 10.0
)

// Strategy scores one submitted answer against a reference answer. The set of
// strategies is closed; ForQuestion is the only constructor.
type Strategy struct {
	Type       models.QuestionType
	FullPoints float64

	score func(ctx context.Context, oracle similarity.Oracle, submitted, reference string, fullPoints float64) (float64, error)
}

// Score applies the strategy. Oracle failures are propagated, never mapped to
// a zero score.
func (s Strategy) Score(ctx context.Context, oracle similarity.Oracle, submitted, reference string) (float64, error) {
	return s.score(ctx, oracle, submitted, reference, s.FullPoints)
}

// ForQuestion selects the strategy for a question. Unknown types grade as
// unscored (always 0).
func ForQuestion(q *models.Question) Strategy {
	switch q.Type {
	case models.SingleChoice:
		return Strategy{Type: models.SingleChoice, FullPoints: SingleChoicePoints, score: scoreExact}
	case models.FillBlank:
		if q.Ordered {
			return Strategy{Type: models.FillBlank, FullPoints: FillBlankPoints, score: scoreBlanksOrdered}
		}
		return Strategy{Type: models.FillBlank, FullPoints: FillBlankPoints, score: scoreBlanksUnordered}
	case models.ShortAnswer:
		return Strategy{Type: models.ShortAnswer, FullPoints: ShortAnswerPoints, score: scoreFreeText}
	default:
		return Strategy{Type: models.Unscored, FullPoints: 0, score: scoreNothing}
	}
}

// scoreExact awards full points on byte-for-byte equality. No case folding,
// no whitespace normalization.
func scoreExact(_ context.Context, _ similarity.Oracle, submitted, reference string, fullPoints float64) (float64, error) {
	if submitted == reference {
		return fullPoints, nil
	}
	return 0, nil
}

// scoreFreeText scales full points by whole-answer similarity, truncated
// toward zero. Negative products clamp to 0.
func scoreFreeText(ctx context.Context, oracle similarity.Oracle, submitted, reference string, fullPoints float64) (float64, error) {
	similar, err := oracle.Similarity(ctx, reference, submitted)
	if err != nil {
		return 0, err
	}

	score := float64(int(fullPoints * similar))
	if score < 0 {
		return 0, nil
	}
	return score, nil
}

func scoreNothing(_ context.Context, _ similarity.Oracle, _, _ string, _ float64) (float64, error) {
	return 0, nil
}
