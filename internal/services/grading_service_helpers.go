package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/exam-platform/grading-service/internal/models"
	"github.com/exam-platform/grading-service/internal/repositories"
	"github.com/exam-platform/grading-service/internal/scoring"
)

// ===== PER-QUESTION SCORING =====

// scoreAnswers grades every answered question concurrently. Submissions for
// questions that are not on the page are dropped with a warning so the final
// record set matches the page's question set exactly.
func (s *gradingService) scoreAnswers(ctx context.Context, event *SubmissionEvent, pageQuestionIDs []uint) ([]*models.StudentAnswer, error) {
	pageSet := make(map[uint]struct{}, len(pageQuestionIDs))
	for _, id := range pageQuestionIDs {
		pageSet[id] = struct{}{}
	}

	accepted := make([]SubmittedAnswer, 0, len(event.Answers))
	seen := make(map[uint]struct{}, len(event.Answers))
	for _, submitted := range event.Answers {
		if _, onPage := pageSet[submitted.QuestionID]; !onPage {
			s.logger.Warn("Submitted question not on page, skipping",
				"question_id", submitted.QuestionID,
				"page_id", event.PageID)
			continue
		}
		if _, dup := seen[submitted.QuestionID]; dup {
			s.logger.Warn("Duplicate answer for question, keeping first",
				"question_id", submitted.QuestionID,
				"page_id", event.PageID)
			continue
		}
		seen[submitted.QuestionID] = struct{}{}
		accepted = append(accepted, submitted)
	}

	answers := make([]*models.StudentAnswer, len(accepted))
	now := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.ScoringConcurrency)

	for i, submitted := range accepted {
		g.Go(func() error {
			score, err := s.scoreOne(gctx, submitted)
			if err != nil {
				return err
			}
			answers[i] = &models.StudentAnswer{
				StudentID:  event.StudentID,
				PageID:     event.PageID,
				QuestionID: submitted.QuestionID,
				Answer:     submitted.Answer,
				Score:      score,
				AnsweredAt: now,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return answers, nil
}

func (s *gradingService) scoreOne(ctx context.Context, submitted SubmittedAnswer) (float64, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, submitted.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, fmt.Errorf("%w: id %d", ErrQuestionNotFound, submitted.QuestionID)
		}
		return 0, fmt.Errorf("failed to get question %d: %w", submitted.QuestionID, err)
	}

	strategy := scoring.ForQuestion(question)

	// Each similarity call gets its own deadline; a stuck oracle call fails
	// this question without stalling the others.
	scoreCtx, cancel := context.WithTimeout(ctx, s.config.SimilarityTimeout)
	defer cancel()

	score, err := strategy.Score(scoreCtx, s.oracle, submitted.Answer, question.Answer)
	if err != nil {
		return 0, fmt.Errorf("failed to score question %d: %w", submitted.QuestionID, err)
	}
	return score, nil
}

// ===== GAP-FILL =====

// synthesizeUnanswered builds zero-score records for every page question the
// student did not answer. Membership is by id set, not list position.
func (s *gradingService) synthesizeUnanswered(event *SubmissionEvent, pageQuestionIDs []uint, scored []*models.StudentAnswer) []*models.StudentAnswer {
	answered := make(map[uint]struct{}, len(scored))
	for _, answer := range scored {
		answered[answer.QuestionID] = struct{}{}
	}

	var synthesized []*models.StudentAnswer
	now := time.Now()
	for _, questionID := range pageQuestionIDs {
		if _, ok := answered[questionID]; ok {
			continue
		}
		synthesized = append(synthesized, &models.StudentAnswer{
			StudentID:  event.StudentID,
			PageID:     event.PageID,
			QuestionID: questionID,
			Answer:     "",
			Score:      0,
			AnsweredAt: now,
		})
	}
	return synthesized
}

// ===== AGGREGATION =====

// aggregatePair re-reads all persisted answer records for the pair, sums
// them, and writes the aggregate score row. The store re-read is deliberate:
// the sum must reflect what was committed, not what was computed in memory.
// Shared by the grading run (steps 5-6) and the repair pass.
func aggregatePair(ctx context.Context, repo repositories.Repository, logger *slog.Logger, studentID, pageID uint, submittedAt time.Time) (float64, error) {
	answers, err := repo.Answer().GetByStudentAndPage(ctx, nil, studentID, pageID)
	if err != nil {
		return 0, fmt.Errorf("failed to re-read answers for aggregation: %w", err)
	}
	if len(answers) == 0 {
		return 0, ErrNoAnswersForPair
	}

	var totalScore float64
	details := make([]models.ScoreDetail, 0, len(answers))
	for _, answer := range answers {
		totalScore += answer.Score
		details = append(details, models.ScoreDetail{
			QuestionID: answer.QuestionID,
			Score:      answer.Score,
			Answered:   answer.Answer != "",
		})
	}

	detail, err := json.Marshal(details)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal score detail: %w", err)
	}

	if submittedAt.IsZero() {
		submittedAt = answers[0].AnsweredAt
	}

	score := &models.StudentScore{
		StudentID:   studentID,
		PageID:      pageID,
		Score:       totalScore,
		Status:      models.ScoreGraded,
		Detail:      datatypes.JSON(detail),
		SubmittedAt: submittedAt,
		CompletedAt: time.Now(),
	}

	if err := repo.Score().Create(ctx, nil, score); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			// Another delivery finished aggregation first; same outcome.
			logger.Info("Aggregate score already written",
				"student_id", studentID,
				"page_id", pageID)
			return totalScore, nil
		}
		return 0, err
	}

	return totalScore, nil
}
