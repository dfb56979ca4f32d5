package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/exam-platform/grading-service/internal/lock"
	"github.com/exam-platform/grading-service/internal/repositories"
	"github.com/exam-platform/grading-service/internal/similarity"
	"github.com/exam-platform/grading-service/internal/validator"
)

// GradingConfig tunes the orchestrator.
type GradingConfig struct {
	// ScoringConcurrency bounds the per-question scoring fan-out.
	ScoringConcurrency int

	// SimilarityTimeout bounds each similarity oracle call so one slow
	// comparison cannot block unrelated questions.
	SimilarityTimeout time.Duration
}

func (c GradingConfig) withDefaults() GradingConfig {
	if c.ScoringConcurrency <= 0 {
		c.ScoringConcurrency = 8
	}
	if c.SimilarityTimeout <= 0 {
		c.SimilarityTimeout = 10 * time.Second
	}
	return c
}

type gradingService struct {
	repo      repositories.Repository
	oracle    similarity.Oracle
	claimer   lock.Claimer
	publisher EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	config    GradingConfig
}

func NewGradingService(repo repositories.Repository, oracle similarity.Oracle, claimer lock.Claimer, publisher EventPublisher, logger *slog.Logger, validator *validator.Validator, config GradingConfig) GradingService {
	return &gradingService{
		repo:      repo,
		oracle:    oracle,
		claimer:   claimer,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		config:    config.withDefaults(),
	}
}

// GradeSubmission processes one submission event end to end:
// claim, score, gap-fill, persist, aggregate, publish.
func (s *gradingService) GradeSubmission(ctx context.Context, event *SubmissionEvent) (*GradingResult, error) {
	if err := s.validator.Validate(event); err != nil {
		return nil, fmt.Errorf("invalid submission event: %w", err)
	}

	s.logger.Info("Grading submission",
		"student_id", event.StudentID,
		"page_id", event.PageID,
		"answer_count", len(event.Answers))

	// Exclusive claim on the pair. A denied claim means a concurrent delivery
	// is already grading it; both outcomes are duplicates, not errors.
	claimKey := lock.GradingKey(event.StudentID, event.PageID)
	acquired, err := s.claimer.Acquire(ctx, claimKey)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire grading claim: %w", err)
	}
	if !acquired {
		s.logger.Info("Grading claim denied, duplicate delivery",
			"student_id", event.StudentID,
			"page_id", event.PageID)
		return s.duplicateResult(event), nil
	}
	defer s.claimer.Release(ctx, claimKey)

	// A pair that already has answer records was graded by an earlier
	// delivery whose claim has expired. That run may still have died between
	// the answer batch and the aggregate write, so the aggregate is verified
	// before the redelivery is acked.
	exists, err := s.repo.Answer().ExistsForStudentAndPage(ctx, nil, event.StudentID, event.PageID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing answers: %w", err)
	}
	if exists {
		s.logger.Info("Submission already graded",
			"student_id", event.StudentID,
			"page_id", event.PageID)
		return s.resumeAggregate(ctx, event)
	}

	pageQuestionIDs, err := s.repo.Question().GetIDsForPage(ctx, nil, event.PageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page questions: %w", err)
	}

	// Score all answered questions. Any catalog or oracle failure aborts here,
	// before anything is persisted.
	scored, err := s.scoreAnswers(ctx, event, pageQuestionIDs)
	if err != nil {
		return nil, err
	}

	answers := append(scored, s.synthesizeUnanswered(event, pageQuestionIDs, scored)...)

	// One atomic batch for all answer records of the pair.
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Answer().CreateBatch(ctx, nil, answers)
	})
	if err != nil {
		if repositories.IsDuplicateKeyError(err) {
			s.logger.Info("Answer records already written by concurrent delivery",
				"student_id", event.StudentID,
				"page_id", event.PageID)
			return s.resumeAggregate(ctx, event)
		}
		return nil, fmt.Errorf("failed to persist answer records: %w", err)
	}

	totalScore, err := aggregatePair(ctx, s.repo, s.logger, event.StudentID, event.PageID, event.SubmittedAt)
	if err != nil {
		// Answer records are committed; the pair is repairable, not re-gradable.
		return nil, fmt.Errorf("failed to write aggregate score: %w", err)
	}

	result := &GradingResult{
		StudentID:     event.StudentID,
		PageID:        event.PageID,
		TotalScore:    totalScore,
		QuestionCount: len(answers),
		AnsweredCount: len(scored),
		GradedAt:      time.Now(),
	}

	s.logger.Info("Submission graded",
		"student_id", event.StudentID,
		"page_id", event.PageID,
		"total_score", totalScore,
		"question_count", len(answers),
		"answered_count", len(scored))

	s.publishCompleted(ctx, result)

	return result, nil
}

// resumeAggregate finishes the work of an earlier delivery that committed the
// pair's answer records. If that run also wrote the aggregate score, the
// redelivery is a plain duplicate; if it died in between, aggregation is
// re-run over the committed records so the retry heals the pair instead of
// acking it inconsistent.
func (s *gradingService) resumeAggregate(ctx context.Context, event *SubmissionEvent) (*GradingResult, error) {
	_, err := s.repo.Score().GetByStudentAndPage(ctx, nil, event.StudentID, event.PageID)
	if err == nil {
		return s.duplicateResult(event), nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check aggregate score: %w", err)
	}

	totalScore, err := aggregatePair(ctx, s.repo, s.logger, event.StudentID, event.PageID, event.SubmittedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to write aggregate score: %w", err)
	}

	s.logger.Info("Aggregate score recovered on redelivery",
		"student_id", event.StudentID,
		"page_id", event.PageID,
		"total_score", totalScore)

	result := s.duplicateResult(event)
	result.TotalScore = totalScore
	s.publishCompleted(ctx, result)

	return result, nil
}

func (s *gradingService) duplicateResult(event *SubmissionEvent) *GradingResult {
	return &GradingResult{
		StudentID: event.StudentID,
		PageID:    event.PageID,
		Duplicate: true,
		GradedAt:  time.Now(),
	}
}

func (s *gradingService) publishCompleted(ctx context.Context, result *GradingResult) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.PublishGradingCompleted(ctx, &GradingCompletedEvent{
		StudentID:   result.StudentID,
		PageID:      result.PageID,
		TotalScore:  result.TotalScore,
		CompletedAt: result.GradedAt,
	})
	if err != nil {
		// Best effort: the score is durable, downstream consumers catch up
		// through the repair/report paths.
		s.logger.Warn("Failed to publish grading completed event",
			"student_id", result.StudentID,
			"page_id", result.PageID,
			"error", err)
	}
}
