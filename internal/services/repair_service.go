package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/exam-platform/grading-service/internal/repositories"
)

// repairService closes the gap left when a grading run commits its answer
// records but dies before writing the aggregate score. It never re-scores;
// it only re-runs aggregation over the already-persisted records.
type repairService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewRepairService(repo repositories.Repository, logger *slog.Logger) RepairService {
	return &repairService{
		repo:   repo,
		logger: logger,
	}
}

func (r *repairService) RepairPair(ctx context.Context, studentID, pageID uint) (*GradingResult, error) {
	r.logger.Info("Repairing pair",
		"student_id", studentID,
		"page_id", pageID)

	exists, err := r.repo.Answer().ExistsForStudentAndPage(ctx, nil, studentID, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to check answers: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: student %d page %d", ErrNoAnswersForPair, studentID, pageID)
	}

	existing, err := r.repo.Score().GetByStudentAndPage(ctx, nil, studentID, pageID)
	if err == nil {
		// Already consistent; report the stored aggregate.
		return &GradingResult{
			StudentID:  studentID,
			PageID:     pageID,
			TotalScore: existing.Score,
			Duplicate:  true,
			GradedAt:   existing.CompletedAt,
		}, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check aggregate score: %w", err)
	}

	totalScore, err := aggregatePair(ctx, r.repo, r.logger, studentID, pageID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to repair aggregate: %w", err)
	}

	r.logger.Info("Pair repaired",
		"student_id", studentID,
		"page_id", pageID,
		"total_score", totalScore)

	return &GradingResult{
		StudentID:  studentID,
		PageID:     pageID,
		TotalScore: totalScore,
		GradedAt:   time.Now(),
	}, nil
}

func (r *repairService) RepairAll(ctx context.Context) (*RepairReport, error) {
	pairs, err := r.repo.Score().GetPairsMissingAggregate(ctx, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find pairs missing aggregate: %w", err)
	}

	report := &RepairReport{PairsFound: len(pairs)}
	for _, pair := range pairs {
		if _, err := r.RepairPair(ctx, pair.StudentID, pair.PageID); err != nil {
			r.logger.Error("Failed to repair pair",
				"student_id", pair.StudentID,
				"page_id", pair.PageID,
				"error", err)
			report.PairsFailed++
			continue
		}
		report.PairsRepaired++
	}

	r.logger.Info("Repair sweep completed",
		"pairs_found", report.PairsFound,
		"pairs_repaired", report.PairsRepaired,
		"pairs_failed", report.PairsFailed)

	return report, nil
}
