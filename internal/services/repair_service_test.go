package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/exam-platform/grading-service/internal/models"
	"github.com/exam-platform/grading-service/internal/repositories"
)

func TestRepairPair_NoAnswers(t *testing.T) {
	repo := newMockRepository()
	service := NewRepairService(repo, testLogger())

	_, err := service.RepairPair(context.Background(), 7, 10)
	if !errors.Is(err, ErrNoAnswersForPair) {
		t.Fatalf("error = %v, want ErrNoAnswersForPair", err)
	}
}

func TestRepairPair_AlreadyConsistent(t *testing.T) {
	repo := newMockRepository()
	seedPair(repo, 7, 10, map[uint]float64{1: 5, 2: 8})
	repo.score.scores[pairKey{7, 10}] = &models.StudentScore{
		StudentID:   7,
		PageID:      10,
		Score:       13,
		Status:      models.ScoreGraded,
		CompletedAt: time.Now(),
	}
	service := NewRepairService(repo, testLogger())

	result, err := service.RepairPair(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("RepairPair() error = %v", err)
	}
	if !result.Duplicate {
		t.Error("consistent pair should report Duplicate")
	}
	if result.TotalScore != 13 {
		t.Errorf("TotalScore = %v, want stored 13", result.TotalScore)
	}
}

func TestRepairPair_WritesAggregate(t *testing.T) {
	repo := newMockRepository()
	seedPair(repo, 7, 10, map[uint]float64{1: 5, 2: 8, 3: 0})
	service := NewRepairService(repo, testLogger())

	result, err := service.RepairPair(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("RepairPair() error = %v", err)
	}
	if result.Duplicate {
		t.Error("repaired pair should not report Duplicate")
	}
	if result.TotalScore != 13 {
		t.Errorf("TotalScore = %v, want 13", result.TotalScore)
	}

	score := repo.score.scores[pairKey{7, 10}]
	if score == nil {
		t.Fatal("aggregate score not written")
	}
	if score.Score != 13 {
		t.Errorf("aggregate score = %v, want 13", score.Score)
	}
	if score.Status != models.ScoreGraded {
		t.Errorf("aggregate status = %q, want %q", score.Status, models.ScoreGraded)
	}
	if len(score.Detail) == 0 {
		t.Error("aggregate detail is empty")
	}
}

func TestRepairAll(t *testing.T) {
	repo := newMockRepository()
	seedPair(repo, 7, 10, map[uint]float64{1: 5})
	seedPair(repo, 8, 10, map[uint]float64{1: 0})
	// Pair (9, 10) is reported by the sweep but has no answer records, so its
	// repair fails.
	repo.missingPairs = []repositories.StudentPagePair{
		{StudentID: 7, PageID: 10},
		{StudentID: 8, PageID: 10},
		{StudentID: 9, PageID: 10},
	}
	service := NewRepairService(repo, testLogger())

	report, err := service.RepairAll(context.Background())
	if err != nil {
		t.Fatalf("RepairAll() error = %v", err)
	}
	if report.PairsFound != 3 {
		t.Errorf("PairsFound = %d, want 3", report.PairsFound)
	}
	if report.PairsRepaired != 2 {
		t.Errorf("PairsRepaired = %d, want 2", report.PairsRepaired)
	}
	if report.PairsFailed != 1 {
		t.Errorf("PairsFailed = %d, want 1", report.PairsFailed)
	}

	if repo.score.scores[pairKey{7, 10}] == nil || repo.score.scores[pairKey{8, 10}] == nil {
		t.Error("swept pairs missing their aggregate scores")
	}
	if repo.score.scores[pairKey{9, 10}] != nil {
		t.Error("aggregate written for pair without answers")
	}
}
