package services

import (
	"context"
	"time"
)

// ===== EVENT/REQUEST DTOs =====

// SubmittedAnswer is one (question, answer text) pair of a submission.
type SubmittedAnswer struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Answer     string `json:"answer"`
}

// SubmissionEvent is the inbound payload that triggers grading. Delivery is
// at-least-once; GradeSubmission must be safe under redelivery.
type SubmissionEvent struct {
	StudentID   uint              `json:"student_id" validate:"required"`
	PageID      uint              `json:"page_id" validate:"required"`
	Answers     []SubmittedAnswer `json:"answers" validate:"dive"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

// ===== GRADING RESULT DTOs =====

type GradingResult struct {
	StudentID     uint      `json:"student_id"`
	PageID        uint      `json:"page_id"`
	TotalScore    float64   `json:"total_score"`
	QuestionCount int       `json:"question_count"`
	AnsweredCount int       `json:"answered_count"`
	Duplicate     bool      `json:"duplicate"`
	GradedAt      time.Time `json:"graded_at"`
}

// GradingCompletedEvent is published after an aggregate score is written.
type GradingCompletedEvent struct {
	StudentID   uint      `json:"student_id"`
	PageID      uint      `json:"page_id"`
	TotalScore  float64   `json:"total_score"`
	CompletedAt time.Time `json:"completed_at"`
}

// RepairReport summarizes one repair sweep.
type RepairReport struct {
	PairsFound    int `json:"pairs_found"`
	PairsRepaired int `json:"pairs_repaired"`
	PairsFailed   int `json:"pairs_failed"`
}

// ===== PORTS =====

// EventPublisher publishes grading lifecycle events. Implementations live in
// the events package; publishing is best effort for the grading flow.
type EventPublisher interface {
	PublishGradingCompleted(ctx context.Context, event *GradingCompletedEvent) error
	Close() error
}

// ===== SERVICE INTERFACES =====

type GradingService interface {
	// GradeSubmission scores every answered question of the event, fills in
	// zero-score records for unanswered ones, and writes the aggregate score.
	// Duplicate deliveries return a no-op result with Duplicate set.
	GradeSubmission(ctx context.Context, event *SubmissionEvent) (*GradingResult, error)
}

type RepairService interface {
	// RepairPair re-runs aggregation only, for a pair left with answer
	// records but no aggregate score.
	RepairPair(ctx context.Context, studentID, pageID uint) (*GradingResult, error)

	// RepairAll sweeps the store for such pairs and repairs each.
	RepairAll(ctx context.Context) (*RepairReport, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Grading() GradingService
	Repair() RepairService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
