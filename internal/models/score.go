package models

import (
	"time"

	"gorm.io/datatypes"
)

type ScoreStatus string

const (
	ScoreGraded ScoreStatus = "graded"
)

// StudentScore is the aggregate score for one (student, page) pair. It is
// written exactly once, at the end of a grading run; the unique index is the
// durable backstop against duplicate deliveries.
type StudentScore struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	StudentID uint `json:"student_id" gorm:"not null;uniqueIndex:idx_score_student_page"`
	PageID    uint `json:"page_id" gorm:"not null;uniqueIndex:idx_score_student_page"`

	Score  float64     `json:"score"`
	Status ScoreStatus `json:"status" gorm:"default:graded;size:20"`

	// Detail holds the per-question breakdown as written at aggregation time.
	Detail datatypes.JSON `json:"detail" gorm:"type:jsonb"`

	SubmittedAt time.Time `json:"submitted_at"`
	CompletedAt time.Time `json:"completed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScoreDetail is one entry of StudentScore.Detail.
type ScoreDetail struct {
	QuestionID uint    `json:"question_id"`
	Score      float64 `json:"score"`
	Answered   bool    `json:"answered"`
}
