package models

import (
	"time"
)

// StudentAnswer is one graded answer record. Exactly one row exists per
// (student, page, question) triple after a successful grading run; unanswered
// questions get a synthesized row with an empty answer and score 0.
type StudentAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	StudentID  uint `json:"student_id" gorm:"not null;index:idx_answer_student_page;uniqueIndex:idx_answer_triple"`
	PageID     uint `json:"page_id" gorm:"not null;index:idx_answer_student_page;uniqueIndex:idx_answer_triple"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_triple"`

	// Submitted answer text; empty string means unanswered.
	Answer string  `json:"answer" gorm:"type:text"`
	Score  float64 `json:"score"`

	AnsweredAt time.Time `json:"answered_at"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}
