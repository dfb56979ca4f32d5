package models

import (
	"time"
)

type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	FillBlank    QuestionType = "fill_blank"
	ShortAnswer  QuestionType = "short_answer"
	Unscored     QuestionType = "unscored"
)

// Question is a catalog entry. The grading service only reads questions;
// authoring them belongs to the catalog service.
type Question struct {
	ID   uint         `json:"id" gorm:"primaryKey"`
	Type QuestionType `json:"type" gorm:"not null;index"`
	Text string       `json:"text" gorm:"type:text;not null"`

	// Reference answer. Fill-blank answers encode each blank as 【segment】.
	Answer string `json:"answer" gorm:"type:text;not null"`

	// Ordered selects the ordered fill-blank policy; ignored for other types.
	Ordered bool `json:"ordered" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExamPage is a fixed set of questions presented together as one exam instance.
type ExamPage struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Title string `json:"title" gorm:"size:200;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []PageQuestion `json:"questions" gorm:"foreignKey:PageID"`
}

// PageQuestion links a question into an exam page at a position.
type PageQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	PageID     uint `json:"page_id" gorm:"not null;index;uniqueIndex:idx_page_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_page_question"`
	Position   int  `json:"position" gorm:"default:0"`

	// Relations
	Page     ExamPage `json:"page" gorm:"foreignKey:PageID"`
	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}
