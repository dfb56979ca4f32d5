package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/exam-platform/grading-service/internal/models"
)

// QuestionRepository is the read-only view of the question catalog the
// grading service consumes.
type QuestionRepository interface {
	// GetByID returns the question definition or a not-found error.
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)

	// GetIDsForPage returns the ids of all questions on an exam page, in page
	// order. An unknown page yields an empty slice.
	GetIDsForPage(ctx context.Context, tx *gorm.DB, pageID uint) ([]uint, error)
}

// AnswerRepository stores per-question answer records.
type AnswerRepository interface {
	GetByStudentAndPage(ctx context.Context, tx *gorm.DB, studentID, pageID uint) ([]*models.StudentAnswer, error)
	ExistsForStudentAndPage(ctx context.Context, tx *gorm.DB, studentID, pageID uint) (bool, error)

	// CreateBatch persists all records in one atomic insert.
	CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.StudentAnswer) error
}

// StudentPagePair identifies one grading unit.
type StudentPagePair struct {
	StudentID uint `json:"student_id"`
	PageID    uint `json:"page_id"`
}

// ScoreRepository stores aggregate scores.
type ScoreRepository interface {
	GetByStudentAndPage(ctx context.Context, tx *gorm.DB, studentID, pageID uint) (*models.StudentScore, error)
	Create(ctx context.Context, tx *gorm.DB, score *models.StudentScore) error

	// GetPairsMissingAggregate finds pairs that have answer records but no
	// aggregate score row, i.e. runs interrupted between the two writes.
	GetPairsMissingAggregate(ctx context.Context, tx *gorm.DB, limit int) ([]StudentPagePair, error)
}

// Repository aggregates all repository interfaces.
type Repository interface {
	Question() QuestionRepository
	Answer() AnswerRepository
	Score() ScoreRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
