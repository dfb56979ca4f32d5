package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/exam-platform/grading-service/internal/models"
	"github.com/exam-platform/grading-service/internal/repositories"
)

type ScorePostgreSQL struct {
	db *gorm.DB
}

func NewScorePostgreSQL(db *gorm.DB) repositories.ScoreRepository {
	return &ScorePostgreSQL{db: db}
}

func (s *ScorePostgreSQL) GetByStudentAndPage(ctx context.Context, tx *gorm.DB, studentID, pageID uint) (*models.StudentScore, error) {
	db := s.getDB(tx)
	var score models.StudentScore
	err := db.WithContext(ctx).
		Where("student_id = ? AND page_id = ?", studentID, pageID).
		First(&score).Error
	if err != nil {
		return nil, err
	}
	return &score, nil
}

func (s *ScorePostgreSQL) Create(ctx context.Context, tx *gorm.DB, score *models.StudentScore) error {
	db := s.getDB(tx)
	return db.WithContext(ctx).Create(score).Error
}

func (s *ScorePostgreSQL) GetPairsMissingAggregate(ctx context.Context, tx *gorm.DB, limit int) ([]repositories.StudentPagePair, error) {
	db := s.getDB(tx)
	var pairs []repositories.StudentPagePair

	query := db.WithContext(ctx).
		Model(&models.StudentAnswer{}).
		Select("DISTINCT student_answers.student_id, student_answers.page_id").
		Joins("LEFT JOIN student_scores ON student_scores.student_id = student_answers.student_id AND student_scores.page_id = student_answers.page_id").
		Where("student_scores.id IS NULL")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Scan(&pairs).Error; err != nil {
		return nil, fmt.Errorf("failed to find pairs missing aggregate: %w", err)
	}
	return pairs, nil
}

func (s *ScorePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}
