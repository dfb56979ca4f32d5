package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/exam-platform/grading-service/internal/cache"
	"github.com/exam-platform/grading-service/internal/models"
	"github.com/exam-platform/grading-service/internal/repositories"
)

type AnswerPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAnswerPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AnswerRepository {
	return &AnswerPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AnswerPostgreSQL) GetByStudentAndPage(ctx context.Context, tx *gorm.DB, studentID, pageID uint) ([]*models.StudentAnswer, error) {
	db := a.getDB(tx)
	var answers []*models.StudentAnswer
	err := db.WithContext(ctx).
		Where("student_id = ? AND page_id = ?", studentID, pageID).
		Order("question_id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) ExistsForStudentAndPage(ctx context.Context, tx *gorm.DB, studentID, pageID uint) (bool, error) {
	cacheKey := fmt.Sprintf("%d:%d", studentID, pageID)

	// Answer records are never deleted, so a cached positive stays true
	// forever. Negatives are never cached; they must always hit the store.
	var cached bool
	if err := a.cacheManager.Exists.Get(ctx, cacheKey, &cached); err == nil && cached {
		return true, nil
	}

	db := a.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.StudentAnswer{}).
		Where("student_id = ? AND page_id = ?", studentID, pageID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count answers: %w", err)
	}

	if count > 0 {
		// Best effort; a failed set just means the next check hits the store.
		_ = a.cacheManager.Exists.Set(ctx, cacheKey, true, cache.ExistsCacheConfig.TTL)
	}
	return count > 0, nil
}

func (a *AnswerPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.StudentAnswer) error {
	if len(answers) == 0 {
		return nil
	}

	db := a.getDB(tx)
	// Single insert so a duplicate delivery either writes the whole set or
	// trips the (student, page, question) unique index and writes nothing.
	if err := db.WithContext(ctx).Create(&answers).Error; err != nil {
		return err
	}
	return nil
}

func (a *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}
