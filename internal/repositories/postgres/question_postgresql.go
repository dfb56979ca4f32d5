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

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestion models.Question
		if err := db.WithContext(ctx).First(&dbQuestion, id).Error; err != nil {
			return nil, err
		}
		return &dbQuestion, nil
	})
	if err != nil {
		return nil, err
	}

	return &question, nil
}

func (q *QuestionPostgreSQL) GetIDsForPage(ctx context.Context, tx *gorm.DB, pageID uint) ([]uint, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("questions:%d", pageID)
	var ids []uint

	err := q.cacheManager.Page.CacheOrExecute(ctx, cacheKey, &ids, cache.PageCacheConfig.TTL, func() (interface{}, error) {
		var dbIDs []uint
		err := db.WithContext(ctx).
			Model(&models.PageQuestion{}).
			Where("page_id = ?", pageID).
			Order("position ASC").
			Pluck("question_id", &dbIDs).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get page questions: %w", err)
		}
		return dbIDs, nil
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
