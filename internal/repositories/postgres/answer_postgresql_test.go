package postgres

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/exam-platform/grading-service/internal/cache"
)

func TestAnswerExistsServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	// Mark the pair as existing, as a previous check would have.
	helper := cache.NewCacheManager(client).Exists
	if err := helper.Set(context.Background(), "7:10", true, cache.ExistsCacheConfig.TTL); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	// A nil DB handle proves a cache hit never touches the store.
	repo := NewAnswerPostgreSQL(nil, client)

	exists, err := repo.ExistsForStudentAndPage(context.Background(), nil, 7, 10)
	if err != nil {
		t.Fatalf("ExistsForStudentAndPage() error = %v", err)
	}
	if !exists {
		t.Error("cached positive existence not honored")
	}
}
