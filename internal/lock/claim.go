package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Claimer grants an exclusive, lease-based claim on a grading key. A denied
// claim means another worker is (or was recently) grading the same pair and
// the caller must treat the delivery as a duplicate.
type Claimer interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string)
}

// RedisClaimer implements Claimer with SET NX leases. The lease TTL bounds
// how long a crashed worker can hold a pair hostage.
type RedisClaimer struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisClaimer(client *redis.Client, ttl time.Duration) *RedisClaimer {
	return &RedisClaimer{
		client: client,
		prefix: "grading:claim:",
		ttl:    ttl,
	}
}

// GradingKey builds the claim key for one (student, page) pair.
func GradingKey(studentID, pageID uint) string {
	return fmt.Sprintf("%d:%d", studentID, pageID)
}

func (c *RedisClaimer) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.prefix+key, "1", c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire claim: %w", err)
	}
	return ok, nil
}

func (c *RedisClaimer) Release(ctx context.Context, key string) {
	// Best effort; an unexpired lease falls back to the TTL.
	c.client.Del(ctx, c.prefix+key)
}
