package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClaimer(t *testing.T) (*RedisClaimer, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisClaimer(client, 30*time.Second), mr
}

func TestRedisClaimer_AcquireIsExclusive(t *testing.T) {
	claimer, _ := newTestClaimer(t)
	ctx := context.Background()
	key := GradingKey(11, 42)

	ok, err := claimer.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if !ok {
		t.Fatal("first acquire should succeed")
	}

	// A concurrent duplicate delivery must be denied.
	ok, err = claimer.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}
	if ok {
		t.Fatal("second acquire should be denied while the lease is held")
	}

	// A different pair is unaffected.
	ok, err = claimer.Acquire(ctx, GradingKey(11, 43))
	if err != nil {
		t.Fatalf("acquire for other pair failed: %v", err)
	}
	if !ok {
		t.Fatal("acquire for a different pair should succeed")
	}
}

func TestRedisClaimer_ReleaseFreesKey(t *testing.T) {
	claimer, _ := newTestClaimer(t)
	ctx := context.Background()
	key := GradingKey(7, 9)

	if ok, _ := claimer.Acquire(ctx, key); !ok {
		t.Fatal("acquire should succeed")
	}
	claimer.Release(ctx, key)

	ok, err := claimer.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	if !ok {
		t.Fatal("acquire after release should succeed")
	}
}

func TestRedisClaimer_LeaseExpires(t *testing.T) {
	claimer, mr := newTestClaimer(t)
	ctx := context.Background()
	key := GradingKey(3, 5)

	if ok, _ := claimer.Acquire(ctx, key); !ok {
		t.Fatal("acquire should succeed")
	}

	// A crashed worker never releases; the lease must expire on its own.
	mr.FastForward(31 * time.Second)

	ok, err := claimer.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("acquire after expiry failed: %v", err)
	}
	if !ok {
		t.Fatal("acquire after lease expiry should succeed")
	}
}
