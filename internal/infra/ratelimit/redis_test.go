package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLimiterForTest(t *testing.T) (*miniredis.Miniredis, func(now func() time.Time) *redisLimiter) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, func(now func() time.Time) *redisLimiter {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return NewRedisLimiterWithClient(client, now).(*redisLimiter)
	}
}

func TestRedisLimiterEnforcesWindow(t *testing.T) {
	mr, build := newRedisLimiterForTest(t)
	limiter := build(nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		decision, err := limiter.Allow(ctx, "endpoint:sign:user:alice", 2, time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d should pass", i)
		}
	}

	decision, err := limiter.Allow(ctx, "endpoint:sign:user:alice", 2, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("third request in the window must be rejected")
	}
	if decision.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", decision.Remaining)
	}

	mr.FastForward(2 * time.Minute)
	decision, err = limiter.Allow(ctx, "endpoint:sign:user:alice", 2, time.Minute)
	if err != nil || !decision.Allowed {
		t.Fatalf("post-window request: allowed=%v err=%v", decision.Allowed, err)
	}
}

func TestRedisLimiterNamespacesKeys(t *testing.T) {
	mr, build := newRedisLimiterForTest(t)
	limiter := build(nil)

	if _, err := limiter.Allow(context.Background(), "endpoint:sign:user:alice", 2, time.Minute); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !mr.Exists("docseal:ratelimit:endpoint:sign:user:alice") {
		t.Fatalf("counter key must live under the docseal namespace")
	}
}

func TestRedisLimiterZeroLimitMeansOff(t *testing.T) {
	_, build := newRedisLimiterForTest(t)
	limiter := build(nil)
	decision, err := limiter.Allow(context.Background(), "any", 0, time.Minute)
	if err != nil || !decision.Allowed {
		t.Fatalf("limit 0 disables limiting: allowed=%v err=%v", decision.Allowed, err)
	}
}

func TestRedisLimiterSurfacesBackendErrors(t *testing.T) {
	mr, build := newRedisLimiterForTest(t)
	limiter := build(nil)
	mr.Close()

	_, err := limiter.Allow(context.Background(), "key", 1, time.Minute)
	if err == nil {
		t.Fatalf("a dead backend must surface as an error, not a silent allow")
	}
}
