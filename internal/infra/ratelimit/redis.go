package ratelimit

import (
	"context"
	"errors"
	"time"

	"docseal/internal/domain"

	"github.com/redis/go-redis/v9"
)

// limiterKeyPrefix namespaces counter keys so they can share a redis
// database with the verification cache.
const limiterKeyPrefix = "docseal:ratelimit:"

// counterScript bumps the fixed-window counter and reports its
// remaining lifetime in one round trip. The PEXPIRE only fires on the
// first hit, so the window is anchored at the first request.
const counterScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`

var redisAllowScript = redis.NewScript(counterScript)

type redisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisLimiter(addr, password string, db int, now func() time.Time) (domain.RateLimiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisLimiterWithClient(client, now), nil
}

func NewRedisLimiterWithClient(client *redis.Client, now func() time.Time) domain.RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &redisLimiter{client: client, now: now}
}

func (r *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}

	reply, err := redisAllowScript.Run(ctx, r.client, []string{limiterKeyPrefix + key}, windowMillis).Result()
	if err != nil {
		return domain.RateLimitDecision{}, err
	}
	current, ttlMillis, err := decodeCounterReply(reply)
	if err != nil {
		return domain.RateLimitDecision{}, err
	}

	resetAt := r.now()
	if ttlMillis > 0 {
		resetAt = resetAt.Add(time.Duration(ttlMillis) * time.Millisecond)
	}
	return domain.RateLimitDecision{
		Allowed:   current <= int64(limit),
		Limit:     limit,
		Remaining: max(limit-int(current), 0),
		ResetAt:   resetAt,
	}, nil
}

func decodeCounterReply(reply any) (current, ttlMillis int64, err error) {
	values, ok := reply.([]any)
	if !ok || len(values) < 2 {
		return 0, 0, errors.New("unexpected rate limit counter reply")
	}
	current, ok = values[0].(int64)
	if !ok {
		return 0, 0, errors.New("unexpected rate limit counter reply")
	}
	ttlMillis, _ = values[1].(int64)
	return current, ttlMillis, nil
}
