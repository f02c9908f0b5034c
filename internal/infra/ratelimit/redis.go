package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"veritas/internal/domain"

	"github.com/redis/go-redis/v9"
)

// countWindow bumps the caller's counter and reports it with the window's
// remaining lifetime. A counter that lost its expiry (PTTL -1 after a failed
// PEXPIRE or a restore) is re-armed rather than left to pin the budget
// forever.
var countWindow = redis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {hits, ttl}
`)

// redisLimiter shares one budget per key across every replica.
type redisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisLimiter(addr, password string, db int, now func() time.Time) (domain.RateLimiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if now == nil {
		now = time.Now
	}
	return &redisLimiter{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		now:    now,
	}, nil
}

func (r *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return unlimited(limit), nil
	}
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}
	vals, err := countWindow.Run(ctx, r.client, []string{key}, windowMillis).Int64Slice()
	if err != nil {
		return domain.RateLimitDecision{}, err
	}
	if len(vals) != 2 {
		return domain.RateLimitDecision{}, fmt.Errorf("rate limit script returned %d values, want 2", len(vals))
	}
	hits, ttlMillis := vals[0], vals[1]
	return decide(limit, hits, r.now().Add(time.Duration(ttlMillis)*time.Millisecond)), nil
}
