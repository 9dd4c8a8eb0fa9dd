package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// The counter and its expiry are set atomically. A key left without a TTL
// (PTTL -1) is re-armed so a bucket can never lock a caller out for good.
var redisFixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if current == 1 or ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

var errNilRedisClient = errors.New("redis client is nil")

// RedisFixedWindowLimiter counts requests in Redis so every API replica
// shares one quota per key.
type RedisFixedWindowLimiter struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisFixedWindowLimiter(client redis.UniversalClient, prefix string) *RedisFixedWindowLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisFixedWindowLimiter{client: client, prefix: prefix, now: time.Now}
}

func (l *RedisFixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if l.client == nil {
		return Decision{}, errNilRedisClient
	}
	if key == "" {
		key = "unknown"
	}
	windowMS := window.Milliseconds()
	if windowMS <= 0 {
		windowMS = 1000
	}
	raw, err := redisFixedWindowScript.Run(ctx, l.client, []string{l.prefix + ":" + key}, windowMS).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(raw) != 2 {
		return Decision{}, fmt.Errorf("rate limit script: expected 2 values, got %d", len(raw))
	}
	count, ttlMS := raw[0], raw[1]
	if ttlMS <= 0 {
		ttlMS = windowMS
	}
	return decide(count, limit, l.now().Add(time.Duration(ttlMS)*time.Millisecond), l.now()), nil
}

// decide turns a post-increment counter into a Decision.
func decide(count int64, limit int, resetAt, now time.Time) Decision {
	d := Decision{
		Allowed:   count <= int64(limit),
		Remaining: int(max(min(int64(limit)-count, math.MaxInt32), 0)),
		ResetAt:   resetAt,
	}
	if !d.Allowed {
		d.RetryAfter = max(resetAt.Sub(now), 0)
	}
	return d
}
