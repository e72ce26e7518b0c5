package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimits bounds outbound sends per second, per minute, and per day.
type RateLimits struct {
	PerSecond int
	PerMinute int
	PerDay    int
}

// multiLimitScript atomically checks all three windows and increments only
// when every one passes. A GET-check-INCR sequence would race between
// workers; the Lua script closes that window.
const multiLimitScript = `
local secondKey = KEYS[1]
local minuteKey = KEYS[2]
local dailyKey = KEYS[3]
local increment = tonumber(ARGV[1])
local secondLimit = tonumber(ARGV[2])
local minuteLimit = tonumber(ARGV[3])
local dailyLimit = tonumber(ARGV[4])

local secCurrent = tonumber(redis.call("GET", secondKey) or "0")
local minCurrent = tonumber(redis.call("GET", minuteKey) or "0")
local dayCurrent = tonumber(redis.call("GET", dailyKey) or "0")

if secCurrent + increment > secondLimit then
    return {0, 1}
end
if minCurrent + increment > minuteLimit then
    return {0, 2}
end
if dayCurrent + increment > dailyLimit then
    return {0, 3}
end

local newSec = redis.call("INCRBY", secondKey, increment)
if newSec == increment then
    redis.call("EXPIRE", secondKey, 2)
end
local newMin = redis.call("INCRBY", minuteKey, increment)
if newMin == increment then
    redis.call("EXPIRE", minuteKey, 120)
end
local newDay = redis.call("INCRBY", dailyKey, increment)
if newDay == increment then
    redis.call("EXPIRE", dailyKey, 90000)
end

return {1, 0}
`

// RateLimiter throttles sends with Redis-backed counters in three windows.
type RateLimiter struct {
	redis  *redis.Client
	limits RateLimits
	script *redis.Script
	now    func() time.Time
}

// NewRateLimiter creates a limiter. Zero limits disable their window. A nil
// client disables limiting entirely, so sending keeps working when Redis is
// unconfigured or unreachable at startup.
func NewRateLimiter(client *redis.Client, limits RateLimits) *RateLimiter {
	if limits.PerSecond <= 0 {
		limits.PerSecond = 1 << 30
	}
	if limits.PerMinute <= 0 {
		limits.PerMinute = 1 << 30
	}
	if limits.PerDay <= 0 {
		limits.PerDay = 1 << 30
	}
	return &RateLimiter{
		redis:  client,
		limits: limits,
		script: redis.NewScript(multiLimitScript),
		now:    time.Now,
	}
}

// Allow reports whether n sends may proceed now. When denied it returns how
// long to wait before retrying.
func (r *RateLimiter) Allow(ctx context.Context, n int) (bool, time.Duration, error) {
	if r.redis == nil {
		return true, 0, nil
	}
	now := r.now()
	keys := []string{
		fmt.Sprintf("ratelimit:send:sec:%d", now.Unix()),
		fmt.Sprintf("ratelimit:send:min:%d", now.Unix()/60),
		fmt.Sprintf("ratelimit:send:day:%s", now.Format("2006-01-02")),
	}

	result, err := r.script.Run(ctx, r.redis, keys,
		n, r.limits.PerSecond, r.limits.PerMinute, r.limits.PerDay,
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check: %w", err)
	}

	if result[0].(int64) == 1 {
		return true, 0, nil
	}
	switch result[1].(int64) {
	case 1:
		return false, time.Second, nil
	case 2:
		return false, time.Duration(60-now.Second()) * time.Second, nil
	default:
		// Daily budget exhausted: wait until the next UTC day.
		next := now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
		return false, next.Sub(now.UTC()), nil
	}
}
