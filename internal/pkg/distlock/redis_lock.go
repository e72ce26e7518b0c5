package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when the stored token matches, so
// a holder whose TTL already expired cannot release somebody else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLock struct {
	rdb   *redis.Client
	key   string
	token string
	ttl   time.Duration
}

func newRedisLock(rdb *redis.Client, name string, ttl time.Duration) *redisLock {
	buf := make([]byte, 16)
	rand.Read(buf)
	return &redisLock{
		rdb:   rdb,
		key:   "outreach:lock:" + name,
		token: hex.EncodeToString(buf),
		ttl:   ttl,
	}
}

func (l *redisLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring redis lock: %w", err)
	}
	return ok, nil
}

func (l *redisLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("releasing redis lock: %w", err)
	}
	return nil
}
