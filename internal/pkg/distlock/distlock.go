// Package distlock provides a process-wide mutual exclusion primitive for
// operations that must run on at most one node at a time, such as the manual
// queue sweep trigger. Redis backs the lock when available; otherwise a
// Postgres advisory lock is used.
package distlock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock guards a named critical section across processes.
type Lock interface {
	// TryAcquire attempts to take the lock without blocking. It returns
	// true when the caller now holds the lock.
	TryAcquire(ctx context.Context) (bool, error)

	// Release gives the lock up. Releasing a lock the caller does not
	// hold is a no-op.
	Release(ctx context.Context) error
}

// New returns a Redis-backed lock when rdb is non-nil, falling back to a
// Postgres advisory lock otherwise.
func New(rdb *redis.Client, db *sql.DB, name string, ttl time.Duration) Lock {
	if rdb != nil {
		return newRedisLock(rdb, name, ttl)
	}
	return &advisoryLock{db: db, key: advisoryKey(name)}
}

// advisoryLock holds a Postgres session-level advisory lock. The lock is
// scoped to the *sql.DB pool connection that acquired it, so acquire and
// release run on a pinned connection.
type advisoryLock struct {
	db   *sql.DB
	key  int64
	conn *sql.Conn
}

func advisoryKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("outreach:lock:" + name))
	return int64(h.Sum64())
}

func (l *advisoryLock) TryAcquire(ctx context.Context) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquiring connection: %w", err)
	}
	var got bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.key).Scan(&got); err != nil {
		conn.Close()
		return false, fmt.Errorf("trying advisory lock: %w", err)
	}
	if !got {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

func (l *advisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	conn := l.conn
	l.conn = nil
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.key); err != nil {
		return fmt.Errorf("releasing advisory lock: %w", err)
	}
	return nil
}
