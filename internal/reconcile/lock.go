package reconcile

import (
	"context"
	_ "embed"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

//go:embed lua/release.lua
var luaRelease string

// DefaultLockKey is shared by every replica that may run reconciliation.
const DefaultLockKey = "lock:{reconcile}"

// Locker guards a run so that only one process scans at a time.
type Locker interface {
	// Acquire returns a token and true when the lock was taken.
	Acquire(ctx context.Context) (string, bool, error)
	// Release frees the lock if token still holds it.
	Release(ctx context.Context, token string) error
}

// RedisLock is a single-key lease: SET NX PX to take it, a compare-and-delete
// script to give it back. An expired lease is free for the next holder.
type RedisLock struct {
	rdb     redis.UniversalClient
	key     string
	ttl     time.Duration
	release *redis.Script
}

// NewRedisLock builds a lock on key with the given lease duration.
func NewRedisLock(rdb redis.UniversalClient, key string, ttl time.Duration) *RedisLock {
	if key == "" {
		key = DefaultLockKey
	}
	return &RedisLock{rdb: rdb, key: key, ttl: ttl, release: redis.NewScript(luaRelease)}
}

func (l *RedisLock) Acquire(ctx context.Context) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *RedisLock) Release(ctx context.Context, token string) error {
	return l.release.Run(ctx, l.rdb, []string{l.key}, token).Err()
}
