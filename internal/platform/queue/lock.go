package queue

import (
	"context"
	"fmt"
	"time"

	"leetlab/internal/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our value.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

// Lock is a single-holder Redis lock (SET NX PX) with compare-and-delete
// release.
type Lock struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewLock(rdb *redis.Client, key string, ttl time.Duration) *Lock {
	return &Lock{rdb: rdb, key: key, ttl: ttl}
}

// TTL is how long a holder may keep the lock before it expires on its own.
func (l *Lock) TTL() time.Duration {
	return l.ttl
}

// Acquire returns the holder value to pass to Release, or
// common.ErrJobLockFailed when someone else holds the lock.
func (l *Lock) Acquire(ctx context.Context) (string, error) {
	value := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, value, l.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return "", fmt.Errorf("lock %s is held: %w", l.key, common.ErrJobLockFailed)
	}
	return value, nil
}

// Release reports whether the lock was still ours when released.
func (l *Lock) Release(ctx context.Context, value string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, l.rdb, []string{l.key}, value).Int64()
	if err != nil {
		return false, fmt.Errorf("release lock %s: %w", l.key, err)
	}
	return deleted == 1, nil
}
