package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	blockedTokenPrefix = "token:"
	blockedTokenValue  = "blocked"
)

// TokenBlocklist holds revoked session tokens until they would have expired
// anyway.
type TokenBlocklist interface {
	Block(ctx context.Context, token string, exp time.Time) error
	IsBlocked(ctx context.Context, token string) (bool, error)
}

type redisTokenBlocklist struct {
	rdb *redis.Client
}

func NewRedisTokenBlocklist(rdb *redis.Client) TokenBlocklist {
	return &redisTokenBlocklist{rdb: rdb}
}

func (b *redisTokenBlocklist) Block(ctx context.Context, token string, exp time.Time) error {
	if !exp.After(time.Now()) {
		return nil // already unusable
	}
	key := blockedTokenPrefix + token
	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, blockedTokenValue, 0)
		pipe.ExpireAt(ctx, key, exp)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisTokenBlocklist.Block: %w", err)
	}
	return nil
}

func (b *redisTokenBlocklist) IsBlocked(ctx context.Context, token string) (bool, error) {
	n, err := b.rdb.Exists(ctx, blockedTokenPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("redisTokenBlocklist.IsBlocked: %w", err)
	}
	return n > 0, nil
}
