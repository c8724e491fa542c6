package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// BlocklistPrefix namespaces revoked JWT ids.
const BlocklistPrefix = "jwt:blocklist:"

// TokenBlocklist remembers revoked signed-token ids until they would have
// expired anyway.
type TokenBlocklist interface {
	// Block marks jti as revoked for ttl. A non-positive ttl is a no-op.
	Block(ctx context.Context, jti string, ttl time.Duration) error
	IsBlocked(ctx context.Context, jti string) (bool, error)
}

type redisBlocklist struct {
	client redis.UniversalClient
}

// NewRedisBlocklist stores revoked ids as expiring keys.
func NewRedisBlocklist(client redis.UniversalClient) TokenBlocklist {
	return &redisBlocklist{client: client}
}

func (b *redisBlocklist) Block(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, BlocklistPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("blocklist set: %w", err)
	}
	return nil
}

func (b *redisBlocklist) IsBlocked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, BlocklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("blocklist exists: %w", err)
	}
	return n > 0, nil
}

// NoopBlocklist is used when Redis is not configured: logout is then a
// client-side discard and every unexpired token stays valid.
type NoopBlocklist struct{}

func (NoopBlocklist) Block(context.Context, string, time.Duration) error { return nil }

func (NoopBlocklist) IsBlocked(context.Context, string) (bool, error) { return false, nil }
