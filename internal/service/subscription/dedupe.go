// internal/service/subscription/dedupe.go
package subscription

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupeStore marks a webhook delivery as seen. Acquire returns false when
// the key was already held, i.e. this delivery is a repeat.
type DedupeStore interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisDedupe implements DedupeStore with SETNX + TTL.
type RedisDedupe struct {
	client *redis.Client
}

func NewRedisDedupe(client *redis.Client) *RedisDedupe {
	return &RedisDedupe{client: client}
}

func (d *RedisDedupe) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return d.client.SetNX(ctx, key, 1, ttl).Result()
}

func (d *RedisDedupe) Release(ctx context.Context, key string) error {
	return d.client.Del(ctx, key).Err()
}
