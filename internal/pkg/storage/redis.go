// internal/pkg/storage/redis.go
package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV adapts a Redis client to the KV contract. It backs the ephemeral
// session tier, cart persistence and the saved-promo cache.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV wraps an existing Redis client
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

// Set stores a key-value pair with expiration
func (r *RedisKV) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value by key
func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Del deletes one or more keys
func (r *RedisKV) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}
