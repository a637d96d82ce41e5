package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter implements Cache on Redis. Every key is stored as namespace:key so
// several deployments can share one Redis database.
type RedisAdapter struct {
	client    *redis.Client
	namespace string
}

// NewRedisClient parses redisURL and returns a client.
// The redisURL should be in the format: redis://[:password@]host[:port][/database]
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewRedisAdapter creates a cache adapter on a client shared with the change feed
// broker. An empty namespace stores keys as given.
func NewRedisAdapter(client *redis.Client, namespace string) *RedisAdapter {
	return &RedisAdapter{client: client, namespace: namespace}
}

func (r *RedisAdapter) key(k string) string {
	if r.namespace == "" {
		return k
	}
	return r.namespace + ":" + k
}

// Get retrieves a value by key.
func (r *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("key %s: %w", key, ErrCacheMiss)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, nil
}

// Set stores a value with the given TTL.
func (r *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete removes keys in one round trip.
func (r *RedisAdapter) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys %v: %w", keys, err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (r *RedisAdapter) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the shared client, so it also stops the feed broker.
func (r *RedisAdapter) Close() error {
	return r.client.Close()
}
