package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// Cache keeps derived read models warm between change notifications. Keys are
// relative; implementations may place them under a namespace.
type Cache interface {
	// Get returns the stored value, or an error wrapping ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	Ping(ctx context.Context) error
	Close() error
}
