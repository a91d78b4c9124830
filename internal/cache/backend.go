// Package cache stores serialized analysis reports keyed by document digest.
package cache

import (
	"context"
	"fmt"
	"time"
)

// CacheBackend defines the interface for cache implementations
type CacheBackend interface {
	// Get retrieves a value from the cache
	// Returns (value, found, error)
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value in the cache with the given TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache
	Delete(ctx context.Context, key string) error

	// GetMultiple retrieves multiple values from the cache
	// Returns a map of found keys to values
	GetMultiple(ctx context.Context, keys []string) (map[string][]byte, error)

	// SetMultiple stores multiple values with the given TTL
	SetMultiple(ctx context.Context, items map[string][]byte, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// New returns the backend named by backend. redisURL is only used for the
// redis backend.
func New(ctx context.Context, backend, redisURL string, cfg CacheConfig) (CacheBackend, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryCache(cfg.MemoryMaxEntries, cfg.ReportTTL), nil
	case BackendRedis:
		if redisURL == "" {
			return nil, fmt.Errorf("cache backend %q requires a redis URL", backend)
		}
		return NewRedisCache(ctx, redisURL, cfg.RedisPrefix)
	}
	return nil, fmt.Errorf("unknown cache backend %q", backend)
}
