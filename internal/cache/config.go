package cache

import "time"

// CacheConfig holds cache sizing and TTL configuration
type CacheConfig struct {
	ReportTTL        time.Duration
	MemoryMaxEntries int
	// RedisPrefix namespaces report keys in a shared Redis.
	RedisPrefix string
}

// DefaultCacheConfig returns sensible defaults
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		ReportTTL:        10 * time.Minute, // Same document, same report
		MemoryMaxEntries: 512,
		RedisPrefix:      "a11y:report:",
	}
}
