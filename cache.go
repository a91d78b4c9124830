package main

import (
	"context"
	"log/slog"
	"time"

	"a11y-server/internal/cache"
	"a11y-server/internal/config"
)

var (
	// Report cache backend (memory or redis)
	reportCache cache.CacheBackend

	// Cache configuration
	cacheConfig cache.CacheConfig

	// Cache backend type for health reporting
	cacheBackendType string // "redis" or "memory"
)

// InitCaches initializes the report cache with Redis when configured,
// otherwise memory. A failed Redis connection falls back to memory.
func InitCaches(ctx context.Context, cfg *config.ServerConfig) error {
	cacheConfig = cache.DefaultCacheConfig()
	cacheConfig.ReportTTL = cfg.ReportCacheTTL
	cacheConfig.MemoryMaxEntries = cfg.CacheMaxEntries

	if cfg.CacheBackend == cache.BackendRedis {
		slog.Info("initializing Redis cache")
		backend, err := cache.New(ctx, cache.BackendRedis, cfg.RedisURL, cacheConfig)
		if err == nil {
			reportCache = backend
			cacheBackendType = cache.BackendRedis
			return nil
		}
		slog.Warn("Redis connection failed, using memory cache", "error", err)
	}
	return initMemoryCaches()
}

func initMemoryCaches() error {
	backend, err := cache.New(context.Background(), cache.BackendMemory, "", cacheConfig)
	if err != nil {
		return err
	}
	reportCache = backend
	cacheBackendType = cache.BackendMemory
	slog.Info("initialized memory cache", "max_entries", cacheConfig.MemoryMaxEntries, "ttl", cacheConfig.ReportTTL)
	return nil
}

// cachedReport returns the serialized report stored under key.
func cachedReport(ctx context.Context, key string) ([]byte, bool) {
	if reportCache == nil || cacheConfig.ReportTTL <= 0 {
		return nil, false
	}
	data, ok, err := reportCache.Get(ctx, key)
	if err != nil {
		LoggerFromContext(ctx).Warn("report cache read failed", "error", err)
		return nil, false
	}
	if ok {
		IncrementCacheHit()
	} else {
		IncrementCacheMiss()
	}
	return data, ok
}

func storeReport(ctx context.Context, key string, data []byte) {
	if reportCache == nil || cacheConfig.ReportTTL <= 0 {
		return
	}
	// The request may already be done; the write should still land.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := reportCache.Set(ctx, key, data, cacheConfig.ReportTTL); err != nil {
		LoggerFromContext(ctx).Warn("report cache write failed", "error", err)
	}
}
