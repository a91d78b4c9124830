package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache implements CacheBackend with a size-bounded LRU. Entries expire
// after the TTL given to Set, and never later than maxTTL.
type MemoryCache struct {
	lru    *expirable.LRU[string, memoryCacheEntry]
	maxTTL time.Duration
}

type memoryCacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates an in-memory cache holding at most maxEntries.
func NewMemoryCache(maxEntries int, maxTTL time.Duration) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheConfig().MemoryMaxEntries
	}
	if maxTTL <= 0 {
		maxTTL = DefaultCacheConfig().ReportTTL
	}
	return &MemoryCache{
		lru:    expirable.NewLRU[string, memoryCacheEntry](maxEntries, nil, maxTTL),
		maxTTL: maxTTL,
	}
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		m.lru.Remove(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.lru.Add(key, m.entry(value, time.Now(), ttl))
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

func (m *MemoryCache) GetMultiple(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte)
	for _, key := range keys {
		if v, ok, _ := m.Get(ctx, key); ok {
			result[key] = v
		}
	}
	return result, nil
}

func (m *MemoryCache) SetMultiple(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	now := time.Now()
	for key, value := range items {
		m.lru.Add(key, m.entry(value, now, ttl))
	}
	return nil
}

// Len reports the number of entries, expired ones not yet evicted included.
func (m *MemoryCache) Len() int { return m.lru.Len() }

func (m *MemoryCache) Close() error {
	m.lru.Purge()
	return nil
}

func (m *MemoryCache) entry(value []byte, now time.Time, ttl time.Duration) memoryCacheEntry {
	if ttl <= 0 || ttl > m.maxTTL {
		ttl = m.maxTTL
	}
	return memoryCacheEntry{value: value, expiresAt: now.Add(ttl)}
}
