package pattern

import (
	"context"
	"time"
)

// CacheConfig holds TTLs for the pattern and config caches
type CacheConfig struct {
	// PatternTTL bounds how long a cached pattern may lag behind its
	// stored confidence and counters
	PatternTTL time.Duration
	// L1TTL applies to the in-process cache
	L1TTL time.Duration
	// ConfigTTL applies to the in-process engine config cache
	ConfigTTL time.Duration
}

// DefaultCacheConfig returns the standard cache TTLs
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		PatternTTL: 5 * time.Minute,
		L1TTL:      30 * time.Second,
		ConfigTTL:  30 * time.Second,
	}
}

// Cache stores patterns keyed by signature hash. A (nil, nil) return
// from Get is a cache miss.
type Cache interface {
	Get(ctx context.Context, hash string) (*Pattern, error)
	Set(ctx context.Context, p *Pattern, ttl time.Duration) error
	Delete(ctx context.Context, hash string) error
	InvalidateAll(ctx context.Context) error
	Close() error
}
