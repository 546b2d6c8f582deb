package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
)

// Constants for in-memory cache configuration
const (
	defaultCleanupInterval = 30 * time.Second
)

// InMemoryPatternCache implements pattern.Cache using in-memory storage.
// It serves as the fallback when Redis is unavailable and as an L1 cache
// for hot signatures.
type InMemoryPatternCache struct {
	patterns sync.Map // map[string]*cacheEntry
	config   pattern.CacheConfig
	logger   *zap.Logger
	stopCh   chan struct{} // Channel to stop the cleanup goroutine
	stopped  int32         // Atomic flag to track if cache is stopped

	// Stats for monitoring
	hits   int64
	misses int64
}

// cacheEntry wraps a cached pattern with expiration time
type cacheEntry struct {
	value     *pattern.Pattern
	expiresAt time.Time
}

// isExpired checks if the cache entry has expired
func (e *cacheEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryPatternCacheOption is a functional option for configuring the cache
type InMemoryPatternCacheOption func(*InMemoryPatternCache)

// WithInMemoryConfig sets the cache configuration
func WithInMemoryConfig(config pattern.CacheConfig) InMemoryPatternCacheOption {
	return func(c *InMemoryPatternCache) {
		c.config = config
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryPatternCacheOption {
	return func(c *InMemoryPatternCache) {
		c.logger = logger
	}
}

// NewInMemoryPatternCache creates a new in-memory pattern cache
func NewInMemoryPatternCache(opts ...InMemoryPatternCacheOption) *InMemoryPatternCache {
	cache := &InMemoryPatternCache{
		config: pattern.DefaultCacheConfig(),
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	// Start background cleanup goroutine
	go cache.cleanupExpired()

	return cache
}

// Get retrieves a pattern from cache by signature hash
func (c *InMemoryPatternCache) Get(ctx context.Context, hash string) (*pattern.Pattern, error) {
	if value, ok := c.patterns.Load(hash); ok {
		entry := value.(*cacheEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("L1 cache hit for pattern", zap.String("signature_hash", hash))
			return entry.value, nil
		}
		// Expired, remove from cache
		c.patterns.Delete(hash)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("L1 cache miss for pattern", zap.String("signature_hash", hash))
	return nil, nil
}

// Set stores a pattern in cache keyed by its signature hash
func (c *InMemoryPatternCache) Set(ctx context.Context, p *pattern.Pattern, ttl time.Duration) error {
	if p == nil {
		return nil
	}

	if ttl == 0 {
		ttl = c.config.L1TTL
	}

	hash := p.Signature().Hash
	entry := &cacheEntry{
		value:     p,
		expiresAt: time.Now().Add(ttl),
	}

	c.patterns.Store(hash, entry)
	c.logger.Debug("Cached pattern in L1",
		zap.String("signature_hash", hash),
		zap.Duration("ttl", ttl))
	return nil
}

// Delete removes a pattern from cache
func (c *InMemoryPatternCache) Delete(ctx context.Context, hash string) error {
	c.patterns.Delete(hash)
	c.logger.Debug("Deleted pattern from L1 cache", zap.String("signature_hash", hash))
	return nil
}

// InvalidateAll removes all cached patterns
func (c *InMemoryPatternCache) InvalidateAll(ctx context.Context) error {
	c.patterns.Range(func(key, _ any) bool {
		c.patterns.Delete(key)
		return true
	})

	c.logger.Info("Invalidated all L1 pattern cache")
	return nil
}

// Close releases any resources held by the cache
func (c *InMemoryPatternCache) Close() error {
	// Only close once
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemoryPatternCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// ResetStats resets the cache statistics
func (c *InMemoryPatternCache) ResetStats() {
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
}

// Count returns the number of entries in the cache
func (c *InMemoryPatternCache) Count() int {
	count := 0
	c.patterns.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// cleanupExpired periodically removes expired entries from the cache
func (c *InMemoryPatternCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logger.Error("Panic in cache cleanup",
							zap.Any("panic", r))
					}
				}()
				c.doCleanup()
			}()
		}
	}
}

// doCleanup removes expired entries from the cache
func (c *InMemoryPatternCache) doCleanup() {
	var removed int

	c.patterns.Range(func(key, value any) bool {
		entry := value.(*cacheEntry)
		if entry.isExpired() {
			c.patterns.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		c.logger.Debug("Cleaned up expired L1 cache entries",
			zap.Int("patterns_removed", removed))
	}
}

// Ensure InMemoryPatternCache implements pattern.Cache
var _ pattern.Cache = (*InMemoryPatternCache)(nil)
