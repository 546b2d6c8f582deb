package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
)

// CachingConfigRepository keeps the engine configuration singleton in
// process memory with a short TTL. Every inbound message consults the
// config (kill switch, shadow mode, thresholds), so the read path must
// not hit the database each time. Updates write through and refresh the
// cached copy, so the instance that made the change sees it immediately;
// other instances converge within one TTL.
type CachingConfigRepository struct {
	inner  pattern.ConfigRepository
	ttl    time.Duration
	logger *zap.Logger

	mu        sync.RWMutex
	cached    *pattern.EngineConfig
	expiresAt time.Time
}

// NewCachingConfigRepository wraps a config repository with an in-process TTL cache
func NewCachingConfigRepository(inner pattern.ConfigRepository, ttl time.Duration, logger *zap.Logger) *CachingConfigRepository {
	if ttl <= 0 {
		ttl = pattern.DefaultCacheConfig().ConfigTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingConfigRepository{
		inner:  inner,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached configuration, reloading it from the store
// when the TTL has elapsed
func (r *CachingConfigRepository) Get(ctx context.Context) (*pattern.EngineConfig, error) {
	r.mu.RLock()
	if r.cached != nil && time.Now().Before(r.expiresAt) {
		cached := r.cached
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	config, err := r.inner.Get(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cached = config
	r.expiresAt = time.Now().Add(r.ttl)
	r.mu.Unlock()

	r.logger.Debug("reloaded engine config",
		zap.Bool("enabled", config.Enabled()),
		zap.Bool("shadow_mode", config.ShadowMode()))
	return config, nil
}

// Update writes through to the store and refreshes the cached copy
func (r *CachingConfigRepository) Update(ctx context.Context, c *pattern.EngineConfig) error {
	if err := r.inner.Update(ctx, c); err != nil {
		return err
	}

	r.mu.Lock()
	r.cached = c
	r.expiresAt = time.Now().Add(r.ttl)
	r.mu.Unlock()
	return nil
}

// Invalidate drops the cached configuration so the next Get reloads it
func (r *CachingConfigRepository) Invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
}

// Ensure CachingConfigRepository implements pattern.ConfigRepository
var _ pattern.ConfigRepository = (*CachingConfigRepository)(nil)
