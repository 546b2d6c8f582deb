package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/config"
)

// Factory creates idempotency stores and pattern caches based on
// configuration, preferring Redis and falling back to in-memory
// implementations when Redis is unavailable
type Factory struct {
	redisConfig           config.RedisConfig
	cacheConfig           pattern.CacheConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithFactoryCacheConfig sets the pattern cache configuration
func WithFactoryCacheConfig(cfg pattern.CacheConfig) FactoryOption {
	return func(f *Factory) {
		f.cacheConfig = cfg
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when
// Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new cache factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		cacheConfig:           pattern.DefaultCacheConfig(),
		logger:                zap.NewNop(),
		allowInMemoryFallback: true, // Default to allowing fallback
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

func (f *Factory) redisConfigForCache() RedisConfig {
	return RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}
}

// CreateIdempotencyStore creates an idempotency store, trying Redis first
// and falling back to in-memory when Redis is unavailable and fallback
// is allowed
func (f *Factory) CreateIdempotencyStore() (shared.IdempotencyStore, error) {
	store, err := NewRedisIdempotencyStore(f.redisConfigForCache())
	if err == nil {
		f.logger.Info("using Redis idempotency store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for idempotency but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
		"This may cause duplicate message processing in distributed deployments.",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}

// CreatePatternCache creates a pattern cache, trying Redis first and
// falling back to in-memory when Redis is unavailable and fallback
// is allowed
func (f *Factory) CreatePatternCache() (pattern.Cache, error) {
	cache, err := NewRedisPatternCache(
		f.redisConfigForCache(),
		WithCacheConfig(f.cacheConfig),
		WithCacheLogger(f.logger),
	)
	if err == nil {
		f.logger.Info("using Redis pattern cache")
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for pattern cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory pattern cache. "+
		"Cached patterns will not be shared across instances.",
		zap.Error(err),
	)
	return NewInMemoryPatternCache(
		WithInMemoryConfig(f.cacheConfig),
		WithInMemoryLogger(f.logger),
	), nil
}
