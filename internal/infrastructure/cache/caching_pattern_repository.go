package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// CachingPatternRepository decorates a pattern.Repository with a
// signature-hash cache on the read path every inbound message takes.
// Writes go to the store first and then invalidate, so a concurrent
// reader can at worst see the previous pattern state for one TTL.
type CachingPatternRepository struct {
	inner  pattern.Repository
	cache  pattern.Cache
	config pattern.CacheConfig
	logger *zap.Logger
}

// CachingPatternRepositoryOption is a functional option for configuring the repository
type CachingPatternRepositoryOption func(*CachingPatternRepository)

// WithCachingRepositoryConfig sets the cache configuration
func WithCachingRepositoryConfig(config pattern.CacheConfig) CachingPatternRepositoryOption {
	return func(r *CachingPatternRepository) {
		r.config = config
	}
}

// WithCachingRepositoryLogger sets the logger
func WithCachingRepositoryLogger(logger *zap.Logger) CachingPatternRepositoryOption {
	return func(r *CachingPatternRepository) {
		r.logger = logger
	}
}

// NewCachingPatternRepository wraps a repository with a pattern cache
func NewCachingPatternRepository(inner pattern.Repository, cache pattern.Cache, opts ...CachingPatternRepositoryOption) *CachingPatternRepository {
	repo := &CachingPatternRepository{
		inner:  inner,
		cache:  cache,
		config: pattern.DefaultCacheConfig(),
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(repo)
	}

	return repo
}

// FindBySignature reads through the cache before hitting the store
func (r *CachingPatternRepository) FindBySignature(ctx context.Context, hash string) (*pattern.Pattern, error) {
	cached, err := r.cache.Get(ctx, hash)
	if err != nil {
		// Cache failures degrade to the store
		r.logger.Warn("pattern cache read failed, falling back to store",
			zap.String("signature_hash", hash),
			zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	p, err := r.inner.FindBySignature(ctx, hash)
	if err != nil {
		return nil, err
	}

	if cacheErr := r.cache.Set(ctx, p, r.config.PatternTTL); cacheErr != nil {
		r.logger.Warn("failed to populate pattern cache",
			zap.String("signature_hash", hash),
			zap.Error(cacheErr))
	}
	return p, nil
}

// Save persists a new pattern and primes the cache
func (r *CachingPatternRepository) Save(ctx context.Context, p *pattern.Pattern) error {
	if err := r.inner.Save(ctx, p); err != nil {
		return err
	}
	if err := r.cache.Set(ctx, p, r.config.PatternTTL); err != nil {
		r.logger.Warn("failed to prime pattern cache after save",
			zap.String("signature_hash", p.Signature().Hash),
			zap.Error(err))
	}
	return nil
}

// Update persists pattern changes and invalidates the cached copy
func (r *CachingPatternRepository) Update(ctx context.Context, p *pattern.Pattern) error {
	if err := r.inner.Update(ctx, p); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, p.Signature().Hash); err != nil {
		r.logger.Warn("failed to invalidate pattern cache after update",
			zap.String("signature_hash", p.Signature().Hash),
			zap.Error(err))
	}
	return nil
}

// Delete removes a pattern and its cached copy. The signature hash is
// resolved from the store before deleting the row.
func (r *CachingPatternRepository) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := r.inner.FindByID(ctx, id)
	if err != nil && err != shared.ErrNotFound {
		return err
	}

	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}

	if p != nil {
		if cacheErr := r.cache.Delete(ctx, p.Signature().Hash); cacheErr != nil {
			r.logger.Warn("failed to invalidate pattern cache after delete",
				zap.String("signature_hash", p.Signature().Hash),
				zap.Error(cacheErr))
		}
	}
	return nil
}

// FindByID passes through to the store
func (r *CachingPatternRepository) FindByID(ctx context.Context, id uuid.UUID) (*pattern.Pattern, error) {
	return r.inner.FindByID(ctx, id)
}

// FindCandidates passes through to the store. Candidate sets depend on
// live confidence ordering and are not cached.
func (r *CachingPatternRepository) FindCandidates(ctx context.Context, msgType pattern.PatternType, includeInactive bool) ([]*pattern.Pattern, error) {
	return r.inner.FindCandidates(ctx, msgType, includeInactive)
}

// FindAll passes through to the store
func (r *CachingPatternRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*pattern.Pattern], error) {
	return r.inner.FindAll(ctx, filter)
}

// FindDecayable passes through to the store
func (r *CachingPatternRepository) FindDecayable(ctx context.Context, idleSince time.Time, limit int) ([]*pattern.Pattern, error) {
	return r.inner.FindDecayable(ctx, idleSince, limit)
}

// CountByStatus passes through to the store
func (r *CachingPatternRepository) CountByStatus(ctx context.Context) (map[pattern.PatternStatus]int64, error) {
	return r.inner.CountByStatus(ctx)
}

// CountByType passes through to the store
func (r *CachingPatternRepository) CountByType(ctx context.Context) (map[pattern.PatternType]int64, error) {
	return r.inner.CountByType(ctx)
}

// Ensure CachingPatternRepository implements pattern.Repository
var _ pattern.Repository = (*CachingPatternRepository)(nil)
