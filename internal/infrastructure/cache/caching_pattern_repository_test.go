package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// stubPatternRepository counts store hits so tests can assert the cache
// short-circuited the read path
type stubPatternRepository struct {
	bySignature map[string]*pattern.Pattern
	byID        map[uuid.UUID]*pattern.Pattern

	findBySignatureCalls int
	updateCalls          int
}

func newStubPatternRepository() *stubPatternRepository {
	return &stubPatternRepository{
		bySignature: make(map[string]*pattern.Pattern),
		byID:        make(map[uuid.UUID]*pattern.Pattern),
	}
}

func (s *stubPatternRepository) add(p *pattern.Pattern) {
	s.bySignature[p.Signature().Hash] = p
	s.byID[p.ID] = p
}

func (s *stubPatternRepository) Save(_ context.Context, p *pattern.Pattern) error {
	s.add(p)
	return nil
}

func (s *stubPatternRepository) Update(_ context.Context, p *pattern.Pattern) error {
	s.updateCalls++
	s.add(p)
	return nil
}

func (s *stubPatternRepository) FindByID(_ context.Context, id uuid.UUID) (*pattern.Pattern, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (s *stubPatternRepository) FindBySignature(_ context.Context, hash string) (*pattern.Pattern, error) {
	s.findBySignatureCalls++
	p, ok := s.bySignature[hash]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (s *stubPatternRepository) FindCandidates(context.Context, pattern.PatternType, bool) ([]*pattern.Pattern, error) {
	return nil, nil
}

func (s *stubPatternRepository) FindAll(context.Context, shared.Filter) (shared.Paginated[*pattern.Pattern], error) {
	return shared.Paginated[*pattern.Pattern]{}, nil
}

func (s *stubPatternRepository) FindDecayable(context.Context, time.Time, int) ([]*pattern.Pattern, error) {
	return nil, nil
}

func (s *stubPatternRepository) Delete(_ context.Context, id uuid.UUID) error {
	p, ok := s.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	delete(s.bySignature, p.Signature().Hash)
	delete(s.byID, id)
	return nil
}

func (s *stubPatternRepository) CountByStatus(context.Context) (map[pattern.PatternStatus]int64, error) {
	return nil, nil
}

func (s *stubPatternRepository) CountByType(context.Context) (map[pattern.PatternType]int64, error) {
	return nil, nil
}

var _ pattern.Repository = (*stubPatternRepository)(nil)

func TestCachingPatternRepository_FindBySignature(t *testing.T) {
	t.Run("second read is served from cache", func(t *testing.T) {
		store := newStubPatternRepository()
		cache := NewInMemoryPatternCache()
		defer cache.Close()
		repo := NewCachingPatternRepository(store, cache)

		p := newTestPattern(t, "Do you sell gift cards?")
		store.add(p)
		hash := p.Signature().Hash

		first, err := repo.FindBySignature(context.Background(), hash)
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.Equal(t, 1, store.findBySignatureCalls)

		second, err := repo.FindBySignature(context.Background(), hash)
		require.NoError(t, err)
		require.NotNil(t, second)
		assert.Equal(t, p.ID, second.ID)
		assert.Equal(t, 1, store.findBySignatureCalls, "cache should have absorbed the second read")
	})

	t.Run("store miss is returned as-is", func(t *testing.T) {
		store := newStubPatternRepository()
		cache := NewInMemoryPatternCache()
		defer cache.Close()
		repo := NewCachingPatternRepository(store, cache)

		p, err := repo.FindBySignature(context.Background(), "no-such-hash")
		assert.Nil(t, p)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestCachingPatternRepository_UpdateInvalidates(t *testing.T) {
	store := newStubPatternRepository()
	cache := NewInMemoryPatternCache()
	defer cache.Close()
	repo := NewCachingPatternRepository(store, cache)

	p := newTestPattern(t, "Do you sell gift cards?")
	store.add(p)
	hash := p.Signature().Hash

	_, err := repo.FindBySignature(context.Background(), hash)
	require.NoError(t, err)
	require.NoError(t, repo.Update(context.Background(), p))

	// The cached copy was dropped, so the next read hits the store again
	_, err = repo.FindBySignature(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, 2, store.findBySignatureCalls)
}

func TestCachingPatternRepository_SavePrimesCache(t *testing.T) {
	store := newStubPatternRepository()
	cache := NewInMemoryPatternCache()
	defer cache.Close()
	repo := NewCachingPatternRepository(store, cache)

	p := newTestPattern(t, "What time do you open?")
	require.NoError(t, repo.Save(context.Background(), p))

	found, err := repo.FindBySignature(context.Background(), p.Signature().Hash)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 0, store.findBySignatureCalls)
}

type stubConfigRepository struct {
	config   *pattern.EngineConfig
	getCalls int
}

func (s *stubConfigRepository) Get(context.Context) (*pattern.EngineConfig, error) {
	s.getCalls++
	return s.config, nil
}

func (s *stubConfigRepository) Update(_ context.Context, c *pattern.EngineConfig) error {
	s.config = c
	return nil
}

var _ pattern.ConfigRepository = (*stubConfigRepository)(nil)

func TestCachingConfigRepository_Get(t *testing.T) {
	store := &stubConfigRepository{config: pattern.NewEngineConfig()}
	repo := NewCachingConfigRepository(store, time.Minute, nil)

	first, err := repo.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, store.getCalls, "cached config should not hit the store")
}

func TestCachingConfigRepository_TTLReload(t *testing.T) {
	store := &stubConfigRepository{config: pattern.NewEngineConfig()}
	repo := NewCachingConfigRepository(store, 10*time.Millisecond, nil)

	_, err := repo.Get(context.Background())
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.getCalls)
}

func TestCachingConfigRepository_UpdateRefreshes(t *testing.T) {
	store := &stubConfigRepository{config: pattern.NewEngineConfig()}
	repo := NewCachingConfigRepository(store, time.Minute, nil)

	updated := pattern.NewEngineConfig()
	require.NoError(t, repo.Update(context.Background(), updated))

	got, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, updated, got)
	assert.Equal(t, 0, store.getCalls, "update should have refreshed the cached copy")
}

func TestCachingConfigRepository_Invalidate(t *testing.T) {
	store := &stubConfigRepository{config: pattern.NewEngineConfig()}
	repo := NewCachingConfigRepository(store, time.Minute, nil)

	_, err := repo.Get(context.Background())
	require.NoError(t, err)

	repo.Invalidate()

	_, err = repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.getCalls)
}
