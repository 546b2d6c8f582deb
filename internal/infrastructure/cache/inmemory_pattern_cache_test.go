package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
)

func newTestPattern(t *testing.T, trigger string) *pattern.Pattern {
	t.Helper()
	template, derr := pattern.NewResponseTemplate("Yes, gift cards are on our website.")
	require.Nil(t, derr)
	p, derr := pattern.NewPattern(trigger, pattern.TypeGiftCards, template, 0.60, uuid.New())
	require.Nil(t, derr)
	return p
}

func TestInMemoryPatternCache_SetAndGet(t *testing.T) {
	cache := NewInMemoryPatternCache()
	defer cache.Close()

	ctx := context.Background()
	p := newTestPattern(t, "Do you sell gift cards?")
	hash := p.Signature().Hash

	require.NoError(t, cache.Set(ctx, p, time.Minute))

	cached, err := cache.Get(ctx, hash)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, p.ID, cached.ID)
	assert.Equal(t, hash, cached.Signature().Hash)

	hits, misses := cache.GetStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(0), misses)
}

func TestInMemoryPatternCache_Miss(t *testing.T) {
	cache := NewInMemoryPatternCache()
	defer cache.Close()

	cached, err := cache.Get(context.Background(), "no-such-hash")
	require.NoError(t, err)
	assert.Nil(t, cached)

	hits, misses := cache.GetStats()
	assert.Equal(t, int64(0), hits)
	assert.Equal(t, int64(1), misses)
}

func TestInMemoryPatternCache_Expiry(t *testing.T) {
	cache := NewInMemoryPatternCache()
	defer cache.Close()

	ctx := context.Background()
	p := newTestPattern(t, "What are your hours today?")

	require.NoError(t, cache.Set(ctx, p, 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	cached, err := cache.Get(ctx, p.Signature().Hash)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestInMemoryPatternCache_Delete(t *testing.T) {
	cache := NewInMemoryPatternCache()
	defer cache.Close()

	ctx := context.Background()
	p := newTestPattern(t, "Can I buy a gift card online?")

	require.NoError(t, cache.Set(ctx, p, time.Minute))
	require.NoError(t, cache.Delete(ctx, p.Signature().Hash))

	cached, err := cache.Get(ctx, p.Signature().Hash)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestInMemoryPatternCache_InvalidateAll(t *testing.T) {
	cache := NewInMemoryPatternCache()
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, newTestPattern(t, "Do you sell gift cards?"), time.Minute))
	require.NoError(t, cache.Set(ctx, newTestPattern(t, "Are gift cards available?"), time.Minute))
	assert.Equal(t, 2, cache.Count())

	require.NoError(t, cache.InvalidateAll(ctx))
	assert.Equal(t, 0, cache.Count())
}
