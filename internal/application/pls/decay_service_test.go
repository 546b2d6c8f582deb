package pls

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
)

func seedDecayPattern(t *testing.T, repo *fakePatternRepo, confidence float64, createdAgo time.Duration) *pattern.Pattern {
	t.Helper()
	template, derr := pattern.NewResponseTemplate("Our wifi password is on the wall by the bar.")
	require.Nil(t, derr)
	p, derr := pattern.NewPattern("what is the wifi password", pattern.TypeFAQ, template, confidence, uuid.New())
	require.Nil(t, derr)
	p.CreatedAt = time.Now().Add(-createdAgo)
	p.ClearDomainEvents()
	require.NoError(t, repo.Save(context.Background(), p))
	return p
}

func TestDecayService_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("idle pattern loses confidence past grace period", func(t *testing.T) {
		patterns := newFakePatternRepo()
		service := NewDecayService(patterns, &fakeConfigRepo{}, &fakePublisher{}, 100, zap.NewNop())

		// 17 days idle: 10 days past the 7-day grace at 0.01/day
		p := seedDecayPattern(t, patterns, 0.70, 17*24*time.Hour)

		report, err := service.Run(ctx, time.Now())
		require.NoError(t, err)

		assert.Equal(t, 1, report.Scanned)
		assert.Equal(t, 1, report.Decayed)
		assert.Zero(t, report.Suspended)
		assert.InDelta(t, 0.60, p.Confidence(), 1e-6)
		assert.Equal(t, pattern.StatusActive, p.Status())
	})

	t.Run("promoted pattern decaying below the auto threshold is demoted", func(t *testing.T) {
		patterns := newFakePatternRepo()
		service := NewDecayService(patterns, &fakeConfigRepo{}, &fakePublisher{}, 100, zap.NewNop())

		// 17 days idle drops 0.90 to 0.80, under the 0.85 auto band
		p := seedDecayPattern(t, patterns, 0.90, 17*24*time.Hour)
		require.Nil(t, p.Promote(0.85, 0))
		p.ClearDomainEvents()

		report, err := service.Run(ctx, time.Now())
		require.NoError(t, err)

		assert.Equal(t, 1, report.Decayed)
		assert.Equal(t, 1, report.Demoted)
		assert.InDelta(t, 0.80, p.Confidence(), 1e-6)
		assert.False(t, p.AutoExecutable())
		assert.Equal(t, pattern.StatusActive, p.Status())
	})

	t.Run("pattern idle at the floor is eventually suspended", func(t *testing.T) {
		patterns := newFakePatternRepo()
		service := NewDecayService(patterns, &fakeConfigRepo{}, &fakePublisher{}, 100, zap.NewNop())

		// Long enough idle to decay 0.40 down to the 0.30 floor
		p := seedDecayPattern(t, patterns, 0.40, 40*24*time.Hour)

		now := time.Now()
		report, err := service.Run(ctx, now)
		require.NoError(t, err)

		assert.Equal(t, 1, report.Decayed)
		assert.Zero(t, report.Suspended, "reaching the floor only starts the dwell clock")
		assert.InDelta(t, 0.30, p.Confidence(), 1e-6)
		assert.Equal(t, pattern.StatusActive, p.Status())

		// A later pass past the suspension window retires it
		report, err = service.Run(ctx, now.Add(15*24*time.Hour))
		require.NoError(t, err)

		assert.Equal(t, 1, report.Suspended)
		assert.Equal(t, pattern.StatusSuspended, p.Status())
	})

	t.Run("fresh patterns are untouched", func(t *testing.T) {
		patterns := newFakePatternRepo()
		service := NewDecayService(patterns, &fakeConfigRepo{}, &fakePublisher{}, 100, zap.NewNop())

		p := seedDecayPattern(t, patterns, 0.70, 2*24*time.Hour)

		report, err := service.Run(ctx, time.Now())
		require.NoError(t, err)

		assert.Zero(t, report.Decayed)
		assert.InDelta(t, 0.70, p.Confidence(), 1e-9)
	})

	t.Run("recent feedback resets the idle clock", func(t *testing.T) {
		patterns := newFakePatternRepo()
		configRepo := &fakeConfigRepo{}
		service := NewDecayService(patterns, configRepo, &fakePublisher{}, 100, zap.NewNop())

		p := seedDecayPattern(t, patterns, 0.70, 30*24*time.Hour)
		cfg, err := configRepo.Get(ctx)
		require.NoError(t, err)
		require.Nil(t, p.ApplyFeedback(pattern.FeedbackAccept, cfg.FeedbackPolicy(), time.Now()))
		p.ClearDomainEvents()

		report, err := service.Run(ctx, time.Now())
		require.NoError(t, err)
		assert.Zero(t, report.Decayed)
	})
}
