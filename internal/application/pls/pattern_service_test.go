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
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

type patternFixture struct {
	service  *PatternService
	patterns *fakePatternRepo
	config   *fakeConfigRepo
	audit    *fakeAuditRepo
}

func newPatternFixture(t *testing.T) *patternFixture {
	t.Helper()
	f := &patternFixture{
		patterns: newFakePatternRepo(),
		config:   &fakeConfigRepo{},
		audit:    &fakeAuditRepo{},
	}
	f.service = NewPatternService(f.patterns, f.config, f.audit, &fakePublisher{}, zap.NewNop())
	return f
}

func TestPatternService_CreatePattern(t *testing.T) {
	ctx := context.Background()
	operator := uuid.New()

	t.Run("creates active manual pattern", func(t *testing.T) {
		f := newPatternFixture(t)

		info, err := f.service.CreatePattern(ctx, CreatePatternInput{
			TriggerText:       "do you sell gift cards",
			PatternType:       pattern.TypeGiftCards,
			TemplateBody:      "Yes! Gift cards are available on our website.",
			InitialConfidence: 0.60,
			CreatedBy:         operator,
		})
		require.NoError(t, err)

		assert.Equal(t, pattern.StatusActive, info.Status)
		assert.Equal(t, pattern.OriginManual, info.Origin)
		assert.InDelta(t, 0.60, info.Confidence, 1e-9)
		assert.False(t, info.AutoExecutable)
	})

	t.Run("rejects duplicate trigger signature", func(t *testing.T) {
		f := newPatternFixture(t)

		input := CreatePatternInput{
			TriggerText:       "do you sell gift cards",
			PatternType:       pattern.TypeGiftCards,
			TemplateBody:      "Yes, on our website.",
			InitialConfidence: 0.60,
			CreatedBy:         operator,
		}
		_, err := f.service.CreatePattern(ctx, input)
		require.NoError(t, err)

		_, err = f.service.CreatePattern(ctx, input)
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "DUPLICATE_PATTERN", derr.Code)
	})

	t.Run("rejects invalid template", func(t *testing.T) {
		f := newPatternFixture(t)

		_, err := f.service.CreatePattern(ctx, CreatePatternInput{
			TriggerText:       "what are your hours",
			PatternType:       pattern.TypeHours,
			TemplateBody:      "We open at {{open_time.",
			InitialConfidence: 0.60,
			CreatedBy:         operator,
		})
		require.Error(t, err)
	})
}

func TestPatternService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	audit := AuditContext{Operator: uuid.New(), IPAddress: "10.0.0.8"}

	create := func(t *testing.T, f *patternFixture, confidence float64) *PatternInfo {
		t.Helper()
		info, err := f.service.CreatePattern(ctx, CreatePatternInput{
			TriggerText:       "what time do you close tonight",
			PatternType:       pattern.TypeHours,
			TemplateBody:      "We close at 11pm tonight.",
			InitialConfidence: confidence,
			CreatedBy:         audit.Operator,
		})
		require.NoError(t, err)
		return info
	}

	t.Run("suspend and reactivate", func(t *testing.T) {
		f := newPatternFixture(t)
		created := create(t, f, 0.70)

		suspended, err := f.service.SuspendPattern(ctx, created.ID, "seasonal hours changed", audit)
		require.NoError(t, err)
		assert.Equal(t, pattern.StatusSuspended, suspended.Status)

		activated, err := f.service.ActivatePattern(ctx, created.ID, audit)
		require.NoError(t, err)
		assert.Equal(t, pattern.StatusActive, activated.Status)

		require.Len(t, f.audit.entries, 2)
		assert.Equal(t, pattern.AuditPatternSuspended, f.audit.entries[0].Action)
		assert.Equal(t, pattern.AuditPatternActivated, f.audit.entries[1].Action)
	})

	t.Run("promote requires threshold confidence", func(t *testing.T) {
		f := newPatternFixture(t)
		low := create(t, f, 0.70)

		_, err := f.service.PromotePattern(ctx, low.ID, audit)
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "CONFIDENCE_TOO_LOW", derr.Code)
	})

	t.Run("promote requires execution history", func(t *testing.T) {
		f := newPatternFixture(t)
		created := create(t, f, 0.90)

		// Confident but never used: the default minimum of five
		// successful uses blocks auto-execution.
		_, err := f.service.PromotePattern(ctx, created.ID, audit)
		require.Error(t, err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INSUFFICIENT_HISTORY", derr.Code)

		cfg, err := f.config.Get(ctx)
		require.NoError(t, err)
		p, err := f.patterns.FindByID(ctx, created.ID)
		require.NoError(t, err)
		for i := 0; i < cfg.MinExecutionsForAuto(); i++ {
			require.Nil(t, p.ApplyFeedback(pattern.FeedbackAccept, cfg.FeedbackPolicy(), time.Now()))
		}
		p.ClearDomainEvents()

		promoted, err := f.service.PromotePattern(ctx, created.ID, audit)
		require.NoError(t, err)
		assert.True(t, promoted.AutoExecutable)
	})

	t.Run("promote and demote are audited", func(t *testing.T) {
		f := newPatternFixture(t)
		created := create(t, f, 0.90)

		cfg, err := f.config.Get(ctx)
		require.NoError(t, err)
		require.Nil(t, cfg.UpdateMinExecutionsForAuto(0, audit.Operator))

		promoted, err := f.service.PromotePattern(ctx, created.ID, audit)
		require.NoError(t, err)
		assert.True(t, promoted.AutoExecutable)

		demoted, err := f.service.DemotePattern(ctx, created.ID, "two customer complaints", audit)
		require.NoError(t, err)
		assert.False(t, demoted.AutoExecutable)

		require.Len(t, f.audit.entries, 2)
		assert.Equal(t, pattern.AuditPatternPromoted, f.audit.entries[0].Action)
		assert.Equal(t, pattern.AuditPatternDemoted, f.audit.entries[1].Action)
		assert.Equal(t, audit.Operator, *f.audit.entries[0].Operator)
	})

	t.Run("delete is terminal", func(t *testing.T) {
		f := newPatternFixture(t)
		created := create(t, f, 0.70)

		require.NoError(t, f.service.DeletePattern(ctx, created.ID))

		_, err := f.service.ActivatePattern(ctx, created.ID, audit)
		require.Error(t, err)
	})
}

func TestPatternService_UpdatePattern(t *testing.T) {
	ctx := context.Background()
	f := newPatternFixture(t)

	created, err := f.service.CreatePattern(ctx, CreatePatternInput{
		TriggerText:       "is there parking nearby",
		PatternType:       pattern.TypeFAQ,
		TemplateBody:      "Free parking is behind the building.",
		InitialConfidence: 0.60,
		CreatedBy:         uuid.New(),
	})
	require.NoError(t, err)

	body := "Free parking is behind the building, entrance off 4th Ave."
	notes := "updated after the lot moved"
	updated, err := f.service.UpdatePattern(ctx, UpdatePatternInput{
		PatternID:    created.ID,
		TemplateBody: &body,
		Notes:        &notes,
	})
	require.NoError(t, err)

	assert.Equal(t, body, updated.TemplateBody)
	assert.Equal(t, notes, updated.Notes)
}
