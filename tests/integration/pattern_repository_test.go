package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/persistence"
)

// TestMain runs before any tests and handles cleanup
func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

func mustTemplate(t *testing.T, body string) pattern.ResponseTemplate {
	t.Helper()
	tmpl, derr := pattern.NewResponseTemplate(body)
	require.Nil(t, derr)
	return tmpl
}

// TestPatternRepository_Integration tests the pattern repository against a real PostgreSQL database
func TestPatternRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormPatternRepository(testDB.DB)
	ctx := context.Background()
	operatorID := uuid.New()

	t.Run("Save and FindByID", func(t *testing.T) {
		p, derr := pattern.NewPattern(
			"do you sell gift cards",
			pattern.TypeGiftCards,
			mustTemplate(t, "Yes! Gift cards are available at clubhouse247golf.com/giftcard"),
			0.50,
			operatorID,
		)
		require.Nil(t, derr)

		require.NoError(t, repo.Save(ctx, p))

		found, err := repo.FindByID(ctx, p.GetID())
		require.NoError(t, err)
		assert.Equal(t, p.GetID(), found.GetID())
		assert.Equal(t, p.Signature().Hash, found.Signature().Hash)
		assert.Equal(t, pattern.TypeGiftCards, found.Type())
		assert.Equal(t, pattern.StatusActive, found.Status())
		assert.Equal(t, pattern.OriginManual, found.Origin())
		assert.InDelta(t, 0.50, found.Confidence(), 0.0001)
		assert.Equal(t, operatorID, found.CreatedBy())
	})

	t.Run("FindByID not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("FindBySignature", func(t *testing.T) {
		p, derr := pattern.NewPattern(
			"what are your hours on weekends",
			pattern.TypeHours,
			mustTemplate(t, "We're open 24/7, every day of the year."),
			0.60,
			operatorID,
		)
		require.Nil(t, derr)
		require.NoError(t, repo.Save(ctx, p))

		found, err := repo.FindBySignature(ctx, p.Signature().Hash)
		require.NoError(t, err)
		assert.Equal(t, p.GetID(), found.GetID())

		// A differently phrased message with the same normalized form
		// resolves to the same stored pattern.
		sig := pattern.ExtractSignature("What are your hours on weekends???")
		assert.Equal(t, p.Signature().Hash, sig.Hash)
	})

	t.Run("duplicate signature rejected", func(t *testing.T) {
		first, derr := pattern.NewPattern(
			"how do i book a simulator bay",
			pattern.TypeBooking,
			mustTemplate(t, "You can book through the ClubOS app."),
			0.55,
			operatorID,
		)
		require.Nil(t, derr)
		require.NoError(t, repo.Save(ctx, first))

		second, derr := pattern.NewPattern(
			"how do i book a simulator bay",
			pattern.TypeBooking,
			mustTemplate(t, "Use the app to book."),
			0.55,
			operatorID,
		)
		require.Nil(t, derr)
		assert.Error(t, repo.Save(ctx, second))
	})

	t.Run("FindCandidates filters by type and status", func(t *testing.T) {
		testDB.CleanTables()

		active, derr := pattern.NewPattern(
			"my door code is not working",
			pattern.TypeAccess,
			mustTemplate(t, "Try the code again, it resets on the hour."),
			0.70,
			operatorID,
		)
		require.Nil(t, derr)
		require.NoError(t, repo.Save(ctx, active))

		general, derr := pattern.NewPattern(
			"is there parking at the club",
			pattern.TypeGeneral,
			mustTemplate(t, "Free parking is available on site."),
			0.65,
			operatorID,
		)
		require.Nil(t, derr)
		require.NoError(t, repo.Save(ctx, general))

		learned, derr := pattern.NewLearnedPattern(
			"trackman screen is frozen",
			pattern.TypeAccess,
			mustTemplate(t, "A restart from the bay panel usually clears it."),
			0.40,
			"seen 6 times last week",
		)
		require.Nil(t, derr)
		require.NoError(t, repo.Save(ctx, learned))

		// Active only: same-typed and general patterns
		candidates, err := repo.FindCandidates(ctx, pattern.TypeAccess, false)
		require.NoError(t, err)
		require.Len(t, candidates, 2)
		for _, c := range candidates {
			assert.Equal(t, pattern.StatusActive, c.Status())
		}

		// Shadow evaluation includes the inactive learned pattern
		candidates, err = repo.FindCandidates(ctx, pattern.TypeAccess, true)
		require.NoError(t, err)
		assert.Len(t, candidates, 3)

		// A different type only sees the general pattern
		candidates, err = repo.FindCandidates(ctx, pattern.TypeMembership, false)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, pattern.TypeGeneral, candidates[0].Type())
	})

	t.Run("Update persists confidence and counters", func(t *testing.T) {
		p, derr := pattern.NewPattern(
			"can i bring guests to my membership",
			pattern.TypeMembership,
			mustTemplate(t, "Members can bring up to three guests per visit."),
			0.50,
			operatorID,
		)
		require.Nil(t, derr)
		require.NoError(t, repo.Save(ctx, p))

		now := time.Now()
		p.RecordMatch(now)
		require.NoError(t, repo.Update(ctx, p))

		found, err := repo.FindByID(ctx, p.GetID())
		require.NoError(t, err)
		assert.Equal(t, int64(1), found.TimesMatched())
		require.NotNil(t, found.LastMatchedAt())
	})

	t.Run("FindDecayable returns only idle active patterns", func(t *testing.T) {
		testDB.CleanTables()

		idle, derr := pattern.NewPattern(
			"do you have league nights",
			pattern.TypeFAQ,
			mustTemplate(t, "League play runs Tuesday and Thursday evenings."),
			0.60,
			operatorID,
		)
		require.Nil(t, derr)
		require.NoError(t, repo.Save(ctx, idle))

		recent, derr := pattern.NewPattern(
			"how much is a bay per hour",
			pattern.TypeFAQ,
			mustTemplate(t, "Bays are $40 per hour off-peak."),
			0.60,
			operatorID,
		)
		require.Nil(t, derr)
		recent.RecordMatch(time.Now())
		require.NoError(t, repo.Save(ctx, recent))

		decayable, err := repo.FindDecayable(ctx, time.Now().Add(time.Minute), 10)
		require.NoError(t, err)

		ids := make(map[uuid.UUID]bool, len(decayable))
		for _, d := range decayable {
			ids[d.GetID()] = true
		}
		assert.True(t, ids[idle.GetID()])
		assert.False(t, ids[recent.GetID()])
	})

	t.Run("FindAll with pagination", func(t *testing.T) {
		testDB.CleanTables()

		triggers := []string{
			"do you rent clubs",
			"can i reschedule my booking",
			"is food allowed in the bays",
		}
		for _, trigger := range triggers {
			p, derr := pattern.NewPattern(trigger, pattern.TypeFAQ,
				mustTemplate(t, "Happy to help with that."), 0.50, operatorID)
			require.Nil(t, derr)
			require.NoError(t, repo.Save(ctx, p))
		}

		filter := shared.DefaultFilter()
		filter.PageSize = 2
		page, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		assert.Len(t, page.Items, 2)
	})

	t.Run("CountByStatus", func(t *testing.T) {
		testDB.CleanTables()

		active, derr := pattern.NewPattern("where is the pro shop", pattern.TypeFAQ,
			mustTemplate(t, "The pro shop is by the front desk."), 0.50, operatorID)
		require.Nil(t, derr)
		require.NoError(t, repo.Save(ctx, active))

		learned, derr := pattern.NewLearnedPattern("wifi password for the lounge", pattern.TypeFAQ,
			mustTemplate(t, "The lounge network password is posted at the bar."), 0.35, "")
		require.Nil(t, derr)
		require.NoError(t, repo.Save(ctx, learned))

		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts[pattern.StatusActive])
		assert.Equal(t, int64(1), counts[pattern.StatusInactive])
	})

	t.Run("Delete", func(t *testing.T) {
		p, derr := pattern.NewPattern("lost and found inquiry", pattern.TypeGeneral,
			mustTemplate(t, "Check with the front desk for lost items."), 0.50, operatorID)
		require.Nil(t, derr)
		require.NoError(t, repo.Save(ctx, p))

		require.NoError(t, repo.Delete(ctx, p.GetID()))

		_, err := repo.FindByID(ctx, p.GetID())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// TestEngineConfigRepository_Integration verifies the configuration singleton
func TestEngineConfigRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormEngineConfigRepository(testDB.DB)
	ctx := context.Background()

	t.Run("Get creates default configuration on first access", func(t *testing.T) {
		cfg, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.True(t, cfg.Enabled())
		assert.True(t, cfg.ShadowMode())
	})

	t.Run("Update round-trips changes", func(t *testing.T) {
		cfg, err := repo.Get(ctx)
		require.NoError(t, err)

		operatorID := uuid.New()
		cfg.SetShadowMode(false, operatorID)
		require.NoError(t, repo.Update(ctx, cfg))

		reloaded, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.False(t, reloaded.ShadowMode())
		assert.Equal(t, operatorID, reloaded.UpdatedBy())
	})
}
