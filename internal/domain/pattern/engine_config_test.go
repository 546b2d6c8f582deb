package pattern

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineConfig(t *testing.T) {
	c := NewEngineConfig()

	assert.True(t, c.Enabled())
	assert.True(t, c.ShadowMode(), "new deployments start in shadow mode")
	assert.Equal(t, DefaultThresholds(), c.Thresholds())
	assert.Equal(t, DefaultFeedbackPolicy(), c.FeedbackPolicy())
	assert.Equal(t, DefaultDecayPolicy(), c.DecayPolicy())
	assert.Equal(t, DefaultSuggestionTTL, c.SuggestionTTL())
	assert.True(t, c.LearnerEnabled())
	assert.Equal(t, DefaultMinExecutionsForAuto, c.MinExecutionsForAuto())
	assert.Equal(t, 1, c.GetVersion())
}

func TestEngineConfig_SetEnabled(t *testing.T) {
	operator := uuid.New()

	t.Run("disable publishes event and bumps version", func(t *testing.T) {
		c := NewEngineConfig()
		c.SetEnabled(false, operator)
		assert.False(t, c.Enabled())
		assert.Equal(t, operator, c.UpdatedBy())
		assert.Equal(t, 2, c.GetVersion())
		require.Len(t, c.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeEngineToggled, c.GetDomainEvents()[0].EventType())
	})

	t.Run("no-op when unchanged", func(t *testing.T) {
		c := NewEngineConfig()
		c.SetEnabled(true, operator)
		assert.Equal(t, 1, c.GetVersion())
		assert.Empty(t, c.GetDomainEvents())
	})
}

func TestEngineConfig_SetShadowMode(t *testing.T) {
	c := NewEngineConfig()
	operator := uuid.New()

	c.SetShadowMode(false, operator)
	assert.False(t, c.ShadowMode())
	require.Len(t, c.GetDomainEvents(), 1)
	evt, ok := c.GetDomainEvents()[0].(*ShadowModeChangedEvent)
	require.True(t, ok)
	assert.False(t, evt.ShadowMode)
}

func TestEngineConfig_UpdateThresholds(t *testing.T) {
	operator := uuid.New()

	t.Run("valid update", func(t *testing.T) {
		c := NewEngineConfig()
		th, _ := NewThresholds(0.90, 0.70, 0.50)
		assert.Nil(t, c.UpdateThresholds(th, operator))
		assert.Equal(t, th, c.Thresholds())
		require.Len(t, c.GetDomainEvents(), 1)
		evt := c.GetDomainEvents()[0].(*ThresholdsChangedEvent)
		assert.Equal(t, DefaultThresholds(), evt.Previous)
		assert.Equal(t, th, evt.Current)
	})

	t.Run("invalid ordering rejected without change", func(t *testing.T) {
		c := NewEngineConfig()
		err := c.UpdateThresholds(Thresholds{AutoExecute: 0.4, Suggest: 0.6, Queue: 0.5}, operator)
		require.NotNil(t, err)
		assert.Equal(t, DefaultThresholds(), c.Thresholds())
		assert.Equal(t, 1, c.GetVersion())
	})
}

func TestEngineConfig_UpdateFeedbackPolicy(t *testing.T) {
	c := NewEngineConfig()
	operator := uuid.New()

	t.Run("rejects positive reject delta", func(t *testing.T) {
		p := DefaultFeedbackPolicy()
		p.RejectDelta = 0.05
		err := c.UpdateFeedbackPolicy(p, operator)
		require.NotNil(t, err)
		assert.Equal(t, "INVALID_POLICY", err.Code)
	})

	t.Run("rejects negative accept delta", func(t *testing.T) {
		p := DefaultFeedbackPolicy()
		p.AcceptDelta = -0.05
		assert.NotNil(t, c.UpdateFeedbackPolicy(p, operator))
	})

	t.Run("valid update", func(t *testing.T) {
		p := DefaultFeedbackPolicy()
		p.AcceptDelta = 0.08
		assert.Nil(t, c.UpdateFeedbackPolicy(p, operator))
		assert.Equal(t, 0.08, c.FeedbackPolicy().AcceptDelta)
	})
}

func TestEngineConfig_UpdateDecayPolicy(t *testing.T) {
	c := NewEngineConfig()
	operator := uuid.New()

	t.Run("rejects out of range rate", func(t *testing.T) {
		p := DefaultDecayPolicy()
		p.RatePerDay = 1.5
		assert.NotNil(t, c.UpdateDecayPolicy(p, operator))
	})

	t.Run("rejects negative grace period", func(t *testing.T) {
		p := DefaultDecayPolicy()
		p.GracePeriod = -time.Hour
		assert.NotNil(t, c.UpdateDecayPolicy(p, operator))
	})

	t.Run("rejects negative suspension window", func(t *testing.T) {
		p := DefaultDecayPolicy()
		p.SuspendAfter = -time.Hour
		assert.NotNil(t, c.UpdateDecayPolicy(p, operator))
	})

	t.Run("valid update", func(t *testing.T) {
		p := DefaultDecayPolicy()
		p.Floor = 0.25
		p.SuspendAfter = 21 * 24 * time.Hour
		assert.Nil(t, c.UpdateDecayPolicy(p, operator))
		assert.Equal(t, 0.25, c.DecayPolicy().Floor)
		assert.Equal(t, 21*24*time.Hour, c.DecayPolicy().SuspendAfter)
	})
}

func TestEngineConfig_UpdateSuggestionTTL(t *testing.T) {
	operator := uuid.New()

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		c := NewEngineConfig()
		err := c.UpdateSuggestionTTL(0, operator)
		require.NotNil(t, err)
		assert.Equal(t, "INVALID_POLICY", err.Code)
		assert.Equal(t, DefaultSuggestionTTL, c.SuggestionTTL())
	})

	t.Run("valid update bumps version", func(t *testing.T) {
		c := NewEngineConfig()
		assert.Nil(t, c.UpdateSuggestionTTL(time.Hour, operator))
		assert.Equal(t, time.Hour, c.SuggestionTTL())
		assert.Equal(t, 2, c.GetVersion())
	})
}

func TestEngineConfig_SetLearnerEnabled(t *testing.T) {
	operator := uuid.New()

	t.Run("disable", func(t *testing.T) {
		c := NewEngineConfig()
		c.SetLearnerEnabled(false, operator)
		assert.False(t, c.LearnerEnabled())
		assert.Equal(t, 2, c.GetVersion())
	})

	t.Run("no-op when unchanged", func(t *testing.T) {
		c := NewEngineConfig()
		c.SetLearnerEnabled(true, operator)
		assert.Equal(t, 1, c.GetVersion())
	})
}

func TestEngineConfig_UpdateMinExecutionsForAuto(t *testing.T) {
	operator := uuid.New()

	t.Run("rejects negative count", func(t *testing.T) {
		c := NewEngineConfig()
		err := c.UpdateMinExecutionsForAuto(-1, operator)
		require.NotNil(t, err)
		assert.Equal(t, "INVALID_POLICY", err.Code)
	})

	t.Run("zero disables the history guard", func(t *testing.T) {
		c := NewEngineConfig()
		assert.Nil(t, c.UpdateMinExecutionsForAuto(0, operator))
		assert.Equal(t, 0, c.MinExecutionsForAuto())
	})

	t.Run("valid update", func(t *testing.T) {
		c := NewEngineConfig()
		assert.Nil(t, c.UpdateMinExecutionsForAuto(10, operator))
		assert.Equal(t, 10, c.MinExecutionsForAuto())
		assert.Equal(t, 2, c.GetVersion())
	})
}

func TestNewConfigAuditLog(t *testing.T) {
	operator := uuid.New()

	t.Run("valid entry", func(t *testing.T) {
		entry, err := NewConfigAuditLog(
			AuditThresholdsChanged,
			map[string]any{"auto_execute": 0.85},
			map[string]any{"auto_execute": 0.90},
			&operator,
			"10.0.0.5",
			"clubos-admin/2.1",
		)
		require.NoError(t, err)
		assert.Equal(t, AuditThresholdsChanged, entry.GetAction())
		assert.Equal(t, 0.85, entry.GetOldValue()["auto_execute"])
		assert.Equal(t, 0.90, entry.GetNewValue()["auto_execute"])
		assert.Equal(t, &operator, entry.GetOperator())
		assert.Equal(t, "10.0.0.5", entry.GetIPAddress())
	})

	t.Run("invalid action rejected", func(t *testing.T) {
		_, err := NewConfigAuditLog(AuditAction("bogus"), nil, nil, nil, "", "")
		assert.Error(t, err)
	})

	t.Run("value getters return copies", func(t *testing.T) {
		entry, _ := NewConfigAuditLog(AuditEngineDisabled, map[string]any{"enabled": true}, nil, nil, "", "")
		copy := entry.GetOldValue()
		copy["enabled"] = false
		assert.Equal(t, true, entry.GetOldValue()["enabled"])
	})
}
