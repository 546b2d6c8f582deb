package pattern

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatedMatch(t *testing.T, confidence float64, promoted bool) *Match {
	t.Helper()
	tpl, _ := NewResponseTemplate("resp")
	p, err := NewPattern("some trigger text", TypeFAQ, tpl, confidence, uuid.New())
	require.Nil(t, err)
	if promoted {
		require.Nil(t, p.Promote(0.0, 0))
	}
	return &Match{Pattern: p, MatchScore: 1.0, Exact: true}
}

func TestNewThresholds(t *testing.T) {
	t.Run("valid ordering", func(t *testing.T) {
		th, err := NewThresholds(0.85, 0.60, 0.40)
		assert.Nil(t, err)
		assert.Equal(t, 0.85, th.AutoExecute)
	})

	t.Run("rejects inverted ordering", func(t *testing.T) {
		_, err := NewThresholds(0.50, 0.60, 0.40)
		require.NotNil(t, err)
		assert.Equal(t, "INVALID_THRESHOLD", err.Code)
	})

	t.Run("rejects equal bands", func(t *testing.T) {
		_, err := NewThresholds(0.60, 0.60, 0.40)
		assert.NotNil(t, err)
	})

	t.Run("rejects out of range", func(t *testing.T) {
		_, err := NewThresholds(1.5, 0.60, 0.40)
		assert.NotNil(t, err)
	})
}

func TestGate_Decide(t *testing.T) {
	gate, err := NewGate(DefaultThresholds(), false)
	require.Nil(t, err)

	t.Run("high score with promoted pattern auto-executes", func(t *testing.T) {
		d := gate.Decide(gatedMatch(t, 0.90, true))
		assert.Equal(t, ActionAutoExecute, d.Action)
		assert.Equal(t, ReasonAutoExecute, d.Reason)
		assert.False(t, d.Shadowed)
	})

	t.Run("high score without promotion caps at suggest", func(t *testing.T) {
		d := gate.Decide(gatedMatch(t, 0.90, false))
		assert.Equal(t, ActionSuggest, d.Action)
		assert.Equal(t, ReasonNotPromoted, d.Reason)
	})

	t.Run("mid score suggests", func(t *testing.T) {
		d := gate.Decide(gatedMatch(t, 0.70, false))
		assert.Equal(t, ActionSuggest, d.Action)
		assert.Equal(t, ReasonSuggested, d.Reason)
	})

	t.Run("low score queues", func(t *testing.T) {
		d := gate.Decide(gatedMatch(t, 0.45, false))
		assert.Equal(t, ActionQueue, d.Action)
		assert.Equal(t, ReasonQueued, d.Reason)
	})

	t.Run("below queue band is shadow-logged, not actioned", func(t *testing.T) {
		d := gate.Decide(gatedMatch(t, 0.10, false))
		assert.Equal(t, ActionShadow, d.Action)
		assert.Equal(t, ReasonLowScore, d.Reason)
		assert.True(t, d.Shadowed)
		assert.Equal(t, ActionShadow, d.WouldBe)
		assert.NotNil(t, d.Pattern, "the near-miss pattern stays attached for the log")
	})

	t.Run("no match is shadow-logged for the learner", func(t *testing.T) {
		d := gate.Decide(nil)
		assert.Equal(t, ActionShadow, d.Action)
		assert.Equal(t, ReasonNoMatch, d.Reason)
		assert.True(t, d.Shadowed)
		assert.Nil(t, d.Pattern)
	})

	t.Run("inactive pattern only observes regardless of score", func(t *testing.T) {
		m := gatedMatch(t, 0.95, true)
		require.Nil(t, m.Pattern.Suspend("test"))
		d := gate.Decide(m)
		assert.Equal(t, ActionShadow, d.Action)
		assert.Equal(t, ReasonPatternInactive, d.Reason)
		assert.True(t, d.Shadowed)
	})

	t.Run("effective score drives banding", func(t *testing.T) {
		// similarity 0.7 x confidence 0.9 = 0.63: suggest band
		m := gatedMatch(t, 0.90, true)
		m.MatchScore = 0.7
		m.Exact = false
		d := gate.Decide(m)
		assert.Equal(t, ActionSuggest, d.Action)
	})
}

func TestGate_ShadowMode(t *testing.T) {
	gate, err := NewGate(DefaultThresholds(), true)
	require.Nil(t, err)

	t.Run("records would-be action without acting", func(t *testing.T) {
		d := gate.Decide(gatedMatch(t, 0.90, true))
		assert.Equal(t, ActionShadow, d.Action)
		assert.Equal(t, ReasonShadowMode, d.Reason)
		assert.True(t, d.Shadowed)
		assert.Equal(t, ActionAutoExecute, d.WouldBe)
	})

	t.Run("shadows even a no-match", func(t *testing.T) {
		d := gate.Decide(nil)
		assert.Equal(t, ActionShadow, d.Action)
		assert.Equal(t, ReasonNoMatch, d.Reason, "no-match keeps its own reason even in shadow mode")
		assert.Equal(t, ActionShadow, d.WouldBe)
	})
}

func TestGate_RejectsBadThresholds(t *testing.T) {
	_, err := NewGate(Thresholds{AutoExecute: 0.3, Suggest: 0.6, Queue: 0.4}, false)
	assert.NotNil(t, err)
}
