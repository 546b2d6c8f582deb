package llm

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubhousegolfcanada/clubos-pls/internal/application/pls"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	infraconfig "github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/config"
)

func TestNewGeminiLearner_Validation(t *testing.T) {
	t.Run("requires config", func(t *testing.T) {
		_, err := NewGeminiLearner(nil, nil)
		assert.ErrorContains(t, err, "configuration is required")
	})

	t.Run("requires api key", func(t *testing.T) {
		_, err := NewGeminiLearner(&infraconfig.LearnerConfig{}, nil)
		assert.ErrorContains(t, err, "API key is required")
	})
}

func TestBuildPrompt(t *testing.T) {
	candidate := pls.LearnCandidate{
		SignatureHash: "abc123",
		SampleMessages: []string{
			"do you sell gift cards",
			"can i buy a gift card online",
		},
		Count:     7,
		FirstSeen: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		LastSeen:  time.Date(2026, 8, 28, 18, 30, 0, 0, time.UTC),
	}

	prompt := buildPrompt(candidate)

	assert.Contains(t, prompt, "cluster of 7 similar customer messages")
	assert.Contains(t, prompt, "1. do you sell gift cards")
	assert.Contains(t, prompt, "2. can i buy a gift card online")
	for _, patternType := range pattern.AllPatternTypes() {
		assert.Contains(t, prompt, patternType.String())
	}
}

func TestParseDraft(t *testing.T) {
	t.Run("valid draft", func(t *testing.T) {
		draft, err := parseDraft(`{
			"trigger_text": "do you sell gift cards",
			"pattern_type": "gift_cards",
			"template_body": "Yes! Gift cards are available at {purchase_url}.",
			"confidence": 0.85,
			"rationale": "All samples ask about gift card availability."
		}`)
		require.NoError(t, err)

		assert.Equal(t, "do you sell gift cards", draft.TriggerText)
		assert.Equal(t, pattern.TypeGiftCards, draft.PatternType)
		assert.Equal(t, "Yes! Gift cards are available at {purchase_url}.", draft.TemplateBody)
		assert.InDelta(t, 0.85, draft.Confidence, 1e-9)
		assert.NotEmpty(t, draft.Rationale)
	})

	t.Run("unknown pattern type falls back to general", func(t *testing.T) {
		draft, err := parseDraft(`{
			"trigger_text": "t",
			"pattern_type": "pricing",
			"template_body": "b",
			"confidence": 0.5
		}`)
		require.NoError(t, err)
		assert.Equal(t, pattern.TypeGeneral, draft.PatternType)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, err := parseDraft(`not json`)
		assert.ErrorContains(t, err, "not valid JSON")
	})

	t.Run("rejects empty trigger text", func(t *testing.T) {
		_, err := parseDraft(`{"trigger_text":"  ","pattern_type":"faq","template_body":"b","confidence":0.5}`)
		assert.ErrorContains(t, err, "no trigger text")
	})

	t.Run("rejects empty template body", func(t *testing.T) {
		_, err := parseDraft(`{"trigger_text":"t","pattern_type":"faq","template_body":"","confidence":0.5}`)
		assert.ErrorContains(t, err, "no template body")
	})

	t.Run("rejects out of range confidence", func(t *testing.T) {
		_, err := parseDraft(`{"trigger_text":"t","pattern_type":"faq","template_body":"b","confidence":1.4}`)
		assert.ErrorContains(t, err, "out of range")
	})
}

func TestTokenCost(t *testing.T) {
	// 1M prompt tokens at $0.10/M plus 1M output tokens at $0.40/M
	cost := tokenCost(1_000_000, 1_000_000)
	assert.True(t, cost.Equal(decimal.RequireFromString("0.5")), cost.String())

	assert.True(t, tokenCost(0, 0).IsZero())
}
