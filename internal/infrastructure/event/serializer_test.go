package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/conversation"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/identity"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
)

func newSerializerTestPattern(t *testing.T) *pattern.Pattern {
	t.Helper()
	template, derr := pattern.NewResponseTemplate("Yes, gift cards are on our website.")
	require.Nil(t, derr)
	p, derr := pattern.NewPattern("Do you sell gift cards?", pattern.TypeGiftCards, template, 0.60, uuid.New())
	require.Nil(t, derr)
	return p
}

func TestEventSerializer_RoundTrip(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	p := newSerializerTestPattern(t)
	original := pattern.NewConfidenceChangedEvent(p, 0.60, "feedback_accept")

	data, err := serializer.Serialize(original)
	require.NoError(t, err)

	restored, err := serializer.Deserialize(pattern.EventTypeConfidenceChanged, data)
	require.NoError(t, err)

	event, ok := restored.(*pattern.ConfidenceChangedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), event.EventID())
	assert.Equal(t, original.AggregateID(), event.AggregateID())
	assert.InDelta(t, 0.60, event.PreviousConfidence, 1e-9)
	assert.Equal(t, "feedback_accept", event.Cause)
}

func TestEventSerializer_UnknownEventType(t *testing.T) {
	serializer := NewEventSerializer()

	_, err := serializer.Deserialize("pattern.unknown", []byte(`{}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestEventSerializer_DeserializeInvalidJSON(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register(pattern.EventTypePatternCreated, &pattern.PatternCreatedEvent{})

	_, err := serializer.Deserialize(pattern.EventTypePatternCreated, []byte(`not json`))
	assert.Error(t, err)
}

func TestRegisterAllEvents(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	expected := []string{
		pattern.EventTypePatternCreated,
		pattern.EventTypePatternLearned,
		pattern.EventTypeConfidenceChanged,
		pattern.EventTypePatternPromoted,
		pattern.EventTypePatternDemoted,
		pattern.EventTypePatternActivated,
		pattern.EventTypePatternSuspended,
		pattern.EventTypePatternDeleted,
		pattern.EventTypeEngineToggled,
		pattern.EventTypeShadowModeChanged,
		pattern.EventTypeThresholdsChanged,
		conversation.EventTypeMessageReceived,
		conversation.EventTypeMessageAutoExecuted,
		conversation.EventTypeMessageQueued,
		conversation.EventTypeSuggestionCreated,
		conversation.EventTypeSuggestionResolved,
		conversation.EventTypeSuggestionExpired,
		identity.EventTypeOperatorCreated,
		identity.EventTypeOperatorStatusChanged,
		identity.EventTypeOperatorRoleChanged,
	}

	for _, eventType := range expected {
		assert.True(t, serializer.IsRegistered(eventType), "expected %s to be registered", eventType)
	}
	assert.Len(t, serializer.RegisteredTypes(), len(expected))
}
