package event

import (
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/conversation"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/identity"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer *EventSerializer) {
	// Pattern lifecycle events
	serializer.Register(pattern.EventTypePatternCreated, &pattern.PatternCreatedEvent{})
	serializer.Register(pattern.EventTypePatternLearned, &pattern.PatternLearnedEvent{})
	serializer.Register(pattern.EventTypeConfidenceChanged, &pattern.ConfidenceChangedEvent{})
	serializer.Register(pattern.EventTypePatternPromoted, &pattern.PatternPromotedEvent{})
	serializer.Register(pattern.EventTypePatternDemoted, &pattern.PatternDemotedEvent{})
	serializer.Register(pattern.EventTypePatternActivated, &pattern.PatternActivatedEvent{})
	serializer.Register(pattern.EventTypePatternSuspended, &pattern.PatternSuspendedEvent{})
	serializer.Register(pattern.EventTypePatternDeleted, &pattern.PatternDeletedEvent{})

	// Engine configuration events
	serializer.Register(pattern.EventTypeEngineToggled, &pattern.EngineToggledEvent{})
	serializer.Register(pattern.EventTypeShadowModeChanged, &pattern.ShadowModeChangedEvent{})
	serializer.Register(pattern.EventTypeThresholdsChanged, &pattern.ThresholdsChangedEvent{})

	// Inbound message events
	serializer.Register(conversation.EventTypeMessageReceived, &conversation.MessageReceivedEvent{})
	serializer.Register(conversation.EventTypeMessageAutoExecuted, &conversation.MessageAutoExecutedEvent{})
	serializer.Register(conversation.EventTypeMessageQueued, &conversation.MessageQueuedEvent{})

	// Suggestion events
	serializer.Register(conversation.EventTypeSuggestionCreated, &conversation.SuggestionCreatedEvent{})
	serializer.Register(conversation.EventTypeSuggestionResolved, &conversation.SuggestionResolvedEvent{})
	serializer.Register(conversation.EventTypeSuggestionExpired, &conversation.SuggestionExpiredEvent{})

	// Operator events
	serializer.Register(identity.EventTypeOperatorCreated, &identity.OperatorCreatedEvent{})
	serializer.Register(identity.EventTypeOperatorStatusChanged, &identity.OperatorStatusChangedEvent{})
	serializer.Register(identity.EventTypeOperatorRoleChanged, &identity.OperatorRoleChangedEvent{})
}
