package conversation

import (
	"github.com/google/uuid"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// Event type constants for the conversation domain
const (
	EventTypeMessageReceived     = "message.received"
	EventTypeMessageAutoExecuted = "message.auto_executed"
	EventTypeMessageQueued       = "message.queued"
	EventTypeSuggestionCreated   = "suggestion.created"
	EventTypeSuggestionResolved  = "suggestion.resolved"
	EventTypeSuggestionExpired   = "suggestion.expired"
)

// MessageReceivedEvent is published when a customer message arrives
type MessageReceivedEvent struct {
	shared.BaseDomainEvent
	Channel Channel `json:"channel"`
	Sender  string  `json:"sender"`
}

// NewMessageReceivedEvent creates a new message received event
func NewMessageReceivedEvent(m *InboundMessage) *MessageReceivedEvent {
	return &MessageReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMessageReceived, AggregateTypeMessage, m.GetID()),
		Channel:         m.Channel(),
		Sender:          m.Sender(),
	}
}

// MessageAutoExecutedEvent is published when the engine responds automatically
type MessageAutoExecutedEvent struct {
	shared.BaseDomainEvent
	PatternID uuid.UUID `json:"pattern_id"`
	Score     float64   `json:"score"`
}

// NewMessageAutoExecutedEvent creates a new message auto-executed event
func NewMessageAutoExecutedEvent(m *InboundMessage, patternID uuid.UUID, score float64) *MessageAutoExecutedEvent {
	return &MessageAutoExecutedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMessageAutoExecuted, AggregateTypeMessage, m.GetID()),
		PatternID:       patternID,
		Score:           score,
	}
}

// MessageQueuedEvent is published when a message falls through to a human
type MessageQueuedEvent struct {
	shared.BaseDomainEvent
	Reason pattern.GateReason `json:"reason"`
}

// NewMessageQueuedEvent creates a new message queued event
func NewMessageQueuedEvent(m *InboundMessage, reason pattern.GateReason) *MessageQueuedEvent {
	return &MessageQueuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMessageQueued, AggregateTypeMessage, m.GetID()),
		Reason:          reason,
	}
}

// SuggestionCreatedEvent is published when a suggestion awaits review
type SuggestionCreatedEvent struct {
	shared.BaseDomainEvent
	MessageID uuid.UUID `json:"message_id"`
	PatternID uuid.UUID `json:"pattern_id"`
	Score     float64   `json:"score"`
}

// NewSuggestionCreatedEvent creates a new suggestion created event
func NewSuggestionCreatedEvent(s *Suggestion) *SuggestionCreatedEvent {
	return &SuggestionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSuggestionCreated, AggregateTypeSuggestion, s.GetID()),
		MessageID:       s.MessageID(),
		PatternID:       s.PatternID(),
		Score:           s.Score(),
	}
}

// SuggestionResolvedEvent is published when an operator resolves a
// suggestion. Confidence feedback handlers subscribe to this event.
type SuggestionResolvedEvent struct {
	shared.BaseDomainEvent
	PatternID uuid.UUID            `json:"pattern_id"`
	Feedback  pattern.FeedbackKind `json:"feedback"`
	Operator  *uuid.UUID           `json:"operator_id,omitempty"`
}

// NewSuggestionResolvedEvent creates a new suggestion resolved event
func NewSuggestionResolvedEvent(s *Suggestion, feedback pattern.FeedbackKind) *SuggestionResolvedEvent {
	return &SuggestionResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSuggestionResolved, AggregateTypeSuggestion, s.GetID()),
		PatternID:       s.PatternID(),
		Feedback:        feedback,
		Operator:        s.ResolvedBy(),
	}
}

// SuggestionExpiredEvent is published when a suggestion times out
type SuggestionExpiredEvent struct {
	shared.BaseDomainEvent
	PatternID uuid.UUID `json:"pattern_id"`
}

// NewSuggestionExpiredEvent creates a new suggestion expired event
func NewSuggestionExpiredEvent(s *Suggestion) *SuggestionExpiredEvent {
	return &SuggestionExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSuggestionExpired, AggregateTypeSuggestion, s.GetID()),
		PatternID:       s.PatternID(),
	}
}
