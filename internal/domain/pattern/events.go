package pattern

import (
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// Event type constants for the pattern domain
const (
	EventTypePatternCreated    = "pattern.created"
	EventTypePatternLearned    = "pattern.learned"
	EventTypeConfidenceChanged = "pattern.confidence_changed"
	EventTypePatternPromoted   = "pattern.promoted"
	EventTypePatternDemoted    = "pattern.demoted"
	EventTypePatternActivated  = "pattern.activated"
	EventTypePatternSuspended  = "pattern.suspended"
	EventTypePatternDeleted    = "pattern.deleted"
	EventTypeEngineToggled     = "engine.toggled"
	EventTypeShadowModeChanged = "engine.shadow_mode_changed"
	EventTypeThresholdsChanged = "engine.thresholds_changed"
)

// PatternCreatedEvent is published when an operator creates a pattern
type PatternCreatedEvent struct {
	shared.BaseDomainEvent
	SignatureHash string      `json:"signature_hash"`
	PatternType   PatternType `json:"pattern_type"`
	Confidence    float64     `json:"confidence"`
}

// NewPatternCreatedEvent creates a new pattern created event
func NewPatternCreatedEvent(p *Pattern) *PatternCreatedEvent {
	return &PatternCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePatternCreated, AggregateTypePattern, p.GetID()),
		SignatureHash:   p.Signature().Hash,
		PatternType:     p.Type(),
		Confidence:      p.Confidence(),
	}
}

// PatternLearnedEvent is published when the learner synthesizes a pattern
type PatternLearnedEvent struct {
	shared.BaseDomainEvent
	SignatureHash string      `json:"signature_hash"`
	PatternType   PatternType `json:"pattern_type"`
	Confidence    float64     `json:"confidence"`
}

// NewPatternLearnedEvent creates a new pattern learned event
func NewPatternLearnedEvent(p *Pattern) *PatternLearnedEvent {
	return &PatternLearnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePatternLearned, AggregateTypePattern, p.GetID()),
		SignatureHash:   p.Signature().Hash,
		PatternType:     p.Type(),
		Confidence:      p.Confidence(),
	}
}

// ConfidenceChangedEvent is published whenever a pattern's confidence moves
type ConfidenceChangedEvent struct {
	shared.BaseDomainEvent
	PreviousConfidence float64 `json:"previous_confidence"`
	NewConfidence      float64 `json:"new_confidence"`
	Cause              string  `json:"cause"`
}

// NewConfidenceChangedEvent creates a new confidence changed event
func NewConfidenceChangedEvent(p *Pattern, previous float64, cause string) *ConfidenceChangedEvent {
	return &ConfidenceChangedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeConfidenceChanged, AggregateTypePattern, p.GetID()),
		PreviousConfidence: previous,
		NewConfidence:      p.Confidence(),
		Cause:              cause,
	}
}

// PatternPromotedEvent is published when a pattern becomes auto-executable
type PatternPromotedEvent struct {
	shared.BaseDomainEvent
	Confidence float64 `json:"confidence"`
}

// NewPatternPromotedEvent creates a new pattern promoted event
func NewPatternPromotedEvent(p *Pattern) *PatternPromotedEvent {
	return &PatternPromotedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePatternPromoted, AggregateTypePattern, p.GetID()),
		Confidence:      p.Confidence(),
	}
}

// PatternDemotedEvent is published when auto-execution is revoked
type PatternDemotedEvent struct {
	shared.BaseDomainEvent
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// NewPatternDemotedEvent creates a new pattern demoted event
func NewPatternDemotedEvent(p *Pattern, reason string) *PatternDemotedEvent {
	return &PatternDemotedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePatternDemoted, AggregateTypePattern, p.GetID()),
		Confidence:      p.Confidence(),
		Reason:          reason,
	}
}

// PatternActivatedEvent is published when a pattern is enabled for matching
type PatternActivatedEvent struct {
	shared.BaseDomainEvent
	PatternType PatternType `json:"pattern_type"`
}

// NewPatternActivatedEvent creates a new pattern activated event
func NewPatternActivatedEvent(p *Pattern) *PatternActivatedEvent {
	return &PatternActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePatternActivated, AggregateTypePattern, p.GetID()),
		PatternType:     p.Type(),
	}
}

// PatternSuspendedEvent is published when a pattern is parked
type PatternSuspendedEvent struct {
	shared.BaseDomainEvent
	Reason string `json:"reason"`
}

// NewPatternSuspendedEvent creates a new pattern suspended event
func NewPatternSuspendedEvent(p *Pattern, reason string) *PatternSuspendedEvent {
	return &PatternSuspendedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePatternSuspended, AggregateTypePattern, p.GetID()),
		Reason:          reason,
	}
}

// PatternDeletedEvent is published when a pattern is soft-deleted
type PatternDeletedEvent struct {
	shared.BaseDomainEvent
}

// NewPatternDeletedEvent creates a new pattern deleted event
func NewPatternDeletedEvent(p *Pattern) *PatternDeletedEvent {
	return &PatternDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePatternDeleted, AggregateTypePattern, p.GetID()),
	}
}

// EngineToggledEvent is published when the engine kill switch flips
type EngineToggledEvent struct {
	shared.BaseDomainEvent
	Enabled bool `json:"enabled"`
}

// NewEngineToggledEvent creates a new engine toggled event
func NewEngineToggledEvent(c *EngineConfig, enabled bool) *EngineToggledEvent {
	return &EngineToggledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEngineToggled, AggregateTypeEngineConfig, c.GetID()),
		Enabled:         enabled,
	}
}

// ShadowModeChangedEvent is published when shadow mode flips
type ShadowModeChangedEvent struct {
	shared.BaseDomainEvent
	ShadowMode bool `json:"shadow_mode"`
}

// NewShadowModeChangedEvent creates a new shadow mode changed event
func NewShadowModeChangedEvent(c *EngineConfig, shadow bool) *ShadowModeChangedEvent {
	return &ShadowModeChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShadowModeChanged, AggregateTypeEngineConfig, c.GetID()),
		ShadowMode:      shadow,
	}
}

// ThresholdsChangedEvent is published when the gate bands change
type ThresholdsChangedEvent struct {
	shared.BaseDomainEvent
	Previous Thresholds `json:"previous"`
	Current  Thresholds `json:"current"`
}

// NewThresholdsChangedEvent creates a new thresholds changed event
func NewThresholdsChangedEvent(c *EngineConfig, previous, current Thresholds) *ThresholdsChangedEvent {
	return &ThresholdsChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeThresholdsChanged, AggregateTypeEngineConfig, c.GetID()),
		Previous:        previous,
		Current:         current,
	}
}
