package pattern

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// Confidence bounds. Confidence is clamped to [0,1] on every write.
const (
	ConfidenceMin = 0.0
	ConfidenceMax = 1.0
)

// Origin describes how a pattern entered the system
type Origin string

const (
	OriginManual  Origin = "manual"
	OriginLearned Origin = "learned"
)

// Pattern is the aggregate root for a learned or curated response pattern.
// It binds a message signature to a response template with a confidence
// score that moves with operator feedback and decays with disuse.
type Pattern struct {
	shared.BaseAggregateRoot

	signature      Signature
	patternType    PatternType
	status         PatternStatus
	origin         Origin
	template       ResponseTemplate
	confidence     float64
	autoExecutable bool
	triggerText    string

	timesMatched  int64
	timesAccepted int64
	timesModified int64
	timesRejected int64
	lastMatchedAt *time.Time
	lastFeedback  *time.Time
	atFloorSince  *time.Time

	createdBy uuid.UUID
	notes     string
}

// NewPattern creates an active, operator-curated pattern
func NewPattern(triggerText string, patternType PatternType, template ResponseTemplate, initialConfidence float64, createdBy uuid.UUID) (*Pattern, *shared.DomainError) {
	sig := ExtractSignature(triggerText)
	if sig.IsEmpty() {
		return nil, shared.NewDomainError("INVALID_TRIGGER", "trigger text is empty after normalization")
	}
	if !patternType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PATTERN_TYPE", "unknown pattern type: "+string(patternType))
	}
	if initialConfidence < ConfidenceMin || initialConfidence > ConfidenceMax {
		return nil, shared.NewDomainError("INVALID_CONFIDENCE", "initial confidence must be within [0,1]")
	}

	p := &Pattern{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		signature:         sig,
		patternType:       patternType,
		status:            StatusActive,
		origin:            OriginManual,
		template:          template,
		confidence:        initialConfidence,
		triggerText:       strings.TrimSpace(triggerText),
		createdBy:         createdBy,
	}
	p.AddDomainEvent(NewPatternCreatedEvent(p))
	return p, nil
}

// NewLearnedPattern creates an inactive pattern synthesized by the learner.
// Learned patterns never act until an operator activates them.
func NewLearnedPattern(triggerText string, patternType PatternType, template ResponseTemplate, initialConfidence float64, notes string) (*Pattern, *shared.DomainError) {
	p, err := NewPattern(triggerText, patternType, template, initialConfidence, uuid.Nil)
	if err != nil {
		return nil, err
	}
	p.status = StatusInactive
	p.origin = OriginLearned
	p.notes = notes
	p.ClearDomainEvents()
	p.AddDomainEvent(NewPatternLearnedEvent(p))
	return p, nil
}

// NewLearnedPatternFromCluster creates an inactive learned pattern keyed to
// an observed message signature. The learner mines clusters of real
// messages; the stored pattern has to carry the cluster's signature, not
// one re-derived from the synthesized trigger text, or it would never
// exact-match the messages it was learned from.
func NewLearnedPatternFromCluster(sig Signature, triggerText string, patternType PatternType, template ResponseTemplate, initialConfidence float64, notes string) (*Pattern, *shared.DomainError) {
	p, err := NewLearnedPattern(triggerText, patternType, template, initialConfidence, notes)
	if err != nil {
		return nil, err
	}
	if !sig.IsEmpty() {
		p.signature = sig
	}
	return p, nil
}

// Signature returns the pattern's message signature
func (p *Pattern) Signature() Signature { return p.signature }

// Type returns the pattern type
func (p *Pattern) Type() PatternType { return p.patternType }

// Status returns the lifecycle status
func (p *Pattern) Status() PatternStatus { return p.status }

// Origin returns how the pattern entered the system
func (p *Pattern) Origin() Origin { return p.origin }

// Template returns the response template
func (p *Pattern) Template() ResponseTemplate { return p.template }

// Confidence returns the current confidence score
func (p *Pattern) Confidence() float64 { return p.confidence }

// AutoExecutable reports whether an operator promoted the pattern for
// automatic execution. Confidence alone never flips this.
func (p *Pattern) AutoExecutable() bool { return p.autoExecutable }

// TriggerText returns the original trigger text the pattern was built from
func (p *Pattern) TriggerText() string { return p.triggerText }

// TimesMatched returns how many times the pattern matched a message
func (p *Pattern) TimesMatched() int64 { return p.timesMatched }

// TimesAccepted returns the accept feedback counter
func (p *Pattern) TimesAccepted() int64 { return p.timesAccepted }

// TimesModified returns the modify feedback counter
func (p *Pattern) TimesModified() int64 { return p.timesModified }

// TimesRejected returns the reject feedback counter
func (p *Pattern) TimesRejected() int64 { return p.timesRejected }

// LastMatchedAt returns when the pattern last matched, nil if never
func (p *Pattern) LastMatchedAt() *time.Time { return p.lastMatchedAt }

// LastFeedbackAt returns when the pattern last received feedback, nil if never
func (p *Pattern) LastFeedbackAt() *time.Time { return p.lastFeedback }

// AtFloorSince returns when decay first parked confidence at the floor,
// nil while the pattern is above it
func (p *Pattern) AtFloorSince() *time.Time { return p.atFloorSince }

// SuccessfulUses counts feedback that ended with the proposed response
// being sent (accepted as-is or sent after an operator edit)
func (p *Pattern) SuccessfulUses() int64 {
	return p.timesAccepted + p.timesModified
}

// CreatedBy returns the operator who created the pattern, uuid.Nil for learned
func (p *Pattern) CreatedBy() uuid.UUID { return p.createdBy }

// Notes returns free-form notes attached to the pattern
func (p *Pattern) Notes() string { return p.notes }

// IsMatchable reports whether the pattern participates in live matching
func (p *Pattern) IsMatchable() bool {
	return p.status == StatusActive
}

// RecordMatch increments the match counter and refreshes the match timestamp
func (p *Pattern) RecordMatch(now time.Time) {
	p.timesMatched++
	p.lastMatchedAt = &now
	p.atFloorSince = nil
	p.UpdatedAt = now
}

// ApplyFeedback adjusts confidence for the given feedback and updates the
// feedback counters. Confidence is clamped to [0,1]. A reject that drops
// a learned pattern to zero confidence suspends it.
func (p *Pattern) ApplyFeedback(kind FeedbackKind, policy FeedbackPolicy, now time.Time) *shared.DomainError {
	if p.status == StatusDeleted {
		return shared.ErrInvalidState
	}
	if !kind.IsValid() {
		return shared.NewDomainError("INVALID_FEEDBACK", "unknown feedback kind: "+string(kind))
	}

	previous := p.confidence
	p.confidence = clampConfidence(p.confidence + policy.Delta(kind))

	switch kind {
	case FeedbackAccept:
		p.timesAccepted++
	case FeedbackModify:
		p.timesModified++
	case FeedbackReject:
		p.timesRejected++
	}
	p.lastFeedback = &now
	p.atFloorSince = nil
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewConfidenceChangedEvent(p, previous, string(kind)))

	if kind == FeedbackAutoFailure && p.autoExecutable {
		p.demote("auto-execution failure")
	} else if p.confidence <= ConfidenceMin && p.autoExecutable {
		p.demote("confidence exhausted")
	}
	return nil
}

// ApplyDecay lowers confidence for disuse per the decay policy. Returns
// true when the decay pass changed the pattern. A promoted pattern that
// decays below the auto-execute threshold is demoted; a pattern that
// dwells at the decay floor past the suspension window is suspended.
func (p *Pattern) ApplyDecay(policy DecayPolicy, autoThreshold float64, now time.Time) bool {
	if p.status != StatusActive {
		return false
	}

	lastActivity := p.CreatedAt
	if p.lastMatchedAt != nil && p.lastMatchedAt.After(lastActivity) {
		lastActivity = *p.lastMatchedAt
	}
	if p.lastFeedback != nil && p.lastFeedback.After(lastActivity) {
		lastActivity = *p.lastFeedback
	}

	amount := policy.DecayAmount(lastActivity, now)
	if amount <= 0 {
		return false
	}

	changed := false
	previous := p.confidence
	p.confidence = clampConfidence(p.confidence - amount)
	if p.confidence < policy.Floor {
		p.confidence = policy.Floor
	}
	if p.confidence != previous {
		changed = true
		p.AddDomainEvent(NewConfidenceChangedEvent(p, previous, "decay"))
	}

	if p.autoExecutable && p.confidence < autoThreshold {
		p.demote("decayed below auto-execute threshold")
		changed = true
	}

	if p.confidence <= policy.Floor {
		if p.atFloorSince == nil {
			at := now
			p.atFloorSince = &at
			changed = true
		} else if policy.SuspendAfter > 0 && now.Sub(*p.atFloorSince) >= policy.SuspendAfter {
			p.Suspend("idle at decay floor")
			changed = true
		}
	} else if p.atFloorSince != nil {
		p.atFloorSince = nil
		changed = true
	}

	if changed && p.status == StatusActive {
		p.UpdatedAt = now
		p.IncrementVersion()
	}
	return changed
}

// Promote marks the pattern as auto-executable. Only active patterns
// qualify: confidence must meet the auto-execute threshold and the
// pattern needs enough successful uses behind it.
func (p *Pattern) Promote(autoThreshold float64, minExecutions int) *shared.DomainError {
	if p.status != StatusActive {
		return shared.ErrInvalidState
	}
	if p.confidence < autoThreshold {
		return shared.NewDomainError("CONFIDENCE_TOO_LOW", "confidence below auto-execute threshold")
	}
	if p.SuccessfulUses() < int64(minExecutions) {
		return shared.NewDomainError("INSUFFICIENT_HISTORY", "not enough successful uses for auto-execution")
	}
	if p.autoExecutable {
		return nil
	}
	p.autoExecutable = true
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(NewPatternPromotedEvent(p))
	return nil
}

// Demote revokes auto-execution
func (p *Pattern) Demote(reason string) {
	if !p.autoExecutable {
		return
	}
	p.demote(reason)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

func (p *Pattern) demote(reason string) {
	p.autoExecutable = false
	p.AddDomainEvent(NewPatternDemotedEvent(p, reason))
}

// Activate enables an inactive or suspended pattern for matching
func (p *Pattern) Activate() *shared.DomainError {
	switch p.status {
	case StatusActive:
		return nil
	case StatusInactive, StatusSuspended:
		p.status = StatusActive
		p.UpdatedAt = time.Now()
		p.IncrementVersion()
		p.AddDomainEvent(NewPatternActivatedEvent(p))
		return nil
	default:
		return shared.ErrInvalidState
	}
}

// Suspend parks the pattern; it stops matching but keeps its history
func (p *Pattern) Suspend(reason string) *shared.DomainError {
	if p.status == StatusDeleted {
		return shared.ErrInvalidState
	}
	if p.status == StatusSuspended {
		return nil
	}
	p.status = StatusSuspended
	p.autoExecutable = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(NewPatternSuspendedEvent(p, reason))
	return nil
}

// Delete soft-deletes the pattern
func (p *Pattern) Delete() *shared.DomainError {
	if p.status == StatusDeleted {
		return shared.ErrInvalidState
	}
	p.status = StatusDeleted
	p.autoExecutable = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(NewPatternDeletedEvent(p))
	return nil
}

// UpdateTemplate replaces the response template
func (p *Pattern) UpdateTemplate(template ResponseTemplate) *shared.DomainError {
	if p.status == StatusDeleted {
		return shared.ErrInvalidState
	}
	p.template = template
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// UpdateNotes replaces the free-form notes
func (p *Pattern) UpdateNotes(notes string) {
	p.notes = notes
	p.UpdatedAt = time.Now()
}

// AcceptanceRate returns accepted feedback as a fraction of all feedback,
// 0 when no feedback has been recorded
func (p *Pattern) AcceptanceRate() float64 {
	total := p.timesAccepted + p.timesModified + p.timesRejected
	if total == 0 {
		return 0
	}
	return float64(p.timesAccepted) / float64(total)
}

func clampConfidence(v float64) float64 {
	if v < ConfidenceMin {
		return ConfidenceMin
	}
	if v > ConfidenceMax {
		return ConfidenceMax
	}
	return v
}

// Restore rebuilds a pattern from persisted state. Used by the
// persistence layer only.
func Restore(
	base shared.BaseAggregateRoot,
	sig Signature,
	patternType PatternType,
	status PatternStatus,
	origin Origin,
	template ResponseTemplate,
	confidence float64,
	autoExecutable bool,
	triggerText string,
	timesMatched, timesAccepted, timesModified, timesRejected int64,
	lastMatchedAt, lastFeedback, atFloorSince *time.Time,
	createdBy uuid.UUID,
	notes string,
) *Pattern {
	return &Pattern{
		BaseAggregateRoot: base,
		signature:         sig,
		patternType:       patternType,
		status:            status,
		origin:            origin,
		template:          template,
		confidence:        clampConfidence(confidence),
		autoExecutable:    autoExecutable,
		triggerText:       triggerText,
		timesMatched:      timesMatched,
		timesAccepted:     timesAccepted,
		timesModified:     timesModified,
		timesRejected:     timesRejected,
		lastMatchedAt:     lastMatchedAt,
		lastFeedback:      lastFeedback,
		atFloorSince:      atFloorSince,
		createdBy:         createdBy,
		notes:             notes,
	}
}
