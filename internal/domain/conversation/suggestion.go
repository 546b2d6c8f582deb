package conversation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// AggregateTypeSuggestion is the aggregate type identifier for suggestions
const AggregateTypeSuggestion = "Suggestion"

// SuggestionStatus tracks the lifecycle of a proposed response
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionAccepted SuggestionStatus = "accepted"
	SuggestionModified SuggestionStatus = "modified"
	SuggestionRejected SuggestionStatus = "rejected"
	SuggestionExpired  SuggestionStatus = "expired"
)

// DefaultSuggestionTTL is how long a suggestion waits for an operator
// before expiring
const DefaultSuggestionTTL = 30 * time.Minute

// Suggestion is a proposed response waiting for operator review.
// Its resolution feeds the pattern's confidence.
type Suggestion struct {
	shared.BaseAggregateRoot

	messageID    uuid.UUID
	patternID    uuid.UUID
	proposedBody string
	score        float64
	status       SuggestionStatus
	resolvedBy   *uuid.UUID
	resolvedAt   *time.Time
	finalBody    string
	rejectReason string
	expiresAt    time.Time
}

// NewSuggestion creates a pending suggestion for operator review
func NewSuggestion(messageID, patternID uuid.UUID, proposedBody string, score float64, ttl time.Duration) (*Suggestion, *shared.DomainError) {
	if messageID == uuid.Nil || patternID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "suggestion requires a message and a pattern")
	}
	if strings.TrimSpace(proposedBody) == "" {
		return nil, shared.NewDomainError("INVALID_BODY", "proposed response cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultSuggestionTTL
	}

	s := &Suggestion{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		messageID:         messageID,
		patternID:         patternID,
		proposedBody:      proposedBody,
		score:             score,
		status:            SuggestionPending,
		expiresAt:         time.Now().Add(ttl),
	}
	s.AddDomainEvent(NewSuggestionCreatedEvent(s))
	return s, nil
}

// MessageID returns the message the suggestion answers
func (s *Suggestion) MessageID() uuid.UUID { return s.messageID }

// PatternID returns the pattern that produced the suggestion
func (s *Suggestion) PatternID() uuid.UUID { return s.patternID }

// ProposedBody returns the rendered proposed response
func (s *Suggestion) ProposedBody() string { return s.proposedBody }

// Score returns the effective score at suggestion time
func (s *Suggestion) Score() float64 { return s.score }

// Status returns the suggestion status
func (s *Suggestion) Status() SuggestionStatus { return s.status }

// ResolvedBy returns the operator who resolved the suggestion, nil if open
func (s *Suggestion) ResolvedBy() *uuid.UUID { return s.resolvedBy }

// ResolvedAt returns when the suggestion was resolved, nil if open
func (s *Suggestion) ResolvedAt() *time.Time { return s.resolvedAt }

// FinalBody returns the response actually sent; for modified suggestions
// this differs from the proposal
func (s *Suggestion) FinalBody() string { return s.finalBody }

// RejectReason returns the optional operator note on rejection
func (s *Suggestion) RejectReason() string { return s.rejectReason }

// ExpiresAt returns the review deadline
func (s *Suggestion) ExpiresAt() time.Time { return s.expiresAt }

// IsOpen reports whether the suggestion still awaits an operator
func (s *Suggestion) IsOpen() bool {
	return s.status == SuggestionPending
}

// IsExpired reports whether the review deadline has passed
func (s *Suggestion) IsExpired(now time.Time) bool {
	return s.status == SuggestionPending && now.After(s.expiresAt)
}

// Accept resolves the suggestion: the operator sent the proposal as-is
func (s *Suggestion) Accept(operator uuid.UUID, now time.Time) *shared.DomainError {
	if err := s.ensureOpen(now); err != nil {
		return err
	}
	s.status = SuggestionAccepted
	s.finalBody = s.proposedBody
	s.resolve(operator, now)
	s.AddDomainEvent(NewSuggestionResolvedEvent(s, pattern.FeedbackAccept))
	return nil
}

// Modify resolves the suggestion: the operator edited the proposal
// before sending
func (s *Suggestion) Modify(operator uuid.UUID, finalBody string, now time.Time) *shared.DomainError {
	if err := s.ensureOpen(now); err != nil {
		return err
	}
	if strings.TrimSpace(finalBody) == "" {
		return shared.NewDomainError("INVALID_BODY", "modified response cannot be empty")
	}
	if finalBody == s.proposedBody {
		return shared.NewDomainError("NOT_MODIFIED", "modified response is identical to the proposal")
	}
	s.status = SuggestionModified
	s.finalBody = finalBody
	s.resolve(operator, now)
	s.AddDomainEvent(NewSuggestionResolvedEvent(s, pattern.FeedbackModify))
	return nil
}

// Reject resolves the suggestion: the operator discarded the proposal
func (s *Suggestion) Reject(operator uuid.UUID, reason string, now time.Time) *shared.DomainError {
	if err := s.ensureOpen(now); err != nil {
		return err
	}
	s.status = SuggestionRejected
	s.rejectReason = reason
	s.resolve(operator, now)
	s.AddDomainEvent(NewSuggestionResolvedEvent(s, pattern.FeedbackReject))
	return nil
}

// Expire closes an unreviewed suggestion past its deadline. Expiry is
// neutral: it produces no confidence feedback.
func (s *Suggestion) Expire(now time.Time) *shared.DomainError {
	if s.status != SuggestionPending {
		return shared.ErrInvalidState
	}
	if !now.After(s.expiresAt) {
		return shared.NewDomainError("NOT_EXPIRED", "suggestion has not reached its deadline")
	}
	s.status = SuggestionExpired
	s.UpdatedAt = now
	s.IncrementVersion()
	s.AddDomainEvent(NewSuggestionExpiredEvent(s))
	return nil
}

// FeedbackKind maps the resolution to the confidence feedback it implies,
// empty for unresolved or expired suggestions
func (s *Suggestion) FeedbackKind() pattern.FeedbackKind {
	switch s.status {
	case SuggestionAccepted:
		return pattern.FeedbackAccept
	case SuggestionModified:
		return pattern.FeedbackModify
	case SuggestionRejected:
		return pattern.FeedbackReject
	default:
		return ""
	}
}

func (s *Suggestion) ensureOpen(now time.Time) *shared.DomainError {
	if s.status != SuggestionPending {
		return shared.ErrInvalidState
	}
	if now.After(s.expiresAt) {
		return shared.NewDomainError("SUGGESTION_EXPIRED", "suggestion review deadline has passed")
	}
	return nil
}

func (s *Suggestion) resolve(operator uuid.UUID, now time.Time) {
	s.resolvedBy = &operator
	s.resolvedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()
}

// RestoreSuggestion rebuilds a suggestion from persisted state
func RestoreSuggestion(
	base shared.BaseAggregateRoot,
	messageID, patternID uuid.UUID,
	proposedBody string,
	score float64,
	status SuggestionStatus,
	resolvedBy *uuid.UUID,
	resolvedAt *time.Time,
	finalBody, rejectReason string,
	expiresAt time.Time,
) *Suggestion {
	return &Suggestion{
		BaseAggregateRoot: base,
		messageID:         messageID,
		patternID:         patternID,
		proposedBody:      proposedBody,
		score:             score,
		status:            status,
		resolvedBy:        resolvedBy,
		resolvedAt:        resolvedAt,
		finalBody:         finalBody,
		rejectReason:      rejectReason,
		expiresAt:         expiresAt,
	}
}
