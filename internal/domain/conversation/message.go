package conversation

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// AggregateTypeMessage is the aggregate type identifier for inbound messages
const AggregateTypeMessage = "InboundMessage"

// Channel identifies where a customer message arrived from
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWeb      Channel = "web"
	ChannelEmail    Channel = "email"
	ChannelFacebook Channel = "facebook"
)

// IsValid returns true if the channel is a known value
func (c Channel) IsValid() bool {
	switch c {
	case ChannelSMS, ChannelWeb, ChannelEmail, ChannelFacebook:
		return true
	default:
		return false
	}
}

// MessageStatus tracks what the engine did with an inbound message
type MessageStatus string

const (
	MessageStatusReceived     MessageStatus = "received"
	MessageStatusAutoExecuted MessageStatus = "auto_executed"
	MessageStatusSuggested    MessageStatus = "suggested"
	MessageStatusQueued       MessageStatus = "queued"
	MessageStatusShadowLogged MessageStatus = "shadow_logged"
	MessageStatusFailed       MessageStatus = "failed"
)

// Maximum accepted message body length in bytes
const MaxBodyLength = 4096

// InboundMessage is a customer message as received from a channel,
// annotated with the engine's signature and routing outcome.
type InboundMessage struct {
	shared.BaseAggregateRoot

	channel       Channel
	sender        string
	body          string
	externalID    string
	signatureHash string
	detectedType  pattern.PatternType
	status        MessageStatus
	matchedID     *uuid.UUID
	matchScore    float64
	gateReason    pattern.GateReason
	autoResponse  string
	receivedAt    time.Time
}

// NewInboundMessage creates a message in received status. The external ID
// is the channel-side message identifier used for deduplication.
func NewInboundMessage(channel Channel, sender, body, externalID string) (*InboundMessage, *shared.DomainError) {
	if !channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "unknown channel: "+string(channel))
	}
	if strings.TrimSpace(sender) == "" {
		return nil, shared.NewDomainError("INVALID_SENDER", "sender cannot be empty")
	}
	if strings.TrimSpace(body) == "" {
		return nil, shared.NewDomainError("INVALID_BODY", "message body cannot be empty")
	}
	if len(body) > MaxBodyLength {
		return nil, shared.NewDomainError("BODY_TOO_LONG", "message body exceeds maximum length")
	}

	m := &InboundMessage{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		channel:           channel,
		sender:            strings.TrimSpace(sender),
		body:              body,
		externalID:        strings.TrimSpace(externalID),
		status:            MessageStatusReceived,
		receivedAt:        time.Now(),
	}
	m.AddDomainEvent(NewMessageReceivedEvent(m))
	return m, nil
}

// Channel returns the source channel
func (m *InboundMessage) Channel() Channel { return m.channel }

// Sender returns the channel-specific sender identifier
func (m *InboundMessage) Sender() string { return m.sender }

// Body returns the raw message body
func (m *InboundMessage) Body() string { return m.body }

// ExternalID returns the channel-side message identifier
func (m *InboundMessage) ExternalID() string { return m.externalID }

// SignatureHash returns the signature computed during classification
func (m *InboundMessage) SignatureHash() string { return m.signatureHash }

// DetectedType returns the pattern type inferred for the message
func (m *InboundMessage) DetectedType() pattern.PatternType { return m.detectedType }

// Status returns the routing status
func (m *InboundMessage) Status() MessageStatus { return m.status }

// MatchedPatternID returns the matched pattern, nil when nothing matched
func (m *InboundMessage) MatchedPatternID() *uuid.UUID { return m.matchedID }

// MatchScore returns the effective score of the match
func (m *InboundMessage) MatchScore() float64 { return m.matchScore }

// GateReason returns why the gate routed the message the way it did
func (m *InboundMessage) GateReason() pattern.GateReason { return m.gateReason }

// AutoResponse returns the rendered response for auto-executed messages
func (m *InboundMessage) AutoResponse() string { return m.autoResponse }

// ReceivedAt returns when the message arrived
func (m *InboundMessage) ReceivedAt() time.Time { return m.receivedAt }

// DedupeKey returns the idempotency key for this message. Channel plus
// external ID when the channel provides one, otherwise a hash of
// sender, body and arrival minute.
func (m *InboundMessage) DedupeKey() string {
	if m.externalID != "" {
		return string(m.channel) + ":" + m.externalID
	}
	sum := sha256.Sum256([]byte(string(m.channel) + "|" + m.sender + "|" + m.body + "|" +
		m.receivedAt.Truncate(time.Minute).Format(time.RFC3339)))
	return string(m.channel) + ":" + hex.EncodeToString(sum[:16])
}

// Classify records the signature and detected type computed by the engine
func (m *InboundMessage) Classify(signatureHash string, detectedType pattern.PatternType) {
	m.signatureHash = signatureHash
	m.detectedType = detectedType
	m.UpdatedAt = time.Now()
}

// MarkAutoExecuted records that the engine responded automatically
func (m *InboundMessage) MarkAutoExecuted(patternID uuid.UUID, score float64, response string) *shared.DomainError {
	if m.status != MessageStatusReceived {
		return shared.ErrInvalidState
	}
	m.status = MessageStatusAutoExecuted
	m.matchedID = &patternID
	m.matchScore = score
	m.gateReason = pattern.ReasonAutoExecute
	m.autoResponse = response
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
	m.AddDomainEvent(NewMessageAutoExecutedEvent(m, patternID, score))
	return nil
}

// MarkSuggested records that a suggestion was created for an operator
func (m *InboundMessage) MarkSuggested(patternID uuid.UUID, score float64, reason pattern.GateReason) *shared.DomainError {
	if m.status != MessageStatusReceived {
		return shared.ErrInvalidState
	}
	m.status = MessageStatusSuggested
	m.matchedID = &patternID
	m.matchScore = score
	m.gateReason = reason
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
	return nil
}

// MarkQueued records that the message fell through to the human queue
func (m *InboundMessage) MarkQueued(patternID *uuid.UUID, score float64, reason pattern.GateReason) *shared.DomainError {
	if m.status != MessageStatusReceived {
		return shared.ErrInvalidState
	}
	m.status = MessageStatusQueued
	m.matchedID = patternID
	m.matchScore = score
	m.gateReason = reason
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
	m.AddDomainEvent(NewMessageQueuedEvent(m, reason))
	return nil
}

// MarkShadowLogged records that the engine only observed the message.
// The reason keeps shadow-mode observations distinguishable from
// below-queue scores, engine-disabled drops and no-match misses.
func (m *InboundMessage) MarkShadowLogged(patternID *uuid.UUID, score float64, reason pattern.GateReason) *shared.DomainError {
	if m.status != MessageStatusReceived {
		return shared.ErrInvalidState
	}
	m.status = MessageStatusShadowLogged
	m.matchedID = patternID
	m.matchScore = score
	m.gateReason = reason
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
	return nil
}

// MarkFailed records a processing failure
func (m *InboundMessage) MarkFailed(reason pattern.GateReason) {
	m.status = MessageStatusFailed
	m.gateReason = reason
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
}

// RestoreMessage rebuilds a message from persisted state
func RestoreMessage(
	base shared.BaseAggregateRoot,
	channel Channel,
	sender, body, externalID, signatureHash string,
	detectedType pattern.PatternType,
	status MessageStatus,
	matchedID *uuid.UUID,
	matchScore float64,
	gateReason pattern.GateReason,
	autoResponse string,
	receivedAt time.Time,
) *InboundMessage {
	return &InboundMessage{
		BaseAggregateRoot: base,
		channel:           channel,
		sender:            sender,
		body:              body,
		externalID:        externalID,
		signatureHash:     signatureHash,
		detectedType:      detectedType,
		status:            status,
		matchedID:         matchedID,
		matchScore:        matchScore,
		gateReason:        gateReason,
		autoResponse:      autoResponse,
		receivedAt:        receivedAt,
	}
}
