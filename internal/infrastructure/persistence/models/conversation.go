package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/conversation"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
)

// InboundMessageModel is the persistence model for the InboundMessage aggregate root.
type InboundMessageModel struct {
	AggregateModel
	Channel          conversation.Channel       `gorm:"type:varchar(20);not null;index"`
	Sender           string                     `gorm:"type:varchar(200);not null;index"`
	Body             string                     `gorm:"type:text;not null"`
	ExternalID       string                     `gorm:"type:varchar(200);index"`
	SignatureHash    string                     `gorm:"type:varchar(64);index"`
	DetectedType     pattern.PatternType        `gorm:"type:varchar(20)"`
	Status           conversation.MessageStatus `gorm:"type:varchar(20);not null;index"`
	MatchedPatternID *uuid.UUID                 `gorm:"type:uuid;index"`
	MatchScore       float64                    `gorm:"not null;default:0"`
	GateReason       pattern.GateReason         `gorm:"type:varchar(30)"`
	AutoResponse     string                     `gorm:"type:text"`
	ReceivedAt       time.Time                  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (InboundMessageModel) TableName() string {
	return "inbound_messages"
}

// ToDomain converts the persistence model to a domain InboundMessage aggregate.
func (m *InboundMessageModel) ToDomain() *conversation.InboundMessage {
	return conversation.RestoreMessage(
		m.ToDomainAggregateRoot(),
		m.Channel,
		m.Sender, m.Body, m.ExternalID, m.SignatureHash,
		m.DetectedType,
		m.Status,
		m.MatchedPatternID,
		m.MatchScore,
		m.GateReason,
		m.AutoResponse,
		m.ReceivedAt,
	)
}

// FromDomain populates the persistence model from a domain InboundMessage aggregate.
func (m *InboundMessageModel) FromDomain(msg *conversation.InboundMessage) {
	m.FromDomainAggregateRoot(msg.BaseAggregateRoot)
	m.Channel = msg.Channel()
	m.Sender = msg.Sender()
	m.Body = msg.Body()
	m.ExternalID = msg.ExternalID()
	m.SignatureHash = msg.SignatureHash()
	m.DetectedType = msg.DetectedType()
	m.Status = msg.Status()
	m.MatchedPatternID = msg.MatchedPatternID()
	m.MatchScore = msg.MatchScore()
	m.GateReason = msg.GateReason()
	m.AutoResponse = msg.AutoResponse()
	m.ReceivedAt = msg.ReceivedAt()
}

// InboundMessageModelFromDomain creates a new persistence model from a domain InboundMessage aggregate.
func InboundMessageModelFromDomain(msg *conversation.InboundMessage) *InboundMessageModel {
	m := &InboundMessageModel{}
	m.FromDomain(msg)
	return m
}

// SuggestionModel is the persistence model for the Suggestion aggregate root.
type SuggestionModel struct {
	AggregateModel
	MessageID    uuid.UUID                     `gorm:"type:uuid;not null;index"`
	PatternID    uuid.UUID                     `gorm:"type:uuid;not null;index"`
	ProposedBody string                        `gorm:"type:text;not null"`
	Score        float64                       `gorm:"not null"`
	Status       conversation.SuggestionStatus `gorm:"type:varchar(20);not null;index"`
	ResolvedBy   *uuid.UUID                    `gorm:"type:uuid"`
	ResolvedAt   *time.Time
	FinalBody    string    `gorm:"type:text"`
	RejectReason string    `gorm:"type:text"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (SuggestionModel) TableName() string {
	return "suggestions"
}

// ToDomain converts the persistence model to a domain Suggestion aggregate.
func (m *SuggestionModel) ToDomain() *conversation.Suggestion {
	return conversation.RestoreSuggestion(
		m.ToDomainAggregateRoot(),
		m.MessageID, m.PatternID,
		m.ProposedBody,
		m.Score,
		m.Status,
		m.ResolvedBy,
		m.ResolvedAt,
		m.FinalBody, m.RejectReason,
		m.ExpiresAt,
	)
}

// FromDomain populates the persistence model from a domain Suggestion aggregate.
func (m *SuggestionModel) FromDomain(s *conversation.Suggestion) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.MessageID = s.MessageID()
	m.PatternID = s.PatternID()
	m.ProposedBody = s.ProposedBody()
	m.Score = s.Score()
	m.Status = s.Status()
	m.ResolvedBy = s.ResolvedBy()
	m.ResolvedAt = s.ResolvedAt()
	m.FinalBody = s.FinalBody()
	m.RejectReason = s.RejectReason()
	m.ExpiresAt = s.ExpiresAt()
}

// SuggestionModelFromDomain creates a new persistence model from a domain Suggestion aggregate.
func SuggestionModelFromDomain(s *conversation.Suggestion) *SuggestionModel {
	m := &SuggestionModel{}
	m.FromDomain(s)
	return m
}

// ShadowLogEntryModel is the persistence model for the ShadowLogEntry entity.
// Shadow log entries are append-only.
type ShadowLogEntryModel struct {
	BaseModel
	MessageID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	PatternID     *uuid.UUID         `gorm:"type:uuid;index"`
	WouldBeAction pattern.GateAction `gorm:"type:varchar(20);not null;index"`
	Score         float64            `gorm:"not null"`
	Reason        pattern.GateReason `gorm:"type:varchar(30);not null"`
	ProposedBody  string             `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ShadowLogEntryModel) TableName() string {
	return "shadow_log_entries"
}

// ToDomain converts the persistence model to a domain ShadowLogEntry entity.
func (m *ShadowLogEntryModel) ToDomain() *conversation.ShadowLogEntry {
	return &conversation.ShadowLogEntry{
		BaseEntity:    m.BaseModel.ToDomain(),
		MessageID:     m.MessageID,
		PatternID:     m.PatternID,
		WouldBeAction: m.WouldBeAction,
		Score:         m.Score,
		Reason:        m.Reason,
		ProposedBody:  m.ProposedBody,
	}
}

// FromDomain populates the persistence model from a domain ShadowLogEntry entity.
func (m *ShadowLogEntryModel) FromDomain(e *conversation.ShadowLogEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.MessageID = e.MessageID
	m.PatternID = e.PatternID
	m.WouldBeAction = e.WouldBeAction
	m.Score = e.Score
	m.Reason = e.Reason
	m.ProposedBody = e.ProposedBody
}

// ShadowLogEntryModelFromDomain creates a new persistence model from a domain ShadowLogEntry entity.
func ShadowLogEntryModelFromDomain(e *conversation.ShadowLogEntry) *ShadowLogEntryModel {
	m := &ShadowLogEntryModel{}
	m.FromDomain(e)
	return m
}
