package pls

import (
	"time"

	"github.com/google/uuid"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/conversation"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
)

// IngestMessageInput contains an inbound customer message as delivered
// by a channel webhook
type IngestMessageInput struct {
	Channel    conversation.Channel
	Sender     string
	Body       string
	ExternalID string
}

// ProcessResult describes what the engine did with an inbound message
type ProcessResult struct {
	MessageID    uuid.UUID                  `json:"message_id"`
	Status       conversation.MessageStatus `json:"status"`
	Action       pattern.GateAction         `json:"action"`
	Reason       pattern.GateReason         `json:"reason"`
	Score        float64                    `json:"score"`
	PatternID    *uuid.UUID                 `json:"pattern_id,omitempty"`
	SuggestionID *uuid.UUID                 `json:"suggestion_id,omitempty"`
	Response     string                     `json:"response,omitempty"`
}

// MessageInfo is the inbound message representation returned to clients
type MessageInfo struct {
	ID            uuid.UUID                  `json:"id"`
	Channel       conversation.Channel       `json:"channel"`
	Sender        string                     `json:"sender"`
	Body          string                     `json:"body"`
	SignatureHash string                     `json:"signature_hash,omitempty"`
	DetectedType  pattern.PatternType        `json:"detected_type,omitempty"`
	Status        conversation.MessageStatus `json:"status"`
	PatternID     *uuid.UUID                 `json:"pattern_id,omitempty"`
	MatchScore    float64                    `json:"match_score"`
	GateReason    pattern.GateReason         `json:"gate_reason,omitempty"`
	AutoResponse  string                     `json:"auto_response,omitempty"`
	ReceivedAt    time.Time                  `json:"received_at"`
}

// ToMessageInfo converts a domain message to its client representation
func ToMessageInfo(m *conversation.InboundMessage) MessageInfo {
	return MessageInfo{
		ID:            m.GetID(),
		Channel:       m.Channel(),
		Sender:        m.Sender(),
		Body:          m.Body(),
		SignatureHash: m.SignatureHash(),
		DetectedType:  m.DetectedType(),
		Status:        m.Status(),
		PatternID:     m.MatchedPatternID(),
		MatchScore:    m.MatchScore(),
		GateReason:    m.GateReason(),
		AutoResponse:  m.AutoResponse(),
		ReceivedAt:    m.ReceivedAt(),
	}
}

// CreatePatternInput contains operator-curated pattern creation data
type CreatePatternInput struct {
	TriggerText       string
	PatternType       pattern.PatternType
	TemplateBody      string
	InitialConfidence float64
	Notes             string
	CreatedBy         uuid.UUID
}

// UpdatePatternInput contains pattern update data; nil fields are unchanged
type UpdatePatternInput struct {
	PatternID    uuid.UUID
	TemplateBody *string
	Notes        *string
}

// PatternInfo is the pattern representation returned to clients
type PatternInfo struct {
	ID             uuid.UUID             `json:"id"`
	TriggerText    string                `json:"trigger_text"`
	PatternType    pattern.PatternType   `json:"pattern_type"`
	Status         pattern.PatternStatus `json:"status"`
	Origin         pattern.Origin        `json:"origin"`
	TemplateBody   string                `json:"template_body"`
	Variables      []string              `json:"variables,omitempty"`
	Confidence     float64               `json:"confidence"`
	AutoExecutable bool                  `json:"auto_executable"`
	TimesMatched   int64                 `json:"times_matched"`
	TimesAccepted  int64                 `json:"times_accepted"`
	TimesModified  int64                 `json:"times_modified"`
	TimesRejected  int64                 `json:"times_rejected"`
	AcceptanceRate float64               `json:"acceptance_rate"`
	LastMatchedAt  *time.Time            `json:"last_matched_at,omitempty"`
	Notes          string                `json:"notes,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// ToPatternInfo converts a domain pattern to its client representation
func ToPatternInfo(p *pattern.Pattern) PatternInfo {
	return PatternInfo{
		ID:             p.GetID(),
		TriggerText:    p.TriggerText(),
		PatternType:    p.Type(),
		Status:         p.Status(),
		Origin:         p.Origin(),
		TemplateBody:   p.Template().Body(),
		Variables:      p.Template().Variables(),
		Confidence:     p.Confidence(),
		AutoExecutable: p.AutoExecutable(),
		TimesMatched:   p.TimesMatched(),
		TimesAccepted:  p.TimesAccepted(),
		TimesModified:  p.TimesModified(),
		TimesRejected:  p.TimesRejected(),
		AcceptanceRate: p.AcceptanceRate(),
		LastMatchedAt:  p.LastMatchedAt(),
		Notes:          p.Notes(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// AuditContext carries who performed a curation action and from where
type AuditContext struct {
	Operator  uuid.UUID
	IPAddress string
	UserAgent string
}

// ResolveSuggestionInput contains operator suggestion resolution data.
// FinalBody is required for modifications, Reason is optional on rejection.
// UpdateTemplate asks a modification to fold the edited text back into
// the source pattern's response template.
type ResolveSuggestionInput struct {
	SuggestionID   uuid.UUID
	Operator       uuid.UUID
	FinalBody      string
	Reason         string
	UpdateTemplate bool
}

// SuggestionInfo is the suggestion representation returned to clients
type SuggestionInfo struct {
	ID           uuid.UUID                     `json:"id"`
	MessageID    uuid.UUID                     `json:"message_id"`
	PatternID    uuid.UUID                     `json:"pattern_id"`
	ProposedBody string                        `json:"proposed_body"`
	Score        float64                       `json:"score"`
	Status       conversation.SuggestionStatus `json:"status"`
	FinalBody    string                        `json:"final_body,omitempty"`
	RejectReason string                        `json:"reject_reason,omitempty"`
	ResolvedBy   *uuid.UUID                    `json:"resolved_by,omitempty"`
	ResolvedAt   *time.Time                    `json:"resolved_at,omitempty"`
	ExpiresAt    time.Time                     `json:"expires_at"`
	CreatedAt    time.Time                     `json:"created_at"`
}

// ToSuggestionInfo converts a domain suggestion to its client representation
func ToSuggestionInfo(s *conversation.Suggestion) SuggestionInfo {
	return SuggestionInfo{
		ID:           s.GetID(),
		MessageID:    s.MessageID(),
		PatternID:    s.PatternID(),
		ProposedBody: s.ProposedBody(),
		Score:        s.Score(),
		Status:       s.Status(),
		FinalBody:    s.FinalBody(),
		RejectReason: s.RejectReason(),
		ResolvedBy:   s.ResolvedBy(),
		ResolvedAt:   s.ResolvedAt(),
		ExpiresAt:    s.ExpiresAt(),
		CreatedAt:    s.CreatedAt,
	}
}

// EngineConfigInfo is the engine configuration returned to clients
type EngineConfigInfo struct {
	Enabled              bool                   `json:"enabled"`
	ShadowMode           bool                   `json:"shadow_mode"`
	Thresholds           pattern.Thresholds     `json:"thresholds"`
	Feedback             pattern.FeedbackPolicy `json:"feedback"`
	Decay                pattern.DecayPolicy    `json:"decay"`
	SuggestionTTLSeconds int64                  `json:"suggestion_ttl_seconds"`
	LearnerEnabled       bool                   `json:"learner_enabled"`
	MinExecutionsForAuto int                    `json:"min_executions_for_auto"`
	UpdatedBy            uuid.UUID              `json:"updated_by"`
	UpdatedAt            time.Time              `json:"updated_at"`
	Version              int                    `json:"version"`
}

// ToEngineConfigInfo converts the engine configuration to its client representation
func ToEngineConfigInfo(c *pattern.EngineConfig) EngineConfigInfo {
	return EngineConfigInfo{
		Enabled:              c.Enabled(),
		ShadowMode:           c.ShadowMode(),
		Thresholds:           c.Thresholds(),
		Feedback:             c.FeedbackPolicy(),
		Decay:                c.DecayPolicy(),
		SuggestionTTLSeconds: int64(c.SuggestionTTL() / time.Second),
		LearnerEnabled:       c.LearnerEnabled(),
		MinExecutionsForAuto: c.MinExecutionsForAuto(),
		UpdatedBy:            c.UpdatedBy(),
		UpdatedAt:            c.UpdatedAt,
		Version:              c.GetVersion(),
	}
}

// AuditEntryInfo is the audit log representation returned to clients
type AuditEntryInfo struct {
	ID        uuid.UUID           `json:"id"`
	Action    pattern.AuditAction `json:"action"`
	OldValue  map[string]any      `json:"old_value,omitempty"`
	NewValue  map[string]any      `json:"new_value,omitempty"`
	Operator  *uuid.UUID          `json:"operator_id,omitempty"`
	IPAddress string              `json:"ip_address,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// ToAuditEntryInfo converts an audit entry to its client representation
func ToAuditEntryInfo(l *pattern.ConfigAuditLog) AuditEntryInfo {
	return AuditEntryInfo{
		ID:        l.GetID(),
		Action:    l.GetAction(),
		OldValue:  l.GetOldValue(),
		NewValue:  l.GetNewValue(),
		Operator:  l.GetOperator(),
		IPAddress: l.GetIPAddress(),
		Timestamp: l.GetTimestamp(),
	}
}
