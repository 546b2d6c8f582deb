package pattern

import (
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// AuditAction identifies what kind of engine configuration change occurred
type AuditAction string

const (
	AuditEngineEnabled     AuditAction = "engine_enabled"
	AuditEngineDisabled    AuditAction = "engine_disabled"
	AuditShadowModeChanged AuditAction = "shadow_mode_changed"
	AuditThresholdsChanged AuditAction = "thresholds_changed"
	AuditFeedbackChanged   AuditAction = "feedback_policy_changed"
	AuditDecayChanged      AuditAction = "decay_policy_changed"
	AuditSuggestionTTLSet  AuditAction = "suggestion_ttl_changed"
	AuditLearnerEnabled    AuditAction = "learner_enabled"
	AuditLearnerDisabled   AuditAction = "learner_disabled"
	AuditMinExecutionsSet  AuditAction = "min_executions_changed"
	AuditPatternPromoted   AuditAction = "pattern_promoted"
	AuditPatternDemoted    AuditAction = "pattern_demoted"
	AuditPatternActivated  AuditAction = "pattern_activated"
	AuditPatternSuspended  AuditAction = "pattern_suspended"
)

// IsValid returns true if the action is a known value
func (a AuditAction) IsValid() bool {
	switch a {
	case AuditEngineEnabled, AuditEngineDisabled, AuditShadowModeChanged,
		AuditThresholdsChanged, AuditFeedbackChanged, AuditDecayChanged,
		AuditSuggestionTTLSet, AuditLearnerEnabled, AuditLearnerDisabled,
		AuditMinExecutionsSet,
		AuditPatternPromoted, AuditPatternDemoted,
		AuditPatternActivated, AuditPatternSuspended:
		return true
	default:
		return false
	}
}

// ConfigAuditLog records who changed engine or pattern state, when,
// and the before/after values of the change.
type ConfigAuditLog struct {
	shared.BaseEntity
	Action    AuditAction    `json:"action"`
	OldValue  map[string]any `json:"old_value,omitempty"`
	NewValue  map[string]any `json:"new_value,omitempty"`
	Operator  *uuid.UUID     `json:"operator_id,omitempty"`
	IPAddress string         `json:"ip_address,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
}

// NewConfigAuditLog creates a new configuration audit entry
func NewConfigAuditLog(
	action AuditAction,
	oldValue, newValue map[string]any,
	operator *uuid.UUID,
	ipAddress, userAgent string,
) (*ConfigAuditLog, error) {
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION", "Invalid audit action")
	}

	return &ConfigAuditLog{
		BaseEntity: shared.NewBaseEntity(),
		Action:     action,
		OldValue:   oldValue,
		NewValue:   newValue,
		Operator:   operator,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
	}, nil
}

// GetAction returns the audit action
func (l *ConfigAuditLog) GetAction() AuditAction {
	return l.Action
}

// GetOldValue returns a copy of the old value
func (l *ConfigAuditLog) GetOldValue() map[string]any {
	if l.OldValue == nil {
		return make(map[string]any)
	}
	result := make(map[string]any, len(l.OldValue))
	maps.Copy(result, l.OldValue)
	return result
}

// GetNewValue returns a copy of the new value
func (l *ConfigAuditLog) GetNewValue() map[string]any {
	if l.NewValue == nil {
		return make(map[string]any)
	}
	result := make(map[string]any, len(l.NewValue))
	maps.Copy(result, l.NewValue)
	return result
}

// GetOperator returns the operator who performed the action
func (l *ConfigAuditLog) GetOperator() *uuid.UUID {
	return l.Operator
}

// GetIPAddress returns the IP address from where the action was performed
func (l *ConfigAuditLog) GetIPAddress() string {
	return l.IPAddress
}

// GetUserAgent returns the user agent string
func (l *ConfigAuditLog) GetUserAgent() string {
	return l.UserAgent
}

// GetTimestamp returns when the audit entry was created
func (l *ConfigAuditLog) GetTimestamp() time.Time {
	return l.CreatedAt
}
