package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
)

// logger for model conversion errors (silent failures are logged for debugging)
var modelLogger = zap.L().Named("pls.models")

// PatternModel is the persistence model for the Pattern aggregate root.
type PatternModel struct {
	AggregateModel
	SignatureHash  string                `gorm:"type:varchar(64);not null;uniqueIndex"`
	Normalized     string                `gorm:"type:text;not null"`
	KeywordsJSON   string                `gorm:"column:keywords;type:jsonb;default:'[]'"`
	Type           pattern.PatternType   `gorm:"type:varchar(20);not null;index"`
	Status         pattern.PatternStatus `gorm:"type:varchar(20);not null;index"`
	Origin         pattern.Origin        `gorm:"type:varchar(20);not null"`
	TemplateBody   string                `gorm:"type:text;not null"`
	Confidence     float64               `gorm:"not null"`
	AutoExecutable bool                  `gorm:"not null;default:false"`
	TriggerText    string                `gorm:"type:text;not null"`
	TimesMatched   int64                 `gorm:"not null;default:0"`
	TimesAccepted  int64                 `gorm:"not null;default:0"`
	TimesModified  int64                 `gorm:"not null;default:0"`
	TimesRejected  int64                 `gorm:"not null;default:0"`
	LastMatchedAt  *time.Time            `gorm:"index"`
	LastFeedbackAt *time.Time
	AtFloorSince   *time.Time
	CreatedBy      uuid.UUID `gorm:"type:uuid"`
	Notes          string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PatternModel) TableName() string {
	return "patterns"
}

// ToDomain converts the persistence model to a domain Pattern aggregate.
func (m *PatternModel) ToDomain() *pattern.Pattern {
	keywords := make([]string, 0)
	if m.KeywordsJSON != "" && m.KeywordsJSON != "[]" {
		if err := json.Unmarshal([]byte(m.KeywordsJSON), &keywords); err != nil {
			modelLogger.Warn("failed to parse pattern keywords JSON",
				zap.String("signature_hash", m.SignatureHash),
				zap.String("raw_json", m.KeywordsJSON),
				zap.Error(err))
		}
	}

	template, derr := pattern.NewResponseTemplate(m.TemplateBody)
	if derr != nil {
		modelLogger.Warn("persisted template body failed validation",
			zap.String("signature_hash", m.SignatureHash),
			zap.String("code", derr.Code))
	}

	return pattern.Restore(
		m.ToDomainAggregateRoot(),
		pattern.Signature{Hash: m.SignatureHash, Normalized: m.Normalized, Keywords: keywords},
		m.Type,
		m.Status,
		m.Origin,
		template,
		m.Confidence,
		m.AutoExecutable,
		m.TriggerText,
		m.TimesMatched, m.TimesAccepted, m.TimesModified, m.TimesRejected,
		m.LastMatchedAt, m.LastFeedbackAt, m.AtFloorSince,
		m.CreatedBy,
		m.Notes,
	)
}

// FromDomain populates the persistence model from a domain Pattern aggregate.
func (m *PatternModel) FromDomain(p *pattern.Pattern) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	sig := p.Signature()
	m.SignatureHash = sig.Hash
	m.Normalized = sig.Normalized
	m.Type = p.Type()
	m.Status = p.Status()
	m.Origin = p.Origin()
	m.TemplateBody = p.Template().Body()
	m.Confidence = p.Confidence()
	m.AutoExecutable = p.AutoExecutable()
	m.TriggerText = p.TriggerText()
	m.TimesMatched = p.TimesMatched()
	m.TimesAccepted = p.TimesAccepted()
	m.TimesModified = p.TimesModified()
	m.TimesRejected = p.TimesRejected()
	m.LastMatchedAt = p.LastMatchedAt()
	m.LastFeedbackAt = p.LastFeedbackAt()
	m.AtFloorSince = p.AtFloorSince()
	m.CreatedBy = p.CreatedBy()
	m.Notes = p.Notes()

	if len(sig.Keywords) > 0 {
		if jsonBytes, err := json.Marshal(sig.Keywords); err == nil {
			m.KeywordsJSON = string(jsonBytes)
		} else {
			m.KeywordsJSON = "[]"
		}
	} else {
		m.KeywordsJSON = "[]"
	}
}

// PatternModelFromDomain creates a new persistence model from a domain Pattern aggregate.
func PatternModelFromDomain(p *pattern.Pattern) *PatternModel {
	m := &PatternModel{}
	m.FromDomain(p)
	return m
}

// EngineConfigModel is the persistence model for the EngineConfig singleton.
type EngineConfigModel struct {
	AggregateModel
	Enabled              bool      `gorm:"not null;default:true"`
	ShadowMode           bool      `gorm:"not null;default:true"`
	ThresholdsJSON       string    `gorm:"column:thresholds;type:jsonb;not null"`
	FeedbackJSON         string    `gorm:"column:feedback_policy;type:jsonb;not null"`
	DecayJSON            string    `gorm:"column:decay_policy;type:jsonb;not null"`
	SuggestionTTLSeconds int64     `gorm:"not null;default:1800"`
	LearnerEnabled       bool      `gorm:"not null;default:true"`
	MinExecutionsForAuto int       `gorm:"not null;default:5"`
	UpdatedBy            uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (EngineConfigModel) TableName() string {
	return "engine_configs"
}

// ToDomain converts the persistence model to a domain EngineConfig aggregate.
// Malformed policy JSON falls back to the defaults rather than disabling
// the engine.
func (m *EngineConfigModel) ToDomain() *pattern.EngineConfig {
	thresholds := pattern.DefaultThresholds()
	if m.ThresholdsJSON != "" {
		if err := json.Unmarshal([]byte(m.ThresholdsJSON), &thresholds); err != nil {
			modelLogger.Warn("failed to parse thresholds JSON",
				zap.String("raw_json", m.ThresholdsJSON),
				zap.Error(err))
			thresholds = pattern.DefaultThresholds()
		}
	}

	feedback := pattern.DefaultFeedbackPolicy()
	if m.FeedbackJSON != "" {
		if err := json.Unmarshal([]byte(m.FeedbackJSON), &feedback); err != nil {
			modelLogger.Warn("failed to parse feedback policy JSON",
				zap.String("raw_json", m.FeedbackJSON),
				zap.Error(err))
			feedback = pattern.DefaultFeedbackPolicy()
		}
	}

	decay := pattern.DefaultDecayPolicy()
	if m.DecayJSON != "" {
		if err := json.Unmarshal([]byte(m.DecayJSON), &decay); err != nil {
			modelLogger.Warn("failed to parse decay policy JSON",
				zap.String("raw_json", m.DecayJSON),
				zap.Error(err))
			decay = pattern.DefaultDecayPolicy()
		}
	}

	return pattern.RestoreEngineConfig(
		m.ToDomainAggregateRoot(),
		m.Enabled, m.ShadowMode,
		thresholds, feedback, decay,
		time.Duration(m.SuggestionTTLSeconds)*time.Second,
		m.LearnerEnabled,
		m.MinExecutionsForAuto,
		m.UpdatedBy,
	)
}

// FromDomain populates the persistence model from a domain EngineConfig aggregate.
func (m *EngineConfigModel) FromDomain(c *pattern.EngineConfig) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Enabled = c.Enabled()
	m.ShadowMode = c.ShadowMode()
	m.SuggestionTTLSeconds = int64(c.SuggestionTTL() / time.Second)
	m.LearnerEnabled = c.LearnerEnabled()
	m.MinExecutionsForAuto = c.MinExecutionsForAuto()
	m.UpdatedBy = c.UpdatedBy()

	if jsonBytes, err := json.Marshal(c.Thresholds()); err == nil {
		m.ThresholdsJSON = string(jsonBytes)
	}
	if jsonBytes, err := json.Marshal(c.FeedbackPolicy()); err == nil {
		m.FeedbackJSON = string(jsonBytes)
	}
	if jsonBytes, err := json.Marshal(c.DecayPolicy()); err == nil {
		m.DecayJSON = string(jsonBytes)
	}
}

// EngineConfigModelFromDomain creates a new persistence model from a domain EngineConfig aggregate.
func EngineConfigModelFromDomain(c *pattern.EngineConfig) *EngineConfigModel {
	m := &EngineConfigModel{}
	m.FromDomain(c)
	return m
}

// ConfigAuditLogModel is the persistence model for the ConfigAuditLog entity.
// Audit logs are append-only and should not be modified after creation.
type ConfigAuditLogModel struct {
	BaseModel
	Action       pattern.AuditAction `gorm:"type:varchar(40);not null;index"`
	OldValueJSON string              `gorm:"column:old_value;type:jsonb"`
	NewValueJSON string              `gorm:"column:new_value;type:jsonb"`
	OperatorID   *uuid.UUID          `gorm:"type:uuid;index"`
	IPAddress    string              `gorm:"type:varchar(45)"`
	UserAgent    string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ConfigAuditLogModel) TableName() string {
	return "config_audit_logs"
}

// ToDomain converts the persistence model to a domain ConfigAuditLog entity.
func (m *ConfigAuditLogModel) ToDomain() *pattern.ConfigAuditLog {
	log := &pattern.ConfigAuditLog{
		BaseEntity: m.BaseModel.ToDomain(),
		Action:     m.Action,
		OldValue:   make(map[string]any),
		NewValue:   make(map[string]any),
		Operator:   m.OperatorID,
		IPAddress:  m.IPAddress,
		UserAgent:  m.UserAgent,
	}

	if m.OldValueJSON != "" && m.OldValueJSON != "{}" {
		var oldValue map[string]any
		if err := json.Unmarshal([]byte(m.OldValueJSON), &oldValue); err != nil {
			modelLogger.Warn("failed to parse audit log old_value JSON",
				zap.String("action", string(m.Action)),
				zap.String("raw_json", m.OldValueJSON),
				zap.Error(err))
		} else {
			log.OldValue = oldValue
		}
	}

	if m.NewValueJSON != "" && m.NewValueJSON != "{}" {
		var newValue map[string]any
		if err := json.Unmarshal([]byte(m.NewValueJSON), &newValue); err != nil {
			modelLogger.Warn("failed to parse audit log new_value JSON",
				zap.String("action", string(m.Action)),
				zap.String("raw_json", m.NewValueJSON),
				zap.Error(err))
		} else {
			log.NewValue = newValue
		}
	}

	return log
}

// FromDomain populates the persistence model from a domain ConfigAuditLog entity.
func (m *ConfigAuditLogModel) FromDomain(l *pattern.ConfigAuditLog) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.Action = l.Action
	m.OperatorID = l.Operator
	m.IPAddress = l.IPAddress
	m.UserAgent = l.UserAgent

	if len(l.OldValue) > 0 {
		if jsonBytes, err := json.Marshal(l.OldValue); err == nil {
			m.OldValueJSON = string(jsonBytes)
		} else {
			m.OldValueJSON = "{}"
		}
	} else {
		m.OldValueJSON = "{}"
	}

	if len(l.NewValue) > 0 {
		if jsonBytes, err := json.Marshal(l.NewValue); err == nil {
			m.NewValueJSON = string(jsonBytes)
		} else {
			m.NewValueJSON = "{}"
		}
	} else {
		m.NewValueJSON = "{}"
	}
}

// ConfigAuditLogModelFromDomain creates a new persistence model from a domain ConfigAuditLog entity.
func ConfigAuditLogModelFromDomain(l *pattern.ConfigAuditLog) *ConfigAuditLogModel {
	m := &ConfigAuditLogModel{}
	m.FromDomain(l)
	return m
}
