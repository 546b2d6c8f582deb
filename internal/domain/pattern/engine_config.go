package pattern

import (
	"time"

	"github.com/google/uuid"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// Runtime knob defaults. Everything here is operator-tunable through the
// engine configuration; these only seed a fresh install.
const (
	DefaultSuggestionTTL        = 30 * time.Minute
	DefaultMinExecutionsForAuto = 5
)

// EngineConfig is the persistent singleton controlling the live engine:
// the kill switch, shadow mode, gate thresholds, the feedback/decay
// policies, suggestion expiry and the learner toggle. Every change is
// versioned and audited.
type EngineConfig struct {
	shared.BaseAggregateRoot

	enabled              bool
	shadowMode           bool
	thresholds           Thresholds
	feedback             FeedbackPolicy
	decay                DecayPolicy
	suggestionTTL        time.Duration
	learnerEnabled       bool
	minExecutionsForAuto int
	updatedBy            uuid.UUID
}

// NewEngineConfig creates the initial engine configuration: enabled,
// running in shadow mode until an operator turns shadow off.
func NewEngineConfig() *EngineConfig {
	return &EngineConfig{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		enabled:              true,
		shadowMode:           true,
		thresholds:           DefaultThresholds(),
		feedback:             DefaultFeedbackPolicy(),
		decay:                DefaultDecayPolicy(),
		suggestionTTL:        DefaultSuggestionTTL,
		learnerEnabled:       true,
		minExecutionsForAuto: DefaultMinExecutionsForAuto,
	}
}

// Enabled reports whether the engine processes messages at all
func (c *EngineConfig) Enabled() bool { return c.enabled }

// ShadowMode reports whether the engine only records what it would do
func (c *EngineConfig) ShadowMode() bool { return c.shadowMode }

// Thresholds returns the gate bands
func (c *EngineConfig) Thresholds() Thresholds { return c.thresholds }

// FeedbackPolicy returns the confidence deltas
func (c *EngineConfig) FeedbackPolicy() FeedbackPolicy { return c.feedback }

// DecayPolicy returns the decay schedule
func (c *EngineConfig) DecayPolicy() DecayPolicy { return c.decay }

// SuggestionTTL returns how long a suggestion waits for operator review
func (c *EngineConfig) SuggestionTTL() time.Duration { return c.suggestionTTL }

// LearnerEnabled reports whether the background learner mines new patterns
func (c *EngineConfig) LearnerEnabled() bool { return c.learnerEnabled }

// MinExecutionsForAuto returns how many successful uses a pattern needs
// before it can be promoted to auto-execution
func (c *EngineConfig) MinExecutionsForAuto() int { return c.minExecutionsForAuto }

// UpdatedBy returns the operator who last changed the configuration
func (c *EngineConfig) UpdatedBy() uuid.UUID { return c.updatedBy }

// SetEnabled flips the engine kill switch
func (c *EngineConfig) SetEnabled(enabled bool, operator uuid.UUID) {
	if c.enabled == enabled {
		return
	}
	c.enabled = enabled
	c.touch(operator)
	c.AddDomainEvent(NewEngineToggledEvent(c, enabled))
}

// SetShadowMode flips shadow mode
func (c *EngineConfig) SetShadowMode(shadow bool, operator uuid.UUID) {
	if c.shadowMode == shadow {
		return
	}
	c.shadowMode = shadow
	c.touch(operator)
	c.AddDomainEvent(NewShadowModeChangedEvent(c, shadow))
}

// UpdateThresholds replaces the gate bands after validating their ordering
func (c *EngineConfig) UpdateThresholds(t Thresholds, operator uuid.UUID) *shared.DomainError {
	if err := t.Validate(); err != nil {
		return err
	}
	previous := c.thresholds
	c.thresholds = t
	c.touch(operator)
	c.AddDomainEvent(NewThresholdsChangedEvent(c, previous, t))
	return nil
}

// UpdateFeedbackPolicy replaces the confidence deltas
func (c *EngineConfig) UpdateFeedbackPolicy(p FeedbackPolicy, operator uuid.UUID) *shared.DomainError {
	if p.AcceptDelta < 0 || p.ModifyDelta < 0 || p.AutoSuccessDelta < 0 {
		return shared.NewDomainError("INVALID_POLICY", "positive feedback deltas cannot be negative")
	}
	if p.RejectDelta > 0 || p.AutoFailureDelta > 0 {
		return shared.NewDomainError("INVALID_POLICY", "negative feedback deltas cannot be positive")
	}
	c.feedback = p
	c.touch(operator)
	return nil
}

// UpdateDecayPolicy replaces the decay schedule
func (c *EngineConfig) UpdateDecayPolicy(p DecayPolicy, operator uuid.UUID) *shared.DomainError {
	if p.GracePeriod < 0 {
		return shared.NewDomainError("INVALID_POLICY", "decay grace period cannot be negative")
	}
	if p.RatePerDay < 0 || p.RatePerDay > 1 {
		return shared.NewDomainError("INVALID_POLICY", "decay rate must be within [0,1] per day")
	}
	if p.Floor < ConfidenceMin || p.Floor > ConfidenceMax {
		return shared.NewDomainError("INVALID_POLICY", "decay floor must be within [0,1]")
	}
	if p.SuspendAfter < 0 {
		return shared.NewDomainError("INVALID_POLICY", "floor suspension window cannot be negative")
	}
	c.decay = p
	c.touch(operator)
	return nil
}

// UpdateSuggestionTTL replaces the suggestion review deadline
func (c *EngineConfig) UpdateSuggestionTTL(ttl time.Duration, operator uuid.UUID) *shared.DomainError {
	if ttl <= 0 {
		return shared.NewDomainError("INVALID_POLICY", "suggestion TTL must be positive")
	}
	c.suggestionTTL = ttl
	c.touch(operator)
	return nil
}

// SetLearnerEnabled flips the background learner on or off
func (c *EngineConfig) SetLearnerEnabled(enabled bool, operator uuid.UUID) {
	if c.learnerEnabled == enabled {
		return
	}
	c.learnerEnabled = enabled
	c.touch(operator)
}

// UpdateMinExecutionsForAuto replaces the promotion history requirement
func (c *EngineConfig) UpdateMinExecutionsForAuto(n int, operator uuid.UUID) *shared.DomainError {
	if n < 0 {
		return shared.NewDomainError("INVALID_POLICY", "minimum executions cannot be negative")
	}
	c.minExecutionsForAuto = n
	c.touch(operator)
	return nil
}

func (c *EngineConfig) touch(operator uuid.UUID) {
	c.updatedBy = operator
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// RestoreEngineConfig rebuilds the configuration from persisted state
func RestoreEngineConfig(
	base shared.BaseAggregateRoot,
	enabled, shadowMode bool,
	thresholds Thresholds,
	feedback FeedbackPolicy,
	decay DecayPolicy,
	suggestionTTL time.Duration,
	learnerEnabled bool,
	minExecutionsForAuto int,
	updatedBy uuid.UUID,
) *EngineConfig {
	if suggestionTTL <= 0 {
		suggestionTTL = DefaultSuggestionTTL
	}
	if minExecutionsForAuto < 0 {
		minExecutionsForAuto = DefaultMinExecutionsForAuto
	}
	return &EngineConfig{
		BaseAggregateRoot:    base,
		enabled:              enabled,
		shadowMode:           shadowMode,
		thresholds:           thresholds,
		feedback:             feedback,
		decay:                decay,
		suggestionTTL:        suggestionTTL,
		learnerEnabled:       learnerEnabled,
		minExecutionsForAuto: minExecutionsForAuto,
		updatedBy:            updatedBy,
	}
}
