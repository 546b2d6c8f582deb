package pls

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// ConfigService manages the engine configuration singleton: the kill
// switch, shadow mode, thresholds and policies. Every change is audited.
type ConfigService struct {
	configRepo pattern.ConfigRepository
	auditRepo  pattern.AuditRepository
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewConfigService creates a new engine configuration service
func NewConfigService(
	configRepo pattern.ConfigRepository,
	auditRepo pattern.AuditRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ConfigService {
	return &ConfigService{
		configRepo: configRepo,
		auditRepo:  auditRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// GetConfig returns the current engine configuration
func (s *ConfigService) GetConfig(ctx context.Context) (*EngineConfigInfo, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load engine configuration")
	}
	info := ToEngineConfigInfo(cfg)
	return &info, nil
}

// SetEnabled flips the engine kill switch
func (s *ConfigService) SetEnabled(ctx context.Context, enabled bool, audit AuditContext) (*EngineConfigInfo, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load engine configuration")
	}

	previous := cfg.Enabled()
	cfg.SetEnabled(enabled, audit.Operator)

	if previous != enabled {
		if err := s.save(ctx, cfg); err != nil {
			return nil, err
		}
		action := pattern.AuditEngineDisabled
		if enabled {
			action = pattern.AuditEngineEnabled
		}
		s.audit(ctx, action, audit,
			map[string]any{"enabled": previous},
			map[string]any{"enabled": enabled})

		s.logger.Warn("Engine kill switch flipped",
			zap.Bool("enabled", enabled),
			zap.String("operator_id", audit.Operator.String()))
	}

	info := ToEngineConfigInfo(cfg)
	return &info, nil
}

// SetShadowMode flips shadow mode
func (s *ConfigService) SetShadowMode(ctx context.Context, shadow bool, audit AuditContext) (*EngineConfigInfo, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load engine configuration")
	}

	previous := cfg.ShadowMode()
	cfg.SetShadowMode(shadow, audit.Operator)

	if previous != shadow {
		if err := s.save(ctx, cfg); err != nil {
			return nil, err
		}
		s.audit(ctx, pattern.AuditShadowModeChanged, audit,
			map[string]any{"shadow_mode": previous},
			map[string]any{"shadow_mode": shadow})

		s.logger.Warn("Shadow mode changed",
			zap.Bool("shadow_mode", shadow),
			zap.String("operator_id", audit.Operator.String()))
	}

	info := ToEngineConfigInfo(cfg)
	return &info, nil
}

// UpdateThresholds replaces the gate bands
func (s *ConfigService) UpdateThresholds(ctx context.Context, t pattern.Thresholds, audit AuditContext) (*EngineConfigInfo, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load engine configuration")
	}

	previous := cfg.Thresholds()
	if derr := cfg.UpdateThresholds(t, audit.Operator); derr != nil {
		return nil, derr
	}

	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}
	s.audit(ctx, pattern.AuditThresholdsChanged, audit,
		thresholdsMap(previous), thresholdsMap(t))

	s.logger.Info("Gate thresholds updated",
		zap.Float64("auto_execute", t.AutoExecute),
		zap.Float64("suggest", t.Suggest),
		zap.Float64("queue", t.Queue))

	info := ToEngineConfigInfo(cfg)
	return &info, nil
}

// UpdateFeedbackPolicy replaces the confidence deltas
func (s *ConfigService) UpdateFeedbackPolicy(ctx context.Context, p pattern.FeedbackPolicy, audit AuditContext) (*EngineConfigInfo, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load engine configuration")
	}

	previous := cfg.FeedbackPolicy()
	if derr := cfg.UpdateFeedbackPolicy(p, audit.Operator); derr != nil {
		return nil, derr
	}

	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}
	s.audit(ctx, pattern.AuditFeedbackChanged, audit,
		feedbackMap(previous), feedbackMap(p))

	info := ToEngineConfigInfo(cfg)
	return &info, nil
}

// UpdateDecayPolicy replaces the decay schedule
func (s *ConfigService) UpdateDecayPolicy(ctx context.Context, p pattern.DecayPolicy, audit AuditContext) (*EngineConfigInfo, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load engine configuration")
	}

	previous := cfg.DecayPolicy()
	if derr := cfg.UpdateDecayPolicy(p, audit.Operator); derr != nil {
		return nil, derr
	}

	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}
	s.audit(ctx, pattern.AuditDecayChanged, audit,
		decayMap(previous), decayMap(p))

	info := ToEngineConfigInfo(cfg)
	return &info, nil
}

// UpdateSuggestionTTL replaces the suggestion review deadline
func (s *ConfigService) UpdateSuggestionTTL(ctx context.Context, ttl time.Duration, audit AuditContext) (*EngineConfigInfo, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load engine configuration")
	}

	previous := cfg.SuggestionTTL()
	if derr := cfg.UpdateSuggestionTTL(ttl, audit.Operator); derr != nil {
		return nil, derr
	}

	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}
	s.audit(ctx, pattern.AuditSuggestionTTLSet, audit,
		map[string]any{"suggestion_ttl": previous.String()},
		map[string]any{"suggestion_ttl": ttl.String()})

	s.logger.Info("Suggestion TTL updated", zap.Duration("suggestion_ttl", ttl))

	info := ToEngineConfigInfo(cfg)
	return &info, nil
}

// SetLearnerEnabled flips the background learner toggle
func (s *ConfigService) SetLearnerEnabled(ctx context.Context, enabled bool, audit AuditContext) (*EngineConfigInfo, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load engine configuration")
	}

	previous := cfg.LearnerEnabled()
	cfg.SetLearnerEnabled(enabled, audit.Operator)

	if previous != enabled {
		if err := s.save(ctx, cfg); err != nil {
			return nil, err
		}
		action := pattern.AuditLearnerDisabled
		if enabled {
			action = pattern.AuditLearnerEnabled
		}
		s.audit(ctx, action, audit,
			map[string]any{"learner_enabled": previous},
			map[string]any{"learner_enabled": enabled})

		s.logger.Warn("Learner toggle flipped",
			zap.Bool("learner_enabled", enabled),
			zap.String("operator_id", audit.Operator.String()))
	}

	info := ToEngineConfigInfo(cfg)
	return &info, nil
}

// UpdateMinExecutionsForAuto replaces the promotion history requirement
func (s *ConfigService) UpdateMinExecutionsForAuto(ctx context.Context, n int, audit AuditContext) (*EngineConfigInfo, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load engine configuration")
	}

	previous := cfg.MinExecutionsForAuto()
	if derr := cfg.UpdateMinExecutionsForAuto(n, audit.Operator); derr != nil {
		return nil, derr
	}

	if err := s.save(ctx, cfg); err != nil {
		return nil, err
	}
	s.audit(ctx, pattern.AuditMinExecutionsSet, audit,
		map[string]any{"min_executions_for_auto": previous},
		map[string]any{"min_executions_for_auto": n})

	s.logger.Info("Promotion history requirement updated", zap.Int("min_executions_for_auto", n))

	info := ToEngineConfigInfo(cfg)
	return &info, nil
}

// ListAuditLog lists recent configuration audit entries
func (s *ConfigService) ListAuditLog(ctx context.Context, limit int) ([]AuditEntryInfo, error) {
	entries, err := s.auditRepo.FindRecent(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list audit entries", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list audit entries")
	}

	infos := make([]AuditEntryInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, ToAuditEntryInfo(e))
	}
	return infos, nil
}

func (s *ConfigService) save(ctx context.Context, cfg *pattern.EngineConfig) error {
	if err := s.configRepo.Update(ctx, cfg); err != nil {
		s.logger.Error("Failed to save engine configuration", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to save engine configuration")
	}
	if s.publisher != nil {
		if events := cfg.GetDomainEvents(); len(events) > 0 {
			if err := s.publisher.Publish(ctx, events...); err != nil {
				s.logger.Error("Failed to publish domain events", zap.Error(err))
			}
			cfg.ClearDomainEvents()
		}
	}
	return nil
}

func (s *ConfigService) audit(ctx context.Context, action pattern.AuditAction, audit AuditContext, oldValue, newValue map[string]any) {
	var operator *uuid.UUID
	if audit.Operator != uuid.Nil {
		operator = &audit.Operator
	}

	entry, err := pattern.NewConfigAuditLog(action, oldValue, newValue, operator, audit.IPAddress, audit.UserAgent)
	if err != nil {
		s.logger.Error("Failed to build audit entry", zap.Error(err))
		return
	}
	if err := s.auditRepo.Save(ctx, entry); err != nil {
		s.logger.Error("Failed to save audit entry", zap.Error(err))
	}
}

func thresholdsMap(t pattern.Thresholds) map[string]any {
	return map[string]any{
		"auto_execute": t.AutoExecute,
		"suggest":      t.Suggest,
		"queue":        t.Queue,
	}
}

func feedbackMap(p pattern.FeedbackPolicy) map[string]any {
	return map[string]any{
		"accept_delta":       p.AcceptDelta,
		"modify_delta":       p.ModifyDelta,
		"reject_delta":       p.RejectDelta,
		"auto_success_delta": p.AutoSuccessDelta,
		"auto_failure_delta": p.AutoFailureDelta,
	}
}

func decayMap(p pattern.DecayPolicy) map[string]any {
	return map[string]any{
		"grace_period":  p.GracePeriod.String(),
		"rate_per_day":  p.RatePerDay,
		"floor":         p.Floor,
		"suspend_after": p.SuspendAfter.String(),
	}
}
