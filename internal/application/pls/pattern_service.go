package pls

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// PatternService handles pattern curation: creation, lifecycle changes
// and auto-execution promotion. Lifecycle changes are audited.
type PatternService struct {
	patternRepo pattern.Repository
	configRepo  pattern.ConfigRepository
	auditRepo   pattern.AuditRepository
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewPatternService creates a new pattern curation service
func NewPatternService(
	patternRepo pattern.Repository,
	configRepo pattern.ConfigRepository,
	auditRepo pattern.AuditRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *PatternService {
	return &PatternService{
		patternRepo: patternRepo,
		configRepo:  configRepo,
		auditRepo:   auditRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreatePattern creates an operator-curated pattern, active immediately
func (s *PatternService) CreatePattern(ctx context.Context, input CreatePatternInput) (*PatternInfo, error) {
	template, derr := pattern.NewResponseTemplate(input.TemplateBody)
	if derr != nil {
		return nil, derr
	}

	p, derr := pattern.NewPattern(input.TriggerText, input.PatternType, template, input.InitialConfidence, input.CreatedBy)
	if derr != nil {
		return nil, derr
	}
	if input.Notes != "" {
		p.UpdateNotes(input.Notes)
	}

	if existing, err := s.patternRepo.FindBySignature(ctx, p.Signature().Hash); err == nil && existing != nil {
		return nil, shared.NewDomainError("DUPLICATE_PATTERN", "A pattern with this trigger signature already exists")
	}

	if err := s.patternRepo.Save(ctx, p); err != nil {
		s.logger.Error("Failed to save pattern", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create pattern")
	}
	s.publishEvents(ctx, p)

	s.logger.Info("Pattern created",
		zap.String("pattern_id", p.GetID().String()),
		zap.String("pattern_type", string(p.Type())),
		zap.Float64("confidence", p.Confidence()))

	info := ToPatternInfo(p)
	return &info, nil
}

// UpdatePattern updates a pattern's template or notes
func (s *PatternService) UpdatePattern(ctx context.Context, input UpdatePatternInput) (*PatternInfo, error) {
	p, err := s.patternRepo.FindByID(ctx, input.PatternID)
	if err != nil {
		return nil, shared.NewDomainError("PATTERN_NOT_FOUND", "Pattern not found")
	}

	if input.TemplateBody != nil {
		template, derr := pattern.NewResponseTemplate(*input.TemplateBody)
		if derr != nil {
			return nil, derr
		}
		if derr := p.UpdateTemplate(template); derr != nil {
			return nil, derr
		}
	}
	if input.Notes != nil {
		p.UpdateNotes(*input.Notes)
	}

	if err := s.patternRepo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to update pattern", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update pattern")
	}

	info := ToPatternInfo(p)
	return &info, nil
}

// GetPattern retrieves a single pattern
func (s *PatternService) GetPattern(ctx context.Context, id uuid.UUID) (*PatternInfo, error) {
	p, err := s.patternRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NewDomainError("PATTERN_NOT_FOUND", "Pattern not found")
	}
	info := ToPatternInfo(p)
	return &info, nil
}

// ListPatterns lists patterns with pagination
func (s *PatternService) ListPatterns(ctx context.Context, filter shared.Filter) (*shared.Paginated[PatternInfo], error) {
	page, err := s.patternRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list patterns", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list patterns")
	}

	infos := make([]PatternInfo, 0, len(page.Items))
	for _, p := range page.Items {
		infos = append(infos, ToPatternInfo(p))
	}
	result := shared.NewPaginated(infos, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// ActivatePattern enables a pattern for live matching
func (s *PatternService) ActivatePattern(ctx context.Context, id uuid.UUID, audit AuditContext) (*PatternInfo, error) {
	p, err := s.patternRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NewDomainError("PATTERN_NOT_FOUND", "Pattern not found")
	}

	previous := p.Status()
	if derr := p.Activate(); derr != nil {
		return nil, derr
	}

	if err := s.patternRepo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to activate pattern", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to activate pattern")
	}
	s.publishEvents(ctx, p)
	s.audit(ctx, pattern.AuditPatternActivated, audit,
		map[string]any{"pattern_id": id.String(), "status": string(previous)},
		map[string]any{"pattern_id": id.String(), "status": string(p.Status())})

	s.logger.Info("Pattern activated", zap.String("pattern_id", id.String()))

	info := ToPatternInfo(p)
	return &info, nil
}

// SuspendPattern parks a pattern; it stops matching
func (s *PatternService) SuspendPattern(ctx context.Context, id uuid.UUID, reason string, audit AuditContext) (*PatternInfo, error) {
	p, err := s.patternRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NewDomainError("PATTERN_NOT_FOUND", "Pattern not found")
	}

	previous := p.Status()
	if derr := p.Suspend(reason); derr != nil {
		return nil, derr
	}

	if err := s.patternRepo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to suspend pattern", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to suspend pattern")
	}
	s.publishEvents(ctx, p)
	s.audit(ctx, pattern.AuditPatternSuspended, audit,
		map[string]any{"pattern_id": id.String(), "status": string(previous)},
		map[string]any{"pattern_id": id.String(), "status": string(p.Status()), "reason": reason})

	s.logger.Info("Pattern suspended",
		zap.String("pattern_id", id.String()),
		zap.String("reason", reason))

	info := ToPatternInfo(p)
	return &info, nil
}

// DeletePattern soft-deletes a pattern
func (s *PatternService) DeletePattern(ctx context.Context, id uuid.UUID) error {
	p, err := s.patternRepo.FindByID(ctx, id)
	if err != nil {
		return shared.NewDomainError("PATTERN_NOT_FOUND", "Pattern not found")
	}

	if derr := p.Delete(); derr != nil {
		return derr
	}

	if err := s.patternRepo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to delete pattern", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete pattern")
	}
	s.publishEvents(ctx, p)

	s.logger.Info("Pattern deleted", zap.String("pattern_id", id.String()))
	return nil
}

// PromotePattern marks a pattern auto-executable. The pattern must be
// active, at or above the configured auto-execute threshold, and have
// enough successful uses behind it.
func (s *PatternService) PromotePattern(ctx context.Context, id uuid.UUID, audit AuditContext) (*PatternInfo, error) {
	p, err := s.patternRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NewDomainError("PATTERN_NOT_FOUND", "Pattern not found")
	}

	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load engine configuration")
	}

	if derr := p.Promote(cfg.Thresholds().AutoExecute, cfg.MinExecutionsForAuto()); derr != nil {
		return nil, derr
	}

	if err := s.patternRepo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to promote pattern", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to promote pattern")
	}
	s.publishEvents(ctx, p)
	s.audit(ctx, pattern.AuditPatternPromoted, audit,
		map[string]any{"pattern_id": id.String(), "auto_executable": false},
		map[string]any{"pattern_id": id.String(), "auto_executable": true, "confidence": p.Confidence()})

	s.logger.Info("Pattern promoted to auto-execute",
		zap.String("pattern_id", id.String()),
		zap.Float64("confidence", p.Confidence()))

	info := ToPatternInfo(p)
	return &info, nil
}

// DemotePattern revokes auto-execution
func (s *PatternService) DemotePattern(ctx context.Context, id uuid.UUID, reason string, audit AuditContext) (*PatternInfo, error) {
	p, err := s.patternRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NewDomainError("PATTERN_NOT_FOUND", "Pattern not found")
	}

	p.Demote(reason)

	if err := s.patternRepo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to demote pattern", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to demote pattern")
	}
	s.publishEvents(ctx, p)
	s.audit(ctx, pattern.AuditPatternDemoted, audit,
		map[string]any{"pattern_id": id.String(), "auto_executable": true},
		map[string]any{"pattern_id": id.String(), "auto_executable": false, "reason": reason})

	s.logger.Info("Pattern demoted",
		zap.String("pattern_id", id.String()),
		zap.String("reason", reason))

	info := ToPatternInfo(p)
	return &info, nil
}

func (s *PatternService) audit(ctx context.Context, action pattern.AuditAction, audit AuditContext, oldValue, newValue map[string]any) {
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
		// Audit failures are logged, never surfaced to the operator
		s.logger.Error("Failed to save audit entry", zap.Error(err))
	}
}

func (s *PatternService) publishEvents(ctx context.Context, p *pattern.Pattern) {
	if s.publisher == nil {
		return
	}
	events := p.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
	p.ClearDomainEvents()
}
