package pls

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/conversation"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// SuggestionService handles operator review of proposed responses.
// Every resolution feeds back into the source pattern's confidence.
type SuggestionService struct {
	suggestionRepo conversation.SuggestionRepository
	messageRepo    conversation.MessageRepository
	patternRepo    pattern.Repository
	configRepo     pattern.ConfigRepository
	publisher      shared.EventPublisher
	logger         *zap.Logger
}

// NewSuggestionService creates a new suggestion review service
func NewSuggestionService(
	suggestionRepo conversation.SuggestionRepository,
	messageRepo conversation.MessageRepository,
	patternRepo pattern.Repository,
	configRepo pattern.ConfigRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *SuggestionService {
	return &SuggestionService{
		suggestionRepo: suggestionRepo,
		messageRepo:    messageRepo,
		patternRepo:    patternRepo,
		configRepo:     configRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

// Accept resolves a suggestion as sent unchanged
func (s *SuggestionService) Accept(ctx context.Context, input ResolveSuggestionInput) (*SuggestionInfo, error) {
	return s.resolve(ctx, input.SuggestionID, func(sug *conversation.Suggestion, now time.Time) *shared.DomainError {
		return sug.Accept(input.Operator, now)
	})
}

// Modify resolves a suggestion as sent after editing. When asked, the
// operator's final text is folded back into the pattern's template.
func (s *SuggestionService) Modify(ctx context.Context, input ResolveSuggestionInput) (*SuggestionInfo, error) {
	info, err := s.resolve(ctx, input.SuggestionID, func(sug *conversation.Suggestion, now time.Time) *shared.DomainError {
		return sug.Modify(input.Operator, input.FinalBody, now)
	})
	if err != nil {
		return nil, err
	}
	if input.UpdateTemplate {
		s.foldTemplate(ctx, info.PatternID, input.FinalBody)
	}
	return info, nil
}

// Reject resolves a suggestion as discarded
func (s *SuggestionService) Reject(ctx context.Context, input ResolveSuggestionInput) (*SuggestionInfo, error) {
	return s.resolve(ctx, input.SuggestionID, func(sug *conversation.Suggestion, now time.Time) *shared.DomainError {
		return sug.Reject(input.Operator, input.Reason, now)
	})
}

func (s *SuggestionService) resolve(
	ctx context.Context,
	id uuid.UUID,
	action func(*conversation.Suggestion, time.Time) *shared.DomainError,
) (*SuggestionInfo, error) {
	sug, err := s.suggestionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NewDomainError("SUGGESTION_NOT_FOUND", "Suggestion not found")
	}

	now := time.Now()
	if derr := action(sug, now); derr != nil {
		return nil, derr
	}

	if err := s.suggestionRepo.Update(ctx, sug); err != nil {
		s.logger.Error("Failed to update suggestion", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update suggestion")
	}

	s.applyFeedback(ctx, sug, now)
	s.publishEvents(ctx, sug.GetDomainEvents())
	sug.ClearDomainEvents()

	s.logger.Info("Suggestion resolved",
		zap.String("suggestion_id", sug.GetID().String()),
		zap.String("pattern_id", sug.PatternID().String()),
		zap.String("status", string(sug.Status())))

	info := ToSuggestionInfo(sug)
	return &info, nil
}

// applyFeedback moves the source pattern's confidence per the resolution.
// Feedback failures are logged, not surfaced: the operator's resolution
// already stands.
func (s *SuggestionService) applyFeedback(ctx context.Context, sug *conversation.Suggestion, now time.Time) {
	kind := sug.FeedbackKind()
	if kind == "" {
		return
	}

	p, err := s.patternRepo.FindByID(ctx, sug.PatternID())
	if err != nil {
		s.logger.Error("Failed to load pattern for feedback",
			zap.String("pattern_id", sug.PatternID().String()), zap.Error(err))
		return
	}

	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration for feedback", zap.Error(err))
		return
	}

	if derr := p.ApplyFeedback(kind, cfg.FeedbackPolicy(), now); derr != nil {
		s.logger.Error("Failed to apply confidence feedback",
			zap.String("pattern_id", p.GetID().String()), zap.Error(derr))
		return
	}

	if err := s.patternRepo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to save pattern after feedback",
			zap.String("pattern_id", p.GetID().String()), zap.Error(err))
		return
	}
	s.publishEvents(ctx, p.GetDomainEvents())
	p.ClearDomainEvents()

	s.logger.Info("Confidence feedback applied",
		zap.String("pattern_id", p.GetID().String()),
		zap.String("feedback", string(kind)),
		zap.Float64("confidence", p.Confidence()))
}

// foldTemplate replaces the source pattern's template with the operator's
// edited response. Failures are logged, not surfaced: the resolution and
// its confidence feedback already stand.
func (s *SuggestionService) foldTemplate(ctx context.Context, patternID uuid.UUID, body string) {
	tpl, derr := pattern.NewResponseTemplate(body)
	if derr != nil {
		s.logger.Warn("Edited response is not a usable template",
			zap.String("pattern_id", patternID.String()), zap.Error(derr))
		return
	}

	p, err := s.patternRepo.FindByID(ctx, patternID)
	if err != nil {
		s.logger.Error("Failed to load pattern for template fold",
			zap.String("pattern_id", patternID.String()), zap.Error(err))
		return
	}
	if derr := p.UpdateTemplate(tpl); derr != nil {
		s.logger.Error("Failed to update pattern template",
			zap.String("pattern_id", patternID.String()), zap.Error(derr))
		return
	}
	if err := s.patternRepo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to save pattern after template fold",
			zap.String("pattern_id", patternID.String()), zap.Error(err))
		return
	}

	s.logger.Info("Operator edit folded into pattern template",
		zap.String("pattern_id", patternID.String()))
}

// GetSuggestion retrieves a single suggestion
func (s *SuggestionService) GetSuggestion(ctx context.Context, id uuid.UUID) (*SuggestionInfo, error) {
	sug, err := s.suggestionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NewDomainError("SUGGESTION_NOT_FOUND", "Suggestion not found")
	}
	info := ToSuggestionInfo(sug)
	return &info, nil
}

// ListOpen lists pending suggestions awaiting review
func (s *SuggestionService) ListOpen(ctx context.Context, filter shared.Filter) (*shared.Paginated[SuggestionInfo], error) {
	page, err := s.suggestionRepo.FindOpen(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list open suggestions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list suggestions")
	}

	infos := make([]SuggestionInfo, 0, len(page.Items))
	for _, sug := range page.Items {
		infos = append(infos, ToSuggestionInfo(sug))
	}
	result := shared.NewPaginated(infos, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// ReportAutoOutcome records whether an auto-executed response actually
// resolved the customer's request. A reported failure hits confidence
// much harder than a rejection.
func (s *SuggestionService) ReportAutoOutcome(ctx context.Context, messageID uuid.UUID, success bool) error {
	msg, err := s.messageRepo.FindByID(ctx, messageID)
	if err != nil {
		return shared.NewDomainError("MESSAGE_NOT_FOUND", "Message not found")
	}
	if msg.Status() != conversation.MessageStatusAutoExecuted || msg.MatchedPatternID() == nil {
		return shared.NewDomainError("NOT_AUTO_EXECUTED", "Message was not auto-executed")
	}

	p, err := s.patternRepo.FindByID(ctx, *msg.MatchedPatternID())
	if err != nil {
		return shared.NewDomainError("PATTERN_NOT_FOUND", "Pattern not found")
	}

	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration for feedback", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to load engine configuration")
	}

	kind := pattern.FeedbackAutoSuccess
	if !success {
		kind = pattern.FeedbackAutoFailure
	}
	if derr := p.ApplyFeedback(kind, cfg.FeedbackPolicy(), time.Now()); derr != nil {
		return derr
	}

	if err := s.patternRepo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to save pattern after auto outcome", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to update pattern")
	}
	s.publishEvents(ctx, p.GetDomainEvents())
	p.ClearDomainEvents()

	s.logger.Info("Auto-execution outcome recorded",
		zap.String("message_id", messageID.String()),
		zap.String("pattern_id", p.GetID().String()),
		zap.Bool("success", success),
		zap.Float64("confidence", p.Confidence()))
	return nil
}

// ExpireDue closes pending suggestions past their deadline and returns
// how many were expired. Called by the expiry scheduler.
func (s *SuggestionService) ExpireDue(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := s.suggestionRepo.FindExpirable(ctx, now, limit)
	if err != nil {
		s.logger.Error("Failed to find expirable suggestions", zap.Error(err))
		return 0, shared.NewDomainError("INTERNAL_ERROR", "Failed to find expirable suggestions")
	}

	expired := 0
	for _, sug := range due {
		if derr := sug.Expire(now); derr != nil {
			continue
		}
		if err := s.suggestionRepo.Update(ctx, sug); err != nil {
			s.logger.Error("Failed to expire suggestion",
				zap.String("suggestion_id", sug.GetID().String()), zap.Error(err))
			continue
		}
		s.publishEvents(ctx, sug.GetDomainEvents())
		sug.ClearDomainEvents()
		expired++
	}

	if expired > 0 {
		s.logger.Info("Expired stale suggestions", zap.Int("count", expired))
	}
	return expired, nil
}

func (s *SuggestionService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
}
