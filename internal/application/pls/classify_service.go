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

// ClassifyServiceConfig contains static tunables for message processing.
// Runtime knobs like the suggestion TTL live in the persisted engine
// configuration instead.
type ClassifyServiceConfig struct {
	DedupeTTL time.Duration // How long dedupe keys are remembered
}

// DefaultClassifyServiceConfig returns default processing configuration
func DefaultClassifyServiceConfig() ClassifyServiceConfig {
	return ClassifyServiceConfig{
		DedupeTTL: 24 * time.Hour,
	}
}

// ClassifyService runs the message pipeline: signature extraction,
// pattern matching, gating, and the resulting side effects.
type ClassifyService struct {
	messageRepo    conversation.MessageRepository
	suggestionRepo conversation.SuggestionRepository
	shadowRepo     conversation.ShadowLogRepository
	patternRepo    pattern.Repository
	configRepo     pattern.ConfigRepository
	idempotency    shared.IdempotencyStore
	matcher        *pattern.Matcher
	publisher      shared.EventPublisher
	config         ClassifyServiceConfig
	logger         *zap.Logger
}

// NewClassifyService creates a new classification service
func NewClassifyService(
	messageRepo conversation.MessageRepository,
	suggestionRepo conversation.SuggestionRepository,
	shadowRepo conversation.ShadowLogRepository,
	patternRepo pattern.Repository,
	configRepo pattern.ConfigRepository,
	idempotency shared.IdempotencyStore,
	publisher shared.EventPublisher,
	config ClassifyServiceConfig,
	logger *zap.Logger,
) *ClassifyService {
	return &ClassifyService{
		messageRepo:    messageRepo,
		suggestionRepo: suggestionRepo,
		shadowRepo:     shadowRepo,
		patternRepo:    patternRepo,
		configRepo:     configRepo,
		idempotency:    idempotency,
		matcher:        pattern.NewMatcher(),
		publisher:      publisher,
		config:         config,
		logger:         logger,
	}
}

// Process runs an inbound message through the engine and returns what
// was done with it. Duplicate deliveries are rejected by dedupe key.
func (s *ClassifyService) Process(ctx context.Context, input IngestMessageInput) (*ProcessResult, error) {
	msg, derr := conversation.NewInboundMessage(input.Channel, input.Sender, input.Body, input.ExternalID)
	if derr != nil {
		return nil, derr
	}

	if s.idempotency != nil {
		fresh, err := s.idempotency.MarkProcessed(ctx, msg.DedupeKey(), s.config.DedupeTTL)
		if err != nil {
			s.logger.Error("Dedupe check failed", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check message for duplicates")
		}
		if !fresh {
			s.logger.Info("Duplicate message dropped",
				zap.String("channel", string(input.Channel)),
				zap.String("dedupe_key", msg.DedupeKey()))
			return nil, shared.ErrDuplicateMessage
		}
	}

	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load engine configuration")
	}

	sig := pattern.ExtractSignature(msg.Body())
	msgType := pattern.DetectType(sig.Normalized)
	msg.Classify(sig.Hash, msgType)

	// The kill switch stops actions, not observation: the message is
	// still classified and shadow-logged so it can cluster for the
	// learner and show up in shadow stats.
	if !cfg.Enabled() {
		return s.shadowDisabled(ctx, msg)
	}

	// Shadow evaluation also scores inactive patterns so operators can
	// see how learned candidates would perform before activating them.
	candidates, err := s.patternRepo.FindCandidates(ctx, msgType, cfg.ShadowMode())
	if err != nil {
		s.logger.Error("Failed to load candidate patterns", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load candidate patterns")
	}

	best := s.matcher.Best(sig, msgType, candidates)

	gate, derr := pattern.NewGate(cfg.Thresholds(), cfg.ShadowMode())
	if derr != nil {
		s.logger.Error("Invalid gate thresholds in stored configuration", zap.Error(derr))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Engine configuration is invalid")
	}
	decision := gate.Decide(best)

	result, err := s.apply(ctx, msg, decision, cfg.SuggestionTTL())
	if err != nil {
		return nil, err
	}

	if best != nil && best.Pattern != nil {
		best.Pattern.RecordMatch(time.Now())
		if err := s.patternRepo.Update(ctx, best.Pattern); err != nil {
			// Match bookkeeping must not fail the message
			s.logger.Error("Failed to record pattern match",
				zap.String("pattern_id", best.Pattern.GetID().String()), zap.Error(err))
		}
	}

	s.logger.Info("Message processed",
		zap.String("message_id", msg.GetID().String()),
		zap.String("channel", string(msg.Channel())),
		zap.String("detected_type", string(msgType)),
		zap.String("action", string(decision.Action)),
		zap.String("reason", string(decision.Reason)),
		zap.Float64("score", decision.Score))

	return result, nil
}

func (s *ClassifyService) shadowDisabled(ctx context.Context, msg *conversation.InboundMessage) (*ProcessResult, error) {
	d := pattern.Decision{
		Action:   pattern.ActionShadow,
		Reason:   pattern.ReasonEngineDisabled,
		WouldBe:  pattern.ActionShadow,
		Shadowed: true,
	}
	return s.shadowLog(ctx, msg, d)
}

func (s *ClassifyService) apply(ctx context.Context, msg *conversation.InboundMessage, d pattern.Decision, suggestionTTL time.Duration) (*ProcessResult, error) {
	switch d.Action {
	case pattern.ActionAutoExecute:
		return s.autoExecute(ctx, msg, d, suggestionTTL)
	case pattern.ActionSuggest:
		return s.suggest(ctx, msg, d, suggestionTTL)
	case pattern.ActionShadow:
		return s.shadowLog(ctx, msg, d)
	default:
		return s.queue(ctx, msg, d)
	}
}

func (s *ClassifyService) autoExecute(ctx context.Context, msg *conversation.InboundMessage, d pattern.Decision, suggestionTTL time.Duration) (*ProcessResult, error) {
	p := d.Pattern

	// A template with unbound variables cannot be sent unattended;
	// downgrade to a suggestion so an operator fills it in.
	if !p.Template().IsStatic() {
		d.Action = pattern.ActionSuggest
		d.Reason = pattern.ReasonSuggested
		return s.suggest(ctx, msg, d, suggestionTTL)
	}

	response, derr := p.Template().Render(nil)
	if derr != nil {
		s.logger.Error("Template render failed on auto-execute",
			zap.String("pattern_id", p.GetID().String()), zap.Error(derr))
		d.Action = pattern.ActionSuggest
		d.Reason = pattern.ReasonSuggested
		return s.suggest(ctx, msg, d, suggestionTTL)
	}

	if derr := msg.MarkAutoExecuted(p.GetID(), d.Score, response); derr != nil {
		return nil, derr
	}
	if err := s.messageRepo.Save(ctx, msg); err != nil {
		s.logger.Error("Failed to save message", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save message")
	}
	s.publishEvents(ctx, msg.GetDomainEvents())
	msg.ClearDomainEvents()

	patternID := p.GetID()
	return &ProcessResult{
		MessageID: msg.GetID(),
		Status:    msg.Status(),
		Action:    pattern.ActionAutoExecute,
		Reason:    d.Reason,
		Score:     d.Score,
		PatternID: &patternID,
		Response:  response,
	}, nil
}

func (s *ClassifyService) suggest(ctx context.Context, msg *conversation.InboundMessage, d pattern.Decision, suggestionTTL time.Duration) (*ProcessResult, error) {
	p := d.Pattern

	if derr := msg.MarkSuggested(p.GetID(), d.Score, d.Reason); derr != nil {
		return nil, derr
	}
	if err := s.messageRepo.Save(ctx, msg); err != nil {
		s.logger.Error("Failed to save message", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save message")
	}

	sug, derr := conversation.NewSuggestion(msg.GetID(), p.GetID(), p.Template().Body(), d.Score, suggestionTTL)
	if derr != nil {
		return nil, derr
	}
	if err := s.suggestionRepo.Save(ctx, sug); err != nil {
		s.logger.Error("Failed to save suggestion", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save suggestion")
	}
	s.publishEvents(ctx, msg.GetDomainEvents())
	s.publishEvents(ctx, sug.GetDomainEvents())
	msg.ClearDomainEvents()
	sug.ClearDomainEvents()

	patternID := p.GetID()
	suggestionID := sug.GetID()
	return &ProcessResult{
		MessageID:    msg.GetID(),
		Status:       msg.Status(),
		Action:       pattern.ActionSuggest,
		Reason:       d.Reason,
		Score:        d.Score,
		PatternID:    &patternID,
		SuggestionID: &suggestionID,
		Response:     sug.ProposedBody(),
	}, nil
}

func (s *ClassifyService) queue(ctx context.Context, msg *conversation.InboundMessage, d pattern.Decision) (*ProcessResult, error) {
	var patternID *uuid.UUID
	if d.Pattern != nil {
		id := d.Pattern.GetID()
		patternID = &id
	}

	if derr := msg.MarkQueued(patternID, d.Score, d.Reason); derr != nil {
		return nil, derr
	}
	if err := s.messageRepo.Save(ctx, msg); err != nil {
		s.logger.Error("Failed to save message", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save message")
	}
	s.publishEvents(ctx, msg.GetDomainEvents())
	msg.ClearDomainEvents()

	return &ProcessResult{
		MessageID: msg.GetID(),
		Status:    msg.Status(),
		Action:    pattern.ActionQueue,
		Reason:    d.Reason,
		Score:     d.Score,
		PatternID: patternID,
	}, nil
}

func (s *ClassifyService) shadowLog(ctx context.Context, msg *conversation.InboundMessage, d pattern.Decision) (*ProcessResult, error) {
	var patternID *uuid.UUID
	var proposed string
	if d.Pattern != nil {
		id := d.Pattern.GetID()
		patternID = &id
		proposed = d.Pattern.Template().Body()
	}

	if derr := msg.MarkShadowLogged(patternID, d.Score, d.Reason); derr != nil {
		return nil, derr
	}
	if err := s.messageRepo.Save(ctx, msg); err != nil {
		s.logger.Error("Failed to save message", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save message")
	}

	entry, err := conversation.NewShadowLogEntry(msg.GetID(), d, proposed)
	if err != nil {
		return nil, err
	}
	if err := s.shadowRepo.Save(ctx, entry); err != nil {
		s.logger.Error("Failed to save shadow log entry", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save shadow log entry")
	}
	s.publishEvents(ctx, msg.GetDomainEvents())
	msg.ClearDomainEvents()

	return &ProcessResult{
		MessageID: msg.GetID(),
		Status:    msg.Status(),
		Action:    pattern.ActionShadow,
		Reason:    d.Reason,
		Score:     d.Score,
		PatternID: patternID,
	}, nil
}

// GetMessage retrieves a processed message
func (s *ClassifyService) GetMessage(ctx context.Context, id uuid.UUID) (*MessageInfo, error) {
	msg, err := s.messageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NewDomainError("MESSAGE_NOT_FOUND", "Message not found")
	}
	info := ToMessageInfo(msg)
	return &info, nil
}

// ListMessages lists processed messages with pagination
func (s *ClassifyService) ListMessages(ctx context.Context, filter shared.Filter) (*shared.Paginated[MessageInfo], error) {
	page, err := s.messageRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list messages", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list messages")
	}

	infos := make([]MessageInfo, 0, len(page.Items))
	for _, m := range page.Items {
		infos = append(infos, ToMessageInfo(m))
	}
	result := shared.NewPaginated(infos, page.Total, page.Page, page.PageSize)
	return &result, nil
}

func (s *ClassifyService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
}
