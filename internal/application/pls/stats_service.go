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

// EngineStats summarizes engine activity over a window
type EngineStats struct {
	From           time.Time                               `json:"from"`
	To             time.Time                               `json:"to"`
	Messages       map[conversation.MessageStatus]int64    `json:"messages"`
	Suggestions    map[conversation.SuggestionStatus]int64 `json:"suggestions"`
	Patterns       map[pattern.PatternStatus]int64         `json:"patterns"`
	PatternsByType map[pattern.PatternType]int64           `json:"patterns_by_type"`
	Automation     AutomationStats                         `json:"automation"`
	Shadow         *conversation.ShadowStats               `json:"shadow,omitempty"`
}

// AutomationStats measures how much of the message volume the engine
// handled without a human
type AutomationStats struct {
	TotalMessages  int64   `json:"total_messages"`
	AutoExecuted   int64   `json:"auto_executed"`
	Suggested      int64   `json:"suggested"`
	Queued         int64   `json:"queued"`
	AutomationRate float64 `json:"automation_rate"`
	DeflectionRate float64 `json:"deflection_rate"`
}

// StatsService aggregates engine activity for dashboards
type StatsService struct {
	messageRepo    conversation.MessageRepository
	suggestionRepo conversation.SuggestionRepository
	shadowRepo     conversation.ShadowLogRepository
	patternRepo    pattern.Repository
	logger         *zap.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(
	messageRepo conversation.MessageRepository,
	suggestionRepo conversation.SuggestionRepository,
	shadowRepo conversation.ShadowLogRepository,
	patternRepo pattern.Repository,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		messageRepo:    messageRepo,
		suggestionRepo: suggestionRepo,
		shadowRepo:     shadowRepo,
		patternRepo:    patternRepo,
		logger:         logger,
	}
}

// GetEngineStats aggregates message, suggestion, pattern and shadow
// numbers over the given window
func (s *StatsService) GetEngineStats(ctx context.Context, from, to time.Time) (*EngineStats, error) {
	messages, err := s.messageRepo.CountByStatus(ctx, from, to)
	if err != nil {
		s.logger.Error("Failed to count messages", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to aggregate message statistics")
	}

	suggestions, err := s.suggestionRepo.CountByStatus(ctx, from, to)
	if err != nil {
		s.logger.Error("Failed to count suggestions", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to aggregate suggestion statistics")
	}

	patterns, err := s.patternRepo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count patterns", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to aggregate pattern statistics")
	}

	byType, err := s.patternRepo.CountByType(ctx)
	if err != nil {
		s.logger.Error("Failed to count patterns by type", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to aggregate pattern statistics")
	}

	stats := &EngineStats{
		From:           from,
		To:             to,
		Messages:       messages,
		Suggestions:    suggestions,
		Patterns:       patterns,
		PatternsByType: byType,
		Automation:     automationStats(messages),
	}

	shadow, err := s.shadowRepo.Stats(ctx, from, to)
	if err != nil {
		// Shadow stats are advisory; an empty panel beats a failed dashboard
		s.logger.Error("Failed to aggregate shadow statistics", zap.Error(err))
	} else if shadow != nil && shadow.Total > 0 {
		stats.Shadow = shadow
	}

	return stats, nil
}

// GetShadowStats aggregates shadow log entries over the given window
func (s *StatsService) GetShadowStats(ctx context.Context, from, to time.Time) (*conversation.ShadowStats, error) {
	stats, err := s.shadowRepo.Stats(ctx, from, to)
	if err != nil {
		s.logger.Error("Failed to aggregate shadow statistics", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to aggregate shadow statistics")
	}
	return stats, nil
}

// ShadowLogInfo is the shadow log representation returned to clients
type ShadowLogInfo struct {
	ID            uuid.UUID          `json:"id"`
	MessageID     uuid.UUID          `json:"message_id"`
	PatternID     *uuid.UUID         `json:"pattern_id,omitempty"`
	WouldBeAction pattern.GateAction `json:"would_be_action"`
	Score         float64            `json:"score"`
	Reason        pattern.GateReason `json:"reason"`
	ProposedBody  string             `json:"proposed_body,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ListShadowLogs returns recent shadow log entries, newest first
func (s *StatsService) ListShadowLogs(ctx context.Context, filter shared.Filter) (*shared.Paginated[ShadowLogInfo], error) {
	page, err := s.shadowRepo.FindRecent(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list shadow logs", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list shadow logs")
	}

	infos := make([]ShadowLogInfo, len(page.Items))
	for i, entry := range page.Items {
		infos[i] = ShadowLogInfo{
			ID:            entry.GetID(),
			MessageID:     entry.MessageID,
			PatternID:     entry.PatternID,
			WouldBeAction: entry.WouldBeAction,
			Score:         entry.Score,
			Reason:        entry.Reason,
			ProposedBody:  entry.ProposedBody,
			CreatedAt:     entry.CreatedAt,
		}
	}

	result := shared.NewPaginated(infos, page.Total, page.Page, page.PageSize)
	return &result, nil
}

func automationStats(messages map[conversation.MessageStatus]int64) AutomationStats {
	a := AutomationStats{
		AutoExecuted: messages[conversation.MessageStatusAutoExecuted],
		Suggested:    messages[conversation.MessageStatusSuggested],
		Queued:       messages[conversation.MessageStatusQueued],
	}
	for _, count := range messages {
		a.TotalMessages += count
	}
	if a.TotalMessages > 0 {
		a.AutomationRate = float64(a.AutoExecuted) / float64(a.TotalMessages)
		a.DeflectionRate = float64(a.AutoExecuted+a.Suggested) / float64(a.TotalMessages)
	}
	return a
}
