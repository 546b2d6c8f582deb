package telemetry

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/conversation"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/persistence/models"
)

// GormEngineGaugeProvider implements EngineGaugeProvider with direct GORM
// queries. It reads aggregate counts only, never row data.
type GormEngineGaugeProvider struct {
	db *gorm.DB
}

// NewGormEngineGaugeProvider creates a new GormEngineGaugeProvider.
func NewGormEngineGaugeProvider(db *gorm.DB) *GormEngineGaugeProvider {
	return &GormEngineGaugeProvider{db: db}
}

// CountPatternsByStatus returns the pattern count per lifecycle status.
func (p *GormEngineGaugeProvider) CountPatternsByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := p.db.WithContext(ctx).
		Model(&models.PatternModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountPendingSuggestions returns the open review queue depth.
func (p *GormEngineGaugeProvider) CountPendingSuggestions(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Model(&models.SuggestionModel{}).
		Where("status = ?", conversation.SuggestionPending).
		Count(&count).Error
	return count, err
}

// AutomationRate returns the fraction of messages auto-executed over the
// trailing window. Returns 0 when no messages arrived.
func (p *GormEngineGaugeProvider) AutomationRate(ctx context.Context, window time.Duration) (float64, error) {
	since := time.Now().Add(-window)

	var total int64
	err := p.db.WithContext(ctx).
		Model(&models.InboundMessageModel{}).
		Where("created_at >= ?", since).
		Count(&total).Error
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}

	var auto int64
	err = p.db.WithContext(ctx).
		Model(&models.InboundMessageModel{}).
		Where("created_at >= ? AND status = ?", since, conversation.MessageStatusAutoExecuted).
		Count(&auto).Error
	if err != nil {
		return 0, err
	}

	return float64(auto) / float64(total), nil
}

// Ensure GormEngineGaugeProvider implements EngineGaugeProvider
var _ EngineGaugeProvider = (*GormEngineGaugeProvider)(nil)
