package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/conversation"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/persistence/models"
)

// GormShadowLogRepository implements conversation.ShadowLogRepository using GORM
type GormShadowLogRepository struct {
	db *gorm.DB
}

// NewGormShadowLogRepository creates a new GormShadowLogRepository
func NewGormShadowLogRepository(db *gorm.DB) *GormShadowLogRepository {
	return &GormShadowLogRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormShadowLogRepository) WithTx(tx *gorm.DB) *GormShadowLogRepository {
	return &GormShadowLogRepository{db: tx}
}

// Save creates a new shadow log entry
func (r *GormShadowLogRepository) Save(ctx context.Context, entry *conversation.ShadowLogEntry) error {
	model := models.ShadowLogEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByMessageID finds shadow log entries for a message
func (r *GormShadowLogRepository) FindByMessageID(ctx context.Context, messageID uuid.UUID) ([]*conversation.ShadowLogEntry, error) {
	var entryModels []models.ShadowLogEntryModel
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&entryModels).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*conversation.ShadowLogEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// FindRecent returns shadow log entries with pagination, newest first
func (r *GormShadowLogRepository) FindRecent(ctx context.Context, filter shared.Filter) (shared.Paginated[*conversation.ShadowLogEntry], error) {
	var empty shared.Paginated[*conversation.ShadowLogEntry]

	base := r.db.WithContext(ctx).Model(&models.ShadowLogEntryModel{})
	if action, ok := filter.Filters["would_be_action"]; ok {
		base = base.Where("would_be_action = ?", action)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return empty, err
	}

	query := base.Session(&gorm.Session{})
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, ShadowLogSortFields, "")
		if sortField != "" {
			sortOrder := ValidateSortOrder(filter.OrderDir)
			query = query.Order(sortField + " " + sortOrder)
		} else {
			query = query.Order("created_at DESC")
		}
	} else {
		query = query.Order("created_at DESC")
	}

	var entryModels []models.ShadowLogEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return empty, err
	}

	entries := make([]*conversation.ShadowLogEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return shared.NewPaginated(entries, total, filter.Page, filter.PageSize), nil
}

// FindOlderThan returns entries created before the cutoff, oldest first
func (r *GormShadowLogRepository) FindOlderThan(ctx context.Context, before time.Time, limit int) ([]*conversation.ShadowLogEntry, error) {
	var entryModels []models.ShadowLogEntryModel
	err := r.db.WithContext(ctx).
		Where("created_at < ?", before).
		Order("created_at ASC").
		Limit(limit).
		Find(&entryModels).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*conversation.ShadowLogEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// Stats summarizes shadow log entries over a window
func (r *GormShadowLogRepository) Stats(ctx context.Context, from, to time.Time) (*conversation.ShadowStats, error) {
	var rows []struct {
		WouldBeAction pattern.GateAction
		Count         int64
		ScoreSum      float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.ShadowLogEntryModel{}).
		Select("would_be_action, COUNT(*) as count, COALESCE(SUM(score), 0) as score_sum").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("would_be_action").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &conversation.ShadowStats{
		ByWouldBeAction: make(map[pattern.GateAction]int64, len(rows)),
		From:            from,
		To:              to,
	}

	var scoreSum float64
	for _, row := range rows {
		stats.Total += row.Count
		stats.ByWouldBeAction[row.WouldBeAction] = row.Count
		scoreSum += row.ScoreSum
		if row.WouldBeAction == pattern.ActionAutoExecute {
			stats.WouldAutoExecute = row.Count
		}
	}
	if stats.Total > 0 {
		stats.AvgScore = scoreSum / float64(stats.Total)
	}
	return stats, nil
}

// DeleteOlderThan removes shadow log entries created before the cutoff and
// returns the count of deleted rows
func (r *GormShadowLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Delete(&models.ShadowLogEntryModel{}, "created_at < ?", before)
	return result.RowsAffected, result.Error
}

// Ensure GormShadowLogRepository implements conversation.ShadowLogRepository
var _ conversation.ShadowLogRepository = (*GormShadowLogRepository)(nil)
