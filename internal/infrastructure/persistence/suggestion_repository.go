package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/conversation"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/persistence/models"
)

// GormSuggestionRepository implements conversation.SuggestionRepository using GORM
type GormSuggestionRepository struct {
	db *gorm.DB
}

// NewGormSuggestionRepository creates a new GormSuggestionRepository
func NewGormSuggestionRepository(db *gorm.DB) *GormSuggestionRepository {
	return &GormSuggestionRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormSuggestionRepository) WithTx(tx *gorm.DB) *GormSuggestionRepository {
	return &GormSuggestionRepository{db: tx}
}

// Save creates a new suggestion
func (r *GormSuggestionRepository) Save(ctx context.Context, s *conversation.Suggestion) error {
	model := models.SuggestionModelFromDomain(s)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists suggestion changes with optimistic locking. Two
// operators racing on the same suggestion: the slower one loses.
func (r *GormSuggestionRepository) Update(ctx context.Context, s *conversation.Suggestion) error {
	model := models.SuggestionModelFromDomain(s)

	result := r.db.WithContext(ctx).
		Model(&models.SuggestionModel{}).
		Where("id = ? AND version < ?", s.ID, s.Version).
		Updates(map[string]any{
			"status":        model.Status,
			"resolved_by":   model.ResolvedBy,
			"resolved_at":   model.ResolvedAt,
			"final_body":    model.FinalBody,
			"reject_reason": model.RejectReason,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&models.SuggestionModel{}).Where("id = ?", s.ID).Count(&count)
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Suggestion was modified by another transaction")
	}
	return nil
}

// FindByID finds a suggestion by its ID
func (r *GormSuggestionRepository) FindByID(ctx context.Context, id uuid.UUID) (*conversation.Suggestion, error) {
	var model models.SuggestionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMessageID finds the most recent suggestion for a message
func (r *GormSuggestionRepository) FindByMessageID(ctx context.Context, messageID uuid.UUID) (*conversation.Suggestion, error) {
	var model models.SuggestionModel
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpen returns pending suggestions, oldest first so the queue drains
// in arrival order
func (r *GormSuggestionRepository) FindOpen(ctx context.Context, filter shared.Filter) (shared.Paginated[*conversation.Suggestion], error) {
	var empty shared.Paginated[*conversation.Suggestion]

	base := r.db.WithContext(ctx).
		Model(&models.SuggestionModel{}).
		Where("status = ?", conversation.SuggestionPending)

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
		sortField := ValidateSortField(filter.OrderBy, SuggestionSortFields, "")
		if sortField != "" {
			sortOrder := ValidateSortOrder(filter.OrderDir)
			query = query.Order(sortField + " " + sortOrder)
		} else {
			query = query.Order("created_at ASC")
		}
	} else {
		query = query.Order("created_at ASC")
	}

	var suggestionModels []models.SuggestionModel
	if err := query.Find(&suggestionModels).Error; err != nil {
		return empty, err
	}

	suggestions := make([]*conversation.Suggestion, len(suggestionModels))
	for i := range suggestionModels {
		suggestions[i] = suggestionModels[i].ToDomain()
	}
	return shared.NewPaginated(suggestions, total, filter.Page, filter.PageSize), nil
}

// FindExpirable returns pending suggestions whose deadline passed
func (r *GormSuggestionRepository) FindExpirable(ctx context.Context, now time.Time, limit int) ([]*conversation.Suggestion, error) {
	var suggestionModels []models.SuggestionModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", conversation.SuggestionPending, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&suggestionModels).Error
	if err != nil {
		return nil, err
	}

	suggestions := make([]*conversation.Suggestion, len(suggestionModels))
	for i := range suggestionModels {
		suggestions[i] = suggestionModels[i].ToDomain()
	}
	return suggestions, nil
}

// FindResolvedOlderThan returns non-pending suggestions created before
// the cutoff, oldest first
func (r *GormSuggestionRepository) FindResolvedOlderThan(ctx context.Context, before time.Time, limit int) ([]*conversation.Suggestion, error) {
	var suggestionModels []models.SuggestionModel
	err := r.db.WithContext(ctx).
		Where("status != ? AND created_at < ?", conversation.SuggestionPending, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&suggestionModels).Error
	if err != nil {
		return nil, err
	}

	suggestions := make([]*conversation.Suggestion, len(suggestionModels))
	for i := range suggestionModels {
		suggestions[i] = suggestionModels[i].ToDomain()
	}
	return suggestions, nil
}

// DeleteResolvedOlderThan prunes non-pending suggestions created before
// the cutoff and returns the count of deleted rows
func (r *GormSuggestionRepository) DeleteResolvedOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Delete(&models.SuggestionModel{}, "status != ? AND created_at < ?", conversation.SuggestionPending, before)
	return result.RowsAffected, result.Error
}

// CountByStatus counts suggestions created in the window grouped by status
func (r *GormSuggestionRepository) CountByStatus(ctx context.Context, from, to time.Time) (map[conversation.SuggestionStatus]int64, error) {
	var rows []struct {
		Status conversation.SuggestionStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.SuggestionModel{}).
		Select("status, COUNT(*) as count").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[conversation.SuggestionStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Ensure GormSuggestionRepository implements conversation.SuggestionRepository
var _ conversation.SuggestionRepository = (*GormSuggestionRepository)(nil)
