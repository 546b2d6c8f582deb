package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/persistence/models"
)

// GormPatternRepository implements pattern.Repository using GORM
type GormPatternRepository struct {
	db *gorm.DB
}

// NewGormPatternRepository creates a new GormPatternRepository
func NewGormPatternRepository(db *gorm.DB) *GormPatternRepository {
	return &GormPatternRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormPatternRepository) WithTx(tx *gorm.DB) *GormPatternRepository {
	return &GormPatternRepository{db: tx}
}

// Save creates a new pattern. The signature hash is unique: a second
// pattern with the same signature is rejected.
func (r *GormPatternRepository) Save(ctx context.Context, p *pattern.Pattern) error {
	model := models.PatternModelFromDomain(p)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "signature_hash"}},
			DoNothing: true,
		}).
		Create(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("DUPLICATE_PATTERN", "A pattern with this signature already exists")
	}
	return nil
}

// Update persists pattern changes with optimistic locking. The domain
// bumps the version on state transitions; counter-only updates (match
// bookkeeping) write at the same version. A row whose version already
// moved past the aggregate's loses the write.
func (r *GormPatternRepository) Update(ctx context.Context, p *pattern.Pattern) error {
	model := models.PatternModelFromDomain(p)

	result := r.db.WithContext(ctx).
		Model(&models.PatternModel{}).
		Where("id = ? AND version <= ?", p.ID, p.Version).
		Updates(map[string]any{
			"status":           model.Status,
			"template_body":    model.TemplateBody,
			"confidence":       model.Confidence,
			"auto_executable":  model.AutoExecutable,
			"times_matched":    model.TimesMatched,
			"times_accepted":   model.TimesAccepted,
			"times_modified":   model.TimesModified,
			"times_rejected":   model.TimesRejected,
			"last_matched_at":  model.LastMatchedAt,
			"last_feedback_at": model.LastFeedbackAt,
			"notes":            model.Notes,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&models.PatternModel{}).Where("id = ?", p.ID).Count(&count)
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Pattern was modified by another transaction")
	}
	return nil
}

// FindByID finds a pattern by its ID
func (r *GormPatternRepository) FindByID(ctx context.Context, id uuid.UUID) (*pattern.Pattern, error) {
	var model models.PatternModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySignature finds a non-deleted pattern by its signature hash
func (r *GormPatternRepository) FindBySignature(ctx context.Context, hash string) (*pattern.Pattern, error) {
	var model models.PatternModel
	err := r.db.WithContext(ctx).
		Where("signature_hash = ? AND status != ?", hash, pattern.StatusDeleted).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindCandidates returns patterns eligible for matching a message of the
// given type: same-typed and general patterns in active status, plus
// inactive ones when includeInactive is set (shadow evaluation).
func (r *GormPatternRepository) FindCandidates(ctx context.Context, msgType pattern.PatternType, includeInactive bool) ([]*pattern.Pattern, error) {
	statuses := []pattern.PatternStatus{pattern.StatusActive}
	if includeInactive {
		statuses = append(statuses, pattern.StatusInactive)
	}

	types := []pattern.PatternType{msgType}
	if msgType != pattern.TypeGeneral {
		types = append(types, pattern.TypeGeneral)
	}

	var patternModels []models.PatternModel
	err := r.db.WithContext(ctx).
		Where("status IN ? AND type IN ?", statuses, types).
		Order("confidence DESC").
		Find(&patternModels).Error
	if err != nil {
		return nil, err
	}

	patterns := make([]*pattern.Pattern, len(patternModels))
	for i := range patternModels {
		patterns[i] = patternModels[i].ToDomain()
	}
	return patterns, nil
}

// FindAll retrieves patterns with filtering and pagination
func (r *GormPatternRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*pattern.Pattern], error) {
	var empty shared.Paginated[*pattern.Pattern]

	countQuery := r.applyPatternFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.PatternModel{}), filter)
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return empty, err
	}

	var patternModels []models.PatternModel
	query := r.applyPatternFilter(r.db.WithContext(ctx).Model(&models.PatternModel{}), filter)
	if err := query.Find(&patternModels).Error; err != nil {
		return empty, err
	}

	patterns := make([]*pattern.Pattern, len(patternModels))
	for i := range patternModels {
		patterns[i] = patternModels[i].ToDomain()
	}
	return shared.NewPaginated(patterns, total, filter.Page, filter.PageSize), nil
}

// FindDecayable returns active patterns with no activity since the cutoff.
// Activity is the most recent of creation, last match and last feedback.
func (r *GormPatternRepository) FindDecayable(ctx context.Context, idleSince time.Time, limit int) ([]*pattern.Pattern, error) {
	var patternModels []models.PatternModel
	err := r.db.WithContext(ctx).
		Where("status = ?", pattern.StatusActive).
		Where("GREATEST(created_at, COALESCE(last_matched_at, created_at), COALESCE(last_feedback_at, created_at)) < ?", idleSince).
		Order("created_at ASC").
		Limit(limit).
		Find(&patternModels).Error
	if err != nil {
		return nil, err
	}

	patterns := make([]*pattern.Pattern, len(patternModels))
	for i := range patternModels {
		patterns[i] = patternModels[i].ToDomain()
	}
	return patterns, nil
}

// Delete removes a pattern row. The domain soft-deletes patterns; this is
// for purging soft-deleted rows during retention cleanup.
func (r *GormPatternRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PatternModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByStatus counts patterns grouped by lifecycle status
func (r *GormPatternRepository) CountByStatus(ctx context.Context) (map[pattern.PatternStatus]int64, error) {
	var rows []struct {
		Status pattern.PatternStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.PatternModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[pattern.PatternStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountByType counts non-deleted patterns grouped by type
func (r *GormPatternRepository) CountByType(ctx context.Context) (map[pattern.PatternType]int64, error) {
	var rows []struct {
		Type  pattern.PatternType
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.PatternModel{}).
		Select("type, COUNT(*) as count").
		Where("status != ?", pattern.StatusDeleted).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[pattern.PatternType]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}

// applyPatternFilter applies filter options to the query
func (r *GormPatternRepository) applyPatternFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyPatternFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, PatternSortFields, "")
		if sortField != "" {
			sortOrder := ValidateSortOrder(filter.OrderDir)
			query = query.Order(sortField + " " + sortOrder)
		} else {
			query = query.Order("created_at DESC")
		}
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyPatternFilterWithoutPagination applies filter options without pagination
func (r *GormPatternRepository) applyPatternFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("trigger_text ILIKE ? OR template_body ILIKE ? OR notes ILIKE ?", search, search, search)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "origin":
			query = query.Where("origin = ?", value)
		case "auto_executable":
			query = query.Where("auto_executable = ?", value)
		case "min_confidence":
			query = query.Where("confidence >= ?", value)
		}
	}

	return query
}

// Ensure GormPatternRepository implements pattern.Repository
var _ pattern.Repository = (*GormPatternRepository)(nil)
