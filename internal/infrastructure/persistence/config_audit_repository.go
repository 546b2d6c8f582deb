package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/persistence/models"
)

// GormConfigAuditRepository implements pattern.AuditRepository using GORM
type GormConfigAuditRepository struct {
	db *gorm.DB
}

// NewGormConfigAuditRepository creates a new GormConfigAuditRepository
func NewGormConfigAuditRepository(db *gorm.DB) *GormConfigAuditRepository {
	return &GormConfigAuditRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormConfigAuditRepository) WithTx(tx *gorm.DB) *GormConfigAuditRepository {
	return &GormConfigAuditRepository{db: tx}
}

// Save creates a new audit log entry
func (r *GormConfigAuditRepository) Save(ctx context.Context, entry *pattern.ConfigAuditLog) error {
	model := models.ConfigAuditLogModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindRecent returns the most recent audit entries, newest first
func (r *GormConfigAuditRepository) FindRecent(ctx context.Context, limit int) ([]*pattern.ConfigAuditLog, error) {
	var logModels []models.ConfigAuditLogModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logModels).Error
	if err != nil {
		return nil, err
	}

	logs := make([]*pattern.ConfigAuditLog, len(logModels))
	for i := range logModels {
		logs[i] = logModels[i].ToDomain()
	}
	return logs, nil
}

// FindByAction returns audit entries for a specific action with pagination
func (r *GormConfigAuditRepository) FindByAction(ctx context.Context, action pattern.AuditAction, filter shared.Filter) (shared.Paginated[*pattern.ConfigAuditLog], error) {
	var empty shared.Paginated[*pattern.ConfigAuditLog]

	base := r.db.WithContext(ctx).Model(&models.ConfigAuditLogModel{}).Where("action = ?", action)

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
		sortField := ValidateSortField(filter.OrderBy, ConfigAuditSortFields, "")
		if sortField != "" {
			sortOrder := ValidateSortOrder(filter.OrderDir)
			query = query.Order(sortField + " " + sortOrder)
		} else {
			query = query.Order("created_at DESC")
		}
	} else {
		query = query.Order("created_at DESC")
	}

	var logModels []models.ConfigAuditLogModel
	if err := query.Find(&logModels).Error; err != nil {
		return empty, err
	}

	logs := make([]*pattern.ConfigAuditLog, len(logModels))
	for i := range logModels {
		logs[i] = logModels[i].ToDomain()
	}
	return shared.NewPaginated(logs, total, filter.Page, filter.PageSize), nil
}

// Ensure GormConfigAuditRepository implements pattern.AuditRepository
var _ pattern.AuditRepository = (*GormConfigAuditRepository)(nil)
