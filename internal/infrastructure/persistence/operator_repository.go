package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/identity"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/persistence/models"
)

// GormOperatorRepository implements identity.OperatorRepository using GORM
type GormOperatorRepository struct {
	db *gorm.DB
}

// NewGormOperatorRepository creates a new GormOperatorRepository
func NewGormOperatorRepository(db *gorm.DB) *GormOperatorRepository {
	return &GormOperatorRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormOperatorRepository) WithTx(tx *gorm.DB) *GormOperatorRepository {
	return &GormOperatorRepository{db: tx}
}

// Save creates a new operator. Usernames are unique.
func (r *GormOperatorRepository) Save(ctx context.Context, op *identity.Operator) error {
	model := models.OperatorModelFromDomain(op)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoNothing: true,
		}).
		Create(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("USERNAME_TAKEN", "An operator with this username already exists")
	}
	return nil
}

// Update persists operator changes with optimistic locking
func (r *GormOperatorRepository) Update(ctx context.Context, op *identity.Operator) error {
	model := models.OperatorModelFromDomain(op)

	result := r.db.WithContext(ctx).
		Model(&models.OperatorModel{}).
		Where("id = ? AND version <= ?", op.ID, op.Version).
		Updates(map[string]any{
			"email":           model.Email,
			"password_hash":   model.PasswordHash,
			"display_name":    model.DisplayName,
			"role":            model.Role,
			"status":          model.Status,
			"last_login_at":   model.LastLoginAt,
			"last_login_ip":   model.LastLoginIP,
			"failed_attempts": model.FailedAttempts,
			"locked_until":    model.LockedUntil,
			"version":         model.Version,
			"updated_at":      model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&models.OperatorModel{}).Where("id = ?", op.ID).Count(&count)
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Operator was modified by another transaction")
	}
	return nil
}

// FindByID finds an operator by ID
func (r *GormOperatorRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Operator, error) {
	var model models.OperatorModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUsername finds an operator by username
func (r *GormOperatorRepository) FindByUsername(ctx context.Context, username string) (*identity.Operator, error) {
	var model models.OperatorModel
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll retrieves operators with filtering and pagination
func (r *GormOperatorRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*identity.Operator], error) {
	var empty shared.Paginated[*identity.Operator]

	base := r.db.WithContext(ctx).Model(&models.OperatorModel{})
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		base = base.Where("username ILIKE ? OR display_name ILIKE ? OR email ILIKE ?", search, search, search)
	}
	for key, value := range filter.Filters {
		switch key {
		case "role":
			base = base.Where("role = ?", value)
		case "status":
			base = base.Where("status = ?", value)
		}
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
		sortField := ValidateSortField(filter.OrderBy, OperatorSortFields, "")
		if sortField != "" {
			sortOrder := ValidateSortOrder(filter.OrderDir)
			query = query.Order(sortField + " " + sortOrder)
		} else {
			query = query.Order("username ASC")
		}
	} else {
		query = query.Order("username ASC")
	}

	var operatorModels []models.OperatorModel
	if err := query.Find(&operatorModels).Error; err != nil {
		return empty, err
	}

	operators := make([]*identity.Operator, len(operatorModels))
	for i := range operatorModels {
		operators[i] = operatorModels[i].ToDomain()
	}
	return shared.NewPaginated(operators, total, filter.Page, filter.PageSize), nil
}

// Delete removes an operator
func (r *GormOperatorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.OperatorModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByUsername checks if an operator with the given username exists
func (r *GormOperatorRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OperatorModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormOperatorRepository implements identity.OperatorRepository
var _ identity.OperatorRepository = (*GormOperatorRepository)(nil)
