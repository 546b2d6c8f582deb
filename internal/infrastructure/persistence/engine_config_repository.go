package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/persistence/models"
)

// GormEngineConfigRepository implements pattern.ConfigRepository using GORM.
// The engine configuration is a singleton row created on first access.
type GormEngineConfigRepository struct {
	db *gorm.DB
}

// NewGormEngineConfigRepository creates a new GormEngineConfigRepository
func NewGormEngineConfigRepository(db *gorm.DB) *GormEngineConfigRepository {
	return &GormEngineConfigRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormEngineConfigRepository) WithTx(tx *gorm.DB) *GormEngineConfigRepository {
	return &GormEngineConfigRepository{db: tx}
}

// Get returns the current configuration, creating the default row on
// first access. Concurrent first accesses race on the insert; the loser
// re-reads the winner's row.
func (r *GormEngineConfigRepository) Get(ctx context.Context) (*pattern.EngineConfig, error) {
	var model models.EngineConfigModel
	err := r.db.WithContext(ctx).Order("created_at ASC").First(&model).Error
	if err == nil {
		return model.ToDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cfg := pattern.NewEngineConfig()
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.EngineConfigModelFromDomain(cfg))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		return cfg, nil
	}

	if err := r.db.WithContext(ctx).Order("created_at ASC").First(&model).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Update persists configuration changes with optimistic locking
func (r *GormEngineConfigRepository) Update(ctx context.Context, c *pattern.EngineConfig) error {
	model := models.EngineConfigModelFromDomain(c)

	result := r.db.WithContext(ctx).
		Model(&models.EngineConfigModel{}).
		Where("id = ? AND version <= ?", c.ID, c.Version).
		Updates(map[string]any{
			"enabled":         model.Enabled,
			"shadow_mode":     model.ShadowMode,
			"thresholds":      model.ThresholdsJSON,
			"feedback_policy": model.FeedbackJSON,
			"decay_policy":    model.DecayJSON,
			"updated_by":      model.UpdatedBy,
			"version":         model.Version,
			"updated_at":      model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&models.EngineConfigModel{}).Where("id = ?", c.ID).Count(&count)
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Engine configuration was modified by another transaction")
	}
	return nil
}

// Ensure GormEngineConfigRepository implements pattern.ConfigRepository
var _ pattern.ConfigRepository = (*GormEngineConfigRepository)(nil)
