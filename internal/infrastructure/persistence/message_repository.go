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

// clusterSampleLimit is how many example bodies are attached to each
// unmatched signature cluster
const clusterSampleLimit = 3

// GormMessageRepository implements conversation.MessageRepository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormMessageRepository) WithTx(tx *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: tx}
}

// Save creates a new inbound message
func (r *GormMessageRepository) Save(ctx context.Context, m *conversation.InboundMessage) error {
	model := models.InboundMessageModelFromDomain(m)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists message changes with optimistic locking
func (r *GormMessageRepository) Update(ctx context.Context, m *conversation.InboundMessage) error {
	model := models.InboundMessageModelFromDomain(m)

	result := r.db.WithContext(ctx).
		Model(&models.InboundMessageModel{}).
		Where("id = ? AND version <= ?", m.ID, m.Version).
		Updates(map[string]any{
			"signature_hash":     model.SignatureHash,
			"detected_type":      model.DetectedType,
			"status":             model.Status,
			"matched_pattern_id": model.MatchedPatternID,
			"match_score":        model.MatchScore,
			"gate_reason":        model.GateReason,
			"auto_response":      model.AutoResponse,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&models.InboundMessageModel{}).Where("id = ?", m.ID).Count(&count)
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Message was modified by another transaction")
	}
	return nil
}

// FindByID finds an inbound message by its ID
func (r *GormMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*conversation.InboundMessage, error) {
	var model models.InboundMessageModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll retrieves messages with filtering and pagination
func (r *GormMessageRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*conversation.InboundMessage], error) {
	return r.findPaginated(ctx, r.db.WithContext(ctx).Model(&models.InboundMessageModel{}), filter)
}

// FindBySender retrieves messages from a specific sender with pagination
func (r *GormMessageRepository) FindBySender(ctx context.Context, sender string, filter shared.Filter) (shared.Paginated[*conversation.InboundMessage], error) {
	query := r.db.WithContext(ctx).Model(&models.InboundMessageModel{}).Where("sender = ?", sender)
	return r.findPaginated(ctx, query, filter)
}

// CountByStatus counts messages received in the window grouped by status
func (r *GormMessageRepository) CountByStatus(ctx context.Context, from, to time.Time) (map[conversation.MessageStatus]int64, error) {
	var rows []struct {
		Status conversation.MessageStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.InboundMessageModel{}).
		Select("status, COUNT(*) as count").
		Where("received_at >= ? AND received_at < ?", from, to).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[conversation.MessageStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// FindRecentBySignature returns messages carrying the signature inside the
// window, newest first
func (r *GormMessageRepository) FindRecentBySignature(ctx context.Context, signatureHash string, since time.Time, limit int) ([]*conversation.InboundMessage, error) {
	var messageModels []models.InboundMessageModel
	err := r.db.WithContext(ctx).
		Where("signature_hash = ? AND received_at >= ?", signatureHash, since).
		Order("received_at DESC").
		Limit(limit).
		Find(&messageModels).Error
	if err != nil {
		return nil, err
	}

	messages := make([]*conversation.InboundMessage, len(messageModels))
	for i := range messageModels {
		messages[i] = messageModels[i].ToDomain()
	}
	return messages, nil
}

// FindUnmatchedClusters returns signature hashes of unactioned messages
// with at least minCount occurrences since the cutoff, most frequent
// first. Queued misses and shadow-logged messages that never matched a
// pattern both count; a few sample bodies are attached to each cluster
// for the learner's prompt.
func (r *GormMessageRepository) FindUnmatchedClusters(ctx context.Context, since time.Time, minCount int, limit int) ([]conversation.SignatureCluster, error) {
	unactioned := []conversation.MessageStatus{conversation.MessageStatusQueued, conversation.MessageStatusShadowLogged}

	var rows []struct {
		SignatureHash string
		Count         int64
		FirstSeen     time.Time
		LastSeen      time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&models.InboundMessageModel{}).
		Select("signature_hash, COUNT(*) as count, MIN(received_at) as first_seen, MAX(received_at) as last_seen").
		Where("status IN ? AND matched_pattern_id IS NULL AND signature_hash != '' AND received_at >= ?", unactioned, since).
		Group("signature_hash").
		Having("COUNT(*) >= ?", minCount).
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	clusters := make([]conversation.SignatureCluster, 0, len(rows))
	for _, row := range rows {
		var bodies []string
		err := r.db.WithContext(ctx).
			Model(&models.InboundMessageModel{}).
			Select("body").
			Where("signature_hash = ? AND status IN ? AND matched_pattern_id IS NULL AND received_at >= ?",
				row.SignatureHash, unactioned, since).
			Order("received_at DESC").
			Limit(clusterSampleLimit).
			Scan(&bodies).Error
		if err != nil {
			return nil, err
		}

		clusters = append(clusters, conversation.SignatureCluster{
			SignatureHash: row.SignatureHash,
			Count:         row.Count,
			SampleBodies:  bodies,
			FirstSeen:     row.FirstSeen,
			LastSeen:      row.LastSeen,
		})
	}
	return clusters, nil
}

// DeleteOlderThan removes messages received before the cutoff and returns
// the count of deleted rows
func (r *GormMessageRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Delete(&models.InboundMessageModel{}, "received_at < ?", before)
	return result.RowsAffected, result.Error
}

func (r *GormMessageRepository) findPaginated(ctx context.Context, base *gorm.DB, filter shared.Filter) (shared.Paginated[*conversation.InboundMessage], error) {
	var empty shared.Paginated[*conversation.InboundMessage]

	filtered := r.applyMessageFilterWithoutPagination(base, filter)

	var total int64
	if err := filtered.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return empty, err
	}

	query := filtered.Session(&gorm.Session{})
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, MessageSortFields, "")
		if sortField != "" {
			sortOrder := ValidateSortOrder(filter.OrderDir)
			query = query.Order(sortField + " " + sortOrder)
		} else {
			query = query.Order("received_at DESC")
		}
	} else {
		query = query.Order("received_at DESC")
	}

	var messageModels []models.InboundMessageModel
	if err := query.Find(&messageModels).Error; err != nil {
		return empty, err
	}

	messages := make([]*conversation.InboundMessage, len(messageModels))
	for i := range messageModels {
		messages[i] = messageModels[i].ToDomain()
	}
	return shared.NewPaginated(messages, total, filter.Page, filter.PageSize), nil
}

// applyMessageFilterWithoutPagination applies filter options without pagination
func (r *GormMessageRepository) applyMessageFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("body ILIKE ? OR sender ILIKE ?", search, search)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "channel":
			query = query.Where("channel = ?", value)
		case "detected_type":
			query = query.Where("detected_type = ?", value)
		case "signature_hash":
			query = query.Where("signature_hash = ?", value)
		case "matched_pattern_id":
			query = query.Where("matched_pattern_id = ?", value)
		}
	}

	return query
}

// Ensure GormMessageRepository implements conversation.MessageRepository
var _ conversation.MessageRepository = (*GormMessageRepository)(nil)
