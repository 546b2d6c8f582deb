package pls

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/conversation"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// ArchiveStore writes archive exports to durable object storage
type ArchiveStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// ArchiveServiceConfig controls the retention windows for the archive pass
type ArchiveServiceConfig struct {
	// ShadowRetention is how long shadow log entries and resolved
	// suggestions stay in the database before export and pruning
	ShadowRetention time.Duration
	// MessageRetention is how long routed inbound messages stay in the
	// database. Messages are pruned without export.
	MessageRetention time.Duration
	// BatchSize caps rows per exported object
	BatchSize int
}

const ndjsonContentType = "application/x-ndjson"

// ArchiveService exports aged shadow log entries and resolved suggestions
// to object storage, then prunes them along with old inbound messages.
// Invoked by the scheduler as part of the daily maintenance pass.
type ArchiveService struct {
	shadowRepo     conversation.ShadowLogRepository
	suggestionRepo conversation.SuggestionRepository
	messageRepo    conversation.MessageRepository
	store          ArchiveStore
	config         ArchiveServiceConfig
	logger         *zap.Logger
}

// NewArchiveService creates a new archive service
func NewArchiveService(
	shadowRepo conversation.ShadowLogRepository,
	suggestionRepo conversation.SuggestionRepository,
	messageRepo conversation.MessageRepository,
	store ArchiveStore,
	config ArchiveServiceConfig,
	logger *zap.Logger,
) *ArchiveService {
	if config.ShadowRetention <= 0 {
		config.ShadowRetention = 90 * 24 * time.Hour
	}
	if config.MessageRetention <= 0 {
		config.MessageRetention = 180 * 24 * time.Hour
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 1000
	}
	return &ArchiveService{
		shadowRepo:     shadowRepo,
		suggestionRepo: suggestionRepo,
		messageRepo:    messageRepo,
		store:          store,
		config:         config,
		logger:         logger,
	}
}

// ArchiveReport summarizes one archive pass
type ArchiveReport struct {
	ShadowExported      int   `json:"shadow_exported"`
	ShadowDeleted       int64 `json:"shadow_deleted"`
	SuggestionsExported int   `json:"suggestions_exported"`
	SuggestionsDeleted  int64 `json:"suggestions_deleted"`
	MessagesDeleted     int64 `json:"messages_deleted"`
}

// Run exports data older than the retention windows and prunes it.
// Rows are only deleted after their export object was uploaded, so a
// failed upload leaves everything in place for the next pass.
func (s *ArchiveService) Run(ctx context.Context, now time.Time) (*ArchiveReport, error) {
	report := &ArchiveReport{}
	cutoff := now.Add(-s.config.ShadowRetention)

	exported, err := s.exportShadowLogs(ctx, now, cutoff)
	if err != nil {
		s.logger.Error("Shadow log export failed", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to export shadow log entries")
	}
	report.ShadowExported = exported

	if exported > 0 {
		deleted, err := s.shadowRepo.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			s.logger.Error("Shadow log pruning failed", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to prune shadow log entries")
		}
		report.ShadowDeleted = deleted
	}

	exported, err = s.exportSuggestions(ctx, now, cutoff)
	if err != nil {
		s.logger.Error("Suggestion export failed", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to export resolved suggestions")
	}
	report.SuggestionsExported = exported

	if exported > 0 {
		deleted, err := s.suggestionRepo.DeleteResolvedOlderThan(ctx, cutoff)
		if err != nil {
			s.logger.Error("Suggestion pruning failed", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to prune resolved suggestions")
		}
		report.SuggestionsDeleted = deleted
	}

	// Routed messages hold raw customer text and are pruned without
	// export once the retention window passes
	messageCutoff := now.Add(-s.config.MessageRetention)
	deleted, err := s.messageRepo.DeleteOlderThan(ctx, messageCutoff)
	if err != nil {
		s.logger.Error("Message pruning failed", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to prune inbound messages")
	}
	report.MessagesDeleted = deleted

	if report.ShadowExported > 0 || report.SuggestionsExported > 0 || report.MessagesDeleted > 0 {
		s.logger.Info("Archive pass complete",
			zap.Int("shadow_exported", report.ShadowExported),
			zap.Int64("shadow_deleted", report.ShadowDeleted),
			zap.Int("suggestions_exported", report.SuggestionsExported),
			zap.Int64("suggestions_deleted", report.SuggestionsDeleted),
			zap.Int64("messages_deleted", report.MessagesDeleted))
	}
	return report, nil
}

// exportShadowLogs writes shadow entries older than the cutoff to storage
// as NDJSON, one object per batch
func (s *ArchiveService) exportShadowLogs(ctx context.Context, now, cutoff time.Time) (int, error) {
	// Rows stay in place until the prune runs, so each fetch widens the
	// limit and skips what was already exported
	exported := 0
	for batch := 1; ; batch++ {
		entries, err := s.shadowRepo.FindOlderThan(ctx, cutoff, exported+s.config.BatchSize)
		if err != nil {
			return exported, err
		}
		if len(entries) <= exported {
			return exported, nil
		}
		entries = entries[exported:]

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, entry := range entries {
			if err := enc.Encode(entry); err != nil {
				return exported, err
			}
		}

		key := archiveKey("shadow", now, batch)
		if err := s.store.Upload(ctx, key, buf.Bytes(), ndjsonContentType); err != nil {
			return exported, err
		}
		exported += len(entries)

		if len(entries) < s.config.BatchSize {
			return exported, nil
		}
	}
}

// exportSuggestions writes resolved suggestions older than the cutoff to
// storage as NDJSON, one object per batch
func (s *ArchiveService) exportSuggestions(ctx context.Context, now, cutoff time.Time) (int, error) {
	exported := 0
	for batch := 1; ; batch++ {
		suggestions, err := s.suggestionRepo.FindResolvedOlderThan(ctx, cutoff, exported+s.config.BatchSize)
		if err != nil {
			return exported, err
		}
		if len(suggestions) <= exported {
			return exported, nil
		}
		suggestions = suggestions[exported:]

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, sug := range suggestions {
			info := ToSuggestionInfo(sug)
			if err := enc.Encode(info); err != nil {
				return exported, err
			}
		}

		key := archiveKey("suggestions", now, batch)
		if err := s.store.Upload(ctx, key, buf.Bytes(), ndjsonContentType); err != nil {
			return exported, err
		}
		exported += len(suggestions)

		if len(suggestions) < s.config.BatchSize {
			return exported, nil
		}
	}
}

// archiveKey builds the storage key for one export batch, partitioned by
// run date so daily runs never collide
func archiveKey(kind string, now time.Time, batch int) string {
	return fmt.Sprintf("%s/%s/%s-%s-%03d.ndjson",
		kind, now.Format("2006-01-02"), kind, now.Format("150405"), batch)
}
