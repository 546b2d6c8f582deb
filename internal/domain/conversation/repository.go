package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// MessageRepository defines inbound message persistence
type MessageRepository interface {
	Save(ctx context.Context, m *InboundMessage) error
	Update(ctx context.Context, m *InboundMessage) error
	FindByID(ctx context.Context, id uuid.UUID) (*InboundMessage, error)
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*InboundMessage], error)
	FindBySender(ctx context.Context, sender string, filter shared.Filter) (shared.Paginated[*InboundMessage], error)
	CountByStatus(ctx context.Context, from, to time.Time) (map[MessageStatus]int64, error)
	// FindRecentBySignature returns messages carrying the signature inside
	// the window, newest first. The learner uses this to spot clusters.
	FindRecentBySignature(ctx context.Context, signatureHash string, since time.Time, limit int) ([]*InboundMessage, error)
	// FindUnmatchedClusters returns signature hashes of queued messages
	// with at least minCount occurrences since the cutoff, most frequent
	// first. These are the learner's raw material.
	FindUnmatchedClusters(ctx context.Context, since time.Time, minCount int, limit int) ([]SignatureCluster, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// SignatureCluster groups queued messages that share a signature
type SignatureCluster struct {
	SignatureHash string
	Count         int64
	SampleBodies  []string
	FirstSeen     time.Time
	LastSeen      time.Time
}

// SuggestionRepository defines suggestion persistence
type SuggestionRepository interface {
	Save(ctx context.Context, s *Suggestion) error
	Update(ctx context.Context, s *Suggestion) error
	FindByID(ctx context.Context, id uuid.UUID) (*Suggestion, error)
	FindByMessageID(ctx context.Context, messageID uuid.UUID) (*Suggestion, error)
	FindOpen(ctx context.Context, filter shared.Filter) (shared.Paginated[*Suggestion], error)
	// FindExpirable returns pending suggestions whose deadline passed
	FindExpirable(ctx context.Context, now time.Time, limit int) ([]*Suggestion, error)
	// FindResolvedOlderThan returns non-pending suggestions created before
	// the cutoff, oldest first. The archiver exports these before pruning.
	FindResolvedOlderThan(ctx context.Context, before time.Time, limit int) ([]*Suggestion, error)
	// DeleteResolvedOlderThan prunes non-pending suggestions created
	// before the cutoff
	DeleteResolvedOlderThan(ctx context.Context, before time.Time) (int64, error)
	CountByStatus(ctx context.Context, from, to time.Time) (map[SuggestionStatus]int64, error)
}

// ShadowLogRepository defines shadow log persistence
type ShadowLogRepository interface {
	Save(ctx context.Context, entry *ShadowLogEntry) error
	FindByMessageID(ctx context.Context, messageID uuid.UUID) ([]*ShadowLogEntry, error)
	FindRecent(ctx context.Context, filter shared.Filter) (shared.Paginated[*ShadowLogEntry], error)
	// FindOlderThan returns entries created before the cutoff, oldest
	// first. The archiver exports these before pruning.
	FindOlderThan(ctx context.Context, before time.Time, limit int) ([]*ShadowLogEntry, error)
	Stats(ctx context.Context, from, to time.Time) (*ShadowStats, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
