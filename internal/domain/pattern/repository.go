package pattern

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// Repository defines pattern persistence
type Repository interface {
	Save(ctx context.Context, p *Pattern) error
	Update(ctx context.Context, p *Pattern) error
	FindByID(ctx context.Context, id uuid.UUID) (*Pattern, error)
	FindBySignature(ctx context.Context, hash string) (*Pattern, error)
	// FindCandidates returns patterns eligible for matching a message of
	// the given type: same-typed and general patterns in active status,
	// plus inactive ones when includeInactive is set (shadow evaluation).
	FindCandidates(ctx context.Context, msgType PatternType, includeInactive bool) ([]*Pattern, error)
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*Pattern], error)
	// FindDecayable returns active patterns with no activity since the cutoff
	FindDecayable(ctx context.Context, idleSince time.Time, limit int) ([]*Pattern, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[PatternStatus]int64, error)
	CountByType(ctx context.Context) (map[PatternType]int64, error)
}

// ConfigRepository persists the engine configuration singleton
type ConfigRepository interface {
	// Get returns the current configuration, creating the default row
	// on first access
	Get(ctx context.Context) (*EngineConfig, error)
	Update(ctx context.Context, c *EngineConfig) error
}

// AuditRepository persists configuration audit entries
type AuditRepository interface {
	Save(ctx context.Context, entry *ConfigAuditLog) error
	FindRecent(ctx context.Context, limit int) ([]*ConfigAuditLog, error)
	FindByAction(ctx context.Context, action AuditAction, filter shared.Filter) (shared.Paginated[*ConfigAuditLog], error)
}
