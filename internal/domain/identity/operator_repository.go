package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// OperatorRepository defines operator persistence
type OperatorRepository interface {
	Save(ctx context.Context, op *Operator) error
	Update(ctx context.Context, op *Operator) error
	FindByID(ctx context.Context, id uuid.UUID) (*Operator, error)
	FindByUsername(ctx context.Context, username string) (*Operator, error)
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[*Operator], error)
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
