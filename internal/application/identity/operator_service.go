package identity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/identity"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// OperatorService handles operator account management
type OperatorService struct {
	operatorRepo identity.OperatorRepository
	logger       *zap.Logger
}

// NewOperatorService creates a new operator service
func NewOperatorService(operatorRepo identity.OperatorRepository, logger *zap.Logger) *OperatorService {
	return &OperatorService{
		operatorRepo: operatorRepo,
		logger:       logger,
	}
}

// CreateOperator creates a new operator account
func (s *OperatorService) CreateOperator(ctx context.Context, input CreateOperatorInput) (*OperatorInfo, error) {
	exists, err := s.operatorRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Error("Failed to check username availability", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check username availability")
	}
	if exists {
		return nil, shared.NewDomainError("USERNAME_TAKEN", "Username is already in use")
	}

	op, err := identity.NewOperator(input.Username, input.Password, input.Role)
	if err != nil {
		return nil, err
	}
	if input.Email != "" {
		if err := op.SetEmail(input.Email); err != nil {
			return nil, err
		}
	}
	if input.DisplayName != "" {
		if err := op.SetDisplayName(input.DisplayName); err != nil {
			return nil, err
		}
	}

	if err := s.operatorRepo.Save(ctx, op); err != nil {
		s.logger.Error("Failed to save operator", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create operator")
	}

	s.logger.Info("Operator created",
		zap.String("operator_id", op.ID.String()),
		zap.String("username", op.Username),
		zap.String("role", string(op.Role)))

	info := ToOperatorInfo(op)
	return &info, nil
}

// UpdateOperator updates an operator's profile or role
func (s *OperatorService) UpdateOperator(ctx context.Context, input UpdateOperatorInput) (*OperatorInfo, error) {
	op, err := s.operatorRepo.FindByID(ctx, input.OperatorID)
	if err != nil {
		return nil, shared.NewDomainError("OPERATOR_NOT_FOUND", "Operator not found")
	}

	if input.Email != nil {
		if err := op.SetEmail(*input.Email); err != nil {
			return nil, err
		}
	}
	if input.DisplayName != nil {
		if err := op.SetDisplayName(*input.DisplayName); err != nil {
			return nil, err
		}
	}
	if input.Role != nil {
		if err := op.SetRole(*input.Role); err != nil {
			return nil, err
		}
	}

	if err := s.operatorRepo.Update(ctx, op); err != nil {
		s.logger.Error("Failed to update operator", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update operator")
	}

	info := ToOperatorInfo(op)
	return &info, nil
}

// GetOperator retrieves a single operator
func (s *OperatorService) GetOperator(ctx context.Context, id uuid.UUID) (*OperatorInfo, error) {
	op, err := s.operatorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.NewDomainError("OPERATOR_NOT_FOUND", "Operator not found")
	}

	info := ToOperatorInfo(op)
	return &info, nil
}

// ListOperators lists operators with pagination
func (s *OperatorService) ListOperators(ctx context.Context, filter shared.Filter) (*shared.Paginated[OperatorInfo], error) {
	page, err := s.operatorRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list operators", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list operators")
	}

	infos := make([]OperatorInfo, 0, len(page.Items))
	for _, op := range page.Items {
		infos = append(infos, ToOperatorInfo(op))
	}

	result := shared.NewPaginated(infos, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// DeactivateOperator deactivates an operator account
func (s *OperatorService) DeactivateOperator(ctx context.Context, id uuid.UUID) error {
	op, err := s.operatorRepo.FindByID(ctx, id)
	if err != nil {
		return shared.NewDomainError("OPERATOR_NOT_FOUND", "Operator not found")
	}

	if err := op.Deactivate(); err != nil {
		return err
	}

	if err := s.operatorRepo.Update(ctx, op); err != nil {
		s.logger.Error("Failed to deactivate operator", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to deactivate operator")
	}

	s.logger.Info("Operator deactivated", zap.String("operator_id", id.String()))
	return nil
}

// UnlockOperator unlocks a locked operator account
func (s *OperatorService) UnlockOperator(ctx context.Context, id uuid.UUID) error {
	op, err := s.operatorRepo.FindByID(ctx, id)
	if err != nil {
		return shared.NewDomainError("OPERATOR_NOT_FOUND", "Operator not found")
	}

	if err := op.Unlock(); err != nil {
		return err
	}

	if err := s.operatorRepo.Update(ctx, op); err != nil {
		s.logger.Error("Failed to unlock operator", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to unlock operator")
	}

	return nil
}

// ResetPassword sets a new password without the old one (admin action)
func (s *OperatorService) ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	op, err := s.operatorRepo.FindByID(ctx, id)
	if err != nil {
		return shared.NewDomainError("OPERATOR_NOT_FOUND", "Operator not found")
	}

	if err := op.SetPassword(newPassword); err != nil {
		return err
	}

	if err := s.operatorRepo.Update(ctx, op); err != nil {
		s.logger.Error("Failed to reset operator password", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to reset password")
	}

	s.logger.Info("Operator password reset", zap.String("operator_id", id.String()))
	return nil
}
