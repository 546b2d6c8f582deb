package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/identity"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/auth"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// AuthService handles operator authentication
type AuthService struct {
	operatorRepo identity.OperatorRepository
	jwtService   *auth.JWTService
	blacklist    auth.TokenBlacklist
	config       AuthServiceConfig
	logger       *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	operatorRepo identity.OperatorRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		operatorRepo: operatorRepo,
		jwtService:   jwtService,
		blacklist:    blacklist,
		config:       config,
		logger:       logger,
	}
}

// Login authenticates an operator and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	s.logger.Info("Login attempt", zap.String("username", input.Username))

	op, err := s.operatorRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Warn("Operator not found during login", zap.String("username", input.Username))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}

	if !op.CanLogin() {
		if op.IsLocked() {
			s.logger.Warn("Login attempt for locked account", zap.String("username", input.Username))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later or contact support")
		}
		s.logger.Warn("Login attempt for deactivated account", zap.String("username", input.Username))
		return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	}

	if !op.VerifyPassword(input.Password) {
		locked := op.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.operatorRepo.Update(ctx, op); err != nil {
			s.logger.Error("Failed to update operator after login failure", zap.Error(err))
		}

		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("username", input.Username),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}

		s.logger.Warn("Invalid password attempt",
			zap.String("username", input.Username),
			zap.Int("failed_attempts", op.FailedAttempts))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		OperatorID: op.ID,
		Username:   op.Username,
		Role:       op.Role,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	op.RecordLoginSuccess(input.IP)
	if err := s.operatorRepo.Update(ctx, op); err != nil {
		// Don't fail the login over bookkeeping
		s.logger.Error("Failed to update operator after successful login", zap.Error(err))
	}

	s.logger.Info("Operator logged in",
		zap.String("username", input.Username),
		zap.String("operator_id", op.ID.String()))

	return &LoginResult{
		AccessToken:           tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		AccessTokenExpiresAt:  tokenPair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokenPair.RefreshTokenExpiresAt,
		TokenType:             tokenPair.TokenType,
		Operator:              ToOperatorInfo(op),
	}, nil
}

// RefreshToken refreshes the access token using a valid refresh token
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*RefreshTokenResult, error) {
	refreshClaims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	operatorID, err := refreshClaims.GetOperatorUUID()
	if err != nil {
		s.logger.Error("Invalid operator ID in refresh token", zap.Error(err))
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid operator ID in token")
	}

	op, err := s.operatorRepo.FindByID(ctx, operatorID)
	if err != nil {
		s.logger.Warn("Operator not found during token refresh", zap.String("operator_id", operatorID.String()))
		return nil, shared.NewDomainError("OPERATOR_NOT_FOUND", "Operator not found")
	}

	if !op.CanLogin() {
		s.logger.Warn("Token refresh for inactive operator", zap.String("operator_id", operatorID.String()))
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	}

	tokenPair, err := s.jwtService.RefreshTokenPair(input.RefreshToken, op.Username, op.Role)
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	s.logger.Info("Token refreshed", zap.String("operator_id", operatorID.String()))

	return &RefreshTokenResult{
		AccessToken:           tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		AccessTokenExpiresAt:  tokenPair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokenPair.RefreshTokenExpiresAt,
		TokenType:             tokenPair.TokenType,
	}, nil
}

// Logout revokes the current access token by blacklisting its JTI
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("Operator logout", zap.String("operator_id", input.OperatorID.String()))

	if s.blacklist == nil || input.TokenJTI == "" {
		return nil
	}

	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenTTL); err != nil {
		s.logger.Error("Failed to blacklist token on logout", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to revoke token")
	}
	return nil
}

// GetCurrentOperator retrieves the authenticated operator's information
func (s *AuthService) GetCurrentOperator(ctx context.Context, operatorID uuid.UUID) (*OperatorInfo, error) {
	op, err := s.operatorRepo.FindByID(ctx, operatorID)
	if err != nil {
		return nil, shared.NewDomainError("OPERATOR_NOT_FOUND", "Operator not found")
	}

	info := ToOperatorInfo(op)
	return &info, nil
}

// ChangePassword changes an operator's password
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	op, err := s.operatorRepo.FindByID(ctx, input.OperatorID)
	if err != nil {
		return shared.NewDomainError("OPERATOR_NOT_FOUND", "Operator not found")
	}

	if err := op.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}

	if err := s.operatorRepo.Update(ctx, op); err != nil {
		s.logger.Error("Failed to update operator after password change", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to update password")
	}

	s.logger.Info("Operator password changed", zap.String("operator_id", input.OperatorID.String()))

	return nil
}

func mapTokenError(err error) error {
	switch err {
	case auth.ErrExpiredToken:
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case auth.ErrInvalidToken:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	case auth.ErrMaxRefreshExceeded:
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	default:
		return shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
	}
}
