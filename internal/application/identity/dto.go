package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/identity"
)

// LoginInput contains login request data
type LoginInput struct {
	Username string
	Password string
	IP       string
}

// LoginResult contains successful login response data
type LoginResult struct {
	AccessToken           string       `json:"access_token"`
	RefreshToken          string       `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time    `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time    `json:"refresh_token_expires_at"`
	TokenType             string       `json:"token_type"`
	Operator              OperatorInfo `json:"operator"`
}

// RefreshTokenInput contains token refresh request data
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains token refresh response data
type RefreshTokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LogoutInput contains logout request data
type LogoutInput struct {
	OperatorID uuid.UUID
	TokenJTI   string
	TokenTTL   time.Duration
}

// ChangePasswordInput contains password change request data
type ChangePasswordInput struct {
	OperatorID  uuid.UUID
	OldPassword string
	NewPassword string
}

// OperatorInfo is the operator representation returned to clients
type OperatorInfo struct {
	ID          uuid.UUID             `json:"id"`
	Username    string                `json:"username"`
	DisplayName string                `json:"display_name"`
	Email       string                `json:"email,omitempty"`
	Role        identity.OperatorRole `json:"role"`
	Status      string                `json:"status"`
	LastLoginAt *time.Time            `json:"last_login_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// ToOperatorInfo converts a domain operator to its client representation
func ToOperatorInfo(op *identity.Operator) OperatorInfo {
	return OperatorInfo{
		ID:          op.ID,
		Username:    op.Username,
		DisplayName: op.GetDisplayNameOrUsername(),
		Email:       op.Email,
		Role:        op.Role,
		Status:      string(op.Status),
		LastLoginAt: op.LastLoginAt,
		CreatedAt:   op.CreatedAt,
	}
}

// CreateOperatorInput contains operator creation request data
type CreateOperatorInput struct {
	Username    string
	Password    string
	Email       string
	DisplayName string
	Role        identity.OperatorRole
}

// UpdateOperatorInput contains operator update request data
type UpdateOperatorInput struct {
	OperatorID  uuid.UUID
	Email       *string
	DisplayName *string
	Role        *identity.OperatorRole
}
