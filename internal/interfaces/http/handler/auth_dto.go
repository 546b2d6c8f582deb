package handler

import (
	"time"

	"github.com/clubhousegolfcanada/clubos-pls/internal/application/identity"
	"github.com/google/uuid"
)

// =====================
// Auth Request DTOs
// =====================

// LoginRequest represents the request body for operator login
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest represents the request body for password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// =====================
// Auth Response DTOs
// =====================

// TokenResponse represents the token data in auth responses
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// OperatorResponse represents operator data in auth and admin responses
type OperatorResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email,omitempty"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// toOperatorResponse converts an application-layer operator info to its wire form
func toOperatorResponse(info identity.OperatorInfo) OperatorResponse {
	return OperatorResponse{
		ID:          info.ID,
		Username:    info.Username,
		DisplayName: info.DisplayName,
		Email:       info.Email,
		Role:        string(info.Role),
		Status:      info.Status,
		LastLoginAt: info.LastLoginAt,
		CreatedAt:   info.CreatedAt,
	}
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	Token    TokenResponse    `json:"token"`
	Operator OperatorResponse `json:"operator"`
}

// RefreshTokenResponse represents the response body for successful token refresh
type RefreshTokenResponse struct {
	Token TokenResponse `json:"token"`
}

// LogoutResponse represents the response body for logout
type LogoutResponse struct {
	Message string `json:"message"`
}
