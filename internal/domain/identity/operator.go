package identity

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// AggregateTypeOperator is the aggregate type identifier for operators
const AggregateTypeOperator = "Operator"

// OperatorStatus represents the status of an operator account
type OperatorStatus string

const (
	OperatorStatusActive      OperatorStatus = "active"
	OperatorStatusLocked      OperatorStatus = "locked"
	OperatorStatusDeactivated OperatorStatus = "deactivated"
)

// OperatorRole controls what an operator may do in the console
type OperatorRole string

const (
	// RoleAdmin manages the engine configuration and other operators
	RoleAdmin OperatorRole = "admin"
	// RoleOperator works suggestions and curates patterns
	RoleOperator OperatorRole = "operator"
	// RoleViewer has read-only access to patterns and stats
	RoleViewer OperatorRole = "viewer"
)

// IsValid returns true if the role is a known value
func (r OperatorRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

// CanCurate returns true if the role may create patterns and give feedback
func (r OperatorRole) CanCurate() bool {
	return r == RoleAdmin || r == RoleOperator
}

// CanAdminister returns true if the role may change engine configuration
func (r OperatorRole) CanAdminister() bool {
	return r == RoleAdmin
}

// Password cost for bcrypt
const bcryptCost = 12

// Operator is a staff member who works the suggestion console.
// It is the aggregate root for authentication and authorization.
type Operator struct {
	shared.BaseAggregateRoot
	Username       string
	Email          string
	PasswordHash   string
	DisplayName    string
	Role           OperatorRole
	Status         OperatorStatus
	LastLoginAt    *time.Time
	LastLoginIP    string
	FailedAttempts int
	LockedUntil    *time.Time
}

// NewOperator creates a new active operator account
func NewOperator(username, password string, role OperatorRole) (*Operator, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown operator role")
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	op := &Operator{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          strings.ToLower(strings.TrimSpace(username)),
		PasswordHash:      passwordHash,
		Role:              role,
		Status:            OperatorStatusActive,
	}

	op.AddDomainEvent(NewOperatorCreatedEvent(op))

	return op, nil
}

// SetEmail sets the operator's email
func (o *Operator) SetEmail(email string) error {
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
		email = strings.ToLower(strings.TrimSpace(email))
	}

	o.Email = email
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

// SetDisplayName sets the operator's display name
func (o *Operator) SetDisplayName(displayName string) error {
	if displayName != "" && len(displayName) > 200 {
		return shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name cannot exceed 200 characters")
	}

	o.DisplayName = strings.TrimSpace(displayName)
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

// SetRole changes the operator's role
func (o *Operator) SetRole(role OperatorRole) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Unknown operator role")
	}

	oldRole := o.Role
	o.Role = role
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	if oldRole != role {
		o.AddDomainEvent(NewOperatorRoleChangedEvent(o, oldRole, role))
	}

	return nil
}

// ChangePassword changes the operator's password after verifying the old one
func (o *Operator) ChangePassword(oldPassword, newPassword string) error {
	if !o.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}

	return o.SetPassword(newPassword)
}

// SetPassword sets a new password (admin reset, no old password check)
func (o *Operator) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	o.PasswordHash = passwordHash
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

// VerifyPassword verifies if the provided password matches
func (o *Operator) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password))
	return err == nil
}

// Activate reactivates a deactivated or locked operator
func (o *Operator) Activate() error {
	if o.Status == OperatorStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Operator is already active")
	}

	oldStatus := o.Status
	o.Status = OperatorStatusActive
	o.FailedAttempts = 0
	o.LockedUntil = nil
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	o.AddDomainEvent(NewOperatorStatusChangedEvent(o, oldStatus, OperatorStatusActive))

	return nil
}

// Deactivate deactivates the operator
func (o *Operator) Deactivate() error {
	if o.Status == OperatorStatusDeactivated {
		return shared.NewDomainError("ALREADY_DEACTIVATED", "Operator is already deactivated")
	}

	oldStatus := o.Status
	o.Status = OperatorStatusDeactivated
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	o.AddDomainEvent(NewOperatorStatusChangedEvent(o, oldStatus, OperatorStatusDeactivated))

	return nil
}

// Lock locks the operator account for the given duration
func (o *Operator) Lock(duration time.Duration) error {
	if o.Status == OperatorStatusDeactivated {
		return shared.NewDomainError("OPERATOR_DEACTIVATED", "Cannot lock a deactivated operator")
	}

	oldStatus := o.Status
	o.Status = OperatorStatusLocked
	if duration > 0 {
		lockedUntil := time.Now().Add(duration)
		o.LockedUntil = &lockedUntil
	}
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	o.AddDomainEvent(NewOperatorStatusChangedEvent(o, oldStatus, OperatorStatusLocked))

	return nil
}

// Unlock unlocks the operator account
func (o *Operator) Unlock() error {
	if o.Status != OperatorStatusLocked {
		return shared.NewDomainError("NOT_LOCKED", "Operator is not locked")
	}

	o.Status = OperatorStatusActive
	o.FailedAttempts = 0
	o.LockedUntil = nil
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	o.AddDomainEvent(NewOperatorStatusChangedEvent(o, OperatorStatusLocked, OperatorStatusActive))

	return nil
}

// RecordLoginSuccess records a successful login
func (o *Operator) RecordLoginSuccess(ip string) {
	now := time.Now()
	o.LastLoginAt = &now
	o.LastLoginIP = ip
	o.FailedAttempts = 0
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

// RecordLoginFailure records a failed login attempt
// Returns true if the account was locked as a result
func (o *Operator) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	o.FailedAttempts++
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	if o.FailedAttempts >= maxAttempts {
		_ = o.Lock(lockDuration)
		return true
	}

	return false
}

// IsLocked returns true if the operator is locked and the lock has not expired
func (o *Operator) IsLocked() bool {
	if o.Status != OperatorStatusLocked {
		return false
	}

	if o.LockedUntil != nil && time.Now().After(*o.LockedUntil) {
		return false
	}

	return true
}

// CanLogin returns true if the operator can log in
func (o *Operator) CanLogin() bool {
	if o.Status == OperatorStatusDeactivated {
		return false
	}
	if o.IsLocked() {
		return false
	}
	return true
}

// GetDisplayNameOrUsername returns display name if set, otherwise username
func (o *Operator) GetDisplayNameOrUsername() string {
	if o.DisplayName != "" {
		return o.DisplayName
	}
	return o.Username
}

// Validation functions

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 100 characters")
	}

	usernameRegex := regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)
	if !usernameRegex.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}

	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}

	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)
	if !hasLetter || !hasNumber {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}

	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}

	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}

	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
