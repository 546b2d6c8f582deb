package models

import (
	"time"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/identity"
)

// OperatorModel is the persistence model for the Operator aggregate root.
type OperatorModel struct {
	AggregateModel
	Username       string                  `gorm:"type:varchar(100);not null;uniqueIndex"`
	Email          string                  `gorm:"type:varchar(200)"`
	PasswordHash   string                  `gorm:"type:varchar(255);not null"`
	DisplayName    string                  `gorm:"type:varchar(200)"`
	Role           identity.OperatorRole   `gorm:"type:varchar(20);not null"`
	Status         identity.OperatorStatus `gorm:"type:varchar(20);not null;index"`
	LastLoginAt    *time.Time              `gorm:"index"`
	LastLoginIP    string                  `gorm:"type:varchar(45)"`
	FailedAttempts int                     `gorm:"not null;default:0"`
	LockedUntil    *time.Time
}

// TableName returns the table name for GORM
func (OperatorModel) TableName() string {
	return "operators"
}

// ToDomain converts the persistence model to a domain Operator aggregate.
func (m *OperatorModel) ToDomain() *identity.Operator {
	return &identity.Operator{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Username:          m.Username,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		DisplayName:       m.DisplayName,
		Role:              m.Role,
		Status:            m.Status,
		LastLoginAt:       m.LastLoginAt,
		LastLoginIP:       m.LastLoginIP,
		FailedAttempts:    m.FailedAttempts,
		LockedUntil:       m.LockedUntil,
	}
}

// FromDomain populates the persistence model from a domain Operator aggregate.
func (m *OperatorModel) FromDomain(o *identity.Operator) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.Username = o.Username
	m.Email = o.Email
	m.PasswordHash = o.PasswordHash
	m.DisplayName = o.DisplayName
	m.Role = o.Role
	m.Status = o.Status
	m.LastLoginAt = o.LastLoginAt
	m.LastLoginIP = o.LastLoginIP
	m.FailedAttempts = o.FailedAttempts
	m.LockedUntil = o.LockedUntil
}

// OperatorModelFromDomain creates a new persistence model from a domain Operator aggregate.
func OperatorModelFromDomain(o *identity.Operator) *OperatorModel {
	m := &OperatorModel{}
	m.FromDomain(o)
	return m
}
