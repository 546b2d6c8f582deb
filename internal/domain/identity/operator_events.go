package identity

import (
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// Event type constants for the identity domain
const (
	EventTypeOperatorCreated       = "operator.created"
	EventTypeOperatorStatusChanged = "operator.status_changed"
	EventTypeOperatorRoleChanged   = "operator.role_changed"
)

// OperatorCreatedEvent is published when an operator account is created
type OperatorCreatedEvent struct {
	shared.BaseDomainEvent
	Username string       `json:"username"`
	Role     OperatorRole `json:"role"`
}

// NewOperatorCreatedEvent creates a new operator created event
func NewOperatorCreatedEvent(op *Operator) *OperatorCreatedEvent {
	return &OperatorCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOperatorCreated, AggregateTypeOperator, op.GetID()),
		Username:        op.Username,
		Role:            op.Role,
	}
}

// OperatorStatusChangedEvent is published when an operator's status changes
type OperatorStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus OperatorStatus `json:"old_status"`
	NewStatus OperatorStatus `json:"new_status"`
}

// NewOperatorStatusChangedEvent creates a new operator status changed event
func NewOperatorStatusChangedEvent(op *Operator, oldStatus, newStatus OperatorStatus) *OperatorStatusChangedEvent {
	return &OperatorStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOperatorStatusChanged, AggregateTypeOperator, op.GetID()),
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// OperatorRoleChangedEvent is published when an operator's role changes
type OperatorRoleChangedEvent struct {
	shared.BaseDomainEvent
	OldRole OperatorRole `json:"old_role"`
	NewRole OperatorRole `json:"new_role"`
}

// NewOperatorRoleChangedEvent creates a new operator role changed event
func NewOperatorRoleChangedEvent(op *Operator, oldRole, newRole OperatorRole) *OperatorRoleChangedEvent {
	return &OperatorRoleChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOperatorRoleChanged, AggregateTypeOperator, op.GetID()),
		OldRole:         oldRole,
		NewRole:         newRole,
	}
}
