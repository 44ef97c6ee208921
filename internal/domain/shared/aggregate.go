package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	IsDeleted() bool
}

// BaseAggregateRoot provides common fields for aggregate roots.
// Aggregates are never removed by default; IsActive=false marks a soft delete.
type BaseAggregateRoot struct {
	BaseEntity
	Version   int
	IsActive  bool
	CreatedBy *uuid.UUID
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// IsDeleted reports whether the aggregate has been soft-deleted
func (a *BaseAggregateRoot) IsDeleted() bool {
	return !a.IsActive
}

// EnsureActive fails on a soft-deleted aggregate
func (a *BaseAggregateRoot) EnsureActive() error {
	if !a.IsActive {
		return ErrDeleted
	}
	return nil
}

// Deactivate soft-deletes the aggregate
func (a *BaseAggregateRoot) Deactivate() error {
	if !a.IsActive {
		return NewConflictError("ALREADY_DELETED", "Record is already deleted")
	}
	a.IsActive = false
	a.Touch()
	return nil
}

// Restore reverses a soft delete
func (a *BaseAggregateRoot) Restore() error {
	if a.IsActive {
		return NewConflictError("NOT_DELETED", "Record is not deleted")
	}
	a.IsActive = true
	a.Touch()
	return nil
}

// SetCreatedBy sets the creator user ID
func (a *BaseAggregateRoot) SetCreatedBy(userID *uuid.UUID) {
	if userID == nil || *userID == uuid.Nil {
		return
	}
	id := *userID
	a.CreatedBy = &id
}

// NewBaseAggregateRoot creates a new, active base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
		IsActive:   true,
	}
}
