package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors for the transport layer
type ErrorKind string

const (
	KindValidation  ErrorKind = "VALIDATION"
	KindNotFound    ErrorKind = "NOT_FOUND"
	KindConflict    ErrorKind = "CONFLICT"
	KindUnavailable ErrorKind = "UNAVAILABLE"
	KindInternal    ErrorKind = "INTERNAL"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind         `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped sentinels compare equal
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// WithField returns a copy of the error carrying a field-level message
func (e *DomainError) WithField(field, message string) *DomainError {
	fields := make(map[string]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields[field] = message
	return &DomainError{Kind: e.Kind, Code: e.Code, Message: e.Message, Fields: fields}
}

// NewDomainError creates a new validation-class domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Kind:    KindValidation,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates an error for bad input
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(code, message)
}

// NewConflictError creates an error for a request that contradicts current state
func NewConflictError(code, message string) *DomainError {
	return &DomainError{Kind: KindConflict, Code: code, Message: message}
}

// NewUnavailableError creates an error for a disabled or unreachable dependency
func NewUnavailableError(code, message string) *DomainError {
	return &DomainError{Kind: KindUnavailable, Code: code, Message: message}
}

// NewNotFoundError creates a not-found error for the named resource
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Kind:    KindNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// Common domain errors
var (
	ErrNotFound            = &DomainError{Kind: KindNotFound, Code: "NOT_FOUND", Message: "Resource not found"}
	ErrInvalidInput        = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewConflictError("CONCURRENT_MODIFICATION", "Resource was modified by another process")
	ErrInvalidTransition   = NewValidationError("INVALID_TRANSITION", "Status transition not allowed")
	ErrInsufficientStock   = NewValidationError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrHasPayments         = NewValidationError("HAS_PAYMENTS", "Record has payments and cannot be deleted")
	ErrResourceBusy        = NewConflictError("RESOURCE_BUSY", "Another request is changing this record, retry shortly")
	ErrDeleted             = NewConflictError("DELETED", "Record is deleted, restore it before making changes")
)

// KindOf returns the kind of a domain error, or KindInternal for anything else
func KindOf(err error) ErrorKind {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a not-found domain error
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
