package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when a request carries no valid identity
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden is returned when the user's role does not allow the action
	ErrForbidden = errors.New("insufficient permissions")
	// ErrAccountDisabled is returned when a disabled user logs in or calls the API
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrInvalidCredentials is returned on an unknown username or wrong password
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrGatewayNotConfigured is returned when no BigCommerce credentials are available
	ErrGatewayNotConfigured = errors.New("bigcommerce is not configured")
	// ErrResyncInProgress is returned when another catalog resync holds the lock
	ErrResyncInProgress = errors.New("catalog resync already in progress")
)

// ValidationError is a rejected request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}

// ConflictError is a request that clashes with current state
type ConflictError struct {
	Resource string `json:"resource"`
	Message  string `json:"message"`
	// ExistingID points at the record the request collided with, if any
	ExistingID int64 `json:"existing_id,omitempty"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Message)
}

// NewConflictError creates a new conflict error
func NewConflictError(resource, message string) *ConflictError {
	return &ConflictError{Resource: resource, Message: message}
}

// IsConflictError checks if an error is a ConflictError
func IsConflictError(err error) (*ConflictError, bool) {
	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		return conflictErr, true
	}
	return nil, false
}

// NotFoundError is a missing resource
type NotFoundError struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

// IsNotFoundError checks if an error is a NotFoundError
func IsNotFoundError(err error) (*NotFoundError, bool) {
	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return notFoundErr, true
	}
	return nil, false
}
