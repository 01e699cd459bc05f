package shared

import "errors"

// Error codes shared by every inventory operation
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidState      = "INVALID_STATE"
	CodeInternal          = "INTERNAL"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError carrying the same code,
// so errors.Is(err, ErrNotFound) matches any not-found error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy of the error carrying details
func (e *DomainError) WithDetails(details any) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a VALIDATION_ERROR with a specific message
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewNotFoundError creates a NOT_FOUND error with a specific message
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

// NewConflictError creates a CONFLICT error with a specific message
func NewConflictError(message string) *DomainError {
	return NewDomainError(CodeConflict, message)
}

// NewInvalidStateError creates an INVALID_STATE error with a specific message
func NewInvalidStateError(message string) *DomainError {
	return NewDomainError(CodeInvalidState, message)
}

// Common domain errors
var (
	ErrValidation        = NewDomainError(CodeValidation, "Invalid input provided")
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrConflict          = NewDomainError(CodeConflict, "Resource was modified by another process")
	ErrInsufficientStock = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInvalidState      = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInternal          = NewDomainError(CodeInternal, "Internal error")
)

// CodeOf extracts the domain error code from err, or CodeInternal
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
