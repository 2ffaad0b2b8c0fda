package errors

import "fmt"

// ErrorCode represents a Sift error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrUnavailable    ErrorCode = "UNAVAILABLE"     // 503 (external provider unreachable)
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// SiftError represents a structured error with code, status, and details.
type SiftError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SiftError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SiftError {
	return &SiftError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing record.
// This is the only error class callers are expected to branch on.
func NewNotFound(kind, identifier string) *SiftError {
	return &SiftError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *SiftError {
	return &SiftError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewUnavailable creates a 503 error for an unreachable external provider.
// Dedup and routing recover from this locally; it only surfaces from
// operations with no defined fallback.
func NewUnavailable(provider string, err error) *SiftError {
	msg := fmt.Sprintf("%s unavailable", provider)
	if err != nil {
		msg = fmt.Sprintf("%s unavailable: %v", provider, err)
	}
	return &SiftError{
		Code:    ErrUnavailable,
		Status:  503,
		Message: msg,
		Details: map[string]any{"provider": provider},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SiftError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SiftError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a SiftError with the given code.
func Is(err error, code ErrorCode) bool {
	if sErr, ok := err.(*SiftError); ok {
		return sErr.Code == code
	}
	return false
}
