package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "LD-SNAP-4001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsPermissionDenied reports whether err is the typed permission-denied
// condition. Callers suppress this instead of matching error strings.
func IsPermissionDenied(err error) bool {
	return IsDomainError(err, ErrPermissionDenied.Code)
}

// Snapshot errors (SNAP)
var (
	// ErrSnapshotMalformed indicates a candidate file could not be parsed.
	ErrSnapshotMalformed = NewDomainError("LD-SNAP-4000", "malformed snapshot")

	// ErrSnapshotValidation indicates a candidate snapshot failed validation.
	ErrSnapshotValidation = NewDomainError("LD-SNAP-4001", "snapshot validation failed")

	// ErrBackupNotFound indicates the requested local backup was not found.
	ErrBackupNotFound = NewDomainError("LD-SNAP-4040", "local backup not found")
)

// Authorization errors (AUTH)
var (
	// ErrPermissionDenied indicates the acting identity may not read the
	// tenant's collections.
	ErrPermissionDenied = NewDomainError("LD-AUTH-4030", "permission denied")
)

// System errors (SYS)
var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("LD-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("LD-SYS-5001", "storage error")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("LD-SYS-4290", "too many requests")
)

// Argument errors (ARG)
var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("LD-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("LD-ARG-1002", "missing required argument")
)
