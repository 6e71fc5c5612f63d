package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Sieve error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrUnknownProjection ErrorCode = "UNKNOWN_PROJECTION" // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrFileNotFound      ErrorCode = "FILE_NOT_FOUND"     // 404
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION" // 409
	ErrConflict          ErrorCode = "CONFLICT"           // 409
	ErrFileTooLarge      ErrorCode = "FILE_TOO_LARGE"     // 413
	ErrLocked            ErrorCode = "LOCKED"             // 423
	ErrCancelled         ErrorCode = "CANCELLED"          // 499
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// SieveError represents a structured error with code, status, and details.
type SieveError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SieveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SieveError {
	return &SieveError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnknownProjection creates a 400 error for a view name that does not exist.
func NewUnknownProjection(name string, known []string) *SieveError {
	return &SieveError{
		Code:    ErrUnknownProjection,
		Status:  400,
		Message: fmt.Sprintf("unknown view: %q", name),
		Details: map[string]any{"name": name, "known": known},
	}
}

// NewNotFound creates a 404 error for when an item cannot be found.
func NewNotFound(id string) *SieveError {
	return &SieveError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("item not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *SieveError {
	return &SieveError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewInvalidTransition creates a 409 error when an action's guard rejects the
// item's current stage.
func NewInvalidTransition(action, stage string) *SieveError {
	return &SieveError{
		Code:    ErrInvalidTransition,
		Status:  409,
		Message: fmt.Sprintf("cannot %s an item in stage %q", action, stage),
		Details: map[string]any{"action": action, "stage": stage},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *SieveError {
	return &SieveError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewRevisionConflict creates a 409 error for a failed compare-and-swap.
func NewRevisionConflict(id string, expected, actual int64) *SieveError {
	return &SieveError{
		Code:    ErrConflict,
		Status:  409,
		Message: fmt.Sprintf("item %s changed: expected revision %d, found %d", id, expected, actual),
		Details: map[string]any{"id": id, "expected_revision": expected, "actual_revision": actual},
	}
}

// NewFileTooLarge creates a 413 error when an import file exceeds size limit.
func NewFileTooLarge(max, actual int64) *SieveError {
	return &SieveError{
		Code:    ErrFileTooLarge,
		Status:  413,
		Message: fmt.Sprintf("file exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewLocked creates a 423 error when another process holds the store lock.
func NewLocked(path string) *SieveError {
	return &SieveError{
		Code:    ErrLocked,
		Status:  423,
		Message: "store is locked by another sieve process",
		Details: map[string]any{"lock_path": path},
	}
}

// NewCancelled creates a 499 error for operations interrupted by their caller.
func NewCancelled(err error) *SieveError {
	msg := "operation cancelled"
	if err != nil {
		msg = fmt.Sprintf("operation cancelled: %v", err)
	}
	return &SieveError{
		Code:    ErrCancelled,
		Status:  499,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The original error is kept in Details for logging; the message stays generic.
func NewInternal(err error) *SieveError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &SieveError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error is a SieveError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *SieveError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// As unwraps err into a *SieveError, converting anything else into INTERNAL.
func As(err error) *SieveError {
	var sErr *SieveError
	if stderrors.As(err, &sErr) {
		return sErr
	}
	return NewInternal(err)
}
