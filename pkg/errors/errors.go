package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Replication errors
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrNameNotFound       ErrorCode = "NAME_NOT_FOUND"
	ErrInconsistentTarget ErrorCode = "INCONSISTENT_TARGET"

	// Pipeline errors, classified from a stage's error output
	ErrNoSuchDataset     ErrorCode = "NO_SUCH_DATASET"
	ErrDestinationExists ErrorCode = "DESTINATION_EXISTS"
	ErrStageFailure      ErrorCode = "STAGE_FAILURE"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"
)

// Detail keys attached to pipeline errors.
const (
	DetailCommand = "command"
	DetailStderr  = "stderr"
)

// ReplicaError represents a structured error with code and details
type ReplicaError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ReplicaError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ReplicaError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ReplicaError) Is(target error) bool {
	var targetErr *ReplicaError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ReplicaError with the given code and message
func New(code ErrorCode, message string) *ReplicaError {
	return &ReplicaError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ReplicaError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ReplicaError {
	return &ReplicaError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ReplicaError
func Wrap(err error, code ErrorCode, message string) *ReplicaError {
	if err == nil {
		return nil
	}
	return &ReplicaError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ReplicaError {
	if err == nil {
		return nil
	}
	return &ReplicaError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ReplicaError) WithDetail(key string, value interface{}) *ReplicaError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *ReplicaError) WithDetails(details map[string]interface{}) *ReplicaError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var replicaErr *ReplicaError
	if errors.As(err, &replicaErr) {
		return replicaErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ReplicaError
func GetErrorCode(err error) ErrorCode {
	var replicaErr *ReplicaError
	if errors.As(err, &replicaErr) {
		return replicaErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a ReplicaError
func GetErrorDetails(err error) map[string]interface{} {
	var replicaErr *ReplicaError
	if errors.As(err, &replicaErr) {
		return replicaErr.Details
	}
	return nil
}
