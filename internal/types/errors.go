package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for InsureGraph pipeline errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// Query input error codes
const (
	QUERY_EMPTY           ErrorCode = "QUERY_EMPTY"
	QUERY_TOO_LONG        ErrorCode = "QUERY_TOO_LONG"
	QUERY_INVALID_OPTIONS ErrorCode = "QUERY_INVALID_OPTIONS"
)

// Upstream collaborator error codes
const (
	EMBEDDING_UNAVAILABLE    ErrorCode = "EMBEDDING_UNAVAILABLE"
	VECTOR_STORE_UNAVAILABLE ErrorCode = "VECTOR_STORE_UNAVAILABLE"
	GRAPH_STORE_UNAVAILABLE  ErrorCode = "GRAPH_STORE_UNAVAILABLE"
	LLM_UNAVAILABLE          ErrorCode = "LLM_UNAVAILABLE"
	LLM_OUTPUT_MALFORMED     ErrorCode = "LLM_OUTPUT_MALFORMED"
)

// PipelineError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints for error
// handling logic.
type PipelineError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a PipelineError with the same Code.
func (e *PipelineError) Is(target error) bool {
	var perr *PipelineError
	if errors.As(target, &perr) {
		return e.Code == perr.Code
	}
	return false
}

// NewError creates a new non-retryable PipelineError with the given code and message.
func NewError(code ErrorCode, message string) *PipelineError {
	return &PipelineError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable PipelineError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., network timeouts).
func NewRetryableError(code ErrorCode, message string) *PipelineError {
	return &PipelineError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable PipelineError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *PipelineError {
	return &PipelineError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// WrapRetryableError creates a retryable PipelineError that wraps an existing error.
func WrapRetryableError(code ErrorCode, message string, cause error) *PipelineError {
	return &PipelineError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// CodeOf extracts the ErrorCode from an error chain.
// Returns an empty code if no PipelineError is found.
func CodeOf(err error) ErrorCode {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}

// IsRetryable reports whether any PipelineError in the chain is marked retryable.
func IsRetryable(err error) bool {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Retryable
	}
	return false
}
