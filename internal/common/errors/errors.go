// Package errors provides standardized error handling for the AI/ML service.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Generation backend
	ErrCodeGeminiUnavailable ErrorCode = "GEMINI_UNAVAILABLE"
	ErrCodeGeminiTimeout     ErrorCode = "GEMINI_TIMEOUT"

	// Response normalization
	ErrCodeResponseNotJSON  ErrorCode = "RESPONSE_NOT_JSON"
	ErrCodeSchemaIncomplete ErrorCode = "SCHEMA_INCOMPLETE"

	// Caller input
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// Infrastructure
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeCacheWriteFailed         ErrorCode = "CACHE_WRITE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewGeminiUnavailableError creates a retryable backend error. The pipeline
// never raises it to callers; it is logged and mapped to a zero-confidence
// structured response.
func NewGeminiUnavailableError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeGeminiUnavailable,
		Message:   "Gemini service unavailable",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGeminiTimeoutError creates a retryable timeout error.
func NewGeminiTimeoutError(elapsed time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeGeminiTimeout,
		Message:   "Gemini generation timed out",
		Details:   fmt.Sprintf("elapsed: %s", elapsed),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResponseNotJSONError flags a model reply that could not be parsed.
// Recovered locally via text fallback, never surfaced as a hard error.
func NewResponseNotJSONError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResponseNotJSON,
		Message:   "Model response was not valid JSON",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaIncompleteError flags valid JSON missing required fields.
// Recovered locally via defaulting.
func NewSchemaIncompleteError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaIncomplete,
		Message:   "Model response missing required fields",
		Details:   fmt.Sprintf("missing: %v", missing),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable caller input error. This is
// the one error kind that surfaces as a rejected request at the HTTP boundary.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request payload",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheWriteFailedError creates a retryable cache error.
func NewCacheWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheWriteFailed,
		Message:   "Failed to write to result cache",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
