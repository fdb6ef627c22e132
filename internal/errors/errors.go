package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the error-kind taxonomy the monitoring core
// distinguishes when deciding whether a failure is retriable, loggable,
// or a benign contained outcome.
type ErrorType string

const (
	// ErrorTypeServiceUnavailable means Redis (or another required
	// dependency) was unreachable at run start; the coordinator aborts.
	ErrorTypeServiceUnavailable ErrorType = "service_unavailable"
	// ErrorTypeLockContention means another runner already holds the
	// distributed lock. Not an error condition, surfaced as already_running.
	ErrorTypeLockContention ErrorType = "lock_contention"
	// ErrorTypeTransientUpstream means the detector timed out or was
	// rate-limited by its upstream; retriable by the retry wrapper.
	ErrorTypeTransientUpstream ErrorType = "transient_upstream"
	// ErrorTypeDetectorError means the detector itself returned an ERROR
	// status (malformed output or an internal failure it classified as
	// non-retriable).
	ErrorTypeDetectorError ErrorType = "detector_error"
	// ErrorTypePersistConflict means a dedup hit or a deactivated
	// bookmark caused the persister to soft-abort.
	ErrorTypePersistConflict ErrorType = "persist_conflict"
	// ErrorTypePersistFailure means the feed insert failed for a reason
	// other than a conflict (connection error, constraint violation
	// the persister did not anticipate, etc).
	ErrorTypePersistFailure ErrorType = "persist_failure"
	// ErrorTypeEnqueueFailure means the feed committed but the Redis
	// write that should have followed it failed.
	ErrorTypeEnqueueFailure ErrorType = "enqueue_failure"
	// ErrorTypeUnexpected is the catch-all for anything else encountered
	// while processing a single bookmark.
	ErrorTypeUnexpected ErrorType = "unexpected"
)

// AppError represents a structured application error carrying enough
// metadata to both log usefully and answer an HTTP caller.
type AppError struct {
	Type          ErrorType              `json:"type"`
	Code          string                 `json:"code"`
	Message       string                 `json:"message"`
	Details       string                 `json:"details,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Cause         error                  `json:"-"`
	HTTPStatus    int                    `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ToJSON converts the error to JSON format.
func (e *AppError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// NewAppError creates a new application error.
func NewAppError(errorType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Timestamp:  time.Now().UTC(),
		HTTPStatus: getDefaultHTTPStatus(errorType),
	}
}

// NewAppErrorWithCause creates a new application error with an underlying cause.
func NewAppErrorWithCause(errorType ErrorType, code, message string, cause error) *AppError {
	err := NewAppError(errorType, code, message)
	err.Cause = cause
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// WithCorrelationID adds a correlation ID to the error.
func (e *AppError) WithCorrelationID(correlationID string) *AppError {
	e.CorrelationID = correlationID
	return e
}

// WithDetails adds additional details to the error.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithMetadata adds metadata to the error.
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithHTTPStatus sets a custom HTTP status code.
func (e *AppError) WithHTTPStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

// getDefaultHTTPStatus returns the default HTTP status for an error type.
func getDefaultHTTPStatus(errorType ErrorType) int {
	switch errorType {
	case ErrorTypeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrorTypeLockContention:
		return http.StatusOK
	case ErrorTypeTransientUpstream:
		return http.StatusBadGateway
	case ErrorTypePersistConflict:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors, one per taxonomy entry in SPEC_FULL.md §9.

// NewServiceUnavailableError signals Redis (or another dependency) was
// unreachable at run start.
func NewServiceUnavailableError(service string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorTypeServiceUnavailable, "SERVICE_UNAVAILABLE",
		fmt.Sprintf("%s unavailable", service), cause).
		WithMetadata("service", service)
}

// NewLockContentionError signals the distributed lock is already held.
func NewLockContentionError(key string) *AppError {
	return NewAppError(ErrorTypeLockContention, "LOCK_CONTENTION", "lock already held").
		WithMetadata("lock_key", key)
}

// NewTransientUpstreamError wraps a retriable detector failure.
func NewTransientUpstreamError(kind string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorTypeTransientUpstream, "TRANSIENT_UPSTREAM",
		fmt.Sprintf("upstream detector call failed: %s", kind), cause).
		WithMetadata("kind", kind)
}

// NewDetectorError wraps a non-retriable ERROR status from the detector.
func NewDetectorError(message string) *AppError {
	return NewAppError(ErrorTypeDetectorError, "DETECTOR_ERROR", message)
}

// NewPersistConflictError signals a dedup hit or a deactivated bookmark.
func NewPersistConflictError(reason string) *AppError {
	return NewAppError(ErrorTypePersistConflict, "PERSIST_CONFLICT", reason).
		WithMetadata("reason", reason)
}

// NewPersistFailureError wraps a feed-insert failure.
func NewPersistFailureError(cause error) *AppError {
	return NewAppErrorWithCause(ErrorTypePersistFailure, "PERSIST_FAILURE",
		"failed to persist update feed", cause)
}

// NewEnqueueFailureError wraps a post-commit Redis write failure. This is
// always logged at critical severity by the caller (per I2/P7).
func NewEnqueueFailureError(feedID int64, cause error) *AppError {
	return NewAppErrorWithCause(ErrorTypeEnqueueFailure, "ENQUEUE_FAILURE",
		"failed to enqueue notification task after feed commit", cause).
		WithMetadata("update_feed_id", feedID)
}

// NewUnexpectedError wraps anything else encountered while processing a
// single bookmark.
func NewUnexpectedError(cause error) *AppError {
	return NewAppErrorWithCause(ErrorTypeUnexpected, "UNEXPECTED", "unexpected error", cause)
}

// IsErrorType checks if an error is of a specific type.
func IsErrorType(err error, errorType ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetErrorType returns the error type if it's an AppError.
func GetErrorType(err error) (ErrorType, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type, true
	}
	return "", false
}

// GetCorrelationID extracts correlation ID from an error.
func GetCorrelationID(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.CorrelationID
	}
	return ""
}
