package errors

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorType_Values(t *testing.T) {
	tests := []struct {
		name      string
		errorType ErrorType
		expected  string
	}{
		{"service unavailable", ErrorTypeServiceUnavailable, "service_unavailable"},
		{"lock contention", ErrorTypeLockContention, "lock_contention"},
		{"transient upstream", ErrorTypeTransientUpstream, "transient_upstream"},
		{"detector error", ErrorTypeDetectorError, "detector_error"},
		{"persist conflict", ErrorTypePersistConflict, "persist_conflict"},
		{"persist failure", ErrorTypePersistFailure, "persist_failure"},
		{"enqueue failure", ErrorTypeEnqueueFailure, "enqueue_failure"},
		{"unexpected", ErrorTypeUnexpected, "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errorType))
		})
	}
}

func TestNewAppError(t *testing.T) {
	appErr := NewAppError(ErrorTypePersistFailure, "PERSIST_FAILURE", "insert failed")

	assert.Equal(t, ErrorTypePersistFailure, appErr.Type)
	assert.Equal(t, "PERSIST_FAILURE", appErr.Code)
	assert.Equal(t, "insert failed", appErr.Message)
	assert.WithinDuration(t, time.Now(), appErr.Timestamp, time.Second)
	assert.Nil(t, appErr.Cause)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
}

func TestNewAppErrorWithCause(t *testing.T) {
	originalErr := errors.New("connection timeout")
	appErr := NewAppErrorWithCause(ErrorTypeUnexpected, "UNEXPECTED", "boom", originalErr)

	assert.Equal(t, ErrorTypeUnexpected, appErr.Type)
	assert.Equal(t, originalErr, appErr.Cause)
	assert.Equal(t, originalErr.Error(), appErr.Details)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
}

func TestAppError_WithMethods(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := NewAppErrorWithCause(ErrorTypeUnexpected, "WRAPPED_ERROR", "an error occurred", originalErr).
		WithCorrelationID("test-correlation-id").
		WithMetadata("context", "test").
		WithDetails("additional details")

	assert.Equal(t, "test-correlation-id", appErr.CorrelationID)
	assert.Equal(t, "test", appErr.Metadata["context"])
	assert.Equal(t, "additional details", appErr.Details)
	assert.Equal(t, originalErr, appErr.Cause)
}

func TestAppError_WithHTTPStatus(t *testing.T) {
	appErr := NewAppError(ErrorTypeUnexpected, "CODE", "message").WithHTTPStatus(http.StatusTeapot)
	assert.Equal(t, http.StatusTeapot, appErr.HTTPStatus)
}

func TestAppError_Error(t *testing.T) {
	appErr := &AppError{Type: ErrorTypeUnexpected, Code: "INVALID_INPUT", Message: "invalid input", Timestamp: time.Now()}
	assert.Equal(t, "INVALID_INPUT: invalid input", appErr.Error())
}

func TestAppError_Error_WithDetails(t *testing.T) {
	appErr := &AppError{
		Type:      ErrorTypeUnexpected,
		Code:      "WRAPPED_ERROR",
		Message:   "an error occurred",
		Details:   "original error",
		Timestamp: time.Now(),
	}
	assert.Equal(t, "WRAPPED_ERROR: an error occurred - original error", appErr.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := &AppError{Cause: originalErr}
	assert.Equal(t, originalErr, appErr.Unwrap())
}

func TestAppError_Unwrap_NoCause(t *testing.T) {
	appErr := &AppError{}
	assert.Nil(t, appErr.Unwrap())
}

func TestIsErrorType(t *testing.T) {
	appErr := NewAppError(ErrorTypePersistConflict, "TEST", "test message")

	assert.True(t, IsErrorType(appErr, ErrorTypePersistConflict))
	assert.False(t, IsErrorType(appErr, ErrorTypeUnexpected))

	regularErr := errors.New("regular error")
	assert.False(t, IsErrorType(regularErr, ErrorTypePersistConflict))
}

func TestDefaultHTTPStatus(t *testing.T) {
	tests := []struct {
		name         string
		errorType    ErrorType
		expectedCode int
	}{
		{"service unavailable", ErrorTypeServiceUnavailable, http.StatusServiceUnavailable},
		{"lock contention", ErrorTypeLockContention, http.StatusOK},
		{"transient upstream", ErrorTypeTransientUpstream, http.StatusBadGateway},
		{"persist conflict", ErrorTypePersistConflict, http.StatusOK},
		{"persist failure", ErrorTypePersistFailure, http.StatusInternalServerError},
		{"unknown error", ErrorType("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := NewAppError(tt.errorType, "TEST", "test message")
			assert.Equal(t, tt.expectedCode, appErr.HTTPStatus)
		})
	}
}

func TestNewServiceUnavailableError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewServiceUnavailableError("redis", cause)

	assert.Equal(t, ErrorTypeServiceUnavailable, err.Type)
	assert.Equal(t, "SERVICE_UNAVAILABLE", err.Code)
	assert.Equal(t, "redis unavailable", err.Message)
	assert.Equal(t, "redis", err.Metadata["service"])
	assert.Equal(t, cause, err.Cause)
}

func TestNewLockContentionError(t *testing.T) {
	err := NewLockContentionError("monitoring:job:lock")

	assert.Equal(t, ErrorTypeLockContention, err.Type)
	assert.Equal(t, "monitoring:job:lock", err.Metadata["lock_key"])
}

func TestNewTransientUpstreamError(t *testing.T) {
	cause := errors.New("rate limited")
	err := NewTransientUpstreamError("transient_rate_limited", cause)

	assert.Equal(t, ErrorTypeTransientUpstream, err.Type)
	assert.Equal(t, "transient_rate_limited", err.Metadata["kind"])
	assert.Equal(t, cause, err.Cause)
}

func TestNewDetectorError(t *testing.T) {
	err := NewDetectorError("malformed response")

	assert.Equal(t, ErrorTypeDetectorError, err.Type)
	assert.Equal(t, "malformed response", err.Message)
}

func TestNewPersistConflictError(t *testing.T) {
	err := NewPersistConflictError("duplicate content")

	assert.Equal(t, ErrorTypePersistConflict, err.Type)
	assert.Equal(t, "duplicate content", err.Metadata["reason"])
}

func TestNewPersistFailureError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewPersistFailureError(cause)

	assert.Equal(t, ErrorTypePersistFailure, err.Type)
	assert.Equal(t, cause, err.Cause)
}

func TestNewEnqueueFailureError(t *testing.T) {
	cause := errors.New("redis connection lost")
	err := NewEnqueueFailureError(42, cause)

	assert.Equal(t, ErrorTypeEnqueueFailure, err.Type)
	assert.Equal(t, int64(42), err.Metadata["update_feed_id"])
	assert.Equal(t, cause, err.Cause)
}

func TestNewUnexpectedError(t *testing.T) {
	cause := errors.New("nil pointer")
	err := NewUnexpectedError(cause)

	assert.Equal(t, ErrorTypeUnexpected, err.Type)
	assert.Equal(t, cause, err.Cause)
}

func TestGetErrorType(t *testing.T) {
	appErr := NewAppError(ErrorTypePersistConflict, "TEST", "test message")

	errorType, ok := GetErrorType(appErr)
	assert.True(t, ok)
	assert.Equal(t, ErrorTypePersistConflict, errorType)

	regularErr := errors.New("regular error")
	errorType, ok = GetErrorType(regularErr)
	assert.False(t, ok)
	assert.Equal(t, ErrorType(""), errorType)
}

func TestGetCorrelationID(t *testing.T) {
	appErr := NewAppError(ErrorTypeUnexpected, "TEST", "test message").WithCorrelationID("test-correlation-id")

	assert.Equal(t, "test-correlation-id", GetCorrelationID(appErr))

	appErrNoCorr := NewAppError(ErrorTypeUnexpected, "TEST", "test message")
	assert.Empty(t, GetCorrelationID(appErrNoCorr))

	regularErr := errors.New("regular error")
	assert.Empty(t, GetCorrelationID(regularErr))
}

func TestAppError_ChainedErrors(t *testing.T) {
	originalErr := errors.New("database connection failed")
	middleErr := NewPersistFailureError(originalErr)
	finalErr := NewUnexpectedError(middleErr)

	assert.True(t, errors.Is(finalErr, originalErr))
	assert.True(t, errors.Is(finalErr, middleErr))

	unwrapped := errors.Unwrap(finalErr)
	assert.Equal(t, middleErr, unwrapped)

	assert.Equal(t, ErrorTypeUnexpected, finalErr.Type)
}

func TestAppError_JSONSerialization(t *testing.T) {
	appErr := NewPersistConflictError("duplicate content").WithCorrelationID("test-correlation-id")
	appErr = appErr.WithMetadata("value", "invalid-email")

	assert.Equal(t, ErrorTypePersistConflict, appErr.Type)
	assert.Equal(t, "test-correlation-id", appErr.CorrelationID)
	assert.NotNil(t, appErr.Metadata)
	assert.False(t, appErr.Timestamp.IsZero())

	raw, err := appErr.ToJSON()
	assert.NoError(t, err)
	assert.Contains(t, string(raw), "persist_conflict")
}

func TestAppError_ConcurrentAccess(t *testing.T) {
	cause := errors.New("test error")
	appErr := NewUnexpectedError(cause)

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_ = appErr.Error()
			_ = appErr.HTTPStatus
			_ = appErr.Type
			_ = appErr.Code
			_ = appErr.Message
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Equal(t, ErrorTypeUnexpected, appErr.Type)
}
