package common

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorCode represents different types of application errors
type ErrorCode string

const (
	// General errors
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// Validation errors
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeOutOfRange       ErrorCode = "OUT_OF_RANGE"

	// Store errors
	ErrCodeStoreConnection ErrorCode = "STORE_CONNECTION_ERROR"
	ErrCodeCollectionRead  ErrorCode = "COLLECTION_READ_ERROR"
	ErrCodeIndexCreate     ErrorCode = "INDEX_CREATE_ERROR"
	ErrCodeDatabaseQuery   ErrorCode = "DATABASE_QUERY_ERROR"

	// Monitoring errors
	ErrCodeMonitoringState ErrorCode = "MONITORING_STATE_ERROR"

	// Infrastructure errors
	ErrCodeRateLimited    ErrorCode = "RATE_LIMITED"
	ErrCodeCacheOperation ErrorCode = "CACHE_OPERATION_ERROR"
	ErrCodeEventPublish   ErrorCode = "EVENT_PUBLISH_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StatusCode int                    `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Stack      string                 `json:"-"`
	RequestID  string                 `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRequestID adds request ID to the error
func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// WithCause sets the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getHTTPStatusCode(code),
		Stack:      getStackTrace(),
	}
}

// NewAppErrorWithDetails creates a new application error with details
func NewAppErrorWithDetails(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StatusCode: getHTTPStatusCode(code),
		Stack:      getStackTrace(),
	}
}

// NewAppErrorWithCause creates a new application error with an underlying cause
func NewAppErrorWithCause(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Cause:      cause,
		StatusCode: getHTTPStatusCode(code),
		Stack:      getStackTrace(),
	}
}

// WrapError wraps an existing error with application error context
func WrapError(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve it
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	return &AppError{
		Code:       code,
		Message:    message,
		Cause:      err,
		StatusCode: getHTTPStatusCode(code),
		Stack:      getStackTrace(),
	}
}

// getHTTPStatusCode maps error codes to HTTP status codes
func getHTTPStatusCode(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidInput, ErrCodeValidationFailed, ErrCodeOutOfRange:
		return http.StatusBadRequest
	case ErrCodeTimeout:
		return http.StatusRequestTimeout
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeServiceUnavailable, ErrCodeStoreConnection:
		return http.StatusServiceUnavailable
	case ErrCodeCollectionRead, ErrCodeIndexCreate, ErrCodeDatabaseQuery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	buf := make([]byte, 1024)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) {
			return string(buf[:n])
		}
		buf = make([]byte, 2*len(buf))
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasErrorCode checks if the error has a specific error code
func HasErrorCode(err error, code ErrorCode) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == code
	}
	return false
}

// Common error constructors for frequently used errors

// ErrNotFound creates a not found error
func ErrNotFound(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

// ErrInvalidInput creates an invalid input error
func ErrInvalidInput(field string) *AppError {
	return NewAppError(ErrCodeInvalidInput, fmt.Sprintf("invalid input for field: %s", field))
}

// ErrValidationFailed creates a validation failed error
func ErrValidationFailed(details string) *AppError {
	return NewAppErrorWithDetails(ErrCodeValidationFailed, "validation failed", details)
}

// ErrStoreConnection creates a store connection error
//
// This is the only error class that aborts report generation outright.
func ErrStoreConnection(cause error) *AppError {
	return NewAppErrorWithCause(ErrCodeStoreConnection, "store connection failed", cause)
}

// ErrCollectionRead creates a per-collection read error
func ErrCollectionRead(collection string, cause error) *AppError {
	return NewAppErrorWithCause(ErrCodeCollectionRead,
		fmt.Sprintf("failed to read collection metadata: %s", collection), cause).
		WithContext("collection", collection)
}

// ErrIndexCreate creates a per-index creation error
func ErrIndexCreate(collection, index string, cause error) *AppError {
	return NewAppErrorWithCause(ErrCodeIndexCreate,
		fmt.Sprintf("failed to create index %s on %s", index, collection), cause).
		WithContext("collection", collection).
		WithContext("index", index)
}

// ErrMonitoringState creates a monitoring state error
//
// Raised as a panic by the advisory engine: it indicates corrupted shared
// state under what should be correct locking, so it is a programming defect
// rather than a runtime condition.
func ErrMonitoringState(detail string) *AppError {
	return NewAppErrorWithDetails(ErrCodeMonitoringState, "monitoring state corrupted", detail)
}

// ErrTimeout creates a timeout error
func ErrTimeout(operation string) *AppError {
	return NewAppError(ErrCodeTimeout, fmt.Sprintf("operation timeout: %s", operation))
}

// ErrInternal creates an internal error
func ErrInternal(message string) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return NewAppError(ErrCodeInternal, message)
}

// ErrRateLimited creates a rate limited error
func ErrRateLimited() *AppError {
	return NewAppError(ErrCodeRateLimited, "rate limit exceeded")
}

// ErrCacheOperation creates a cache operation error
func ErrCacheOperation(operation string, cause error) *AppError {
	return NewAppErrorWithCause(ErrCodeCacheOperation,
		fmt.Sprintf("cache operation failed: %s", operation), cause)
}

// ErrEventPublish creates an event publish error
func ErrEventPublish(topic string, cause error) *AppError {
	return NewAppErrorWithCause(ErrCodeEventPublish,
		fmt.Sprintf("failed to publish event to %s", topic), cause)
}

// ErrorHandler is a middleware function type for handling errors
type ErrorHandler func(error) *AppError

// RecoverHandler handles panics and converts them to errors
func RecoverHandler() *AppError {
	if r := recover(); r != nil {
		switch v := r.(type) {
		case *AppError:
			return v
		case error:
			return WrapError(v, ErrCodeInternal, "panic occurred")
		case string:
			return NewAppError(ErrCodeInternal, v)
		default:
			return NewAppError(ErrCodeInternal, fmt.Sprintf("panic occurred: %v", v))
		}
	}
	return nil
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}

	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}

	return fmt.Sprintf("validation failed with %d errors", len(ve))
}

// ToAppError converts ValidationErrors to AppError
func (ve ValidationErrors) ToAppError() *AppError {
	if len(ve) == 0 {
		return nil
	}

	appErr := NewAppError(ErrCodeValidationFailed, "validation failed")
	appErr.WithContext("validation_errors", ve)

	return appErr
}

// Add adds a validation error
func (ve *ValidationErrors) Add(field, message string, value interface{}) {
	*ve = append(*ve, ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	})
}

// HasErrors returns true if there are validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}
