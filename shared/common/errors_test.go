package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	err := NewAppError(ErrCodeInternal, "something broke")
	assert.Equal(t, "INTERNAL_ERROR: something broke", err.Error())

	withDetails := NewAppErrorWithDetails(ErrCodeValidationFailed, "validation failed", "score out of range")
	assert.Equal(t, "VALIDATION_FAILED: validation failed (score out of range)", withDetails.Error())
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeOutOfRange, http.StatusBadRequest},
		{ErrCodeTimeout, http.StatusRequestTimeout},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{ErrCodeStoreConnection, http.StatusServiceUnavailable},
		{ErrCodeCollectionRead, http.StatusBadGateway},
		{ErrCodeIndexCreate, http.StatusBadGateway},
		{ErrCodeDatabaseQuery, http.StatusBadGateway},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeMonitoringState, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, NewAppError(tt.code, "test").StatusCode)
		})
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("connection reset")

	wrapped := WrapError(cause, ErrCodeStoreConnection, "store unreachable")
	require.NotNil(t, wrapped)
	assert.Equal(t, ErrCodeStoreConnection, wrapped.Code)
	assert.Equal(t, "store unreachable", wrapped.Message)
	assert.True(t, errors.Is(wrapped, cause))
}

func TestWrapErrorPreservesExistingAppError(t *testing.T) {
	original := ErrNotFound("report")

	wrapped := WrapError(original, ErrCodeInternal, "should not replace")

	assert.Same(t, original, wrapped)
	assert.Equal(t, ErrCodeNotFound, wrapped.Code)
}

func TestWrapErrorNil(t *testing.T) {
	assert.Nil(t, WrapError(nil, ErrCodeInternal, "ignored"))
}

func TestGetAppErrorThroughChain(t *testing.T) {
	appErr := ErrStoreConnection(errors.New("dial tcp: refused"))
	chained := fmt.Errorf("generating report: %w", appErr)

	found := GetAppError(chained)
	require.NotNil(t, found)
	assert.Equal(t, ErrCodeStoreConnection, found.Code)

	assert.Nil(t, GetAppError(errors.New("plain error")))
	assert.Nil(t, GetAppError(nil))
}

func TestHasErrorCode(t *testing.T) {
	err := ErrNotFound("report")

	assert.True(t, HasErrorCode(err, ErrCodeNotFound))
	assert.False(t, HasErrorCode(err, ErrCodeInternal))
	assert.True(t, HasErrorCode(fmt.Errorf("lookup: %w", err), ErrCodeNotFound))
	assert.False(t, HasErrorCode(errors.New("plain error"), ErrCodeNotFound))
	assert.False(t, HasErrorCode(nil, ErrCodeNotFound))
}

func TestErrCollectionReadCarriesContext(t *testing.T) {
	cause := errors.New("cursor timeout")

	err := ErrCollectionRead("products", cause)

	assert.Equal(t, ErrCodeCollectionRead, err.Code)
	assert.Equal(t, "products", err.Context["collection"])
	assert.True(t, errors.Is(err, cause))
}

func TestErrIndexCreateCarriesContext(t *testing.T) {
	err := ErrIndexCreate("orders", "user_id_1", errors.New("duplicate key"))

	assert.Equal(t, ErrCodeIndexCreate, err.Code)
	assert.Equal(t, "orders", err.Context["collection"])
	assert.Equal(t, "user_id_1", err.Context["index"])
}

func TestRecoverHandlerWithoutPanic(t *testing.T) {
	assert.Nil(t, RecoverHandler())
}

func TestRecoverHandlerStopsPanic(t *testing.T) {
	// recover only works when the handler itself is the deferred function
	func() {
		defer RecoverHandler()
		panic(ErrMonitoringState("ring capacity exceeded"))
	}()
}

func TestValidationErrorsMessage(t *testing.T) {
	var ve ValidationErrors
	assert.False(t, ve.HasErrors())
	assert.Equal(t, "validation failed", ve.Error())
	assert.Nil(t, ve.ToAppError())

	ve.Add("advisor.slow_query_threshold", "must be positive", -1)
	assert.True(t, ve.HasErrors())
	assert.Equal(t, "validation failed: advisor.slow_query_threshold must be positive", ve.Error())

	ve.Add("server.port", "must be a valid port", 0)
	assert.Equal(t, "validation failed with 2 errors", ve.Error())

	appErr := ve.ToAppError()
	require.NotNil(t, appErr)
	assert.Equal(t, ErrCodeValidationFailed, appErr.Code)
	assert.Len(t, appErr.Context["validation_errors"], 2)
}
