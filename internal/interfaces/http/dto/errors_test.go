package dto

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeCredentialsNotFound, http.StatusNotFound},
		{ErrCodeInvalidCredentials, http.StatusUnprocessableEntity},
		{ErrCodeInvalidSignature, http.StatusUnauthorized},
		{ErrCodeSyncInProgress, http.StatusConflict},
		{ErrCodeSyncSuperseded, http.StatusConflict},
		{ErrCodePlatformRequest, http.StatusBadGateway},
		{ErrCodePlatformUnavailable, http.StatusServiceUnavailable},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"FORBIDDEN", ErrCodeForbidden},
		{ErrCodeSyncInProgress, ErrCodeSyncInProgress},
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestErrorCodeHTTPStatus_AllCodesUsePrefix(t *testing.T) {
	for code, status := range ErrorCodeHTTPStatus {
		assert.True(t, strings.HasPrefix(code, "ERR_"), "code %s should start with ERR_", code)
		assert.GreaterOrEqual(t, status, 400, "code %s should map to an error status", code)
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeSyncInProgress, "Sync already running", "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSyncInProgress, resp.Error.Code)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{{Field: "connection_id", Message: "Invalid UUID format"}}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Equal(t, details, resp.Error.Details)
}

func TestResponseJSONShape(t *testing.T) {
	t.Run("error envelope", func(t *testing.T) {
		data, err := json.Marshal(NewErrorResponseWithRequestID(ErrCodeNotFound, "Connection not found", "req-1"))
		require.NoError(t, err)
		assert.JSONEq(t,
			`{"success":false,"error":{"code":"ERR_NOT_FOUND","message":"Connection not found","request_id":"req-1"}}`,
			string(data))
	})

	t.Run("success envelope omits error", func(t *testing.T) {
		data, err := json.Marshal(NewSuccessResponse(map[string]string{"status": "ok"}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"data":{"status":"ok"}}`, string(data))
	})
}
