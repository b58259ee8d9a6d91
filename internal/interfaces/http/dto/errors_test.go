package dto

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeValidationRequired, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeDuplicateSubmission, http.StatusConflict},
		{ErrCodeUnknownResource, http.StatusNotFound},
		{ErrCodePageNotFound, http.StatusNotFound},
		{ErrCodeActionNotAllowed, http.StatusForbidden},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
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
		{"UNAUTHORIZED", ErrCodeUnauthorized},
		{"DUPLICATE_SUBMISSION", ErrCodeDuplicateSubmission},
		{"UNKNOWN_RESOURCE", ErrCodeUnknownResource},
		{"PAGE_NOT_FOUND", ErrCodePageNotFound},
		{"ACTION_NOT_ALLOWED", ErrCodeActionNotAllowed},
		{"INVALID_TRASHED_FILTER", ErrCodeValidation},
		// API codes pass through unchanged
		{ErrCodeNotFound, ErrCodeNotFound},
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestDomainErrorCodesHaveStatus(t *testing.T) {
	for domainCode, code := range DomainErrorCodeMapping {
		t.Run(domainCode, func(t *testing.T) {
			_, ok := ErrorCodeHTTPStatus[code]
			assert.True(t, ok, "Error code %s should be in ErrorCodeHTTPStatus map", code)
			assert.True(t, strings.HasPrefix(code, "ERR_"), "Error code should start with ERR_")
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("NOT_FOUND", "Resource not found")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code) // Should be normalized
	assert.Equal(t, "Resource not found", resp.Error.Message)
	assert.NotZero(t, resp.Error.Timestamp)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "page", Message: "must be at least 1"},
		{Field: "trashed", Message: "must be one of: with only"},
	}

	resp := NewValidationErrorResponse("Validation failed", "req-789", details)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "page", resp.Error.Details[0].Field)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Record not found", "req-test-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded Response
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.False(t, decoded.Success)
	require.NotNil(t, decoded.Error)
	assert.Equal(t, ErrCodeNotFound, decoded.Error.Code)
	assert.Equal(t, "req-test-123", decoded.Error.RequestID)
}

func TestErrorResponseTimestamp(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponse(ErrCodeInternal, "Server error")
	after := time.Now()

	assert.False(t, resp.Error.Timestamp.Before(before))
	assert.False(t, resp.Error.Timestamp.After(after))
}

func TestNewSuccessResponseWithMetaPagination(t *testing.T) {
	tests := []struct {
		total         int64
		pageSize      int
		expectedPages int
		expectedSize  int
	}{
		{100, 10, 10, 10},
		{101, 10, 11, 10},
		{0, 10, 0, 10},
		{9, 10, 1, 10},
		// zero pageSize defaults to 20
		{100, 0, 5, 20},
		{100, -1, 5, 20},
	}

	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta(nil, tt.total, 1, tt.pageSize)
		assert.True(t, resp.Success)
		assert.Equal(t, tt.expectedPages, resp.Meta.TotalPages)
		assert.Equal(t, tt.expectedSize, resp.Meta.PageSize)
	}
}
