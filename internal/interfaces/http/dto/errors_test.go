package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRequestInProgress, http.StatusConflict},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestErrorResponseJSON(t *testing.T) {
	t.Run("request id and details", func(t *testing.T) {
		resp := NewErrorResponseWithRequestID(ErrCodeInsufficientStock, "not enough", "req-1").
			WithDetails([]string{"line 1"})

		raw, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"success": false,
			"error": {
				"code": "INSUFFICIENT_STOCK",
				"message": "not enough",
				"request_id": "req-1",
				"details": ["line 1"]
			}
		}`, string(raw))
	})

	t.Run("validation fields", func(t *testing.T) {
		resp := NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
			{Field: "quantity", Message: "This field is required"},
		})
		assert.Equal(t, ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Fields, 1)
		assert.Equal(t, "quantity", resp.Error.Fields[0].Field)
	})

	t.Run("success omits error", func(t *testing.T) {
		raw, err := json.Marshal(NewSuccessResponse(map[string]int{"count": 2}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success": true, "data": {"count": 2}}`, string(raw))
	})

	t.Run("details ignored on success", func(t *testing.T) {
		resp := NewSuccessResponse(nil).WithDetails("x")
		assert.Nil(t, resp.Error)
	})
}
