package dto

import (
	"net/http"

	"github.com/handmade/backend/internal/domain/shared"
)

// Domain error codes travel to clients unchanged
const (
	ErrCodeValidation        = shared.CodeValidation
	ErrCodeNotFound          = shared.CodeNotFound
	ErrCodeConflict          = shared.CodeConflict
	ErrCodeInsufficientStock = shared.CodeInsufficientStock
	ErrCodeInvalidState      = shared.CodeInvalidState
	ErrCodeInternal          = shared.CodeInternal
)

// Transport error codes, raised before a request reaches a service
const (
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeTokenExpired      = "TOKEN_EXPIRED"
	ErrCodeTokenRevoked      = "TOKEN_REVOKED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeRequestTooLarge   = "REQUEST_TOO_LARGE"
	ErrCodeRequestInProgress = "REQUEST_IN_PROGRESS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeConflict:          http.StatusConflict,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeInternal:          http.StatusInternalServerError,

	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeUnauthorized:      http.StatusUnauthorized,
	ErrCodeTokenExpired:      http.StatusUnauthorized,
	ErrCodeTokenRevoked:      http.StatusUnauthorized,
	ErrCodeForbidden:         http.StatusForbidden,
	ErrCodeRequestTooLarge:   http.StatusRequestEntityTooLarge,
	ErrCodeRequestInProgress: http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
