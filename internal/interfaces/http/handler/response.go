package handler

import "github.com/handmade/backend/internal/interfaces/http/dto"

// APIResponse is the typed success envelope used in the API documentation
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success" example:"true"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// ErrorResponse is the failure envelope used in the API documentation
// @Description Standard error response. details lists the short lines of an INSUFFICIENT_STOCK reservation.
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}
