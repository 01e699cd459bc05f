// Package handler holds the gin handlers of the inventory API. Handlers
// bind and validate requests, call one application service and wrap the
// result in the standard response envelope.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/handmade/backend/internal/infrastructure/logger"
	"github.com/handmade/backend/internal/interfaces/http/dto"
	"github.com/handmade/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response, deriving the status from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code),
		dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ValidationFailed sends a 400 VALIDATION_ERROR naming one field
func (h *BaseHandler) ValidationFailed(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		[]dto.ValidationDetail{{Field: field, Message: message}},
	))
}

// HandleError converts a service error to a response. Domain errors keep
// their code, message and details; anything else is logged and hidden
// behind a generic INTERNAL error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) && domainErr.Code != shared.CodeInternal {
		resp := dto.NewErrorResponseWithRequestID(domainErr.Code, domainErr.Message, middleware.GetRequestID(c))
		c.JSON(dto.GetHTTPStatus(domainErr.Code), resp.WithDetails(domainErr.Details))
		return
	}

	logger.L(c.Request.Context()).Error("Unhandled error",
		zap.String("route", c.FullPath()),
		zap.Error(err),
	)
	h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

// bindJSON binds the request body, answering 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds query parameters, answering 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// actor returns the authenticated actor. Mutating routes sit behind
// middleware.RequireActor, so an empty actor here is a wiring mistake and
// is refused rather than recorded on the audit trail.
func (h *BaseHandler) actor(c *gin.Context) (string, bool) {
	actor := middleware.GetActorID(c)
	if actor == "" {
		h.Error(c, dto.ErrCodeUnauthorized, "Authentication required")
		return "", false
	}
	return actor, true
}
