package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/crosslister/backend/internal/domain/shared"
	"github.com/crosslister/backend/internal/infrastructure/logger"
	"github.com/crosslister/backend/internal/interfaces/http/dto"
)

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	logger *zap.Logger
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(log *zap.Logger) BaseHandler {
	return BaseHandler{logger: log}
}

// getRequestID extracts the request ID set by the RequestID middleware
func (h *BaseHandler) getRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}

// getLogger returns the request-scoped logger, falling back to the handler's
func (h *BaseHandler) getLogger(c *gin.Context) *zap.Logger {
	if l := logger.GetGinLogger(c); l != nil {
		return l
	}
	return h.logger
}

// Success sends a 200 response with data
func (h *BaseHandler) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response with data
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the status derived from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	apiCode := dto.NormalizeErrorCode(code)
	c.JSON(dto.GetHTTPStatus(apiCode), dto.NewErrorResponse(apiCode, message, h.getRequestID(c)))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, message, h.getRequestID(c)))
}

// NotFound sends a 404 response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, message, h.getRequestID(c)))
}

// Conflict sends a 409 response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, dto.NewErrorResponse(dto.ErrCodeConflict, message, h.getRequestID(c)))
}

// InternalError sends a 500 response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, message, h.getRequestID(c)))
}

// BindError maps a request binding failure to an HTTP response. Violations
// of the custom "platform" rule get the platform error code; everything else
// is a plain bad request.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "platform" {
				h.Error(c, "INVALID_PLATFORM", fmt.Sprintf("Unknown platform: %v", fe.Value()))
				return
			}
		}
	}
	h.BadRequest(c, err.Error())
}

// HandleError maps an error to an HTTP response. Domain errors carry their
// own code; anything else becomes an opaque 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, domainErr.Code, domainErr.Message)
		return
	}

	h.getLogger(c).Error("Unhandled error", zap.Error(err))
	h.InternalError(c, "An internal error occurred")
}
