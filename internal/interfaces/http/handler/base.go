// Package handler implements the HTTP handlers of the sync API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopops/revsync/internal/application/revenue"
	"github.com/shopops/revsync/internal/domain/integration"
	"github.com/shopops/revsync/internal/infrastructure/logger"
	"github.com/shopops/revsync/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the request context, falling
// back to the inbound header
func getRequestID(c *gin.Context) string {
	if id := logger.GetRequestID(c.Request.Context()); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessList sends a list with its size
func (h *BaseHandler) SuccessList(c *gin.Context, data any, total, limit int) {
	c.JSON(http.StatusOK, dto.NewListResponse(data, total, limit))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps application and integration errors to HTTP responses.
// Unknown errors are logged and hidden behind a generic message.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	code := errorCode(err)
	if code == dto.ErrCodeInternal {
		logger.GetGinLogger(c).Error("request failed", zap.Error(err))
		h.InternalError(c, "An internal error occurred")
		return
	}
	_ = c.Error(err)
	h.ErrorWithCode(c, code, err.Error())
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, revenue.ErrSyncAlreadyInProgress):
		return dto.ErrCodeConflict
	case errors.Is(err, revenue.ErrInvalidSyncDate):
		return dto.ErrCodeInvalidDate
	case errors.Is(err, integration.ErrSyncRunNotFound):
		return dto.ErrCodeNotFound
	case errors.Is(err, integration.ErrPivotTargetNotConfigured),
		errors.Is(err, integration.ErrPlatformNotConfigured),
		errors.Is(err, integration.ErrPivotUnknownColumnScheme):
		return dto.ErrCodeNotConfigure
	case errors.Is(err, integration.ErrPlatformAuthFailed):
		return dto.ErrCodeUpstreamAuth
	case errors.Is(err, integration.ErrPlatformRateLimited):
		return dto.ErrCodeRateLimited
	case errors.Is(err, context.DeadlineExceeded):
		return dto.ErrCodeTimeout
	case errors.Is(err, integration.ErrPlatformUnavailable),
		errors.Is(err, integration.ErrPlatformRequestFailed),
		errors.Is(err, integration.ErrPlatformInvalidResponse),
		errors.Is(err, integration.ErrRemoteAPIError):
		return dto.ErrCodeUpstream
	default:
		return dto.ErrCodeInternal
	}
}
