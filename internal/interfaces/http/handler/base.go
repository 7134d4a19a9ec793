// Package handler holds the gin handlers of the admin API and the webhook
// receivers.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDKey)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 with the credentials-not-found code. Connections of
// other merchants answer the same way so their IDs cannot be probed.
func (h *BaseHandler) NotFound(c *gin.Context) {
	h.ErrorWithCode(c, dto.ErrCodeCredentialsNotFound, "Connection not found")
}

// ValidationError writes the binding error as a 400 with field details
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// parseUUIDParam reads a UUID path parameter, answering 400 when malformed
func (h *BaseHandler) parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// canAccess reports whether the caller's token may act for merchantID
func (h *BaseHandler) canAccess(c *gin.Context, merchantID string) bool {
	claims := middleware.GetJWTClaims(c)
	return claims != nil && claims.CanAccessMerchant(merchantID)
}

type connectionGetter interface {
	GetConnection(ctx context.Context, connectionID uuid.UUID) (*integration.Connection, error)
}

// loadOwnedConnection fetches the connection named by the path parameter.
// Connections the caller may not act for answer like missing ones.
func (h *BaseHandler) loadOwnedConnection(c *gin.Context, connections connectionGetter, param string) (*integration.Connection, bool) {
	id, ok := h.parseUUIDParam(c, param)
	if !ok {
		return nil, false
	}
	return h.loadConnection(c, connections, id)
}

func (h *BaseHandler) loadConnection(c *gin.Context, connections connectionGetter, id uuid.UUID) (*integration.Connection, bool) {
	conn, err := connections.GetConnection(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	if !h.canAccess(c, conn.MerchantID) {
		h.NotFound(c)
		return nil, false
	}
	// request, SQL and service logs for the rest of the request carry the connection
	c.Request = c.Request.WithContext(logger.WithConnectionID(c.Request.Context(), conn.ID.String()))
	return conn, true
}

// resolveMerchant picks the merchant a request acts for: the requested one
// when the token may act for it, else the token's own merchant
func (h *BaseHandler) resolveMerchant(c *gin.Context, requested string) (string, bool) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		requested = middleware.GetJWTMerchantID(c)
	}
	if requested == "" {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "merchant_id is required")
		return "", false
	}
	if !h.canAccess(c, requested) {
		h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, "Token may not act for this merchant")
		return "", false
	}
	return requested, true
}

// HandleError maps service errors to the response envelope. Messages are
// fixed per class; platform error text can carry shop URLs and stays in logs.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var invalidCreds *integration.InvalidCredentialsError
	var domainErr *shared.DomainError
	switch {
	case errors.As(err, &invalidCreds):
		// names fields only, never values
		h.ErrorWithCode(c, dto.ErrCodeInvalidCredentials, invalidCreds.Error())
	case errors.Is(err, integration.ErrInvalidCredentials):
		h.ErrorWithCode(c, dto.ErrCodeInvalidCredentials, "Credentials are invalid")
	case errors.Is(err, integration.ErrCredentialsNotFound):
		h.NotFound(c)
	case errors.Is(err, integration.ErrUnsupportedPlatform):
		h.ErrorWithCode(c, dto.ErrCodeUnsupportedPlatform, "Unsupported platform")
	case errors.Is(err, integration.ErrInvalidMerchantID):
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "merchant_id is required")
	case errors.Is(err, integration.ErrPlatformMismatch):
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Credentials do not match the connection's platform")
	case errors.Is(err, integration.ErrInvalidProduct):
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Product ID is required")
	case errors.Is(err, integration.ErrConnectionInactive):
		h.ErrorWithCode(c, dto.ErrCodeConnectionInactive, "Connection is disconnected")
	case errors.Is(err, integration.ErrConcurrentSync):
		h.ErrorWithCode(c, dto.ErrCodeSyncInProgress, "A sync is already running for this connection")
	case errors.Is(err, integration.ErrSyncSuperseded):
		h.ErrorWithCode(c, dto.ErrCodeSyncSuperseded, "The sync ran past its claim and a newer run took over; its result was not recorded")
	case errors.Is(err, integration.ErrSweepUnconfirmed):
		h.ErrorWithCode(c, dto.ErrCodeSweepUnconfirmed, "Platform reported no products; set confirm_empty_remote to delete every linked product")
	case errors.Is(err, integration.ErrProductNotFound), errors.Is(err, integration.ErrSyncStatusNotFound):
		h.ErrorWithCode(c, dto.ErrCodeNotFound, "Resource not found")
	case errors.Is(err, integration.ErrPlatformRateLimited):
		h.ErrorWithCode(c, dto.ErrCodeRateLimited, "Platform rate limit reached, retry later")
	case errors.Is(err, integration.ErrPlatformAuthFailed):
		h.ErrorWithCode(c, dto.ErrCodePlatformAuth, "Platform rejected the stored credentials")
	case errors.Is(err, integration.ErrPlatformUnavailable), errors.Is(err, context.DeadlineExceeded):
		_ = c.Error(err)
		h.ErrorWithCode(c, dto.ErrCodePlatformUnavailable, "Platform is unavailable, retry later")
	case errors.Is(err, integration.ErrPlatformRequestFailed),
		errors.Is(err, integration.ErrPlatformInvalidResponse),
		errors.Is(err, integration.ErrSweepIncomplete):
		_ = c.Error(err)
		h.ErrorWithCode(c, dto.ErrCodePlatformRequest, "Platform request failed")
	case errors.As(err, &domainErr):
		h.ErrorWithCode(c, dto.NormalizeErrorCode(domainErr.Code), domainErr.Message)
	default:
		_ = c.Error(err)
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}
