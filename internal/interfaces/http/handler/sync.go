package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/marketplace/backend/internal/application/integration"
	"github.com/marketplace/backend/internal/domain/integration"
)

// SyncHandler triggers reconciliation runs and reports their status
type SyncHandler struct {
	BaseHandler
	connections ConnectionService
	runner      SyncRunner
	status      SyncStatusReader
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(connections ConnectionService, runner SyncRunner, status SyncStatusReader) *SyncHandler {
	return &SyncHandler{connections: connections, runner: runner, status: status}
}

// Trigger godoc
// @ID           triggerSync
// @Summary      Run a product sync
// @Description  Pulls the platform catalog and reconciles it into the local catalog. Answers 202 when a run already holds the connection.
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        request  body      TriggerSyncRequest  true  "Connection to sync"
// @Success      200      {object}  APIResponse[integration.SyncResult]
// @Success      202      {object}  APIResponse[SyncInProgressResponse]
// @Failure      400      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Failure      502      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /sync [post]
func (h *SyncHandler) Trigger(c *gin.Context) {
	var req TriggerSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	var (
		result *integration.SyncResult
		err    error
	)
	if req.ConnectionID != "" {
		conn, ok := h.ownedConnection(c, req.ConnectionID)
		if !ok {
			return
		}
		result, err = h.runner.SyncProducts(c.Request.Context(), conn.ID)
	} else {
		platform, perr := integration.ParsePlatformType(req.Platform)
		if perr != nil {
			h.HandleError(c, perr)
			return
		}
		merchantID, ok := h.resolveMerchant(c, req.MerchantID)
		if !ok {
			return
		}
		result, err = h.runner.SyncByMerchant(c.Request.Context(), merchantID, platform)
	}

	if errors.Is(err, integration.ErrConcurrentSync) {
		h.Accepted(c, SyncInProgressResponse{Status: "in_progress"})
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Status godoc
// @ID           getSyncStatus
// @Summary      Get a connection's sync status
// @Tags         sync
// @Produce      json
// @Param        connection_id  path      string  true  "Connection ID"  format(uuid)
// @Success      200            {object}  APIResponse[SyncStatusResponse]
// @Failure      400            {object}  ErrorResponse
// @Failure      404            {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /sync/{connection_id}/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	conn, ok := h.loadOwnedConnection(c, h.connections, "connection_id")
	if !ok {
		return
	}
	record, err := h.status.GetStatus(c.Request.Context(), conn.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ToSyncStatusResponse(record))
}

// Sweep godoc
// @ID           sweepDeletions
// @Summary      Delete local products that vanished from the platform
// @Description  Refuses to empty the whole catalog unless confirm_empty_remote is set
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        connection_id  path      string        true   "Connection ID"  format(uuid)
// @Param        request        body      SweepRequest  false  "Sweep options"
// @Success      200            {object}  APIResponse[integrationapp.SweepResult]
// @Failure      404            {object}  ErrorResponse
// @Failure      409            {object}  ErrorResponse
// @Failure      422            {object}  ErrorResponse
// @Failure      502            {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /sync/{connection_id}/sweep [post]
func (h *SyncHandler) Sweep(c *gin.Context) {
	conn, ok := h.loadOwnedConnection(c, h.connections, "connection_id")
	if !ok {
		return
	}

	var req SweepRequest
	// an empty body sweeps with the defaults
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.ValidationError(c, err)
		return
	}

	result, err := h.runner.SweepDeletions(c.Request.Context(), conn.ID, integrationapp.SweepOptions{
		ConfirmEmptyRemote: req.ConfirmEmptyRemote,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ImportOrders godoc
// @ID           importOrders
// @Summary      Import platform orders
// @Tags         sync
// @Produce      json
// @Param        connection_id  path      string  true  "Connection ID"  format(uuid)
// @Success      200            {object}  APIResponse[integration.SyncResult]
// @Failure      404            {object}  ErrorResponse
// @Failure      409            {object}  ErrorResponse
// @Failure      502            {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /sync/{connection_id}/orders [post]
func (h *SyncHandler) ImportOrders(c *gin.Context) {
	conn, ok := h.loadOwnedConnection(c, h.connections, "connection_id")
	if !ok {
		return
	}
	result, err := h.runner.ImportOrders(c.Request.Context(), conn.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *SyncHandler) ownedConnection(c *gin.Context, raw string) (*integration.Connection, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		h.BadRequest(c, "Invalid connection_id")
		return nil, false
	}
	return h.loadConnection(c, h.connections, id)
}
