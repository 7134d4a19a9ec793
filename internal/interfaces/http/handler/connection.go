package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marketplace/backend/internal/domain/integration"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
)

// ConnectionHandler manages merchant connections and single-product pushes
type ConnectionHandler struct {
	BaseHandler
	connections ConnectionService
	sync        SyncRunner
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(connections ConnectionService, sync SyncRunner) *ConnectionHandler {
	return &ConnectionHandler{connections: connections, sync: sync}
}

// Save godoc
// @ID           saveConnection
// @Summary      Save platform credentials
// @Description  Creates or replaces the merchant's connection to a platform. With verify=true the credentials are checked against the platform first.
// @Tags         connections
// @Accept       json
// @Produce      json
// @Param        platform path      string                 true  "Platform"  Enums(shopify, woocommerce)
// @Param        verify   query     bool                   false "Verify against the platform before saving"
// @Param        request  body      SaveConnectionRequest  true  "Credentials"
// @Success      200      {object}  APIResponse[ConnectionResponse]
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Failure      422      {object}  ErrorResponse
// @Failure      502      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /connections/{platform} [put]
func (h *ConnectionHandler) Save(c *gin.Context) {
	platform, err := integration.ParsePlatformType(c.Param("platform"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req SaveConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	merchantID, ok := h.resolveMerchant(c, req.MerchantID)
	if !ok {
		return
	}

	save := h.connections.SaveCredentials
	if c.Query("verify") == "true" {
		save = h.connections.Reauthorize
	}
	conn, err := save(c.Request.Context(), merchantID, platform, req.Credentials(platform))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ToConnectionResponse(conn))
}

// Get godoc
// @ID           getConnection
// @Summary      Get a connection
// @Description  Returns the connection with its credentials redacted
// @Tags         connections
// @Produce      json
// @Param        id   path      string  true  "Connection ID"  format(uuid)
// @Success      200  {object}  APIResponse[ConnectionResponse]
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /connections/{id} [get]
func (h *ConnectionHandler) Get(c *gin.Context) {
	conn, ok := h.loadOwnedConnection(c, h.connections, "id")
	if !ok {
		return
	}
	h.Success(c, ToConnectionResponse(conn))
}

// Disconnect godoc
// @ID           disconnectConnection
// @Summary      Disconnect a connection
// @Description  Marks the connection disconnected; stored credentials are kept for audit
// @Tags         connections
// @Produce      json
// @Param        id   path      string  true  "Connection ID"  format(uuid)
// @Success      200  {object}  APIResponse[ConnectionResponse]
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /connections/{id} [delete]
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	conn, ok := h.loadOwnedConnection(c, h.connections, "id")
	if !ok {
		return
	}
	conn, err := h.connections.Disconnect(c.Request.Context(), conn.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ToConnectionResponse(conn))
}

// PushProduct godoc
// @ID           pushProduct
// @Summary      Push a product to the platform
// @Description  Creates the product remotely when id is empty, otherwise updates it
// @Tags         connections
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Connection ID"  format(uuid)
// @Param        request  body      PushProductRequest  true  "Product"
// @Success      200      {object}  APIResponse[ProductResponse]
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Failure      502      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /connections/{id}/products [post]
func (h *ConnectionHandler) PushProduct(c *gin.Context) {
	conn, ok := h.loadOwnedConnection(c, h.connections, "id")
	if !ok {
		return
	}

	var req PushProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	product, err := req.ToPlatformProduct(conn.Platform)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid price")
		return
	}

	saved, err := h.sync.PushProduct(c.Request.Context(), conn.ID, product)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ToProductResponse(saved))
}

// RemoveProduct godoc
// @ID           removeProduct
// @Summary      Delete a product remotely and locally
// @Tags         connections
// @Produce      json
// @Param        id          path      string  true  "Connection ID"  format(uuid)
// @Param        product_id  path      string  true  "Platform product ID"
// @Success      200         {object}  SuccessResponse
// @Failure      400         {object}  ErrorResponse
// @Failure      404         {object}  ErrorResponse
// @Failure      502         {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /connections/{id}/products/{product_id} [delete]
func (h *ConnectionHandler) RemoveProduct(c *gin.Context) {
	conn, ok := h.loadOwnedConnection(c, h.connections, "id")
	if !ok {
		return
	}
	productID := strings.TrimSpace(c.Param("product_id"))
	if productID == "" {
		h.BadRequest(c, "product_id is required")
		return
	}
	if err := h.sync.RemoveRemoteProduct(c.Request.Context(), conn.ID, productID); err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
