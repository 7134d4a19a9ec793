package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marketplace/backend/internal/interfaces/http/dto"
)

// Pinger checks a backing store
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler serves health and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	db        Pinger
	scheduler SchedulerStatusData
	startTime time.Time
}

// SystemHandlerConfig configures SystemHandler
type SystemHandlerConfig struct {
	Name    string
	Version string
	// DB is pinged by the health check; nil skips the check
	DB        Pinger
	Scheduler SchedulerStatusData
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(cfg SystemHandlerConfig) *SystemHandler {
	return &SystemHandler{
		name:      cfg.Name,
		version:   cfg.Version,
		db:        cfg.DB,
		scheduler: cfg.Scheduler,
		startTime: time.Now(),
	}
}

// SchedulerStatusData describes the periodic sync trigger
// @Description Scheduler status information
type SchedulerStatusData struct {
	Enabled  bool   `json:"enabled"`
	Interval string `json:"interval,omitempty" example:"15m0s"`
}

// SystemInfoResponse represents the system information response
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name      string              `json:"name" example:"marketplace-sync"`
	Version   string              `json:"version" example:"1.0.0"`
	GoVersion string              `json:"go_version" example:"go1.25.5"`
	Uptime    string              `json:"uptime" example:"1h30m45s"`
	Scheduler SchedulerStatusData `json:"scheduler"`
}

// HealthResponse represents the health check response
// @name HandlerHealthResponse
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Reports liveness and pings the database
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Database: "skipped"}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			_ = c.Error(err)
			resp.Status, resp.Database = "degraded", "unreachable"
			c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
			return
		}
		resp.Database = "ok"
	}
	h.Success(c, resp)
}

// GetSystemInfo godoc
// @ID           getSystemInfo
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Scheduler: h.scheduler,
	})
}
