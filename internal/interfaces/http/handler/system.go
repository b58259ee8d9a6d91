package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backoffice/internal/interfaces/http/dto"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler handles health and system endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	version   string
	db        Pinger
}

// NewSystemHandler creates a new SystemHandler. db may be nil.
func NewSystemHandler(version string, db Pinger) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		version:   version,
		db:        db,
	}
}

// HealthResponse is the health check body
// @name HandlerHealthResponse
type HealthResponse struct {
	Status    string `json:"status" example:"healthy"`
	Database  string `json:"database" example:"ok"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Reports the service as unhealthy when the database does not answer a ping
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Database:  "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, resp)
}

// PingResponse represents the ping response
// @name HandlerPingResponse
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Description  Simple ping endpoint to check if the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /api/v1/system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}))
}
