package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitalvision/backend/pkg/api"
	"go.uber.org/zap"
)

const (
	serviceName    = "vitalvision-backend"
	serviceVersion = "1.0.0"
)

// HealthHandler implements the health check endpoint
type HealthHandler struct {
	db     Pinger
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger,
	}
}

// GetHealth reports whether the database is reachable
func (h *HealthHandler) GetHealth(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.logger.Error("health check failed: database unreachable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, api.HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Service:  serviceName,
			Version:  serviceVersion,
			Error:    stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, api.HealthResponse{
		Status:   "healthy",
		Database: "connected",
		Service:  serviceName,
		Version:  serviceVersion,
	})
}
