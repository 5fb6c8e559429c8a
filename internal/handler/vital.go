package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitalvision/backend/internal/vitals"
	"github.com/vitalvision/backend/pkg/api"
	"go.uber.org/zap"
)

// VitalHandler implements the vitals and alerts endpoints
type VitalHandler struct {
	service VitalService
	logger  *zap.Logger
}

// NewVitalHandler creates a new VitalHandler
func NewVitalHandler(service VitalService, logger *zap.Logger) *VitalHandler {
	return &VitalHandler{
		service: service,
		logger:  logger,
	}
}

func toReading(req *api.VitalReadingRequest) vitals.Reading {
	r := vitals.Reading{
		HeartRate:        req.HeartRate,
		SystolicPressure: req.SystolicPressure,
		OxygenSaturation: req.OxygenSaturation,
		Temperature:      req.Temperature,
	}
	if req.Timestamp != nil {
		r.Timestamp = *req.Timestamp
	}
	return r
}

// PostVitals records a reading and returns the alerts it raised
func (h *VitalHandler) PostVitals(c *gin.Context) {
	var req api.VitalReadingRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	userID := currentUser(c)
	result, err := h.service.RecordReading(c.Request.Context(), userID, toReading(&req))
	if err != nil {
		respondError(c, h.logger, err, "Failed to record reading")
		return
	}

	h.logger.Info("vital reading received",
		zap.String("user_id", userID),
		zap.Int("alerts", len(result.Alerts)),
	)

	c.JSON(http.StatusCreated, result)
}

// GetVitals lists the caller's recent readings
func (h *VitalHandler) GetVitals(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	readings, err := h.service.History(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list readings")
		return
	}
	c.JSON(http.StatusOK, readings)
}

// GetLatestVitals returns the caller's newest reading
func (h *VitalHandler) GetLatestVitals(c *gin.Context) {
	reading, err := h.service.Latest(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get latest reading")
		return
	}
	c.JSON(http.StatusOK, reading)
}

// GetAlerts lists the caller's recent alerts
func (h *VitalHandler) GetAlerts(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	alerts, err := h.service.Alerts(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list alerts")
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// AcknowledgeAlert acknowledges one of the caller's alerts
func (h *VitalHandler) AcknowledgeAlert(c *gin.Context) {
	alert, err := h.service.AcknowledgeAlert(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to acknowledge alert")
		return
	}
	c.JSON(http.StatusOK, alert)
}
