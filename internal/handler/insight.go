package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vitalvision/backend/internal/service"
	"github.com/vitalvision/backend/internal/vitals"
	"github.com/vitalvision/backend/pkg/api"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

// InsightHandler implements the AI insight endpoints
type InsightHandler struct {
	service InsightService
	logger  *zap.Logger
}

// NewInsightHandler creates a new InsightHandler
func NewInsightHandler(service InsightService, logger *zap.Logger) *InsightHandler {
	return &InsightHandler{
		service: service,
		logger:  logger,
	}
}

// PostRiskAssessment assesses the reading in the body, or the latest stored
// reading when the body has none
func (h *InsightHandler) PostRiskAssessment(c *gin.Context) {
	var req api.RiskAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("invalid request body", zap.Error(err))
		badRequest(c, err)
		return
	}

	var reading *model.VitalReading
	if req.Reading != nil {
		in := toReading(req.Reading)
		if err := vitals.Validate(in); err != nil {
			respondError(c, h.logger, err, "Invalid reading")
			return
		}
		reading = &model.VitalReading{
			Timestamp:        in.Timestamp,
			HeartRate:        *in.HeartRate,
			SystolicPressure: *in.SystolicPressure,
			OxygenSaturation: *in.OxygenSaturation,
			Temperature:      *in.Temperature,
		}
		if reading.Timestamp <= 0 {
			reading.Timestamp = time.Now().UnixMilli()
		}
	}

	env := &service.EnvironmentalData{
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Altitude:   req.Altitude,
		StepsToday: req.StepsToday,
	}

	c.JSON(http.StatusOK, h.service.AssessRisk(c.Request.Context(), currentUser(c), reading, env))
}

// GetProfileRisk returns a risk level derived from the caller's profile
func (h *InsightHandler) GetProfileRisk(c *gin.Context) {
	risk, err := h.service.ProfileRisk(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to assess profile risk")
		return
	}
	c.JSON(http.StatusOK, risk)
}

// GetRecommendations returns personalised advice from the recent history
func (h *InsightHandler) GetRecommendations(c *gin.Context) {
	recs, err := h.service.Recommendations(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to generate recommendations")
		return
	}
	c.JSON(http.StatusOK, recs)
}
