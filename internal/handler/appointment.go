package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitalvision/backend/pkg/api"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

// AppointmentHandler implements appointment API endpoints
type AppointmentHandler struct {
	service AppointmentService
	logger  *zap.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler
func NewAppointmentHandler(service AppointmentService, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
		logger:  logger,
	}
}

// PostAppointment schedules an appointment
func (h *AppointmentHandler) PostAppointment(c *gin.Context) {
	var req api.AppointmentRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	userID := currentUser(c)
	appointment := &model.Appointment{
		Date:             dateToTime(req.Date),
		Time:             req.Time,
		Type:             req.Type,
		ProfessionalName: req.ProfessionalName,
	}

	if err := h.service.CreateAppointment(c.Request.Context(), userID, appointment); err != nil {
		respondError(c, h.logger, err, "Failed to create appointment")
		return
	}

	h.logger.Info("appointment created",
		zap.String("appointment_id", appointment.ID),
		zap.String("user_id", userID),
	)

	c.JSON(http.StatusCreated, appointment)
}

// GetAppointments lists the caller's appointments from the start of today
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	appointments, err := h.service.Upcoming(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to list appointments")
		return
	}
	c.JSON(http.StatusOK, appointments)
}

// DeleteAppointment cancels an appointment
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	if err := h.service.DeleteAppointment(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "Failed to delete appointment")
		return
	}
	c.Status(http.StatusNoContent)
}
