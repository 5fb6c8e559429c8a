package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitalvision/backend/pkg/api"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

// MedicationHandler implements medication API endpoints
type MedicationHandler struct {
	service MedicationService
	logger  *zap.Logger
}

// NewMedicationHandler creates a new MedicationHandler
func NewMedicationHandler(service MedicationService, logger *zap.Logger) *MedicationHandler {
	return &MedicationHandler{
		service: service,
		logger:  logger,
	}
}

func toMedication(req *api.MedicationRequest) *model.Medication {
	return &model.Medication{
		Name:      req.Name,
		Dose:      req.Dose,
		Frequency: model.MedicationFrequency(req.Frequency),
		Times:     req.Times,
	}
}

// PostMedication adds a new medication
func (h *MedicationHandler) PostMedication(c *gin.Context) {
	var req api.MedicationRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	userID := currentUser(c)
	medication := toMedication(&req)

	if err := h.service.AddMedication(c.Request.Context(), userID, medication); err != nil {
		respondError(c, h.logger, err, "Failed to add medication")
		return
	}

	h.logger.Info("medication added",
		zap.String("medication_id", medication.ID),
		zap.String("user_id", userID),
	)

	c.JSON(http.StatusCreated, medication)
}

// GetMedications lists all medications of the caller
func (h *MedicationHandler) GetMedications(c *gin.Context) {
	userID := currentUser(c)

	medications, err := h.service.ListMedications(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list medications")
		return
	}

	h.logger.Info("medications listed",
		zap.String("user_id", userID),
		zap.Int("count", len(medications)),
	)

	c.JSON(http.StatusOK, medications)
}

// PutMedication replaces a medication's schedule
func (h *MedicationHandler) PutMedication(c *gin.Context) {
	var req api.MedicationRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	userID := currentUser(c)
	medicationID := c.Param("id")
	medication := toMedication(&req)

	if err := h.service.UpdateMedication(c.Request.Context(), userID, medicationID, medication); err != nil {
		respondError(c, h.logger, err, "Failed to update medication")
		return
	}

	h.logger.Info("medication updated",
		zap.String("medication_id", medicationID),
		zap.String("user_id", userID),
	)

	c.JSON(http.StatusOK, medication)
}

// DeleteMedication removes a medication
func (h *MedicationHandler) DeleteMedication(c *gin.Context) {
	userID := currentUser(c)
	medicationID := c.Param("id")

	if err := h.service.DeleteMedication(c.Request.Context(), userID, medicationID); err != nil {
		respondError(c, h.logger, err, "Failed to delete medication")
		return
	}

	h.logger.Info("medication deleted",
		zap.String("medication_id", medicationID),
		zap.String("user_id", userID),
	)

	c.Status(http.StatusNoContent)
}

// MarkTaken records a dose of a medication as taken now
func (h *MedicationHandler) MarkTaken(c *gin.Context) {
	entry, err := h.service.MarkTaken(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to record dose")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// GetMedicationLog lists the caller's confirmed doses
func (h *MedicationHandler) GetMedicationLog(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	entries, err := h.service.DoseLog(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list medication log")
		return
	}
	c.JSON(http.StatusOK, entries)
}
