package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitalvision/backend/internal/middleware"
	"github.com/vitalvision/backend/pkg/api"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

// ProfileHandler implements the profile, notification and privacy endpoints
type ProfileHandler struct {
	patients PatientService
	privacy  PrivacyService
	logger   *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(patients PatientService, privacy PrivacyService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		patients: patients,
		privacy:  privacy,
		logger:   logger,
	}
}

// GetProfile returns the caller's profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.patients.GetProfile(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// PutProfile creates or updates the caller's profile
func (h *ProfileHandler) PutProfile(c *gin.Context) {
	var req api.ProfileRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	userID := currentUser(c)
	updates := &model.Patient{
		Name:                  req.Name,
		Age:                   req.Age,
		Sex:                   req.Sex,
		MedicalDiagnosis:      req.MedicalDiagnosis,
		CurrentMedications:    req.CurrentMedications,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
	}

	profile, err := h.patients.SaveProfile(c.Request.Context(), userID, c.GetString(middleware.EmailKey), middleware.RoleFrom(c), updates)
	if err != nil {
		respondError(c, h.logger, err, "Failed to save profile")
		return
	}

	h.logger.Info("profile saved", zap.String("user_id", userID))
	c.JSON(http.StatusOK, profile)
}

// GetNotifications lists the reminders delivered to the caller
func (h *ProfileHandler) GetNotifications(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}

	notifications, err := h.patients.Notifications(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list notifications")
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// ExportProfile downloads every record held about the caller
func (h *ProfileHandler) ExportProfile(c *gin.Context) {
	userID := currentUser(c)

	data, err := h.privacy.ExportPatientData(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to export data")
		return
	}

	h.logger.Info("patient data exported", zap.String("user_id", userID))

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=vitalvision_export_%s.json", userID))
	c.Data(http.StatusOK, "application/json", data)
}

// DeleteProfile erases the caller's profile and data
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	userID := currentUser(c)

	if err := h.privacy.DeletePatientData(c.Request.Context(), userID); err != nil {
		respondError(c, h.logger, err, "Failed to delete data")
		return
	}

	h.logger.Info("patient data deleted", zap.String("user_id", userID))
	c.Status(http.StatusNoContent)
}
