package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vitalvision/backend/internal/middleware"
	"github.com/vitalvision/backend/pkg/model"
)

// Handlers groups every endpoint implementation
type Handlers struct {
	Health      *HealthHandler
	Profile     *ProfileHandler
	Vital       *VitalHandler
	Medication  *MedicationHandler
	Appointment *AppointmentHandler
	Insight     *InsightHandler
	Caregiver   *CaregiverHandler
	Report      *ReportHandler
}

// RegisterHandlers mounts the API on r. Everything under /api/v1 runs behind
// the given middlewares, typically authentication then request validation.
func RegisterHandlers(r gin.IRouter, h Handlers, middlewares ...gin.HandlerFunc) {
	r.GET("/health", h.Health.GetHealth)

	v1 := r.Group("/api/v1", middlewares...)

	v1.GET("/profile", h.Profile.GetProfile)
	v1.PUT("/profile", h.Profile.PutProfile)
	v1.DELETE("/profile", h.Profile.DeleteProfile)
	v1.GET("/profile/export", h.Profile.ExportProfile)
	v1.GET("/notifications", h.Profile.GetNotifications)

	v1.POST("/vitals", h.Vital.PostVitals)
	v1.GET("/vitals", h.Vital.GetVitals)
	v1.GET("/vitals/latest", h.Vital.GetLatestVitals)
	v1.GET("/alerts", h.Vital.GetAlerts)
	v1.POST("/alerts/:id/acknowledge", h.Vital.AcknowledgeAlert)

	v1.GET("/medications", h.Medication.GetMedications)
	v1.POST("/medications", h.Medication.PostMedication)
	v1.GET("/medications/log", h.Medication.GetMedicationLog)
	v1.PUT("/medications/:id", h.Medication.PutMedication)
	v1.DELETE("/medications/:id", h.Medication.DeleteMedication)
	v1.POST("/medications/:id/taken", h.Medication.MarkTaken)

	v1.GET("/appointments", h.Appointment.GetAppointments)
	v1.POST("/appointments", h.Appointment.PostAppointment)
	v1.DELETE("/appointments/:id", h.Appointment.DeleteAppointment)

	v1.POST("/insights/risk", h.Insight.PostRiskAssessment)
	v1.GET("/insights/profile-risk", h.Insight.GetProfileRisk)
	v1.GET("/insights/recommendations", h.Insight.GetRecommendations)

	caregiver := v1.Group("", middleware.RequireRole(model.RoleCaregiver))
	caregiver.GET("/patients", h.Caregiver.ListPatients)
	caregiver.GET("/patients/:id/vitals", h.Caregiver.GetPatientVitals)
	caregiver.GET("/patients/:id/alerts", h.Caregiver.GetPatientAlerts)
	caregiver.GET("/patients/:id/medications", h.Caregiver.GetPatientMedications)
	caregiver.GET("/patients/:id/appointments", h.Caregiver.GetPatientAppointments)
	caregiver.GET("/patients/:id/trends", h.Caregiver.GetPatientTrends)
	caregiver.GET("/patients/:id/export.xlsx", h.Caregiver.ExportPatientVitals)
	caregiver.POST("/patients/:id/reports", h.Report.PostReport)
	caregiver.GET("/reports/:id", h.Report.GetReport)
}
