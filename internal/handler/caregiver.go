package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CaregiverHandler implements the caregiver roster endpoints. Every route
// under /patients/:id first checks that the ID belongs to a patient.
type CaregiverHandler struct {
	patients     PatientService
	vitals       VitalService
	medications  MedicationService
	appointments AppointmentService
	insights     InsightService
	reports      ReportService
	logger       *zap.Logger
}

// CaregiverDeps are the services behind the caregiver endpoints
type CaregiverDeps struct {
	Patients     PatientService
	Vitals       VitalService
	Medications  MedicationService
	Appointments AppointmentService
	Insights     InsightService
	Reports      ReportService
}

// NewCaregiverHandler creates a new CaregiverHandler
func NewCaregiverHandler(deps CaregiverDeps, logger *zap.Logger) *CaregiverHandler {
	return &CaregiverHandler{
		patients:     deps.Patients,
		vitals:       deps.Vitals,
		medications:  deps.Medications,
		appointments: deps.Appointments,
		insights:     deps.Insights,
		reports:      deps.Reports,
		logger:       logger,
	}
}

// patientParam resolves the :id parameter to a patient, answering 404 when
// it does not name one
func (h *CaregiverHandler) patientParam(c *gin.Context) (string, bool) {
	patient, err := h.patients.FindPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Patient not found")
		return "", false
	}
	return patient.ID, true
}

// ListPatients lists every patient
func (h *CaregiverHandler) ListPatients(c *gin.Context) {
	patients, err := h.patients.ListPatients(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to list patients")
		return
	}

	h.logger.Info("patients listed",
		zap.String("caregiver_id", currentUser(c)),
		zap.Int("count", len(patients)),
	)

	c.JSON(http.StatusOK, patients)
}

// GetPatientVitals lists a patient's recent readings
func (h *CaregiverHandler) GetPatientVitals(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}
	patientID, ok := h.patientParam(c)
	if !ok {
		return
	}

	readings, err := h.vitals.History(c.Request.Context(), patientID, limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list readings")
		return
	}
	c.JSON(http.StatusOK, readings)
}

// GetPatientAlerts lists a patient's recent alerts
func (h *CaregiverHandler) GetPatientAlerts(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}
	patientID, ok := h.patientParam(c)
	if !ok {
		return
	}

	alerts, err := h.vitals.Alerts(c.Request.Context(), patientID, limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list alerts")
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// GetPatientMedications lists a patient's medications
func (h *CaregiverHandler) GetPatientMedications(c *gin.Context) {
	patientID, ok := h.patientParam(c)
	if !ok {
		return
	}

	medications, err := h.medications.ListMedications(c.Request.Context(), patientID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list medications")
		return
	}
	c.JSON(http.StatusOK, medications)
}

// GetPatientAppointments lists a patient's upcoming appointments
func (h *CaregiverHandler) GetPatientAppointments(c *gin.Context) {
	patientID, ok := h.patientParam(c)
	if !ok {
		return
	}

	appointments, err := h.appointments.Upcoming(c.Request.Context(), patientID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list appointments")
		return
	}
	c.JSON(http.StatusOK, appointments)
}

// GetPatientTrends summarises a patient's recent readings
func (h *CaregiverHandler) GetPatientTrends(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}
	patientID, ok := h.patientParam(c)
	if !ok {
		return
	}

	summary, err := h.insights.TrendSummary(c.Request.Context(), patientID, limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to summarise trends")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportPatientVitals downloads a patient's vitals and alerts as a workbook
func (h *CaregiverHandler) ExportPatientVitals(c *gin.Context) {
	patientID, ok := h.patientParam(c)
	if !ok {
		return
	}

	data, err := h.reports.ExportVitals(c.Request.Context(), patientID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to export vitals")
		return
	}

	h.logger.Info("vitals exported",
		zap.String("caregiver_id", currentUser(c)),
		zap.String("patient_id", patientID),
		zap.Int("size", len(data)),
	)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=vitals_%s.xlsx", patientID))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
