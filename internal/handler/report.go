package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitalvision/backend/pkg/api"
	"go.uber.org/zap"
)

// ReportHandler implements report API endpoints
type ReportHandler struct {
	patients PatientService
	service  ReportService
	logger   *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(patients PatientService, service ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		patients: patients,
		service:  service,
		logger:   logger,
	}
}

// PostReport generates a PDF report of a patient over a date range
func (h *ReportHandler) PostReport(c *gin.Context) {
	var req api.ReportRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	patient, err := h.patients.FindPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Patient not found")
		return
	}

	caregiverID := currentUser(c)
	report, err := h.service.GenerateReport(c.Request.Context(), patient.ID, caregiverID, dateToTime(req.StartDate), dateToTime(req.EndDate))
	if err != nil {
		respondError(c, h.logger, err, "Failed to generate report")
		return
	}

	h.logger.Info("report generated",
		zap.String("report_id", report.ID),
		zap.String("patient_id", patient.ID),
		zap.String("caregiver_id", caregiverID),
	)

	c.JSON(http.StatusCreated, api.ReportResponse{
		Id:          stringToUUID(report.ID),
		PatientId:   report.PatientID,
		StartDate:   timeToDate(report.StartDate),
		EndDate:     timeToDate(report.EndDate),
		DownloadUrl: "/api/v1/reports/" + report.ID,
	})
}

// GetReport downloads a generated report
func (h *ReportHandler) GetReport(c *gin.Context) {
	reportID := c.Param("id")

	report, pdfBytes, err := h.service.GetReport(c.Request.Context(), reportID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get report")
		return
	}

	h.logger.Info("report retrieved",
		zap.String("report_id", report.ID),
		zap.Int("size", len(pdfBytes)),
	)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=vitalvision_report_%s.pdf", report.ID))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
