package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vitalvision/backend/internal/audit"
	"github.com/vitalvision/backend/internal/export"
	"github.com/vitalvision/backend/internal/pdf"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

const exportHistorySize = maxListLimit

// ReportStorage stores generated report files
type ReportStorage interface {
	UploadReport(ctx context.Context, patientID, filename, contentType string, data []byte) (string, error)
	DownloadReport(ctx context.Context, blobName string) ([]byte, error)
}

// ReportGenerator renders report data into a document
type ReportGenerator interface {
	Generate(data *pdf.ReportData) ([]byte, error)
}

// ReportService manages caregiver reports and exports
type ReportService struct {
	patients     PatientRepository
	vitals       VitalRepository
	alerts       AlertRepository
	medications  MedicationRepository
	appointments AppointmentRepository
	reports      ReportRepository
	storage      ReportStorage
	generator    ReportGenerator
	auditor      Auditor
	loc          *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

// ReportDeps groups the stores a ReportService reads from
type ReportDeps struct {
	Patients     PatientRepository
	Vitals       VitalRepository
	Alerts       AlertRepository
	Medications  MedicationRepository
	Appointments AppointmentRepository
	Reports      ReportRepository
}

// NewReportService creates a new ReportService
func NewReportService(deps ReportDeps, storage ReportStorage, generator ReportGenerator, auditor Auditor, loc *time.Location, logger *zap.Logger) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{
		patients:     deps.Patients,
		vitals:       deps.Vitals,
		alerts:       deps.Alerts,
		medications:  deps.Medications,
		appointments: deps.Appointments,
		reports:      deps.Reports,
		storage:      storage,
		generator:    generator,
		auditor:      auditorOrNoop(auditor),
		loc:          loc,
		now:          time.Now,
		logger:       logger,
	}
}

// GenerateReport builds a PDF of a patient's vitals, alerts, medications and
// appointments between the start and end calendar days (both included),
// stores it and records it
func (s *ReportService) GenerateReport(ctx context.Context, patientID, createdBy string, startDate, endDate time.Time) (*model.Report, error) {
	if patientID == "" {
		return nil, validationf("patient ID is required")
	}
	from := startOfDay(startDate, s.loc)
	until := startOfDay(endDate, s.loc)
	if until.Before(from) {
		return nil, validationf("end date must not be before start date")
	}
	to := until.AddDate(0, 0, 1)

	s.logger.Info("generating health report",
		zap.String("patient_id", patientID),
		zap.Time("start_date", from),
		zap.Time("end_date", until),
	)

	patient, err := s.patients.FindByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	readings, err := s.vitals.ListBetween(ctx, patientID, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		s.logger.Error("failed to get vitals for report", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to get vitals: %w", err)
	}

	alerts, err := s.alerts.ListBetween(ctx, patientID, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		s.logger.Error("failed to get alerts for report", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}

	medications, err := s.medications.FindByPatientID(ctx, patientID)
	if err != nil {
		s.logger.Error("failed to get medications for report", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to get medications: %w", err)
	}

	appointments, err := s.appointments.ListBetween(ctx, patientID, from, until)
	if err != nil {
		s.logger.Error("failed to get appointments for report", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to get appointments: %w", err)
	}

	pdfBytes, err := s.generator.Generate(&pdf.ReportData{
		PatientName:  patient.Name,
		DateRange:    fmt.Sprintf("%s to %s", from.Format("2006-01-02"), until.Format("2006-01-02")),
		Readings:     readings,
		Alerts:       alerts,
		Medications:  medications,
		Appointments: appointments,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	reportID := uuid.New().String()
	now := s.now()
	filename := fmt.Sprintf("%s_%s.pdf", reportID, now.Format("20060102"))
	blobPath, err := s.storage.UploadReport(ctx, patientID, filename, "application/pdf", pdfBytes)
	if err != nil {
		s.logger.Error("failed to upload PDF to blob storage",
			zap.Error(err),
			zap.String("report_id", reportID),
		)
		return nil, fmt.Errorf("failed to upload PDF: %w", err)
	}

	report := &model.Report{
		ID:        reportID,
		PatientID: patientID,
		CreatedBy: createdBy,
		StartDate: from,
		EndDate:   until,
		FilePath:  blobPath,
		CreatedAt: now,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		s.logger.Error("failed to save report record",
			zap.Error(err),
			zap.String("report_id", reportID),
		)
		return nil, fmt.Errorf("failed to save report record: %w", err)
	}

	s.logger.Info("health report generated successfully",
		zap.String("report_id", reportID),
		zap.String("patient_id", patientID),
		zap.String("blob_path", blobPath),
	)

	s.auditor.Record(ctx, audit.ActionCreate, audit.ResourceReport, reportID, map[string]any{"patient_id": patientID})
	return report, nil
}

// GetReport retrieves a report record and its PDF
func (s *ReportService) GetReport(ctx context.Context, reportID string) (*model.Report, []byte, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get report record: %w", err)
	}

	pdfBytes, err := s.storage.DownloadReport(ctx, report.FilePath)
	if err != nil {
		s.logger.Error("failed to download PDF from blob storage",
			zap.Error(err),
			zap.String("report_id", reportID),
			zap.String("blob_path", report.FilePath),
		)
		return nil, nil, fmt.Errorf("failed to download PDF: %w", err)
	}

	return report, pdfBytes, nil
}

// ExportVitals renders the recent vitals and alerts of a patient as a
// spreadsheet
func (s *ReportService) ExportVitals(ctx context.Context, patientID string) ([]byte, error) {
	readings, err := s.vitals.ListRecent(ctx, patientID, exportHistorySize)
	if err != nil {
		return nil, fmt.Errorf("failed to get vitals: %w", err)
	}
	alerts, err := s.alerts.ListRecent(ctx, patientID, exportHistorySize)
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}

	data, err := export.VitalsWorkbook(readings, alerts, s.loc)
	if err != nil {
		s.logger.Error("failed to build vitals export", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to build export: %w", err)
	}

	s.auditor.Record(ctx, audit.ActionExport, audit.ResourceVitalReading, patientID, map[string]any{
		"readings": len(readings),
		"alerts":   len(alerts),
	})
	return data, nil
}
