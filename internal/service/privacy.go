package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/vitalvision/backend/internal/audit"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

// PatientDataExport is everything stored for one patient
type PatientDataExport struct {
	Profile       *model.Patient        `json:"profile"`
	Vitals        []model.VitalReading  `json:"vitals"`
	Alerts        []model.Alert         `json:"alerts"`
	Medications   []model.Medication    `json:"medications"`
	MedicationLog []model.MedicationLog `json:"medication_log"`
	Appointments  []model.Appointment   `json:"appointments"`
	Notifications []model.Notification  `json:"notifications"`
	Reports       []model.Report        `json:"reports"`
	ExportedAt    time.Time             `json:"exported_at"`
}

// PrivacyService handles data portability and erasure requests
type PrivacyService struct {
	deps     ReportDeps
	notes    NotificationRepository
	registry ScheduleRemover
	auditor  Auditor
	now      func() time.Time
	logger   *zap.Logger
}

// NewPrivacyService creates a new PrivacyService. registry may be nil.
func NewPrivacyService(deps ReportDeps, notifications NotificationRepository, registry ScheduleRemover, auditor Auditor, logger *zap.Logger) *PrivacyService {
	return &PrivacyService{
		deps:     deps,
		notes:    notifications,
		registry: registry,
		auditor:  auditorOrNoop(auditor),
		now:      time.Now,
		logger:   logger,
	}
}

// ExportPatientData returns every record of the patient as indented JSON
func (s *PrivacyService) ExportPatientData(ctx context.Context, patientID string) ([]byte, error) {
	s.logger.Info("starting patient data export", zap.String("patient_id", patientID))

	out := PatientDataExport{ExportedAt: s.now()}
	var err error

	if out.Profile, err = s.deps.Patients.FindByID(ctx, patientID); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if out.Vitals, err = s.deps.Vitals.ListBetween(ctx, patientID, 0, math.MaxInt64); err != nil {
		return nil, fmt.Errorf("failed to get vitals: %w", err)
	}
	if out.Alerts, err = s.deps.Alerts.ListBetween(ctx, patientID, 0, math.MaxInt64); err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}
	if out.Medications, err = s.deps.Medications.FindByPatientID(ctx, patientID); err != nil {
		return nil, fmt.Errorf("failed to get medications: %w", err)
	}
	if out.MedicationLog, err = s.deps.Medications.ListLog(ctx, patientID, math.MaxInt32); err != nil {
		return nil, fmt.Errorf("failed to get medication log: %w", err)
	}
	if out.Appointments, err = s.deps.Appointments.ListBetween(ctx, patientID, time.Time{}, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)); err != nil {
		return nil, fmt.Errorf("failed to get appointments: %w", err)
	}
	if out.Notifications, err = s.notes.ListRecent(ctx, patientID, math.MaxInt32); err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	if out.Reports, err = s.deps.Reports.ListByPatient(ctx, patientID); err != nil {
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export data: %w", err)
	}

	s.auditor.Record(ctx, audit.ActionExport, audit.ResourceProfile, patientID, nil)
	s.logger.Info("patient data export completed",
		zap.String("patient_id", patientID),
		zap.Int("vitals", len(out.Vitals)),
		zap.Int("alerts", len(out.Alerts)),
		zap.Int("medications", len(out.Medications)),
		zap.Int("appointments", len(out.Appointments)),
		zap.Int("reports", len(out.Reports)),
	)

	return data, nil
}

// DeletePatientData erases the patient's profile and records and stops
// their reminders
func (s *PrivacyService) DeletePatientData(ctx context.Context, patientID string) error {
	if patientID == "" {
		return validationf("patient ID is required")
	}

	s.logger.Info("starting patient data deletion", zap.String("patient_id", patientID))

	if err := s.deps.Patients.Delete(ctx, patientID); err != nil {
		return fmt.Errorf("failed to delete patient data: %w", err)
	}
	if s.registry != nil {
		s.registry.RemovePatient(patientID)
	}

	s.auditor.Record(ctx, audit.ActionDelete, audit.ResourceProfile, patientID, nil)
	s.logger.Info("patient data deletion completed", zap.String("patient_id", patientID))
	return nil
}
