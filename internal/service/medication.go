package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vitalvision/backend/internal/audit"
	"github.com/vitalvision/backend/internal/reminder"
	"github.com/vitalvision/backend/internal/repository"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

const defaultMedicationLogLimit = 50

// MedicationService handles medication management business logic
type MedicationService struct {
	repo     MedicationRepository
	registry ScheduleRegistry
	auditor  Auditor
	now      func() time.Time
	logger   *zap.Logger
}

// NewMedicationService creates a new MedicationService. Every change is
// pushed to the reminder registry.
func NewMedicationService(repo MedicationRepository, registry ScheduleRegistry, auditor Auditor, logger *zap.Logger) *MedicationService {
	return &MedicationService{
		repo:     repo,
		registry: registry,
		auditor:  auditorOrNoop(auditor),
		now:      time.Now,
		logger:   logger,
	}
}

func validateMedicationInput(med *model.Medication) error {
	if med.Name == "" {
		return validationf("medication name is required")
	}
	if med.Dose == "" {
		return validationf("medication dose is required")
	}
	if med.Frequency == "" {
		return validationf("medication frequency is required")
	}
	if err := reminder.ValidateMedication(*med); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// AddMedication adds a new medication for a patient
func (s *MedicationService) AddMedication(ctx context.Context, patientID string, med *model.Medication) error {
	if patientID == "" {
		return validationf("patient ID is required")
	}
	if err := validateMedicationInput(med); err != nil {
		return err
	}

	med.ID = uuid.New().String()
	med.PatientID = patientID

	// Set timestamps
	now := s.now()
	med.CreatedAt = now
	med.UpdatedAt = now

	if err := s.repo.Create(ctx, med); err != nil {
		s.logger.Error("failed to add medication",
			zap.Error(err),
			zap.String("patient_id", patientID),
			zap.String("medication_name", med.Name),
		)
		return fmt.Errorf("failed to add medication: %w", err)
	}

	s.logger.Info("medication added successfully",
		zap.String("medication_id", med.ID),
		zap.String("patient_id", patientID),
		zap.String("name", med.Name),
	)

	s.auditor.Record(ctx, audit.ActionCreate, audit.ResourceMedication, med.ID, nil)
	s.refresh(ctx, patientID)
	return nil
}

// ListMedications retrieves all medications for a patient
func (s *MedicationService) ListMedications(ctx context.Context, patientID string) ([]model.Medication, error) {
	if patientID == "" {
		return nil, validationf("patient ID is required")
	}

	medications, err := s.repo.FindByPatientID(ctx, patientID)
	if err != nil {
		s.logger.Error("failed to list medications",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}

	return medications, nil
}

// owned returns the medication when it belongs to the patient
func (s *MedicationService) owned(ctx context.Context, patientID, medID string) (*model.Medication, error) {
	if medID == "" {
		return nil, validationf("medication ID is required")
	}

	existing, err := s.repo.FindByID(ctx, medID)
	if err != nil {
		return nil, fmt.Errorf("failed to find medication: %w", err)
	}
	if existing.PatientID != patientID {
		return nil, fmt.Errorf("medication %s: %w", medID, repository.ErrNotFound)
	}
	return existing, nil
}

// UpdateMedication updates an existing medication of the patient
func (s *MedicationService) UpdateMedication(ctx context.Context, patientID, medID string, updates *model.Medication) error {
	existing, err := s.owned(ctx, patientID, medID)
	if err != nil {
		return err
	}
	if err := validateMedicationInput(updates); err != nil {
		return err
	}

	// Preserve ID, owner and creation time
	updates.ID = existing.ID
	updates.PatientID = existing.PatientID
	updates.CreatedAt = existing.CreatedAt
	updates.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, updates); err != nil {
		s.logger.Error("failed to update medication",
			zap.Error(err),
			zap.String("medication_id", medID),
		)
		return fmt.Errorf("failed to update medication: %w", err)
	}

	s.logger.Info("medication updated successfully",
		zap.String("medication_id", medID),
		zap.String("name", updates.Name),
	)

	s.auditor.Record(ctx, audit.ActionUpdate, audit.ResourceMedication, medID, nil)
	s.refresh(ctx, patientID)
	return nil
}

// DeleteMedication deletes a medication of the patient
func (s *MedicationService) DeleteMedication(ctx context.Context, patientID, medID string) error {
	if _, err := s.owned(ctx, patientID, medID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, medID); err != nil {
		s.logger.Error("failed to delete medication",
			zap.Error(err),
			zap.String("medication_id", medID),
		)
		return fmt.Errorf("failed to delete medication: %w", err)
	}

	s.logger.Info("medication deleted successfully",
		zap.String("medication_id", medID),
	)

	s.auditor.Record(ctx, audit.ActionDelete, audit.ResourceMedication, medID, nil)
	s.refresh(ctx, patientID)
	return nil
}

// MarkTaken confirms that the patient took a dose now
func (s *MedicationService) MarkTaken(ctx context.Context, patientID, medID string) (*model.MedicationLog, error) {
	med, err := s.owned(ctx, patientID, medID)
	if err != nil {
		return nil, err
	}

	log := &model.MedicationLog{
		ID:             uuid.New().String(),
		MedicationID:   med.ID,
		PatientID:      patientID,
		MedicationName: med.Name,
		Dose:           med.Dose,
		TakenAt:        s.now(),
	}

	if err := s.repo.LogTaken(ctx, log); err != nil {
		s.logger.Error("failed to log medication dose",
			zap.Error(err),
			zap.String("medication_id", medID),
		)
		return nil, fmt.Errorf("failed to log dose: %w", err)
	}

	s.logger.Info("medication dose logged",
		zap.String("medication_id", medID),
		zap.String("patient_id", patientID),
	)

	s.auditor.Record(ctx, audit.ActionCreate, audit.ResourceDose, log.ID, map[string]any{"medication_id": medID})
	return log, nil
}

// DoseLog returns the most recent confirmed doses, newest first
func (s *MedicationService) DoseLog(ctx context.Context, patientID string, limit int) ([]model.MedicationLog, error) {
	logs, err := s.repo.ListLog(ctx, patientID, normalizeLimit(limit, defaultMedicationLogLimit, maxListLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to get medication log: %w", err)
	}
	return logs, nil
}

// refresh re-registers the patient's medication snapshot. The change is
// already stored, so a failure here only leaves reminders stale.
func (s *MedicationService) refresh(ctx context.Context, patientID string) {
	if s.registry == nil {
		return
	}

	meds, err := s.repo.FindByPatientID(ctx, patientID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("failed to refresh medication reminders",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return
	}

	s.registry.SetMedications(patientID, meds)
}
