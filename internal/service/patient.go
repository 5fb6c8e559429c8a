package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vitalvision/backend/internal/audit"
	"github.com/vitalvision/backend/internal/repository"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

const defaultNotificationsLimit = 20

// PatientService manages profiles and the caregiver roster
type PatientService struct {
	repo          PatientRepository
	notifications NotificationRepository
	auditor       Auditor
	now           func() time.Time
	logger        *zap.Logger
}

// NewPatientService creates a new PatientService
func NewPatientService(repo PatientRepository, notifications NotificationRepository, auditor Auditor, logger *zap.Logger) *PatientService {
	return &PatientService{
		repo:          repo,
		notifications: notifications,
		auditor:       auditorOrNoop(auditor),
		now:           time.Now,
		logger:        logger,
	}
}

// GetProfile returns the profile of a user
func (s *PatientService) GetProfile(ctx context.Context, id string) (*model.Patient, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func validateProfile(p *model.Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return validationf("name is required")
	}
	if p.Age != nil && (*p.Age < 0 || *p.Age > 150) {
		return validationf("age must be between 0 and 150")
	}
	return nil
}

// SaveProfile creates the profile on first use and updates the editable
// fields afterwards. Role and email come from the identity provider and
// are only set on creation.
func (s *PatientService) SaveProfile(ctx context.Context, id, email string, role model.Role, updates *model.Patient) (*model.Patient, error) {
	if id == "" {
		return nil, validationf("user ID is required")
	}
	if err := validateProfile(updates); err != nil {
		return nil, err
	}

	now := s.now()
	existing, err := s.repo.FindByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if role == "" {
			role = model.RolePatient
		}
		updates.ID = id
		updates.Email = email
		updates.Role = role
		updates.CreatedAt = now
		updates.UpdatedAt = now
		if err := s.repo.Create(ctx, updates); err != nil {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
		s.logger.Info("profile created", zap.String("user_id", id), zap.String("role", string(role)))
		s.auditor.Record(ctx, audit.ActionCreate, audit.ResourceProfile, id, nil)
		return updates, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	updates.ID = existing.ID
	updates.Email = existing.Email
	updates.Role = existing.Role
	updates.CreatedAt = existing.CreatedAt
	updates.UpdatedAt = now
	if err := s.repo.Update(ctx, updates); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("profile updated", zap.String("user_id", id))
	s.auditor.Record(ctx, audit.ActionUpdate, audit.ResourceProfile, id, nil)
	return updates, nil
}

// ListPatients returns every user with the patient role, ordered by name
func (s *PatientService) ListPatients(ctx context.Context) ([]model.Patient, error) {
	patients, err := s.repo.ListPatients(ctx)
	if err != nil {
		s.logger.Error("failed to list patients", zap.Error(err))
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// FindPatient returns a profile only when it belongs to a patient
func (s *PatientService) FindPatient(ctx context.Context, id string) (*model.Patient, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if p.Role != model.RolePatient {
		return nil, fmt.Errorf("patient %s: %w", id, repository.ErrNotFound)
	}
	return p, nil
}

// Notifications returns the reminders delivered to a patient, newest first
func (s *PatientService) Notifications(ctx context.Context, patientID string, limit int) ([]model.Notification, error) {
	notifications, err := s.notifications.ListRecent(ctx, patientID, normalizeLimit(limit, defaultNotificationsLimit, maxListLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}
