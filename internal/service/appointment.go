package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vitalvision/backend/internal/audit"
	"github.com/vitalvision/backend/internal/reminder"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

// AppointmentService manages patient appointments
type AppointmentService struct {
	repo     AppointmentRepository
	registry ScheduleRegistry
	auditor  Auditor
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewAppointmentService creates a new AppointmentService. loc is the
// reminder time zone used to decide what "today" is.
func NewAppointmentService(repo AppointmentRepository, registry ScheduleRegistry, auditor Auditor, loc *time.Location, logger *zap.Logger) *AppointmentService {
	if loc == nil {
		loc = time.Local
	}
	return &AppointmentService{
		repo:     repo,
		registry: registry,
		auditor:  auditorOrNoop(auditor),
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// startOfDay returns local midnight of t's calendar day
func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// CreateAppointment stores a new appointment
func (s *AppointmentService) CreateAppointment(ctx context.Context, patientID string, a *model.Appointment) error {
	if patientID == "" {
		return validationf("patient ID is required")
	}
	if a.Type == "" {
		return validationf("appointment type is required")
	}
	if err := reminder.ValidateAppointment(*a); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	a.ID = uuid.New().String()
	a.PatientID = patientID
	a.CreatedAt = s.now()

	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.Error("failed to create appointment",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	s.logger.Info("appointment created",
		zap.String("appointment_id", a.ID),
		zap.String("patient_id", patientID),
	)

	s.auditor.Record(ctx, audit.ActionCreate, audit.ResourceAppointment, a.ID, nil)
	s.refresh(ctx, patientID)
	return nil
}

// Upcoming lists the appointments from the start of today, ordered by date
// then time
func (s *AppointmentService) Upcoming(ctx context.Context, patientID string) ([]model.Appointment, error) {
	appts, err := s.repo.FindUpcoming(ctx, patientID, startOfDay(s.now(), s.loc))
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

// DeleteAppointment removes an appointment of the patient
func (s *AppointmentService) DeleteAppointment(ctx context.Context, patientID, id string) error {
	if id == "" {
		return validationf("appointment ID is required")
	}

	if err := s.repo.Delete(ctx, patientID, id); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	s.logger.Info("appointment deleted",
		zap.String("appointment_id", id),
		zap.String("patient_id", patientID),
	)

	s.auditor.Record(ctx, audit.ActionDelete, audit.ResourceAppointment, id, nil)
	s.refresh(ctx, patientID)
	return nil
}

func (s *AppointmentService) refresh(ctx context.Context, patientID string) {
	if s.registry == nil {
		return
	}

	appts, err := s.Upcoming(ctx, patientID)
	if err != nil {
		s.logger.Error("failed to refresh appointment reminders",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return
	}

	s.registry.SetAppointments(patientID, appts)
}
