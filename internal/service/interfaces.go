package service

import (
	"context"
	"time"

	"github.com/vitalvision/backend/internal/audit"
	"github.com/vitalvision/backend/pkg/model"
)

// PatientRepository is the profile store used by the services
type PatientRepository interface {
	Create(ctx context.Context, p *model.Patient) error
	FindByID(ctx context.Context, id string) (*model.Patient, error)
	Update(ctx context.Context, p *model.Patient) error
	ListPatients(ctx context.Context) ([]model.Patient, error)
	Delete(ctx context.Context, id string) error
}

// VitalRepository is the vital readings store
type VitalRepository interface {
	Create(ctx context.Context, v *model.VitalReading) error
	FindLatest(ctx context.Context, patientID string) (*model.VitalReading, error)
	ListRecent(ctx context.Context, patientID string, limit int) ([]model.VitalReading, error)
	ListBetween(ctx context.Context, patientID string, from, to int64) ([]model.VitalReading, error)
}

// AlertRepository is the alert store
type AlertRepository interface {
	Create(ctx context.Context, a *model.Alert) error
	ListRecent(ctx context.Context, patientID string, limit int) ([]model.Alert, error)
	ListBetween(ctx context.Context, patientID string, from, to int64) ([]model.Alert, error)
	Acknowledge(ctx context.Context, patientID, alertID string, at time.Time) (*model.Alert, error)
}

// MedicationRepository is the medication store
type MedicationRepository interface {
	Create(ctx context.Context, med *model.Medication) error
	FindByPatientID(ctx context.Context, patientID string) ([]model.Medication, error)
	ListAll(ctx context.Context) ([]model.Medication, error)
	FindByID(ctx context.Context, medicationID string) (*model.Medication, error)
	Update(ctx context.Context, med *model.Medication) error
	Delete(ctx context.Context, medicationID string) error
	LogTaken(ctx context.Context, log *model.MedicationLog) error
	ListLog(ctx context.Context, patientID string, limit int) ([]model.MedicationLog, error)
}

// AppointmentRepository is the appointment store
type AppointmentRepository interface {
	Create(ctx context.Context, a *model.Appointment) error
	FindUpcoming(ctx context.Context, patientID string, from time.Time) ([]model.Appointment, error)
	ListUpcomingAll(ctx context.Context, from time.Time) ([]model.Appointment, error)
	ListBetween(ctx context.Context, patientID string, from, to time.Time) ([]model.Appointment, error)
	Delete(ctx context.Context, patientID, id string) error
}

// NotificationRepository lists delivered reminders
type NotificationRepository interface {
	ListRecent(ctx context.Context, patientID string, limit int) ([]model.Notification, error)
}

// ReportRepository tracks generated reports
type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	FindByID(ctx context.Context, id string) (*model.Report, error)
	ListByPatient(ctx context.Context, patientID string) ([]model.Report, error)
}

// Auditor records changes to patient data
type Auditor interface {
	Record(ctx context.Context, action audit.Action, resource audit.ResourceType, resourceID string, details map[string]any)
}

// ScheduleRegistry receives the schedule snapshots of a patient
type ScheduleRegistry interface {
	SetMedications(patientID string, meds []model.Medication)
	SetAppointments(patientID string, appts []model.Appointment)
}

// ScheduleRemover forgets every schedule of a patient
type ScheduleRemover interface {
	RemovePatient(patientID string)
}

// EventPublisher appends an event to a named stream
type EventPublisher interface {
	Publish(ctx context.Context, stream string, v any) (string, error)
}

type noopAuditor struct{}

func (noopAuditor) Record(context.Context, audit.Action, audit.ResourceType, string, map[string]any) {}

func auditorOrNoop(a Auditor) Auditor {
	if a == nil {
		return noopAuditor{}
	}
	return a
}
