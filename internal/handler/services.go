package handler

import (
	"context"
	"time"

	"github.com/vitalvision/backend/internal/service"
	"github.com/vitalvision/backend/internal/vitals"
	"github.com/vitalvision/backend/pkg/model"
)

// The handlers depend on the subset of each service they call

// PatientService manages profiles and the caregiver roster
type PatientService interface {
	GetProfile(ctx context.Context, id string) (*model.Patient, error)
	SaveProfile(ctx context.Context, id, email string, role model.Role, updates *model.Patient) (*model.Patient, error)
	ListPatients(ctx context.Context) ([]model.Patient, error)
	FindPatient(ctx context.Context, id string) (*model.Patient, error)
	Notifications(ctx context.Context, patientID string, limit int) ([]model.Notification, error)
}

// VitalService records readings and manages alerts
type VitalService interface {
	RecordReading(ctx context.Context, patientID string, in vitals.Reading) (*service.RecordResult, error)
	Latest(ctx context.Context, patientID string) (*model.VitalReading, error)
	History(ctx context.Context, patientID string, limit int) ([]model.VitalReading, error)
	Alerts(ctx context.Context, patientID string, limit int) ([]model.Alert, error)
	AcknowledgeAlert(ctx context.Context, patientID, alertID string) (*model.Alert, error)
}

// MedicationService manages medication schedules and the dose log
type MedicationService interface {
	AddMedication(ctx context.Context, patientID string, med *model.Medication) error
	ListMedications(ctx context.Context, patientID string) ([]model.Medication, error)
	UpdateMedication(ctx context.Context, patientID, medID string, updates *model.Medication) error
	DeleteMedication(ctx context.Context, patientID, medID string) error
	MarkTaken(ctx context.Context, patientID, medID string) (*model.MedicationLog, error)
	DoseLog(ctx context.Context, patientID string, limit int) ([]model.MedicationLog, error)
}

// AppointmentService manages appointments
type AppointmentService interface {
	CreateAppointment(ctx context.Context, patientID string, a *model.Appointment) error
	Upcoming(ctx context.Context, patientID string) ([]model.Appointment, error)
	DeleteAppointment(ctx context.Context, patientID, id string) error
}

// InsightService produces AI assessments
type InsightService interface {
	AssessRisk(ctx context.Context, patientID string, reading *model.VitalReading, env *service.EnvironmentalData) *model.RiskAssessment
	ProfileRisk(ctx context.Context, patientID string) (*model.ProfileRisk, error)
	Recommendations(ctx context.Context, patientID string) (*model.Recommendations, error)
	TrendSummary(ctx context.Context, patientID string, limit int) (*model.TrendSummary, error)
}

// ReportService generates and serves reports and exports
type ReportService interface {
	GenerateReport(ctx context.Context, patientID, createdBy string, startDate, endDate time.Time) (*model.Report, error)
	GetReport(ctx context.Context, reportID string) (*model.Report, []byte, error)
	ExportVitals(ctx context.Context, patientID string) ([]byte, error)
}

// PrivacyService exports and erases a patient's data
type PrivacyService interface {
	ExportPatientData(ctx context.Context, patientID string) ([]byte, error)
	DeletePatientData(ctx context.Context, patientID string) error
}

// Pinger checks database connectivity; *pgxpool.Pool satisfies it
type Pinger interface {
	Ping(ctx context.Context) error
}
