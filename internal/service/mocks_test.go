package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vitalvision/backend/internal/audit"
	"github.com/vitalvision/backend/pkg/model"
)

// Mock implementations for testing

type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) Create(ctx context.Context, p *model.Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPatientRepository) FindByID(ctx context.Context, id string) (*model.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *MockPatientRepository) Update(ctx context.Context, p *model.Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPatientRepository) ListPatients(ctx context.Context) ([]model.Patient, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Patient), args.Error(1)
}

func (m *MockPatientRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockVitalRepository struct {
	mock.Mock
}

func (m *MockVitalRepository) Create(ctx context.Context, v *model.VitalReading) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVitalRepository) FindLatest(ctx context.Context, patientID string) (*model.VitalReading, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VitalReading), args.Error(1)
}

func (m *MockVitalRepository) ListRecent(ctx context.Context, patientID string, limit int) ([]model.VitalReading, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VitalReading), args.Error(1)
}

func (m *MockVitalRepository) ListBetween(ctx context.Context, patientID string, from, to int64) ([]model.VitalReading, error) {
	args := m.Called(ctx, patientID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VitalReading), args.Error(1)
}

type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) Create(ctx context.Context, a *model.Alert) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAlertRepository) ListRecent(ctx context.Context, patientID string, limit int) ([]model.Alert, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Alert), args.Error(1)
}

func (m *MockAlertRepository) ListBetween(ctx context.Context, patientID string, from, to int64) ([]model.Alert, error) {
	args := m.Called(ctx, patientID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Alert), args.Error(1)
}

func (m *MockAlertRepository) Acknowledge(ctx context.Context, patientID, alertID string, at time.Time) (*model.Alert, error) {
	args := m.Called(ctx, patientID, alertID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Alert), args.Error(1)
}

type MockMedicationRepository struct {
	mock.Mock
}

func (m *MockMedicationRepository) Create(ctx context.Context, med *model.Medication) error {
	args := m.Called(ctx, med)
	return args.Error(0)
}

func (m *MockMedicationRepository) FindByPatientID(ctx context.Context, patientID string) ([]model.Medication, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Medication), args.Error(1)
}

func (m *MockMedicationRepository) ListAll(ctx context.Context) ([]model.Medication, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Medication), args.Error(1)
}

func (m *MockMedicationRepository) FindByID(ctx context.Context, medID string) (*model.Medication, error) {
	args := m.Called(ctx, medID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Medication), args.Error(1)
}

func (m *MockMedicationRepository) Update(ctx context.Context, med *model.Medication) error {
	args := m.Called(ctx, med)
	return args.Error(0)
}

func (m *MockMedicationRepository) Delete(ctx context.Context, medID string) error {
	args := m.Called(ctx, medID)
	return args.Error(0)
}

func (m *MockMedicationRepository) LogTaken(ctx context.Context, log *model.MedicationLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockMedicationRepository) ListLog(ctx context.Context, patientID string, limit int) ([]model.MedicationLog, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MedicationLog), args.Error(1)
}

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAppointmentRepository) FindUpcoming(ctx context.Context, patientID string, from time.Time) ([]model.Appointment, error) {
	args := m.Called(ctx, patientID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ListUpcomingAll(ctx context.Context, from time.Time) ([]model.Appointment, error) {
	args := m.Called(ctx, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ListBetween(ctx context.Context, patientID string, from, to time.Time) ([]model.Appointment, error) {
	args := m.Called(ctx, patientID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Delete(ctx context.Context, patientID, id string) error {
	args := m.Called(ctx, patientID, id)
	return args.Error(0)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) ListRecent(ctx context.Context, patientID string, limit int) ([]model.Notification, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Notification), args.Error(1)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, report *model.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) FindByID(ctx context.Context, id string) (*model.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportRepository) ListByPatient(ctx context.Context, patientID string) ([]model.Report, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Report), args.Error(1)
}

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Prompt(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, stream string, v any) (string, error) {
	args := m.Called(ctx, stream, v)
	return args.String(0), args.Error(1)
}

// recordingRegistry captures the snapshots pushed to the scheduler
type recordingRegistry struct {
	mu           sync.Mutex
	medications  map[string][]model.Medication
	appointments map[string][]model.Appointment
	removed      []string
}

func newRecordingRegistry() *recordingRegistry {
	return &recordingRegistry{
		medications:  map[string][]model.Medication{},
		appointments: map[string][]model.Appointment{},
	}
}

func (r *recordingRegistry) SetMedications(patientID string, meds []model.Medication) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.medications[patientID] = meds
}

func (r *recordingRegistry) SetAppointments(patientID string, appts []model.Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appointments[patientID] = appts
}

func (r *recordingRegistry) RemovePatient(patientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, patientID)
}

type auditEntry struct {
	Action     audit.Action
	Resource   audit.ResourceType
	ResourceID string
	Details    map[string]any
}

// recordingAuditor captures audit entries
type recordingAuditor struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *recordingAuditor) Record(_ context.Context, action audit.Action, resource audit.ResourceType, resourceID string, details map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{action, resource, resourceID, details})
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }
