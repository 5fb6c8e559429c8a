package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/vitalvision/backend/internal/middleware"
	"github.com/vitalvision/backend/internal/service"
	"github.com/vitalvision/backend/internal/vitals"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockPatientService struct{ mock.Mock }

func (m *MockPatientService) GetProfile(ctx context.Context, id string) (*model.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *MockPatientService) SaveProfile(ctx context.Context, id, email string, role model.Role, updates *model.Patient) (*model.Patient, error) {
	args := m.Called(ctx, id, email, role, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *MockPatientService) ListPatients(ctx context.Context) ([]model.Patient, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Patient), args.Error(1)
}

func (m *MockPatientService) FindPatient(ctx context.Context, id string) (*model.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *MockPatientService) Notifications(ctx context.Context, patientID string, limit int) ([]model.Notification, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Notification), args.Error(1)
}

type MockVitalService struct{ mock.Mock }

func (m *MockVitalService) RecordReading(ctx context.Context, patientID string, in vitals.Reading) (*service.RecordResult, error) {
	args := m.Called(ctx, patientID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecordResult), args.Error(1)
}

func (m *MockVitalService) Latest(ctx context.Context, patientID string) (*model.VitalReading, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VitalReading), args.Error(1)
}

func (m *MockVitalService) History(ctx context.Context, patientID string, limit int) ([]model.VitalReading, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VitalReading), args.Error(1)
}

func (m *MockVitalService) Alerts(ctx context.Context, patientID string, limit int) ([]model.Alert, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Alert), args.Error(1)
}

func (m *MockVitalService) AcknowledgeAlert(ctx context.Context, patientID, alertID string) (*model.Alert, error) {
	args := m.Called(ctx, patientID, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Alert), args.Error(1)
}

type MockMedicationService struct{ mock.Mock }

func (m *MockMedicationService) AddMedication(ctx context.Context, patientID string, med *model.Medication) error {
	return m.Called(ctx, patientID, med).Error(0)
}

func (m *MockMedicationService) ListMedications(ctx context.Context, patientID string) ([]model.Medication, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Medication), args.Error(1)
}

func (m *MockMedicationService) UpdateMedication(ctx context.Context, patientID, medID string, updates *model.Medication) error {
	return m.Called(ctx, patientID, medID, updates).Error(0)
}

func (m *MockMedicationService) DeleteMedication(ctx context.Context, patientID, medID string) error {
	return m.Called(ctx, patientID, medID).Error(0)
}

func (m *MockMedicationService) MarkTaken(ctx context.Context, patientID, medID string) (*model.MedicationLog, error) {
	args := m.Called(ctx, patientID, medID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MedicationLog), args.Error(1)
}

func (m *MockMedicationService) DoseLog(ctx context.Context, patientID string, limit int) ([]model.MedicationLog, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MedicationLog), args.Error(1)
}

type MockAppointmentService struct{ mock.Mock }

func (m *MockAppointmentService) CreateAppointment(ctx context.Context, patientID string, a *model.Appointment) error {
	return m.Called(ctx, patientID, a).Error(0)
}

func (m *MockAppointmentService) Upcoming(ctx context.Context, patientID string) ([]model.Appointment, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *MockAppointmentService) DeleteAppointment(ctx context.Context, patientID, id string) error {
	return m.Called(ctx, patientID, id).Error(0)
}

type MockInsightService struct{ mock.Mock }

func (m *MockInsightService) AssessRisk(ctx context.Context, patientID string, reading *model.VitalReading, env *service.EnvironmentalData) *model.RiskAssessment {
	return m.Called(ctx, patientID, reading, env).Get(0).(*model.RiskAssessment)
}

func (m *MockInsightService) ProfileRisk(ctx context.Context, patientID string) (*model.ProfileRisk, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProfileRisk), args.Error(1)
}

func (m *MockInsightService) Recommendations(ctx context.Context, patientID string) (*model.Recommendations, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recommendations), args.Error(1)
}

func (m *MockInsightService) TrendSummary(ctx context.Context, patientID string, limit int) (*model.TrendSummary, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrendSummary), args.Error(1)
}

type MockReportService struct{ mock.Mock }

func (m *MockReportService) GenerateReport(ctx context.Context, patientID, createdBy string, startDate, endDate time.Time) (*model.Report, error) {
	args := m.Called(ctx, patientID, createdBy, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportService) GetReport(ctx context.Context, reportID string) (*model.Report, []byte, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Report), args.Get(1).([]byte), args.Error(2)
}

func (m *MockReportService) ExportVitals(ctx context.Context, patientID string) ([]byte, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockPrivacyService struct{ mock.Mock }

func (m *MockPrivacyService) ExportPatientData(ctx context.Context, patientID string) ([]byte, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPrivacyService) DeletePatientData(ctx context.Context, patientID string) error {
	return m.Called(ctx, patientID).Error(0)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type testServices struct {
	patients     *MockPatientService
	vitals       *MockVitalService
	medications  *MockMedicationService
	appointments *MockAppointmentService
	insights     *MockInsightService
	reports      *MockReportService
	privacy      *MockPrivacyService
	router       *gin.Engine
}

// fakeAuth authenticates the user named by X-Test-User with the role in
// X-Test-Role
func fakeAuth(c *gin.Context) {
	c.Set(middleware.UserIDKey, c.GetHeader("X-Test-User"))
	c.Set(middleware.EmailKey, c.GetHeader("X-Test-User")+"@example.com")
	if role := c.GetHeader("X-Test-Role"); role != "" {
		c.Set(middleware.RoleKey, model.Role(role))
	}
	c.Next()
}

func newTestServices() *testServices {
	s := &testServices{
		patients:     new(MockPatientService),
		vitals:       new(MockVitalService),
		medications:  new(MockMedicationService),
		appointments: new(MockAppointmentService),
		insights:     new(MockInsightService),
		reports:      new(MockReportService),
		privacy:      new(MockPrivacyService),
	}

	logger := zap.NewNop()
	h := Handlers{
		Health:      NewHealthHandler(fakePinger{}, logger),
		Profile:     NewProfileHandler(s.patients, s.privacy, logger),
		Vital:       NewVitalHandler(s.vitals, logger),
		Medication:  NewMedicationHandler(s.medications, logger),
		Appointment: NewAppointmentHandler(s.appointments, logger),
		Insight:     NewInsightHandler(s.insights, logger),
		Caregiver: NewCaregiverHandler(CaregiverDeps{
			Patients:     s.patients,
			Vitals:       s.vitals,
			Medications:  s.medications,
			Appointments: s.appointments,
			Insights:     s.insights,
			Reports:      s.reports,
		}, logger),
		Report: NewReportHandler(s.patients, s.reports, logger),
	}

	s.router = gin.New()
	RegisterHandlers(s.router, h, fakeAuth)
	return s
}

// do sends a request as user with role; body may be empty
func (s *testServices) do(method, path, body, user string, role model.Role) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("X-Test-User", user)
	req.Header.Set("X-Test-Role", string(role))

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func floatPtr(v float64) *float64 { return &v }
