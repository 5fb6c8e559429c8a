package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vitalvision/backend/internal/repository"
	"github.com/vitalvision/backend/internal/service"
	"github.com/vitalvision/backend/internal/vitals"
	"github.com/vitalvision/backend/pkg/api"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

func decodeError(t *testing.T, body []byte) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
}

func TestGetHealth(t *testing.T) {
	s := newTestServices()
	w := s.do("GET", "/health", "", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	h := NewHealthHandler(fakePinger{err: errors.New("connection refused")}, zap.NewNop())
	router := s.router
	router.GET("/down", h.GetHealth)
	w = s.do("GET", "/down", "", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "disconnected")
}

func TestPostVitals(t *testing.T) {
	s := newTestServices()
	body := `{"timestamp":1715331600000,"heart_rate":110,"systolic_pressure":120,"oxygen_saturation":97,"temperature":36.6}`

	s.vitals.On("RecordReading", mock.Anything, "patient-1", mock.MatchedBy(func(r vitals.Reading) bool {
		return r.Timestamp == 1715331600000 && *r.HeartRate == 110 && *r.Temperature == 36.6
	})).Return(&service.RecordResult{
		Reading: model.VitalReading{ID: "r1", HeartRate: 110},
		Alerts:  []model.Alert{{ID: "a1", VitalSignType: "heartRate"}},
	}, nil)

	w := s.do("POST", "/api/v1/vitals", body, "patient-1", model.RolePatient)

	require.Equal(t, http.StatusCreated, w.Code)
	var result service.RecordResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "r1", result.Reading.ID)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, "heartRate", result.Alerts[0].VitalSignType)
}

func TestPostVitals_InvalidReading(t *testing.T) {
	s := newTestServices()
	s.vitals.On("RecordReading", mock.Anything, "patient-1", mock.Anything).
		Return(nil, &vitals.InvalidReadingError{Kinds: []vitals.Kind{vitals.OxygenSaturation, vitals.Temperature}})

	w := s.do("POST", "/api/v1/vitals", `{"heart_rate":80,"systolic_pressure":120}`, "patient-1", model.RolePatient)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w.Body.Bytes())
	assert.Equal(t, "INVALID_READING", resp.Code)
	require.NotNil(t, resp.Details)
	assert.Contains(t, *resp.Details, "oxygenSaturation")
	assert.Contains(t, *resp.Details, "temperature")
}

func TestPostVitals_MalformedBody(t *testing.T) {
	s := newTestServices()

	w := s.do("POST", "/api/v1/vitals", `{"heart_rate":`, "patient-1", model.RolePatient)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w.Body.Bytes()).Code)
	s.vitals.AssertNotCalled(t, "RecordReading", mock.Anything, mock.Anything, mock.Anything)
}

func TestListEndpointsPassLimit(t *testing.T) {
	s := newTestServices()
	s.vitals.On("History", mock.Anything, "patient-1", 5).Return([]model.VitalReading{{ID: "r1"}}, nil)
	s.vitals.On("Alerts", mock.Anything, "patient-1", 0).Return([]model.Alert{}, nil)
	s.patients.On("Notifications", mock.Anything, "patient-1", 3).Return([]model.Notification{}, nil)
	s.medications.On("DoseLog", mock.Anything, "patient-1", 0).Return([]model.MedicationLog{}, nil)

	assert.Equal(t, http.StatusOK, s.do("GET", "/api/v1/vitals?limit=5", "", "patient-1", model.RolePatient).Code)
	assert.Equal(t, http.StatusOK, s.do("GET", "/api/v1/alerts", "", "patient-1", model.RolePatient).Code)
	assert.Equal(t, http.StatusOK, s.do("GET", "/api/v1/notifications?limit=3", "", "patient-1", model.RolePatient).Code)
	assert.Equal(t, http.StatusOK, s.do("GET", "/api/v1/medications/log", "", "patient-1", model.RolePatient).Code)

	w := s.do("GET", "/api/v1/vitals?limit=abc", "", "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.vitals.AssertExpectations(t)
	s.patients.AssertExpectations(t)
}

func TestGetLatestVitals_NotFound(t *testing.T) {
	s := newTestServices()
	s.vitals.On("Latest", mock.Anything, "patient-1").Return(nil, notFound("latest reading"))

	w := s.do("GET", "/api/v1/vitals/latest", "", "patient-1", model.RolePatient)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w.Body.Bytes()).Code)
}

func TestAcknowledgeAlert(t *testing.T) {
	s := newTestServices()
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	s.vitals.On("AcknowledgeAlert", mock.Anything, "patient-1", "alert-1").
		Return(&model.Alert{ID: "alert-1", Status: model.AlertStatusAcknowledged, AcknowledgedAt: &now}, nil)

	w := s.do("POST", "/api/v1/alerts/alert-1/acknowledge", "", "patient-1", model.RolePatient)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"acknowledged"`)
}

func TestPutProfile_UsesTokenIdentity(t *testing.T) {
	s := newTestServices()
	s.patients.On("SaveProfile", mock.Anything, "user-1", "user-1@example.com", model.RoleCaregiver, mock.MatchedBy(func(p *model.Patient) bool {
		return p.Name == "Carla" && p.Age != nil && *p.Age == 52
	})).Return(&model.Patient{ID: "user-1", Name: "Carla", Role: model.RoleCaregiver}, nil)

	w := s.do("PUT", "/api/v1/profile", `{"name":"Carla","age":52}`, "user-1", model.RoleCaregiver)

	assert.Equal(t, http.StatusOK, w.Code)
	s.patients.AssertExpectations(t)
}

func TestPutProfile_Validation(t *testing.T) {
	s := newTestServices()
	s.patients.On("SaveProfile", mock.Anything, "user-1", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: age must be between 0 and 150", service.ErrValidation))

	w := s.do("PUT", "/api/v1/profile", `{"name":"Ana","age":200}`, "user-1", model.RolePatient)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w.Body.Bytes()).Code)

	w = s.do("PUT", "/api/v1/profile", `{"age":20}`, "user-1", model.RolePatient)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileExportAndDelete(t *testing.T) {
	s := newTestServices()
	s.privacy.On("ExportPatientData", mock.Anything, "patient-1").Return([]byte(`{"profile":{}}`), nil)
	s.privacy.On("DeletePatientData", mock.Anything, "patient-1").Return(nil)

	w := s.do("GET", "/api/v1/profile/export", "", "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "vitalvision_export_patient-1.json")

	w = s.do("DELETE", "/api/v1/profile", "", "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMedicationEndpoints(t *testing.T) {
	s := newTestServices()
	body := `{"name":"Metformina","dose":"850 mg","frequency":"twice_daily","times":["08:00","20:00"]}`

	s.medications.On("AddMedication", mock.Anything, "patient-1", mock.MatchedBy(func(m *model.Medication) bool {
		return m.Frequency == model.FrequencyTwiceDaily && len(m.Times) == 2
	})).Run(func(args mock.Arguments) {
		args.Get(2).(*model.Medication).ID = "med-1"
	}).Return(nil)
	s.medications.On("UpdateMedication", mock.Anything, "patient-1", "missing", mock.Anything).Return(notFound("medication missing"))
	s.medications.On("DeleteMedication", mock.Anything, "patient-1", "med-1").Return(nil)
	s.medications.On("MarkTaken", mock.Anything, "patient-1", "med-1").Return(&model.MedicationLog{ID: "log-1", MedicationID: "med-1"}, nil)

	w := s.do("POST", "/api/v1/medications", body, "patient-1", model.RolePatient)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"med-1"`)

	w = s.do("PUT", "/api/v1/medications/missing", body, "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do("POST", "/api/v1/medications/med-1/taken", "", "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do("DELETE", "/api/v1/medications/med-1", "", "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do("POST", "/api/v1/medications", `{"name":"Metformina"}`, "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostAppointment(t *testing.T) {
	s := newTestServices()
	s.appointments.On("CreateAppointment", mock.Anything, "patient-1", mock.MatchedBy(func(a *model.Appointment) bool {
		return a.Date.Equal(time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)) && a.Time == "10:30" && a.Type == "Cardiología"
	})).Return(nil)
	s.appointments.On("DeleteAppointment", mock.Anything, "patient-1", "appt-9").Return(notFound("appointment appt-9"))

	w := s.do("POST", "/api/v1/appointments", `{"date":"2024-05-20","time":"10:30","type":"Cardiología"}`, "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do("DELETE", "/api/v1/appointments/appt-9", "", "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusNotFound, w.Code)
	s.appointments.AssertExpectations(t)
}

func TestPostRiskAssessment(t *testing.T) {
	s := newTestServices()
	fallback := &model.RiskAssessment{RiskAssessment: "ok", Recommendations: "descansar"}

	s.insights.On("AssessRisk", mock.Anything, "patient-1", (*model.VitalReading)(nil), mock.MatchedBy(func(env *service.EnvironmentalData) bool {
		return env.Altitude != nil && *env.Altitude == 3400 && env.StepsToday != nil && *env.StepsToday == 12000
	})).Return(fallback).Once()
	s.insights.On("AssessRisk", mock.Anything, "patient-1", mock.MatchedBy(func(r *model.VitalReading) bool {
		return r != nil && r.HeartRate == 95 && r.Timestamp > 0
	}), mock.Anything).Return(fallback).Once()
	s.insights.On("AssessRisk", mock.Anything, "patient-1", (*model.VitalReading)(nil), mock.Anything).Return(fallback).Once()

	w := s.do("POST", "/api/v1/insights/risk", `{"altitude":3400,"steps_today":12000}`, "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do("POST", "/api/v1/insights/risk", `{"reading":{"heart_rate":95,"systolic_pressure":120,"oxygen_saturation":93,"temperature":36.5}}`, "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do("POST", "/api/v1/insights/risk", "", "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do("POST", "/api/v1/insights/risk", `{"reading":{"heart_rate":95}}`, "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_READING", decodeError(t, w.Body.Bytes()).Code)

	s.insights.AssertExpectations(t)
}

func TestGetRecommendations_Unavailable(t *testing.T) {
	s := newTestServices()
	s.insights.On("Recommendations", mock.Anything, "patient-1").
		Return(nil, fmt.Errorf("%w: %w", service.ErrInsightUnavailable, errors.New("timeout")))
	s.insights.On("ProfileRisk", mock.Anything, "patient-1").Return(&model.ProfileRisk{RiskLevel: "Bajo"}, nil)

	w := s.do("GET", "/api/v1/insights/recommendations", "", "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "AI_UNAVAILABLE", decodeError(t, w.Body.Bytes()).Code)

	w = s.do("GET", "/api/v1/insights/profile-risk", "", "patient-1", model.RolePatient)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"riskLevel":"Bajo"`)
}

func TestCaregiverRoutesRequireRole(t *testing.T) {
	s := newTestServices()

	for _, path := range []string{
		"/api/v1/patients",
		"/api/v1/patients/patient-2/vitals",
		"/api/v1/patients/patient-2/export.xlsx",
		"/api/v1/reports/report-1",
	} {
		w := s.do("GET", path, "", "patient-1", model.RolePatient)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
	s.patients.AssertNotCalled(t, "FindPatient", mock.Anything, mock.Anything)
}

func TestCaregiverViews(t *testing.T) {
	s := newTestServices()
	s.patients.On("ListPatients", mock.Anything).Return([]model.Patient{{ID: "patient-2"}}, nil)
	s.patients.On("FindPatient", mock.Anything, "patient-2").Return(&model.Patient{ID: "patient-2"}, nil)
	s.patients.On("FindPatient", mock.Anything, "carer-2").Return(nil, notFound("patient carer-2"))
	s.vitals.On("History", mock.Anything, "patient-2", 0).Return([]model.VitalReading{}, nil)
	s.vitals.On("Alerts", mock.Anything, "patient-2", 10).Return([]model.Alert{}, nil)
	s.medications.On("ListMedications", mock.Anything, "patient-2").Return([]model.Medication{}, nil)
	s.appointments.On("Upcoming", mock.Anything, "patient-2").Return([]model.Appointment{}, nil)
	s.insights.On("TrendSummary", mock.Anything, "patient-2", 50).Return(&model.TrendSummary{Summary: "Estable"}, nil)
	s.reports.On("ExportVitals", mock.Anything, "patient-2").Return([]byte("PK\x03\x04"), nil)

	carer := func(method, path string) int {
		return s.do(method, path, "", "carer-1", model.RoleCaregiver).Code
	}

	assert.Equal(t, http.StatusOK, carer("GET", "/api/v1/patients"))
	assert.Equal(t, http.StatusOK, carer("GET", "/api/v1/patients/patient-2/vitals"))
	assert.Equal(t, http.StatusOK, carer("GET", "/api/v1/patients/patient-2/alerts?limit=10"))
	assert.Equal(t, http.StatusOK, carer("GET", "/api/v1/patients/patient-2/medications"))
	assert.Equal(t, http.StatusOK, carer("GET", "/api/v1/patients/patient-2/appointments"))
	assert.Equal(t, http.StatusOK, carer("GET", "/api/v1/patients/patient-2/trends?limit=50"))
	assert.Equal(t, http.StatusNotFound, carer("GET", "/api/v1/patients/carer-2/vitals"))

	w := s.do("GET", "/api/v1/patients/patient-2/export.xlsx", "", "carer-1", model.RoleCaregiver)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))

	s.vitals.AssertExpectations(t)
	s.insights.AssertExpectations(t)
}

func TestReportEndpoints(t *testing.T) {
	s := newTestServices()
	reportID := "6f1c2b8e-2f4a-4b8e-9a51-0c6d8f0e1a2b"
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)

	s.patients.On("FindPatient", mock.Anything, "patient-2").Return(&model.Patient{ID: "patient-2"}, nil)
	s.reports.On("GenerateReport", mock.Anything, "patient-2", "carer-1", start, end).
		Return(&model.Report{ID: reportID, PatientID: "patient-2", StartDate: start, EndDate: end}, nil)
	s.reports.On("GetReport", mock.Anything, reportID).Return(&model.Report{ID: reportID}, []byte("%PDF-1.3"), nil)
	s.reports.On("GetReport", mock.Anything, "missing").Return(nil, nil, notFound("report missing"))

	w := s.do("POST", "/api/v1/patients/patient-2/reports", `{"start_date":"2024-05-01","end_date":"2024-05-07"}`, "carer-1", model.RoleCaregiver)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp api.ReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Id)
	assert.Equal(t, reportID, resp.Id.String())
	assert.Equal(t, "/api/v1/reports/"+reportID, resp.DownloadUrl)
	assert.Equal(t, "2024-05-01", resp.StartDate.String())

	w = s.do("GET", "/api/v1/reports/"+reportID, "", "carer-1", model.RoleCaregiver)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.3", w.Body.String())

	w = s.do("GET", "/api/v1/reports/missing", "", "carer-1", model.RoleCaregiver)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInternalErrorsHideDetails(t *testing.T) {
	s := newTestServices()
	s.medications.On("ListMedications", mock.Anything, "patient-1").Return(nil, errors.New("pq: password authentication failed"))

	w := s.do("GET", "/api/v1/medications", "", "patient-1", model.RolePatient)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w.Body.Bytes())
	assert.Equal(t, "INTERNAL_ERROR", resp.Code)
	assert.Nil(t, resp.Details)
}
