package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vitalvision/backend/internal/audit"
	"github.com/vitalvision/backend/internal/vitals"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

const (
	defaultVitalsLimit = 20
	defaultAlertsLimit = 20
	maxListLimit       = 500
)

// RecordResult is a stored reading and the alerts it raised
type RecordResult struct {
	Reading model.VitalReading `json:"reading"`
	Alerts  []model.Alert      `json:"alerts"`
}

// VitalService records vital readings and manages alerts
type VitalService struct {
	vitals      VitalRepository
	alerts      AlertRepository
	ranges      vitals.RangeTable
	publisher   EventPublisher
	alertStream string
	auditor     Auditor
	now         func() time.Time
	logger      *zap.Logger
}

// NewVitalService creates a new VitalService. publisher may be nil.
func NewVitalService(
	vitalRepo VitalRepository,
	alertRepo AlertRepository,
	ranges vitals.RangeTable,
	publisher EventPublisher,
	alertStream string,
	auditor Auditor,
	logger *zap.Logger,
) *VitalService {
	return &VitalService{
		vitals:      vitalRepo,
		alerts:      alertRepo,
		ranges:      ranges,
		publisher:   publisher,
		alertStream: alertStream,
		auditor:     auditorOrNoop(auditor),
		now:         time.Now,
		logger:      logger,
	}
}

// checkPlausible rejects values no sensor or human can produce
func checkPlausible(r vitals.Reading) error {
	if v := r.HeartRate; v != nil && (*v <= 0 || *v > 300) {
		return validationf("heart rate must be between 0 and 300")
	}
	if v := r.SystolicPressure; v != nil && (*v <= 0 || *v > 300) {
		return validationf("systolic pressure must be between 0 and 300")
	}
	if v := r.OxygenSaturation; v != nil && (*v < 70 || *v > 100) {
		return validationf("oxygen saturation must be between 70 and 100")
	}
	if v := r.Temperature; v != nil && (*v < 30 || *v > 45) {
		return validationf("temperature must be between 30 and 45")
	}
	return nil
}

// RecordReading evaluates, stores and alerts on a new reading. An invalid
// reading is rejected before anything is stored. Alert persistence and
// publishing are best effort.
func (s *VitalService) RecordReading(ctx context.Context, patientID string, in vitals.Reading) (*RecordResult, error) {
	if patientID == "" {
		return nil, validationf("patient ID is required")
	}

	evaluated, err := vitals.Evaluate(in, s.ranges)
	if err != nil {
		return nil, err
	}
	if err := checkPlausible(in); err != nil {
		return nil, err
	}

	now := s.now()
	timestamp := in.Timestamp
	if timestamp <= 0 {
		timestamp = now.UnixMilli()
	}

	reading := model.VitalReading{
		ID:               uuid.New().String(),
		PatientID:        patientID,
		Timestamp:        timestamp,
		HeartRate:        *in.HeartRate,
		SystolicPressure: *in.SystolicPressure,
		OxygenSaturation: *in.OxygenSaturation,
		Temperature:      *in.Temperature,
		CreatedAt:        now,
	}

	if err := s.vitals.Create(ctx, &reading); err != nil {
		s.logger.Error("failed to record vital reading",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return nil, fmt.Errorf("failed to record vital reading: %w", err)
	}

	alerts := make([]model.Alert, 0, len(evaluated))
	for _, a := range evaluated {
		readingID := reading.ID
		alert := model.Alert{
			ID:                     uuid.New().String(),
			PatientID:              patientID,
			ReadingID:              &readingID,
			Timestamp:              timestamp,
			VitalSignType:          string(a.Kind),
			Value:                  a.Value,
			NormalRangeDescription: a.NormalRangeDescription,
			Message:                a.Message,
			Status:                 model.AlertStatus(a.Status),
			CreatedAt:              now,
		}
		alerts = append(alerts, alert)
		s.raise(ctx, &alert)
	}

	s.auditor.Record(ctx, audit.ActionCreate, audit.ResourceVitalReading, reading.ID, map[string]any{
		"alerts": len(alerts),
	})

	s.logger.Info("vital reading recorded",
		zap.String("reading_id", reading.ID),
		zap.String("patient_id", patientID),
		zap.Int("alerts", len(alerts)),
	)

	return &RecordResult{Reading: reading, Alerts: alerts}, nil
}

func (s *VitalService) raise(ctx context.Context, alert *model.Alert) {
	if err := s.alerts.Create(ctx, alert); err != nil {
		s.logger.Error("failed to store alert",
			zap.Error(err),
			zap.String("patient_id", alert.PatientID),
			zap.String("vital_sign_type", alert.VitalSignType),
		)
	}

	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, s.alertStream, alert); err != nil {
		s.logger.Warn("failed to publish alert",
			zap.Error(err),
			zap.String("alert_id", alert.ID),
		)
	}
}

// Latest returns the newest reading of a patient
func (s *VitalService) Latest(ctx context.Context, patientID string) (*model.VitalReading, error) {
	reading, err := s.vitals.FindLatest(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest reading: %w", err)
	}
	return reading, nil
}

// History returns the most recent readings, newest first
func (s *VitalService) History(ctx context.Context, patientID string, limit int) ([]model.VitalReading, error) {
	readings, err := s.vitals.ListRecent(ctx, patientID, normalizeLimit(limit, defaultVitalsLimit, maxListLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to get vitals history: %w", err)
	}
	return readings, nil
}

// Alerts returns the most recent alerts, newest first
func (s *VitalService) Alerts(ctx context.Context, patientID string, limit int) ([]model.Alert, error) {
	alerts, err := s.alerts.ListRecent(ctx, patientID, normalizeLimit(limit, defaultAlertsLimit, maxListLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}
	return alerts, nil
}

// AcknowledgeAlert marks an alert of the patient as acknowledged.
// Acknowledging twice keeps the first acknowledgment time.
func (s *VitalService) AcknowledgeAlert(ctx context.Context, patientID, alertID string) (*model.Alert, error) {
	if alertID == "" {
		return nil, validationf("alert ID is required")
	}

	alert, err := s.alerts.Acknowledge(ctx, patientID, alertID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	s.auditor.Record(ctx, audit.ActionAcknowledge, audit.ResourceAlert, alertID, nil)
	return alert, nil
}
