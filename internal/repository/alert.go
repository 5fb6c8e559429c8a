package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

// AlertRepository manages out-of-range alerts
type AlertRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewAlertRepository creates a new AlertRepository
func NewAlertRepository(db *pgxpool.Pool, logger *zap.Logger) *AlertRepository {
	return &AlertRepository{
		db:     db,
		logger: logger,
	}
}

const alertColumns = `
	id, patient_id, reading_id, recorded_at, vital_sign_type, value,
	normal_range_description, message, status, acknowledged_at, created_at`

func scanAlert(row pgx.Row, a *model.Alert) error {
	return row.Scan(
		&a.ID,
		&a.PatientID,
		&a.ReadingID,
		&a.Timestamp,
		&a.VitalSignType,
		&a.Value,
		&a.NormalRangeDescription,
		&a.Message,
		&a.Status,
		&a.AcknowledgedAt,
		&a.CreatedAt,
	)
}

// Create stores one alert
func (r *AlertRepository) Create(ctx context.Context, a *model.Alert) error {
	query := `
		INSERT INTO alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		a.ID,
		a.PatientID,
		a.ReadingID,
		a.Timestamp,
		a.VitalSignType,
		a.Value,
		a.NormalRangeDescription,
		a.Message,
		a.Status,
		a.AcknowledgedAt,
		a.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create alert",
			zap.Error(err),
			zap.String("patient_id", a.PatientID),
			zap.String("vital_sign_type", a.VitalSignType),
		)
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// ListRecent retrieves the newest alerts of a patient, newest first
func (r *AlertRepository) ListRecent(ctx context.Context, patientID string, limit int) ([]model.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE patient_id = $1
		ORDER BY recorded_at DESC, created_at DESC
		LIMIT $2
	`

	return r.list(ctx, query, patientID, limit)
}

// ListBetween retrieves alerts with from <= timestamp < to, oldest first
func (r *AlertRepository) ListBetween(ctx context.Context, patientID string, from, to int64) ([]model.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE patient_id = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at
	`

	return r.list(ctx, query, patientID, from, to)
}

// Acknowledge moves an active alert of the patient to acknowledged. An
// already acknowledged alert is returned unchanged.
func (r *AlertRepository) Acknowledge(ctx context.Context, patientID, alertID string, at time.Time) (*model.Alert, error) {
	query := `
		UPDATE alerts
		SET status = $1,
		    acknowledged_at = COALESCE(acknowledged_at, $2)
		WHERE id = $3 AND patient_id = $4
		RETURNING ` + alertColumns

	var a model.Alert
	err := scanAlert(r.db.QueryRow(ctx, query, model.AlertStatusAcknowledged, at, alertID, patientID), &a)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("alert %s: %w", alertID, ErrNotFound)
		}
		r.logger.Error("failed to acknowledge alert", zap.Error(err), zap.String("alert_id", alertID))
		return nil, fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	return &a, nil
}

func (r *AlertRepository) list(ctx context.Context, query string, args ...any) ([]model.Alert, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list alerts", zap.Error(err))
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts := []model.Alert{}
	for rows.Next() {
		var a model.Alert
		if err := scanAlert(rows, &a); err != nil {
			r.logger.Error("failed to scan alert", zap.Error(err))
			continue
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating alerts", zap.Error(err))
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}
