package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

// VitalRepository manages vital sign readings
type VitalRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewVitalRepository creates a new VitalRepository
func NewVitalRepository(db *pgxpool.Pool, logger *zap.Logger) *VitalRepository {
	return &VitalRepository{
		db:     db,
		logger: logger,
	}
}

const vitalColumns = `
	id, patient_id, recorded_at, heart_rate, systolic_pressure,
	oxygen_saturation, temperature, created_at`

func scanVital(row pgx.Row, v *model.VitalReading) error {
	return row.Scan(
		&v.ID,
		&v.PatientID,
		&v.Timestamp,
		&v.HeartRate,
		&v.SystolicPressure,
		&v.OxygenSaturation,
		&v.Temperature,
		&v.CreatedAt,
	)
}

// Create stores a reading
func (r *VitalRepository) Create(ctx context.Context, v *model.VitalReading) error {
	query := `
		INSERT INTO vital_readings (` + vitalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		v.ID,
		v.PatientID,
		v.Timestamp,
		v.HeartRate,
		v.SystolicPressure,
		v.OxygenSaturation,
		v.Temperature,
		v.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create vital reading",
			zap.Error(err),
			zap.String("patient_id", v.PatientID),
		)
		return fmt.Errorf("failed to create vital reading: %w", err)
	}

	return nil
}

// FindLatest retrieves the newest reading of a patient
func (r *VitalRepository) FindLatest(ctx context.Context, patientID string) (*model.VitalReading, error) {
	query := `
		SELECT ` + vitalColumns + `
		FROM vital_readings
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	var v model.VitalReading
	if err := scanVital(r.db.QueryRow(ctx, query, patientID), &v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no readings for patient %s: %w", patientID, ErrNotFound)
		}
		r.logger.Error("failed to find latest reading", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to find latest reading: %w", err)
	}

	return &v, nil
}

// ListRecent retrieves the newest readings of a patient, newest first
func (r *VitalRepository) ListRecent(ctx context.Context, patientID string, limit int) ([]model.VitalReading, error) {
	query := `
		SELECT ` + vitalColumns + `
		FROM vital_readings
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	return r.list(ctx, query, patientID, limit)
}

// ListBetween retrieves readings with from <= timestamp < to, oldest first
func (r *VitalRepository) ListBetween(ctx context.Context, patientID string, from, to int64) ([]model.VitalReading, error) {
	query := `
		SELECT ` + vitalColumns + `
		FROM vital_readings
		WHERE patient_id = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at
	`

	return r.list(ctx, query, patientID, from, to)
}

func (r *VitalRepository) list(ctx context.Context, query string, args ...any) ([]model.VitalReading, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list vital readings", zap.Error(err))
		return nil, fmt.Errorf("failed to list vital readings: %w", err)
	}
	defer rows.Close()

	readings := []model.VitalReading{}
	for rows.Next() {
		var v model.VitalReading
		if err := scanVital(rows, &v); err != nil {
			r.logger.Error("failed to scan vital reading", zap.Error(err))
			continue
		}
		readings = append(readings, v)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating vital readings", zap.Error(err))
		return nil, fmt.Errorf("error iterating vital readings: %w", err)
	}

	return readings, nil
}
