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

// MedicationRepository manages medication schedules and the dose log
type MedicationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewMedicationRepository creates a new MedicationRepository
func NewMedicationRepository(db *pgxpool.Pool, logger *zap.Logger) *MedicationRepository {
	return &MedicationRepository{
		db:     db,
		logger: logger,
	}
}

const medicationColumns = `id, patient_id, name, dose, frequency, times, created_at, updated_at`

func scanMedication(row pgx.Row, med *model.Medication) error {
	return row.Scan(
		&med.ID,
		&med.PatientID,
		&med.Name,
		&med.Dose,
		&med.Frequency,
		&med.Times,
		&med.CreatedAt,
		&med.UpdatedAt,
	)
}

// Create creates a new medication record
func (r *MedicationRepository) Create(ctx context.Context, med *model.Medication) error {
	query := `
		INSERT INTO medications (
			id, patient_id, name, dose, frequency, times,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		med.ID,
		med.PatientID,
		med.Name,
		med.Dose,
		med.Frequency,
		med.Times,
		med.CreatedAt,
		med.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("failed to create medication",
			zap.Error(err),
			zap.String("medication_id", med.ID),
			zap.String("patient_id", med.PatientID),
		)
		return fmt.Errorf("failed to create medication: %w", err)
	}

	return nil
}

// FindByPatientID retrieves all medications of a patient in creation order
func (r *MedicationRepository) FindByPatientID(ctx context.Context, patientID string) ([]model.Medication, error) {
	query := `
		SELECT ` + medicationColumns + `
		FROM medications
		WHERE patient_id = $1
		ORDER BY created_at, id
	`

	return r.list(ctx, query, patientID)
}

// ListAll retrieves every medication, grouped by patient in creation order
func (r *MedicationRepository) ListAll(ctx context.Context) ([]model.Medication, error) {
	query := `
		SELECT ` + medicationColumns + `
		FROM medications
		ORDER BY patient_id, created_at, id
	`

	return r.list(ctx, query)
}

func (r *MedicationRepository) list(ctx context.Context, query string, args ...any) ([]model.Medication, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to find medications", zap.Error(err))
		return nil, fmt.Errorf("failed to find medications: %w", err)
	}
	defer rows.Close()

	medications := []model.Medication{}
	for rows.Next() {
		var med model.Medication
		if err := scanMedication(rows, &med); err != nil {
			r.logger.Error("failed to scan medication", zap.Error(err))
			continue
		}
		medications = append(medications, med)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating medications", zap.Error(err))
		return nil, fmt.Errorf("error iterating medications: %w", err)
	}

	return medications, nil
}

// FindByID retrieves a medication by ID
func (r *MedicationRepository) FindByID(ctx context.Context, medicationID string) (*model.Medication, error) {
	query := `
		SELECT ` + medicationColumns + `
		FROM medications
		WHERE id = $1
	`

	var med model.Medication
	err := scanMedication(r.db.QueryRow(ctx, query, medicationID), &med)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("medication %s: %w", medicationID, ErrNotFound)
		}
		r.logger.Error("failed to find medication", zap.Error(err), zap.String("medication_id", medicationID))
		return nil, fmt.Errorf("failed to find medication: %w", err)
	}

	return &med, nil
}

// Update updates an existing medication record
func (r *MedicationRepository) Update(ctx context.Context, med *model.Medication) error {
	query := `
		UPDATE medications
		SET name = $1, dose = $2, frequency = $3, times = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := r.db.Exec(ctx, query,
		med.Name,
		med.Dose,
		med.Frequency,
		med.Times,
		med.UpdatedAt,
		med.ID,
	)

	if err != nil {
		r.logger.Error("failed to update medication",
			zap.Error(err),
			zap.String("medication_id", med.ID),
		)
		return fmt.Errorf("failed to update medication: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("medication %s: %w", med.ID, ErrNotFound)
	}

	return nil
}

// Delete deletes a medication record
func (r *MedicationRepository) Delete(ctx context.Context, medicationID string) error {
	query := `DELETE FROM medications WHERE id = $1`

	result, err := r.db.Exec(ctx, query, medicationID)
	if err != nil {
		r.logger.Error("failed to delete medication",
			zap.Error(err),
			zap.String("medication_id", medicationID),
		)
		return fmt.Errorf("failed to delete medication: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("medication %s: %w", medicationID, ErrNotFound)
	}

	return nil
}

// LogTaken records a confirmed dose
func (r *MedicationRepository) LogTaken(ctx context.Context, log *model.MedicationLog) error {
	query := `
		INSERT INTO medication_logs (id, medication_id, patient_id, medication_name, dose, taken_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		log.ID,
		log.MedicationID,
		log.PatientID,
		log.MedicationName,
		log.Dose,
		log.TakenAt,
	)

	if err != nil {
		r.logger.Error("failed to log medication dose",
			zap.Error(err),
			zap.String("medication_id", log.MedicationID),
		)
		return fmt.Errorf("failed to log medication dose: %w", err)
	}

	return nil
}

// ListLog retrieves the most recent confirmed doses of a patient
func (r *MedicationRepository) ListLog(ctx context.Context, patientID string, limit int) ([]model.MedicationLog, error) {
	query := `
		SELECT id, medication_id, patient_id, medication_name, dose, taken_at
		FROM medication_logs
		WHERE patient_id = $1
		ORDER BY taken_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, patientID, limit)
	if err != nil {
		r.logger.Error("failed to get medication log", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to get medication log: %w", err)
	}
	defer rows.Close()

	logs := []model.MedicationLog{}
	for rows.Next() {
		var log model.MedicationLog
		err := rows.Scan(
			&log.ID,
			&log.MedicationID,
			&log.PatientID,
			&log.MedicationName,
			&log.Dose,
			&log.TakenAt,
		)
		if err != nil {
			r.logger.Error("failed to scan medication log", zap.Error(err))
			continue
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating medication log", zap.Error(err))
		return nil, fmt.Errorf("error iterating medication log: %w", err)
	}

	return logs, nil
}
