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

// ProfileSealer encrypts and decrypts the clinical fields of a profile
type ProfileSealer interface {
	SealPatient(p *model.Patient) error
	OpenPatient(p *model.Patient) error
}

// PatientRepository manages patient and caregiver profiles
type PatientRepository struct {
	db     *pgxpool.Pool
	sealer ProfileSealer
	logger *zap.Logger
}

// NewPatientRepository creates a new PatientRepository
func NewPatientRepository(db *pgxpool.Pool, logger *zap.Logger) *PatientRepository {
	return &PatientRepository{
		db:     db,
		logger: logger,
	}
}

// WithSealer stores clinical fields through sealer
func (r *PatientRepository) WithSealer(sealer ProfileSealer) *PatientRepository {
	r.sealer = sealer
	return r
}

// seal returns the copy of p that is written to the database
func (r *PatientRepository) seal(p *model.Patient) (*model.Patient, error) {
	if r.sealer == nil {
		return p, nil
	}
	sealed := *p
	if err := r.sealer.SealPatient(&sealed); err != nil {
		return nil, err
	}
	return &sealed, nil
}

func (r *PatientRepository) open(p *model.Patient) error {
	if r.sealer == nil {
		return nil
	}
	return r.sealer.OpenPatient(p)
}

const patientColumns = `
	id, email, name, age, sex, medical_diagnosis, current_medications,
	emergency_contact_name, emergency_contact_phone, role, created_at, updated_at`

func scanPatient(row pgx.Row, p *model.Patient) error {
	return row.Scan(
		&p.ID,
		&p.Email,
		&p.Name,
		&p.Age,
		&p.Sex,
		&p.MedicalDiagnosis,
		&p.CurrentMedications,
		&p.EmergencyContactName,
		&p.EmergencyContactPhone,
		&p.Role,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

// Create creates a new profile
func (r *PatientRepository) Create(ctx context.Context, in *model.Patient) error {
	p, err := r.seal(in)
	if err != nil {
		return fmt.Errorf("failed to seal patient: %w", err)
	}

	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.Exec(ctx, query,
		p.ID,
		p.Email,
		p.Name,
		p.Age,
		p.Sex,
		p.MedicalDiagnosis,
		p.CurrentMedications,
		p.EmergencyContactName,
		p.EmergencyContactPhone,
		p.Role,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create patient", zap.Error(err), zap.String("patient_id", p.ID))
		return fmt.Errorf("failed to create patient: %w", err)
	}

	return nil
}

// FindByID retrieves a profile by ID
func (r *PatientRepository) FindByID(ctx context.Context, id string) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	var p model.Patient
	if err := scanPatient(r.db.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("patient %s: %w", id, ErrNotFound)
		}
		r.logger.Error("failed to find patient", zap.Error(err), zap.String("patient_id", id))
		return nil, fmt.Errorf("failed to find patient: %w", err)
	}

	if err := r.open(&p); err != nil {
		r.logger.Error("failed to open patient", zap.Error(err), zap.String("patient_id", id))
		return nil, fmt.Errorf("failed to open patient: %w", err)
	}

	return &p, nil
}

// Update updates the editable profile fields. Role and email are not changed.
func (r *PatientRepository) Update(ctx context.Context, in *model.Patient) error {
	p, err := r.seal(in)
	if err != nil {
		return fmt.Errorf("failed to seal patient: %w", err)
	}

	query := `
		UPDATE patients
		SET name = $1, age = $2, sex = $3, medical_diagnosis = $4,
		    current_medications = $5, emergency_contact_name = $6,
		    emergency_contact_phone = $7, updated_at = $8
		WHERE id = $9
	`

	result, err := r.db.Exec(ctx, query,
		p.Name,
		p.Age,
		p.Sex,
		p.MedicalDiagnosis,
		p.CurrentMedications,
		p.EmergencyContactName,
		p.EmergencyContactPhone,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		r.logger.Error("failed to update patient", zap.Error(err), zap.String("patient_id", p.ID))
		return fmt.Errorf("failed to update patient: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("patient %s: %w", p.ID, ErrNotFound)
	}

	return nil
}

// ListPatients retrieves every profile with the patient role, ordered by name
func (r *PatientRepository) ListPatients(ctx context.Context) ([]model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE role = $1 ORDER BY name, id`

	rows, err := r.db.Query(ctx, query, model.RolePatient)
	if err != nil {
		r.logger.Error("failed to list patients", zap.Error(err))
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	patients := []model.Patient{}
	for rows.Next() {
		var p model.Patient
		if err := scanPatient(rows, &p); err != nil {
			r.logger.Error("failed to scan patient", zap.Error(err))
			continue
		}
		if err := r.open(&p); err != nil {
			r.logger.Error("failed to open patient", zap.Error(err), zap.String("patient_id", p.ID))
			continue
		}
		patients = append(patients, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patients: %w", err)
	}

	return patients, nil
}

// Delete removes a profile and everything recorded for it in one
// transaction. Audit entries are kept.
func (r *PatientRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{
		"notifications",
		"medication_logs",
		"medications",
		"appointments",
		"alerts",
		"vital_readings",
		"reports",
	} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE patient_id = $1", id); err != nil {
			r.logger.Error("failed to delete patient data", zap.Error(err), zap.String("table", table))
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}

	result, err := tx.Exec(ctx, "DELETE FROM patients WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("patient %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
