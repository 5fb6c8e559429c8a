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

// AppointmentRepository manages appointments
type AppointmentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewAppointmentRepository creates a new AppointmentRepository
func NewAppointmentRepository(db *pgxpool.Pool, logger *zap.Logger) *AppointmentRepository {
	return &AppointmentRepository{
		db:     db,
		logger: logger,
	}
}

const appointmentColumns = `
	id, patient_id, appointment_date, appointment_time, type,
	professional_name, created_at`

func scanAppointment(row pgx.Row, a *model.Appointment) error {
	return row.Scan(
		&a.ID,
		&a.PatientID,
		&a.Date,
		&a.Time,
		&a.Type,
		&a.ProfessionalName,
		&a.CreatedAt,
	)
}

// Create stores an appointment
func (r *AppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		a.ID,
		a.PatientID,
		a.Date,
		a.Time,
		a.Type,
		a.ProfessionalName,
		a.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create appointment",
			zap.Error(err),
			zap.String("patient_id", a.PatientID),
		)
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	return nil
}

// FindByID retrieves an appointment by ID
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var a model.Appointment
	if err := scanAppointment(r.db.QueryRow(ctx, query, id), &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
		}
		r.logger.Error("failed to find appointment", zap.Error(err), zap.String("appointment_id", id))
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}

	return &a, nil
}

// FindUpcoming retrieves the appointments of a patient dated on or after
// from, ordered by date then time
func (r *AppointmentRepository) FindUpcoming(ctx context.Context, patientID string, from time.Time) ([]model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1 AND appointment_date >= $2
		ORDER BY appointment_date, appointment_time
	`

	return r.list(ctx, query, patientID, from)
}

// ListUpcomingAll retrieves every appointment dated on or after from,
// grouped by patient
func (r *AppointmentRepository) ListUpcomingAll(ctx context.Context, from time.Time) ([]model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE appointment_date >= $1
		ORDER BY patient_id, appointment_date, appointment_time
	`

	return r.list(ctx, query, from)
}

// ListBetween retrieves the appointments of a patient dated within [from, to]
func (r *AppointmentRepository) ListBetween(ctx context.Context, patientID string, from, to time.Time) ([]model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1 AND appointment_date >= $2 AND appointment_date <= $3
		ORDER BY appointment_date, appointment_time
	`

	return r.list(ctx, query, patientID, from, to)
}

// Delete removes an appointment of the patient
func (r *AppointmentRepository) Delete(ctx context.Context, patientID, id string) error {
	query := `DELETE FROM appointments WHERE id = $1 AND patient_id = $2`

	result, err := r.db.Exec(ctx, query, id, patientID)
	if err != nil {
		r.logger.Error("failed to delete appointment", zap.Error(err), zap.String("appointment_id", id))
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}

	return nil
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list appointments", zap.Error(err))
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	appointments := []model.Appointment{}
	for rows.Next() {
		var a model.Appointment
		if err := scanAppointment(rows, &a); err != nil {
			r.logger.Error("failed to scan appointment", zap.Error(err))
			continue
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating appointments", zap.Error(err))
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}

	return appointments, nil
}
