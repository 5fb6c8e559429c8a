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

// ReportRepository manages generated report records
type ReportRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *pgxpool.Pool, logger *zap.Logger) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a report record
func (r *ReportRepository) Create(ctx context.Context, report *model.Report) error {
	query := `
		INSERT INTO reports (id, patient_id, created_by, start_date, end_date, file_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		report.ID,
		report.PatientID,
		report.CreatedBy,
		report.StartDate,
		report.EndDate,
		report.FilePath,
		report.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to save report", zap.Error(err), zap.String("report_id", report.ID))
		return fmt.Errorf("failed to save report: %w", err)
	}

	return nil
}

// FindByID retrieves a report record by ID
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*model.Report, error) {
	query := `
		SELECT id, patient_id, created_by, start_date, end_date, file_path, created_at
		FROM reports
		WHERE id = $1
	`

	var report model.Report
	err := r.db.QueryRow(ctx, query, id).Scan(
		&report.ID,
		&report.PatientID,
		&report.CreatedBy,
		&report.StartDate,
		&report.EndDate,
		&report.FilePath,
		&report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
		}
		r.logger.Error("failed to get report", zap.Error(err), zap.String("report_id", id))
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return &report, nil
}

// ListByPatient retrieves the reports of a patient, newest first
func (r *ReportRepository) ListByPatient(ctx context.Context, patientID string) ([]model.Report, error) {
	query := `
		SELECT id, patient_id, created_by, start_date, end_date, file_path, created_at
		FROM reports
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		r.logger.Error("failed to list reports", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []model.Report{}
	for rows.Next() {
		var report model.Report
		if err := rows.Scan(
			&report.ID,
			&report.PatientID,
			&report.CreatedBy,
			&report.StartDate,
			&report.EndDate,
			&report.FilePath,
			&report.CreatedAt,
		); err != nil {
			r.logger.Error("failed to scan report", zap.Error(err))
			continue
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}
