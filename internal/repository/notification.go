package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

// NotificationRepository manages delivered reminder notifications
type NotificationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *pgxpool.Pool, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a notification
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, patient_id, kind, schedule_id, title, message, audio_path, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		n.ID,
		n.PatientID,
		n.Kind,
		n.ScheduleID,
		n.Title,
		n.Message,
		n.AudioPath,
		n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create notification",
			zap.Error(err),
			zap.String("patient_id", n.PatientID),
		)
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// SetAudioPath attaches a spoken announcement to a notification
func (r *NotificationRepository) SetAudioPath(ctx context.Context, id, path string) error {
	result, err := r.db.Exec(ctx, `UPDATE notifications SET audio_path = $1 WHERE id = $2`, path, id)
	if err != nil {
		r.logger.Error("failed to attach notification audio", zap.Error(err), zap.String("notification_id", id))
		return fmt.Errorf("failed to attach notification audio: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}

	return nil
}

// ListRecent retrieves the newest notifications of a patient
func (r *NotificationRepository) ListRecent(ctx context.Context, patientID string, limit int) ([]model.Notification, error) {
	query := `
		SELECT id, patient_id, kind, schedule_id, title, message, audio_path, created_at
		FROM notifications
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, patientID, limit)
	if err != nil {
		r.logger.Error("failed to list notifications", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		err := rows.Scan(
			&n.ID,
			&n.PatientID,
			&n.Kind,
			&n.ScheduleID,
			&n.Title,
			&n.Message,
			&n.AudioPath,
			&n.CreatedAt,
		)
		if err != nil {
			r.logger.Error("failed to scan notification", zap.Error(err))
			continue
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}
