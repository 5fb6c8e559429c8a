package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Action represents the operation performed on patient data
type Action string

const (
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionAcknowledge Action = "acknowledge"
	ActionExport      Action = "export"
)

// ResourceType represents the type of resource being changed
type ResourceType string

const (
	ResourceVitalReading ResourceType = "vital_reading"
	ResourceAlert        ResourceType = "alert"
	ResourceMedication   ResourceType = "medication"
	ResourceDose         ResourceType = "medication_log"
	ResourceAppointment  ResourceType = "appointment"
	ResourceReport       ResourceType = "report"
	ResourceProfile      ResourceType = "profile"
)

// Actor identifies who performed a request
type Actor struct {
	UserID    string
	IPAddress string
	UserAgent string
}

type actorKey struct{}

// WithActor returns a context carrying the request actor
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the request actor stored in ctx
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// Execer executes a statement; *pgxpool.Pool satisfies it
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Logger handles audit logging
type Logger struct {
	db     Execer
	logger *zap.Logger
}

// NewLogger creates a new audit logger
func NewLogger(db Execer, logger *zap.Logger) *Logger {
	return &Logger{
		db:     db,
		logger: logger,
	}
}

// Record writes an audit entry for the actor in ctx. Failures are logged;
// the audited operation has already succeeded.
func (l *Logger) Record(ctx context.Context, action Action, resource ResourceType, resourceID string, details map[string]any) {
	if l == nil {
		return
	}

	actor, _ := ActorFrom(ctx)

	l.logger.Info("audit log entry",
		zap.String("user_id", actor.UserID),
		zap.String("action", string(action)),
		zap.String("resource_type", string(resource)),
		zap.String("resource_id", resourceID),
		zap.String("ip_address", actor.IPAddress),
	)

	var userID *string
	if actor.UserID != "" {
		userID = &actor.UserID
	}

	var payload []byte
	if len(details) > 0 {
		var err error
		payload, err = json.Marshal(details)
		if err != nil {
			l.logger.Warn("failed to encode audit details", zap.Error(err))
			payload = nil
		}
	}

	query := `
		INSERT INTO audit_logs (
			user_id, action, resource_type, resource_id,
			ip_address, user_agent, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := l.db.Exec(ctx, query,
		userID,
		string(action),
		string(resource),
		resourceID,
		actor.IPAddress,
		actor.UserAgent,
		payload,
	)
	if err != nil {
		l.logger.Error("failed to write audit log to database",
			zap.Error(err),
			zap.String("user_id", actor.UserID),
			zap.String("action", string(action)),
			zap.String("resource_type", string(resource)),
		)
	}
}
