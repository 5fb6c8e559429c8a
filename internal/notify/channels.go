package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vitalvision/backend/internal/reminder"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

// NotificationStore persists notifications shown to the patient
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	SetAudioPath(ctx context.Context, id, path string) error
}

// ReminderMessage is the stream payload of a delivered reminder
type ReminderMessage struct {
	NotificationID string    `json:"notification_id"`
	PatientID      string    `json:"patient_id"`
	Kind           string    `json:"kind"`
	ScheduleID     string    `json:"schedule_id"`
	Title          string    `json:"title"`
	Detail         string    `json:"detail"`
	ScheduledFor   time.Time `json:"scheduled_for"`
	FiredAt        time.Time `json:"fired_at"`
}

func newReminderMessage(d *Delivery) ReminderMessage {
	return ReminderMessage{
		NotificationID: d.NotificationID,
		PatientID:      d.Event.PatientID,
		Kind:           string(d.Event.Kind),
		ScheduleID:     d.Event.ScheduleID,
		Title:          d.Event.Title,
		Detail:         d.Event.Detail,
		ScheduledFor:   d.Event.ScheduledFor,
		FiredAt:        d.Event.FiredAt,
	}
}

// VisualChannel stores the reminder as a notification and announces it on
// the reminder stream for connected clients
type VisualChannel struct {
	store     NotificationStore
	publisher EventPublisher
	stream    string
	logger    *zap.Logger
}

// NewVisualChannel creates a new VisualChannel. publisher may be nil.
func NewVisualChannel(store NotificationStore, publisher EventPublisher, stream string, logger *zap.Logger) *VisualChannel {
	return &VisualChannel{
		store:     store,
		publisher: publisher,
		stream:    stream,
		logger:    logger,
	}
}

// Name returns the channel name
func (c *VisualChannel) Name() string { return "visual" }

// Deliver stores the notification; the stream publish is best effort
func (c *VisualChannel) Deliver(ctx context.Context, d *Delivery) error {
	n := &model.Notification{
		ID:         d.NotificationID,
		PatientID:  d.Event.PatientID,
		Kind:       notificationKind(d.Event.Kind),
		ScheduleID: d.Event.ScheduleID,
		Title:      d.Event.Title,
		Message:    d.Event.Detail,
		CreatedAt:  d.Event.FiredAt,
	}
	if err := c.store.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if c.publisher != nil {
		if _, err := c.publisher.Publish(ctx, c.stream, newReminderMessage(d)); err != nil {
			c.logger.Warn("failed to publish reminder to stream",
				zap.String("notification_id", d.NotificationID),
				zap.Error(err),
			)
		}
	}

	return nil
}

func notificationKind(k reminder.Kind) model.NotificationKind {
	if k == reminder.KindAppointment {
		return model.NotificationKindAppointment
	}
	return model.NotificationKindMedication
}

// Synthesizer turns text into spoken audio
type Synthesizer interface {
	TextToSpeech(ctx context.Context, text string, language string) ([]byte, error)
}

// AudioStore keeps synthesized announcements
type AudioStore interface {
	UploadAnnouncement(ctx context.Context, patientID, notificationID string, audioStream io.Reader) (string, error)
}

// SpokenChannel reads the reminder aloud: the detail text is synthesized,
// stored and attached to the notification
type SpokenChannel struct {
	synth    Synthesizer
	audio    AudioStore
	store    NotificationStore
	language string
	logger   *zap.Logger
}

// NewSpokenChannel creates a new SpokenChannel
func NewSpokenChannel(synth Synthesizer, audio AudioStore, store NotificationStore, language string, logger *zap.Logger) *SpokenChannel {
	if language == "" {
		language = "es-ES"
	}
	return &SpokenChannel{
		synth:    synth,
		audio:    audio,
		store:    store,
		language: language,
		logger:   logger,
	}
}

// Name returns the channel name
func (c *SpokenChannel) Name() string { return "spoken" }

// Deliver synthesizes and stores the announcement
func (c *SpokenChannel) Deliver(ctx context.Context, d *Delivery) error {
	speech, err := c.synth.TextToSpeech(ctx, d.Event.Detail, c.language)
	if err != nil {
		return fmt.Errorf("failed to synthesize reminder: %w", err)
	}

	path, err := c.audio.UploadAnnouncement(ctx, d.Event.PatientID, d.NotificationID, bytes.NewReader(speech))
	if err != nil {
		return fmt.Errorf("failed to store announcement: %w", err)
	}

	// Without a stored notification there is nothing to attach the audio to
	if !d.Persisted {
		return nil
	}

	if err := c.store.SetAudioPath(ctx, d.NotificationID, path); err != nil {
		return fmt.Errorf("failed to attach announcement: %w", err)
	}

	c.logger.Debug("reminder announcement stored",
		zap.String("notification_id", d.NotificationID),
		zap.String("audio_path", path),
	)
	return nil
}
