package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vitalvision/backend/internal/reminder"
	"go.uber.org/zap"
)

// Delivery is one fired reminder on its way to the patient
type Delivery struct {
	NotificationID string
	Event          reminder.Event
	// Persisted is set once the primary channel stored the notification
	Persisted bool
}

// Channel delivers reminders through one medium
type Channel interface {
	Name() string
	Deliver(ctx context.Context, d *Delivery) error
}

// Dispatcher is the reminder sink. Fired events are queued in a mailbox
// and delivered by a single worker goroutine, so slow channels never
// delay the scheduler tick.
type Dispatcher struct {
	primary   Channel
	secondary []Channel
	mailbox   chan reminder.Event
	timeout   time.Duration
	logger    *zap.Logger
	newID     func() string

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ reminder.Sink = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher and starts its worker. The primary
// channel's failures are logged as errors; secondary channel failures are
// logged and otherwise ignored.
func NewDispatcher(mailboxSize int, timeout time.Duration, logger *zap.Logger, primary Channel, secondary ...Channel) *Dispatcher {
	if mailboxSize < 0 {
		mailboxSize = 0
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	d := &Dispatcher{
		primary:   primary,
		secondary: secondary,
		mailbox:   make(chan reminder.Event, mailboxSize),
		timeout:   timeout,
		logger:    logger,
		newID:     func() string { return uuid.New().String() },
	}

	d.wg.Add(1)
	go d.run()
	return d
}

// Emit queues a fired reminder. It blocks while the mailbox is full and
// gives up when ctx is done.
func (d *Dispatcher) Emit(ctx context.Context, ev reminder.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("dispatcher closed, dropping reminder",
			zap.String("patient_id", ev.PatientID),
			zap.String("schedule_id", ev.ScheduleID),
		)
		return
	}

	select {
	case d.mailbox <- ev:
	case <-ctx.Done():
		d.logger.Warn("reminder dropped before delivery",
			zap.String("patient_id", ev.PatientID),
			zap.String("schedule_id", ev.ScheduleID),
			zap.Error(ctx.Err()),
		)
	}
}

// Close stops accepting reminders, delivers everything already queued and
// waits for the worker to exit
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.mailbox)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for ev := range d.mailbox {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev reminder.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	delivery := &Delivery{
		NotificationID: d.newID(),
		Event:          ev,
	}

	if d.primary != nil {
		if err := d.primary.Deliver(ctx, delivery); err != nil {
			d.logger.Error("failed to deliver reminder",
				zap.String("channel", d.primary.Name()),
				zap.String("patient_id", ev.PatientID),
				zap.String("schedule_id", ev.ScheduleID),
				zap.Error(err),
			)
		} else {
			delivery.Persisted = true
		}
	}

	for _, ch := range d.secondary {
		if err := ch.Deliver(ctx, delivery); err != nil {
			d.logger.Warn("reminder channel failed",
				zap.String("channel", ch.Name()),
				zap.String("patient_id", ev.PatientID),
				zap.String("schedule_id", ev.ScheduleID),
				zap.Error(err),
			)
		}
	}
}
