package reminder

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RunnerConfig holds the tick intervals
type RunnerConfig struct {
	MedicationInterval  time.Duration
	AppointmentInterval time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Runner drives a Scheduler from a single goroutine owning both tickers, so
// ticks never overlap.
type Runner struct {
	scheduler *Scheduler
	cfg       RunnerConfig
	logger    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates a new Runner
func NewRunner(scheduler *Scheduler, cfg RunnerConfig, logger *zap.Logger) *Runner {
	if cfg.MedicationInterval <= 0 {
		cfg.MedicationInterval = time.Minute
	}
	if cfg.AppointmentInterval <= 0 {
		cfg.AppointmentInterval = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{
		scheduler: scheduler,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start launches the tick loop. Both checks run once immediately. The loop
// ends when ctx is cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(ctx, r.done)

	r.logger.Info("reminder runner started",
		zap.Duration("medication_interval", r.cfg.MedicationInterval),
		zap.Duration("appointment_interval", r.cfg.AppointmentInterval),
	)
}

// Stop cancels both tickers and waits for an in-flight tick to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	r.logger.Info("reminder runner stopped")
}

// Done is closed when the loop has exited.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	medTicker := time.NewTicker(r.cfg.MedicationInterval)
	defer medTicker.Stop()
	apptTicker := time.NewTicker(r.cfg.AppointmentInterval)
	defer apptTicker.Stop()

	r.scheduler.CheckMedications(ctx, r.cfg.Now())
	r.scheduler.CheckAppointments(ctx, r.cfg.Now())

	for {
		select {
		case <-ctx.Done():
			return
		case <-medTicker.C:
			if ctx.Err() != nil {
				return
			}
			r.scheduler.CheckMedications(ctx, r.cfg.Now())
		case <-apptTicker.C:
			if ctx.Err() != nil {
				return
			}
			r.scheduler.CheckAppointments(ctx, r.cfg.Now())
		}
	}
}
