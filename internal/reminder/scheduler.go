// Package reminder fires medication and appointment reminders at most once
// per scheduled occurrence.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

// Kind identifies the domain of a reminder
type Kind string

const (
	KindMedication  Kind = "medication"
	KindAppointment Kind = "appointment"
)

const (
	medicationTitle  = "Recordatorio de Medicamento"
	appointmentTitle = "Recordatorio de Cita Próxima"
)

// Event is a reminder that fired
type Event struct {
	Kind         Kind
	PatientID    string
	ScheduleID   string
	Title        string
	Detail       string
	ScheduledFor time.Time
	FiredAt      time.Time
}

// Sink receives fired reminders. Delivery failures are the sink's concern.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, ev Event)

func (f SinkFunc) Emit(ctx context.Context, ev Event) { f(ctx, ev) }

// Config holds scheduler tuning
type Config struct {
	// Lookahead is how long before an appointment its reminder may fire.
	Lookahead time.Duration
	// Granularity is the width of the medication match window.
	Granularity time.Duration
	// Location is the time zone schedules are expressed in.
	Location *time.Location
}

// DefaultConfig returns a 60 minute lookahead and one minute granularity in
// the local time zone.
func DefaultConfig() Config {
	return Config{
		Lookahead:   60 * time.Minute,
		Granularity: time.Minute,
		Location:    time.Local,
	}
}

type patientSchedules struct {
	medications  []model.Medication
	appointments []model.Appointment
}

// Scheduler holds per-patient schedule snapshots and the fired set.
// Snapshots may be replaced from any goroutine; checks are serialized.
type Scheduler struct {
	cfg    Config
	sink   Sink
	logger *zap.Logger

	mu       sync.RWMutex
	patients map[string]*patientSchedules
	order    []string

	tickMu sync.Mutex
	fired  *FiredSet
}

// NewScheduler creates a new Scheduler
func NewScheduler(cfg Config, sink Sink, logger *zap.Logger) *Scheduler {
	def := DefaultConfig()
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = def.Lookahead
	}
	if cfg.Granularity <= 0 {
		cfg.Granularity = def.Granularity
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	return &Scheduler{
		cfg:      cfg,
		sink:     sink,
		logger:   logger,
		patients: make(map[string]*patientSchedules),
		fired:    NewFiredSet(),
	}
}

func (s *Scheduler) entry(patientID string) *patientSchedules {
	p, ok := s.patients[patientID]
	if !ok {
		p = &patientSchedules{}
		s.patients[patientID] = p
		s.order = append(s.order, patientID)
	}
	return p
}

// SetMedications replaces the medication snapshot of a patient.
func (s *Scheduler) SetMedications(patientID string, meds []model.Medication) {
	snapshot := make([]model.Medication, len(meds))
	for i, m := range meds {
		m.Times = append([]string(nil), m.Times...)
		snapshot[i] = m
	}

	s.mu.Lock()
	s.entry(patientID).medications = snapshot
	s.mu.Unlock()

	s.logger.Debug("medication snapshot registered",
		zap.String("patient_id", patientID),
		zap.Int("count", len(snapshot)),
	)
}

// SetAppointments replaces the appointment snapshot of a patient.
func (s *Scheduler) SetAppointments(patientID string, appts []model.Appointment) {
	snapshot := append([]model.Appointment(nil), appts...)

	s.mu.Lock()
	s.entry(patientID).appointments = snapshot
	s.mu.Unlock()

	s.logger.Debug("appointment snapshot registered",
		zap.String("patient_id", patientID),
		zap.Int("count", len(snapshot)),
	)
}

// RemovePatient drops both snapshots of a patient.
func (s *Scheduler) RemovePatient(patientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[patientID]; !ok {
		return
	}
	delete(s.patients, patientID)
	for i, id := range s.order {
		if id == patientID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// snapshot returns the patients in registration order with their current
// schedules. The slices are shared but never written after registration.
func (s *Scheduler) snapshot() ([]string, map[string]patientSchedules) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order := append([]string(nil), s.order...)
	out := make(map[string]patientSchedules, len(s.patients))
	for id, p := range s.patients {
		out[id] = *p
	}
	return order, out
}

// CheckMedications runs the daily reset and then fires every medication
// time whose match window contains now.
func (s *Scheduler) CheckMedications(ctx context.Context, now time.Time) []Event {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	local := now.In(s.cfg.Location)
	if s.fired.resetIfNewDay(local) {
		s.logger.Info("medication reminders reset for new day",
			zap.String("date", local.Format("2006-01-02")),
		)
	}

	order, patients := s.snapshot()
	var events []Event

	for _, patientID := range order {
		for _, med := range patients[patientID].medications {
			if err := ValidateMedication(med); err != nil {
				s.logger.Warn("skipping malformed medication schedule",
					zap.Error(err),
					zap.String("patient_id", patientID),
					zap.String("medication_id", med.ID),
				)
				continue
			}

			for _, clock := range med.Times {
				hour, minute, _ := ParseClock(clock)
				target := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, s.cfg.Location)
				if local.Before(target) || !local.Before(target.Add(s.cfg.Granularity)) {
					continue
				}
				if !s.fired.markMedication(med.ID, clock) {
					continue
				}
				if ctx.Err() != nil {
					return events
				}

				ev := Event{
					Kind:         KindMedication,
					PatientID:    patientID,
					ScheduleID:   med.ID,
					Title:        medicationTitle,
					Detail:       fmt.Sprintf("Recordatorio: Es hora de tomar su medicamento %s, dosis: %s.", med.Name, med.Dose),
					ScheduledFor: target,
					FiredAt:      now,
				}
				s.emit(ctx, ev)
				events = append(events, ev)
			}
		}
	}

	return events
}

// AppointmentInstant combines the calendar date of an appointment with its
// HH:MM time in loc.
func AppointmentInstant(a model.Appointment, loc *time.Location) (time.Time, error) {
	hour, minute, err := ParseClock(a.Time)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := a.Date.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc), nil
}

// CheckAppointments fires every appointment starting within the lookahead
// window that has not fired yet, and forgets fired appointments that have
// already started.
func (s *Scheduler) CheckAppointments(ctx context.Context, now time.Time) []Event {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if n := s.fired.pruneAppointments(now); n > 0 {
		s.logger.Debug("pruned past appointment reminders", zap.Int("count", n))
	}

	order, patients := s.snapshot()
	var events []Event

	for _, patientID := range order {
		for _, appt := range patients[patientID].appointments {
			at, err := AppointmentInstant(appt, s.cfg.Location)
			if err != nil {
				s.logger.Warn("skipping malformed appointment",
					zap.Error(&MalformedScheduleError{ScheduleID: appt.ID, Reason: err.Error()}),
					zap.String("patient_id", patientID),
					zap.String("appointment_id", appt.ID),
				)
				continue
			}

			delta := at.Sub(now)
			if delta <= 0 || delta > s.cfg.Lookahead {
				continue
			}
			if !s.fired.markAppointment(appt.ID, at) {
				continue
			}
			if ctx.Err() != nil {
				return events
			}

			ev := Event{
				Kind:         KindAppointment,
				PatientID:    patientID,
				ScheduleID:   appt.ID,
				Title:        appointmentTitle,
				Detail:       appointmentDetail(appt, at),
				ScheduledFor: at,
				FiredAt:      now,
			}
			s.emit(ctx, ev)
			events = append(events, ev)
		}
	}

	return events
}

func appointmentDetail(a model.Appointment, at time.Time) string {
	detail := fmt.Sprintf("Recordatorio: Tiene una cita de %s a las %s", a.Type, at.Format("15:04"))
	if a.ProfessionalName != nil && *a.ProfessionalName != "" {
		detail += " con " + *a.ProfessionalName
	}
	return detail + "."
}

func (s *Scheduler) emit(ctx context.Context, ev Event) {
	s.logger.Info("reminder fired",
		zap.String("kind", string(ev.Kind)),
		zap.String("patient_id", ev.PatientID),
		zap.String("schedule_id", ev.ScheduleID),
	)
	if s.sink != nil {
		s.sink.Emit(ctx, ev)
	}
}
