package reminder

import (
	"errors"
	"fmt"
	"time"

	"github.com/vitalvision/backend/pkg/model"
)

// ErrMalformedSchedule is matched by every *MalformedScheduleError
var ErrMalformedSchedule = errors.New("malformed schedule")

// MalformedScheduleError describes a schedule entry the scheduler cannot use
type MalformedScheduleError struct {
	ScheduleID string
	Reason     string
}

func (e *MalformedScheduleError) Error() string {
	return fmt.Sprintf("malformed schedule %s: %s", e.ScheduleID, e.Reason)
}

func (e *MalformedScheduleError) Is(target error) bool {
	return target == ErrMalformedSchedule
}

// ParseClock parses an "HH:MM" string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// ValidateMedication checks the frequency and every time of a medication.
func ValidateMedication(m model.Medication) error {
	want := m.Frequency.DosesPerDay()
	if want == 0 {
		return &MalformedScheduleError{ScheduleID: m.ID, Reason: fmt.Sprintf("unknown frequency %q", m.Frequency)}
	}
	if len(m.Times) != want {
		return &MalformedScheduleError{
			ScheduleID: m.ID,
			Reason:     fmt.Sprintf("frequency %s needs %d times, got %d", m.Frequency, want, len(m.Times)),
		}
	}
	for _, t := range m.Times {
		if _, _, err := ParseClock(t); err != nil {
			return &MalformedScheduleError{ScheduleID: m.ID, Reason: err.Error()}
		}
	}
	return nil
}

// ValidateAppointment checks the time of an appointment.
func ValidateAppointment(a model.Appointment) error {
	if a.Date.IsZero() {
		return &MalformedScheduleError{ScheduleID: a.ID, Reason: "missing date"}
	}
	if _, _, err := ParseClock(a.Time); err != nil {
		return &MalformedScheduleError{ScheduleID: a.ID, Reason: err.Error()}
	}
	return nil
}
