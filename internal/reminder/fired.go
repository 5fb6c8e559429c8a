package reminder

import "time"

type medicationKey struct {
	scheduleID string
	clock      string
}

type civilDay struct {
	year  int
	month time.Month
	day   int
}

func dayOf(t time.Time) civilDay {
	y, m, d := t.Date()
	return civilDay{y, m, d}
}

// FiredSet records which reminders already fired. It is process local and
// starts empty; it is only touched from the scheduler's tick methods.
type FiredSet struct {
	medications  map[medicationKey]struct{}
	appointments map[string]time.Time
	lastReset    civilDay
	started      bool
}

// NewFiredSet creates an empty FiredSet.
func NewFiredSet() *FiredSet {
	return &FiredSet{
		medications:  make(map[medicationKey]struct{}),
		appointments: make(map[string]time.Time),
	}
}

// resetIfNewDay clears the medication keys when the local calendar day of now
// differs from the day of the previous reset. The first call only records the
// day.
func (f *FiredSet) resetIfNewDay(now time.Time) bool {
	today := dayOf(now)
	if !f.started {
		f.started = true
		f.lastReset = today
		return false
	}
	if today == f.lastReset {
		return false
	}
	f.medications = make(map[medicationKey]struct{})
	f.lastReset = today
	return true
}

// markMedication records (scheduleID, clock) and reports whether it was new.
func (f *FiredSet) markMedication(scheduleID, clock string) bool {
	k := medicationKey{scheduleID: scheduleID, clock: clock}
	if _, ok := f.medications[k]; ok {
		return false
	}
	f.medications[k] = struct{}{}
	return true
}

// markAppointment records an appointment and reports whether it was new.
func (f *FiredSet) markAppointment(id string, at time.Time) bool {
	if _, ok := f.appointments[id]; ok {
		return false
	}
	f.appointments[id] = at
	return true
}

// pruneAppointments forgets appointments whose instant is not after now.
func (f *FiredSet) pruneAppointments(now time.Time) int {
	n := 0
	for id, at := range f.appointments {
		if !at.After(now) {
			delete(f.appointments, id)
			n++
		}
	}
	return n
}

// MedicationFired reports whether (scheduleID, clock) fired today.
func (f *FiredSet) MedicationFired(scheduleID, clock string) bool {
	_, ok := f.medications[medicationKey{scheduleID: scheduleID, clock: clock}]
	return ok
}

// AppointmentFired reports whether the appointment is recorded as fired.
func (f *FiredSet) AppointmentFired(id string) bool {
	_, ok := f.appointments[id]
	return ok
}

// Len returns the number of medication and appointment keys.
func (f *FiredSet) Len() (medications, appointments int) {
	return len(f.medications), len(f.appointments)
}
