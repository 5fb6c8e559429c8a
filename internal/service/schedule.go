package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

// PrimeScheduler loads every patient's medications and upcoming
// appointments and registers them, so reminders survive a restart
func PrimeScheduler(ctx context.Context, registry ScheduleRegistry, meds MedicationRepository, appts AppointmentRepository, now time.Time, loc *time.Location, logger *zap.Logger) error {
	if loc == nil {
		loc = time.Local
	}

	allMeds, err := meds.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load medications: %w", err)
	}
	allAppts, err := appts.ListUpcomingAll(ctx, startOfDay(now, loc))
	if err != nil {
		return fmt.Errorf("failed to load appointments: %w", err)
	}

	medsByPatient := make(map[string][]model.Medication)
	for _, m := range allMeds {
		medsByPatient[m.PatientID] = append(medsByPatient[m.PatientID], m)
	}
	apptsByPatient := make(map[string][]model.Appointment)
	for _, a := range allAppts {
		apptsByPatient[a.PatientID] = append(apptsByPatient[a.PatientID], a)
	}

	for patientID, list := range medsByPatient {
		registry.SetMedications(patientID, list)
	}
	for patientID, list := range apptsByPatient {
		registry.SetAppointments(patientID, list)
	}

	logger.Info("reminder schedules loaded",
		zap.Int("medications", len(allMeds)),
		zap.Int("appointments", len(allAppts)),
		zap.Int("patients_with_medications", len(medsByPatient)),
		zap.Int("patients_with_appointments", len(apptsByPatient)),
	)
	return nil
}
