package model

import "time"

// Role represents the role of an account
type Role string

const (
	RolePatient   Role = "patient"
	RoleCaregiver Role = "caregiver"
)

// Patient represents a patient or caregiver profile
type Patient struct {
	ID                    string    `json:"id"`
	Email                 string    `json:"email"`
	Name                  string    `json:"name"`
	Age                   *int      `json:"age,omitempty"`
	Sex                   *string   `json:"sex,omitempty"`
	MedicalDiagnosis      *string   `json:"medical_diagnosis,omitempty"`
	CurrentMedications    *string   `json:"current_medications,omitempty"`
	EmergencyContactName  *string   `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string   `json:"emergency_contact_phone,omitempty"`
	Role                  Role      `json:"role"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// VitalReading represents a stored vital signs reading
type VitalReading struct {
	ID               string    `json:"id"`
	PatientID        string    `json:"patient_id"`
	Timestamp        int64     `json:"timestamp"` // epoch milliseconds
	HeartRate        float64   `json:"heart_rate"`
	SystolicPressure float64   `json:"systolic_pressure"`
	OxygenSaturation float64   `json:"oxygen_saturation"`
	Temperature      float64   `json:"temperature"`
	CreatedAt        time.Time `json:"created_at"`
}

// AlertStatus represents the lifecycle state of an alert
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
)

// Alert represents a persisted out-of-range vital sign
type Alert struct {
	ID                     string      `json:"id"`
	PatientID              string      `json:"patient_id"`
	ReadingID              *string     `json:"reading_id,omitempty"`
	Timestamp              int64       `json:"timestamp"`
	VitalSignType          string      `json:"vital_sign_type"`
	Value                  float64     `json:"value"`
	NormalRangeDescription string      `json:"normal_range_description"`
	Message                string      `json:"message"`
	Status                 AlertStatus `json:"status"`
	AcknowledgedAt         *time.Time  `json:"acknowledged_at,omitempty"`
	CreatedAt              time.Time   `json:"created_at"`
}

// MedicationFrequency represents how often a medication is taken per day
type MedicationFrequency string

const (
	FrequencyDaily           MedicationFrequency = "daily"
	FrequencyTwiceDaily      MedicationFrequency = "twice_daily"
	FrequencyThreeTimesDaily MedicationFrequency = "three_times_daily"
)

// DosesPerDay returns the number of scheduled times the frequency requires,
// or zero for an unknown frequency.
func (f MedicationFrequency) DosesPerDay() int {
	switch f {
	case FrequencyDaily:
		return 1
	case FrequencyTwiceDaily:
		return 2
	case FrequencyThreeTimesDaily:
		return 3
	}
	return 0
}

// Medication represents a recurring medication schedule
type Medication struct {
	ID        string              `json:"id"`
	PatientID string              `json:"patient_id"`
	Name      string              `json:"name"`
	Dose      string              `json:"dose"`
	Frequency MedicationFrequency `json:"frequency"`
	Times     []string            `json:"times"` // "HH:MM", local time
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// MedicationLog represents a confirmed dose
type MedicationLog struct {
	ID             string    `json:"id"`
	MedicationID   string    `json:"medication_id"`
	PatientID      string    `json:"patient_id"`
	MedicationName string    `json:"medication_name"`
	Dose           string    `json:"dose"`
	TakenAt        time.Time `json:"taken_at"`
}

// Appointment represents a single-occurrence appointment
type Appointment struct {
	ID               string    `json:"id"`
	PatientID        string    `json:"patient_id"`
	Date             time.Time `json:"date"`
	Time             string    `json:"time"` // "HH:MM", local time
	Type             string    `json:"type"`
	ProfessionalName *string   `json:"professional_name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// NotificationKind represents the source of a notification
type NotificationKind string

const (
	NotificationKindMedication  NotificationKind = "medication"
	NotificationKindAppointment NotificationKind = "appointment"
)

// Notification represents a reminder delivered to a patient
type Notification struct {
	ID         string           `json:"id"`
	PatientID  string           `json:"patient_id"`
	Kind       NotificationKind `json:"kind"`
	ScheduleID string           `json:"schedule_id"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	AudioPath  *string          `json:"audio_path,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Report represents a generated PDF report
type Report struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	CreatedBy string    `json:"created_by"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	FilePath  string    `json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
}

// RiskAssessment represents an AI risk assessment for a reading
type RiskAssessment struct {
	RiskAssessment  string `json:"riskAssessment"`
	Recommendations string `json:"recommendations"`
}

// ProfileRisk represents an AI risk level derived only from the profile
type ProfileRisk struct {
	RiskLevel     string `json:"riskLevel"` // Bajo, Medio, Alto
	Justification string `json:"justification"`
}

// Recommendations represents personalised lifestyle advice
type Recommendations struct {
	PersonalizedSummary       string   `json:"personalizedSummary"`
	ActionableRecommendations []string `json:"actionableRecommendations"`
}

// TrendSummary represents a caregiver-facing summary of a vitals history
type TrendSummary struct {
	Summary         string   `json:"summary"`
	KeyObservations []string `json:"keyObservations"`
}
