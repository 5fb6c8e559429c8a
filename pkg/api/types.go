// Package api holds the request and response types of the VitalVision HTTP
// API and its OpenAPI document.
package api

import (
	"github.com/oapi-codegen/runtime/types"
)

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status   string  `json:"status"`
	Database string  `json:"database"`
	Service  string  `json:"service"`
	Version  string  `json:"version"`
	Error    *string `json:"error,omitempty"`
}

// ListParams defines parameters for list endpoints.
type ListParams struct {
	Limit *int `form:"limit" json:"limit,omitempty"`
}

// VitalReadingRequest defines model for VitalReadingRequest. Missing values
// are reported back as an invalid reading.
type VitalReadingRequest struct {
	Timestamp        *int64   `json:"timestamp,omitempty"`
	HeartRate        *float64 `json:"heart_rate,omitempty"`
	SystolicPressure *float64 `json:"systolic_pressure,omitempty"`
	OxygenSaturation *float64 `json:"oxygen_saturation,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
}

// ProfileRequest defines model for ProfileRequest.
type ProfileRequest struct {
	Name                  string  `json:"name" binding:"required"`
	Age                   *int    `json:"age,omitempty"`
	Sex                   *string `json:"sex,omitempty"`
	MedicalDiagnosis      *string `json:"medical_diagnosis,omitempty"`
	CurrentMedications    *string `json:"current_medications,omitempty"`
	EmergencyContactName  *string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string `json:"emergency_contact_phone,omitempty"`
}

// MedicationRequest defines model for MedicationRequest.
type MedicationRequest struct {
	Name      string   `json:"name" binding:"required"`
	Dose      string   `json:"dose" binding:"required"`
	Frequency string   `json:"frequency" binding:"required"`
	Times     []string `json:"times" binding:"required"`
}

// AppointmentRequest defines model for AppointmentRequest.
type AppointmentRequest struct {
	Date             types.Date `json:"date"`
	Time             string     `json:"time" binding:"required"`
	Type             string     `json:"type" binding:"required"`
	ProfessionalName *string    `json:"professional_name,omitempty"`
}

// RiskAssessmentRequest defines model for RiskAssessmentRequest. Without a
// reading the latest stored one is assessed.
type RiskAssessmentRequest struct {
	Reading    *VitalReadingRequest `json:"reading,omitempty"`
	Latitude   *float64             `json:"latitude,omitempty"`
	Longitude  *float64             `json:"longitude,omitempty"`
	Altitude   *float64             `json:"altitude,omitempty"`
	StepsToday *int                 `json:"steps_today,omitempty"`
}

// ReportRequest defines model for ReportRequest.
type ReportRequest struct {
	StartDate types.Date `json:"start_date"`
	EndDate   types.Date `json:"end_date"`
}

// ReportResponse defines model for ReportResponse.
type ReportResponse struct {
	Id          *types.UUID `json:"id,omitempty"`
	PatientId   string      `json:"patient_id"`
	StartDate   types.Date  `json:"start_date"`
	EndDate     types.Date  `json:"end_date"`
	DownloadUrl string      `json:"download_url"`
}
