package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vitalvision/backend/internal/repository"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

const (
	recommendationHistorySize = 15
	defaultTrendHistorySize   = 30

	noPatientData      = "No hay datos del paciente disponibles."
	limitedPatientData = "Perfil del paciente con información limitada."
)

// ErrInsightUnavailable is returned when the assistant could not answer
var ErrInsightUnavailable = errors.New("no se pudieron generar las recomendaciones, el asistente de IA puede estar experimentando problemas")

// Completer runs a prompt against the hosted language model
type Completer interface {
	Prompt(ctx context.Context, system, user string) (string, error)
}

// EnvironmentalData is optional context sent with a risk assessment
type EnvironmentalData struct {
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Altitude   *float64 `json:"altitude,omitempty"`
	StepsToday *int     `json:"stepsToday,omitempty"`
}

// InsightService produces AI risk assessments, recommendations and
// caregiver trend summaries
type InsightService struct {
	ai       Completer
	patients PatientRepository
	vitals   VitalRepository
	logger   *zap.Logger
}

// NewInsightService creates a new InsightService
func NewInsightService(ai Completer, patients PatientRepository, vitals VitalRepository, logger *zap.Logger) *InsightService {
	return &InsightService{
		ai:       ai,
		patients: patients,
		vitals:   vitals,
		logger:   logger,
	}
}

// DescribePatient renders the profile the way the prompts expect it
func DescribePatient(p *model.Patient) string {
	if p == nil {
		return noPatientData
	}

	name := p.Name
	if name == "" {
		name = "N/A"
	}
	base := fmt.Sprintf("Paciente: %s.", name)

	var b strings.Builder
	b.WriteString(base)
	if p.Age != nil && *p.Age > 0 {
		fmt.Fprintf(&b, " Edad: %d.", *p.Age)
	}
	if p.Sex != nil && *p.Sex != "" {
		fmt.Fprintf(&b, " Sexo: %s.", *p.Sex)
	}
	if p.MedicalDiagnosis != nil && *p.MedicalDiagnosis != "" {
		fmt.Fprintf(&b, " Diagnóstico médico: %s.", *p.MedicalDiagnosis)
	}
	if p.CurrentMedications != nil && *p.CurrentMedications != "" {
		fmt.Fprintf(&b, " Medicamentos actuales: %s.", *p.CurrentMedications)
	}

	if b.Len() == len(base) {
		return limitedPatientData
	}
	return b.String()
}

func (s *InsightService) describe(ctx context.Context, patientID string) (string, error) {
	p, err := s.patients.FindByID(ctx, patientID)
	if errors.Is(err, repository.ErrNotFound) {
		return noPatientData, nil
	}
	if err != nil {
		return "", err
	}
	return DescribePatient(p), nil
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// AssessRisk predicts early health risks from a reading, the profile and
// optional environment. When reading is nil the latest stored reading is
// used. Failures yield a fallback assessment instead of an error.
func (s *InsightService) AssessRisk(ctx context.Context, patientID string, reading *model.VitalReading, env *EnvironmentalData) *model.RiskAssessment {
	fallback := &model.RiskAssessment{
		RiskAssessment:  "Error al realizar la evaluación de riesgos detallada.",
		Recommendations: "Por favor, inténtelo de nuevo más tarde o contacte con soporte si el problema persiste.",
	}

	description, err := s.describe(ctx, patientID)
	if err != nil {
		s.logger.Error("failed to load profile for risk assessment", zap.Error(err), zap.String("patient_id", patientID))
		return fallback
	}

	if reading == nil {
		latest, err := s.vitals.FindLatest(ctx, patientID)
		switch {
		case err == nil:
			reading = latest
		case !errors.Is(err, repository.ErrNotFound):
			s.logger.Warn("failed to load latest reading for risk assessment", zap.Error(err))
		}
	}

	var user strings.Builder
	if reading != nil {
		fmt.Fprintf(&user, "Signos vitales:\nFrecuencia cardíaca: %s lpm\nPresión sistólica: %s mmHg\nSaturación de oxígeno: %s %%\nTemperatura: %s °C\n",
			number(reading.HeartRate), number(reading.SystolicPressure), number(reading.OxygenSaturation), number(reading.Temperature))
	} else {
		user.WriteString("No se proporcionaron signos vitales actuales. Basa la evaluación en la descripción del paciente y el contexto ambiental.\n")
	}
	fmt.Fprintf(&user, "\nDescripción del paciente: %s\n", description)
	if env != nil {
		user.WriteString("\nContexto ambiental:\n")
		if env.Latitude != nil {
			fmt.Fprintf(&user, "Latitud: %s\n", number(*env.Latitude))
		}
		if env.Longitude != nil {
			fmt.Fprintf(&user, "Longitud: %s\n", number(*env.Longitude))
		}
		if env.Altitude != nil {
			fmt.Fprintf(&user, "Altitud actual: %s metros sobre el nivel del mar (considerar mal de altura por encima de 2500 m).\n", number(*env.Altitude))
		}
		if env.StepsToday != nil {
			fmt.Fprintf(&user, "Pasos hoy: %d (considerar fatiga si es muy alto).\n", *env.StepsToday)
		}
	}

	var out model.RiskAssessment
	if err := s.ask(ctx, riskAssessmentPrompt, user.String(), &out); err != nil {
		s.logger.Error("risk assessment failed", zap.Error(err), zap.String("patient_id", patientID))
		return fallback
	}
	if out.RiskAssessment == "" || out.Recommendations == "" {
		s.logger.Warn("incomplete risk assessment", zap.String("patient_id", patientID))
		return fallback
	}

	return &out
}

// ProfileRisk classifies the initial risk level (Bajo, Medio, Alto) from
// the profile alone
func (s *InsightService) ProfileRisk(ctx context.Context, patientID string) (*model.ProfileRisk, error) {
	description, err := s.describe(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if description == noPatientData || description == limitedPatientData {
		return &model.ProfileRisk{
			RiskLevel:     "Bajo",
			Justification: "No hay suficiente información en el perfil para una evaluación de riesgo inicial detallada.",
		}, nil
	}

	var out model.ProfileRisk
	if err := s.ask(ctx, profileRiskPrompt, "Perfil del paciente:\n"+description, &out); err != nil {
		s.logger.Error("profile risk assessment failed", zap.Error(err), zap.String("patient_id", patientID))
		return &model.ProfileRisk{
			RiskLevel:     "Medio",
			Justification: "Error al procesar la evaluación de riesgo del perfil. Inténtelo más tarde.",
		}, nil
	}

	out.RiskLevel = normalizeRiskLevel(out.RiskLevel)
	return &out, nil
}

func normalizeRiskLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "bajo", "low":
		return "Bajo"
	case "alto", "high":
		return "Alto"
	default:
		return "Medio"
	}
}

func writeHistory(b *strings.Builder, readings []model.VitalReading) {
	for _, r := range readings {
		fmt.Fprintf(b, "- Marca de tiempo: %d, Frecuencia cardíaca: %s lpm, Presión sistólica: %s mmHg, Saturación O₂: %s %%, Temp: %s °C\n",
			r.Timestamp, number(r.HeartRate), number(r.SystolicPressure), number(r.OxygenSaturation), number(r.Temperature))
	}
}

// Recommendations produces personalised advice from the last readings.
// Unlike the risk assessment, failures are returned.
func (s *InsightService) Recommendations(ctx context.Context, patientID string) (*model.Recommendations, error) {
	history, err := s.vitals.ListRecent(ctx, patientID, recommendationHistorySize)
	if err != nil {
		return nil, fmt.Errorf("failed to load vitals history: %w", err)
	}

	if len(history) == 0 {
		return &model.Recommendations{
			PersonalizedSummary: "No he podido generar un resumen porque no tienes signos vitales registrados todavía.",
			ActionableRecommendations: []string{
				"Registra tus signos vitales por primera vez para obtener recomendaciones personalizadas.",
				"Asegúrate de que tu perfil de salud esté completo y actualizado para recibir los mejores consejos.",
			},
		}, nil
	}

	description, err := s.describe(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Perfil del usuario: %s\n\nHistorial de signos vitales (del más reciente al más antiguo):\n", description)
	writeHistory(&user, history)

	var out model.Recommendations
	if err := s.ask(ctx, recommendationsPrompt, user.String(), &out); err != nil {
		s.logger.Error("recommendations failed", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("%w: %w", ErrInsightUnavailable, err)
	}
	if out.ActionableRecommendations == nil {
		out.ActionableRecommendations = []string{}
	}

	return &out, nil
}

// TrendSummary produces a technical summary of a patient's history for a
// caregiver
func (s *InsightService) TrendSummary(ctx context.Context, patientID string, limit int) (*model.TrendSummary, error) {
	history, err := s.vitals.ListRecent(ctx, patientID, normalizeLimit(limit, defaultTrendHistorySize, maxListLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to load vitals history: %w", err)
	}

	if len(history) == 0 {
		return &model.TrendSummary{
			Summary:         "No vital signs data was provided for analysis. Unable to generate a summary.",
			KeyObservations: []string{"No data available."},
		}, nil
	}

	var user strings.Builder
	user.WriteString("Datos de signos vitales (más recientes primero):\n")
	writeHistory(&user, history)

	var out model.TrendSummary
	if err := s.ask(ctx, trendSummaryPrompt, user.String(), &out); err != nil {
		s.logger.Error("trend summary failed", zap.Error(err), zap.String("patient_id", patientID))
		return nil, fmt.Errorf("%w: %w", ErrInsightUnavailable, err)
	}
	if out.KeyObservations == nil {
		out.KeyObservations = []string{}
	}

	return &out, nil
}

// ask runs a prompt and decodes the JSON reply into out
func (s *InsightService) ask(ctx context.Context, system, user string, out any) error {
	response, err := s.ai.Prompt(ctx, system, user)
	if err != nil {
		return err
	}
	if err := parseJSONReply(response, out); err != nil {
		s.logger.Error("failed to parse assistant response", zap.Error(err), zap.String("response", response))
		return err
	}
	return nil
}

// parseJSONReply strips an optional markdown fence and decodes the JSON
func parseJSONReply(response string, out any) error {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	if err := json.Unmarshal([]byte(response), out); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

const riskAssessmentPrompt = `Eres un asistente de salud que analiza signos vitales, historial médico y contexto ambiental para predecir riesgos de salud tempranos y sugerir medidas proactivas.
Presta especial atención a los riesgos asociados a la gran altitud (por ejemplo, Huancayo, Perú, a unos 3250 m) y a la fatiga extrema.

Con toda la información disponible, responde ÚNICAMENTE con JSON válido:
{
  "riskAssessment": "evaluación concisa de los riesgos; menciona explícitamente 'fatiga extrema' o 'mal de altura' si los datos lo sugieren",
  "recommendations": "recomendaciones prácticas; si sospechas mal de altura o fatiga extrema incluye 'Detener actividad física y descansar inmediatamente.'"
}
Si no identificas riesgos concretos, ofrece consejos generales de bienestar.`

const profileRiskPrompt = `Eres un evaluador de riesgos de salud. Analiza el perfil del paciente y determina un nivel de riesgo de salud inicial (Bajo, Medio o Alto).
No consideres signos vitales actuales ni datos ambientales, solo el perfil (edad, sexo, diagnósticos médicos, medicamentos).

Responde ÚNICAMENTE con JSON válido:
{
  "riskLevel": "Bajo | Medio | Alto",
  "justification": "justificación concisa (1-2 frases) con los factores clave del perfil"
}`

const recommendationsPrompt = `Eres un asistente de salud solidario y alentador para usuarios, algunos con discapacidad visual. Proporciona recomendaciones de salud claras, sencillas y prácticas, NO diagnósticos médicos.

Analiza el perfil del usuario y su historial reciente de signos vitales y responde ÚNICAMENTE con JSON válido:
{
  "personalizedSummary": "resumen breve y alentador de sus tendencias recientes, hablándole de tú",
  "actionableRecommendations": ["3 a 4 recomendaciones claras, no técnicas y prácticas"]
}
Si observas tendencias preocupantes, una recomendación DEBE ser consultar a tu médico o profesional de la salud para una revisión.`

const trendSummaryPrompt = `Eres un analista experto de datos de salud. Redacta un resumen técnico del historial de signos vitales de un paciente para su cuidador o médico.

Responde ÚNICAMENTE con JSON válido:
{
  "summary": "resumen técnico conciso (2-3 párrafos) con patrones, estabilidad, fluctuaciones notables o anomalías, correlacionando lecturas inusuales cuando sea posible",
  "keyObservations": ["3 a 5 observaciones clave"]
}`
