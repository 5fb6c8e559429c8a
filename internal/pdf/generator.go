package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/vitalvision/backend/pkg/model"
	"go.uber.org/zap"
)

const maxListedReadings = 20

// PDFGenerator generates medical reports for caregivers
type PDFGenerator struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewPDFGenerator creates a new PDFGenerator
func NewPDFGenerator(logger *zap.Logger) *PDFGenerator {
	return &PDFGenerator{
		logger: logger,
		now:    time.Now,
	}
}

// ReportData contains all data needed for report generation
type ReportData struct {
	PatientName  string
	DateRange    string
	Readings     []model.VitalReading
	Alerts       []model.Alert
	Medications  []model.Medication
	Appointments []model.Appointment
}

// Generate creates a PDF report from the provided data
func (g *PDFGenerator) Generate(data *ReportData) ([]byte, error) {
	g.logger.Info("generating PDF report",
		zap.String("patient_name", data.PatientName),
		zap.String("date_range", data.DateRange),
	)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	g.addTitle(pdf, tr, "Vital Signs Report", data.PatientName, data.DateRange)

	g.addVitalsSummary(pdf, tr, data.Readings)
	g.addReadings(pdf, tr, data.Readings)
	g.addAlerts(pdf, tr, data.Alerts)
	g.addMedications(pdf, tr, data.Medications)
	g.addAppointments(pdf, tr, data.Appointments)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		g.logger.Error("failed to generate PDF", zap.Error(err))
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	g.logger.Info("PDF report generated successfully",
		zap.Int("size_bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

func (g *PDFGenerator) addTitle(pdf *gofpdf.Fpdf, tr func(string) string, title, patientName, dateRange string) {
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("Patient: %s", patientName)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Period: %s", dateRange), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Generated: %s", g.now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(10)
}

func (g *PDFGenerator) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 10, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 10)
}

func (g *PDFGenerator) empty(pdf *gofpdf.Fpdf, text string) {
	pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
	pdf.Ln(5)
}

// addVitalsSummary adds averages and extremes per vital sign
func (g *PDFGenerator) addVitalsSummary(pdf *gofpdf.Fpdf, tr func(string) string, readings []model.VitalReading) {
	g.addSectionHeader(pdf, "Vital Signs Summary")

	if len(readings) == 0 {
		g.empty(pdf, "No vital signs recorded during this period.")
		return
	}

	type series struct {
		label string
		unit  string
		value func(model.VitalReading) float64
	}
	for _, s := range []series{
		{"Heart rate", "bpm", func(r model.VitalReading) float64 { return r.HeartRate }},
		{"Systolic pressure", "mmHg", func(r model.VitalReading) float64 { return r.SystolicPressure }},
		{"Oxygen saturation", "%", func(r model.VitalReading) float64 { return r.OxygenSaturation }},
		{"Temperature", "°C", func(r model.VitalReading) float64 { return r.Temperature }},
	} {
		lo, hi, total := s.value(readings[0]), s.value(readings[0]), 0.0
		for _, r := range readings {
			v := s.value(r)
			total += v
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		avg := total / float64(len(readings))
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s: average %.1f %s (min %.1f, max %.1f)", s.label, avg, s.unit, lo, hi)), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Total readings: %d", len(readings)), "", 1, "L", false, 0, "")
	pdf.Ln(5)
}

// addReadings lists the most recent readings
func (g *PDFGenerator) addReadings(pdf *gofpdf.Fpdf, tr func(string) string, readings []model.VitalReading) {
	if len(readings) == 0 {
		return
	}

	g.addSectionHeader(pdf, "Recent Readings")

	n := len(readings)
	if n > maxListedReadings {
		n = maxListedReadings
	}
	for _, r := range readings[:n] {
		at := time.UnixMilli(r.Timestamp).Format("2006-01-02 15:04")
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s: HR %.0f bpm, SBP %.0f mmHg, SpO2 %.0f %%, Temp %.1f °C",
			at, r.HeartRate, r.SystolicPressure, r.OxygenSaturation, r.Temperature)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

// addAlerts lists the alerts raised during the period
func (g *PDFGenerator) addAlerts(pdf *gofpdf.Fpdf, tr func(string) string, alerts []model.Alert) {
	g.addSectionHeader(pdf, "Alerts")

	if len(alerts) == 0 {
		g.empty(pdf, "No alerts raised during this period.")
		return
	}

	for _, a := range alerts {
		at := time.UnixMilli(a.Timestamp).Format("2006-01-02 15:04")
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s (%s)", at, a.Status), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr("  "+a.Message), "", "L", false)
		pdf.Ln(2)
	}
	pdf.Ln(5)
}

// addMedications lists the current medication schedule
func (g *PDFGenerator) addMedications(pdf *gofpdf.Fpdf, tr func(string) string, medications []model.Medication) {
	g.addSectionHeader(pdf, "Medication List")

	if len(medications) == 0 {
		g.empty(pdf, "No medications recorded.")
		return
	}

	for _, med := range medications {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, tr(med.Name), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("  Dose: %s", med.Dose)), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("  Frequency: %s", med.Frequency), "", 1, "L", false, 0, "")
		for _, t := range med.Times {
			pdf.CellFormat(0, 5, fmt.Sprintf("    - %s", t), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}
	pdf.Ln(5)
}

// addAppointments lists the appointments in the period
func (g *PDFGenerator) addAppointments(pdf *gofpdf.Fpdf, tr func(string) string, appointments []model.Appointment) {
	g.addSectionHeader(pdf, "Appointments")

	if len(appointments) == 0 {
		g.empty(pdf, "No appointments during this period.")
		return
	}

	for _, a := range appointments {
		line := fmt.Sprintf("%s %s: %s", a.Date.Format("2006-01-02"), a.Time, a.Type)
		if a.ProfessionalName != nil && *a.ProfessionalName != "" {
			line += fmt.Sprintf(" with %s", *a.ProfessionalName)
		}
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}
