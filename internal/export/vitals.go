package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/vitalvision/backend/pkg/model"
	"github.com/xuri/excelize/v2"
)

const (
	vitalsSheet = "Vitals"
	alertsSheet = "Alerts"
)

// VitalsHeader is the header row of the vitals sheet
var VitalsHeader = []string{
	"Timestamp",
	"Heart Rate (bpm)",
	"Systolic Pressure (mmHg)",
	"Oxygen Saturation (%)",
	"Temperature (°C)",
}

// AlertsHeader is the header row of the alerts sheet
var AlertsHeader = []string{
	"Timestamp",
	"Vital Sign",
	"Value",
	"Normal Range",
	"Message",
	"Status",
}

// VitalsWorkbook renders a patient's readings and alerts as an xlsx file.
// Timestamps are written in loc.
func VitalsWorkbook(readings []model.VitalReading, alerts []model.Alert, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(vitalsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(alertsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	vitalRows := make([][]any, 0, len(readings))
	for _, r := range readings {
		vitalRows = append(vitalRows, []any{
			time.UnixMilli(r.Timestamp).In(loc).Format("2006-01-02 15:04:05"),
			r.HeartRate,
			r.SystolicPressure,
			r.OxygenSaturation,
			r.Temperature,
		})
	}
	if err := writeSheet(f, vitalsSheet, VitalsHeader, vitalRows, headerStyle); err != nil {
		return nil, err
	}

	alertRows := make([][]any, 0, len(alerts))
	for _, a := range alerts {
		alertRows = append(alertRows, []any{
			time.UnixMilli(a.Timestamp).In(loc).Format("2006-01-02 15:04:05"),
			a.VitalSignType,
			a.Value,
			a.NormalRangeDescription,
			a.Message,
			string(a.Status),
		})
	}
	if err := writeSheet(f, alertsSheet, AlertsHeader, alertRows, headerStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle int) error {
	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		colName, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(sheet, colName, colName, 22); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return nil
}
