package vitals

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 {
	return &v
}

func normalReading() Reading {
	return Reading{
		Timestamp:        1700000000000,
		HeartRate:        ptr(72),
		SystolicPressure: ptr(120),
		OxygenSaturation: ptr(98),
		Temperature:      ptr(36.8),
	}
}

func TestEvaluate_HighHeartRate(t *testing.T) {
	r := Reading{
		HeartRate:        ptr(110),
		SystolicPressure: ptr(120),
		OxygenSaturation: ptr(98),
		Temperature:      ptr(37.0),
	}

	alerts, err := Evaluate(r, DefaultTable())
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	a := alerts[0]
	assert.Equal(t, HeartRate, a.Kind)
	assert.Equal(t, High, a.Direction)
	assert.Equal(t, 110.0, a.Value)
	assert.Equal(t, "60 - 100 lpm", a.NormalRangeDescription)
	assert.Equal(t, StatusActive, a.Status)
	assert.Equal(t,
		"Frecuencia Cardíaca está por encima del rango normal. Valor: 110 lpm (Rango: 60 - 100 lpm)",
		a.Message,
	)
}

func TestEvaluate_LowTemperatureMessage(t *testing.T) {
	r := normalReading()
	r.Temperature = ptr(35.5)

	alerts, err := Evaluate(r, DefaultTable())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, Low, alerts[0].Direction)
	assert.Equal(t, "36.1 - 37.2 °C", alerts[0].NormalRangeDescription)
	assert.Contains(t, alerts[0].Message, "por debajo")
	assert.Contains(t, alerts[0].Message, "Valor: 35.5 °C")
}

func TestEvaluate_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		reading Reading
	}{
		{
			name: "all minimums",
			reading: Reading{
				HeartRate: ptr(60), SystolicPressure: ptr(90),
				OxygenSaturation: ptr(94), Temperature: ptr(36.1),
			},
		},
		{
			name: "all maximums",
			reading: Reading{
				HeartRate: ptr(100), SystolicPressure: ptr(140),
				OxygenSaturation: ptr(100), Temperature: ptr(37.2),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts, err := Evaluate(tt.reading, DefaultTable())
			require.NoError(t, err)
			assert.Empty(t, alerts)
		})
	}
}

func TestEvaluate_AllOutOfRangeKeepsKindOrder(t *testing.T) {
	r := Reading{
		HeartRate:        ptr(40),
		SystolicPressure: ptr(180),
		OxygenSaturation: ptr(85),
		Temperature:      ptr(39.4),
	}

	alerts, err := Evaluate(r, DefaultTable())
	require.NoError(t, err)
	require.Len(t, alerts, 4)

	got := make([]Kind, len(alerts))
	for i, a := range alerts {
		got[i] = a.Kind
	}
	assert.Equal(t, Kinds(), got)
	assert.Equal(t, []Direction{Low, High, Low, High},
		[]Direction{alerts[0].Direction, alerts[1].Direction, alerts[2].Direction, alerts[3].Direction})
}

func TestEvaluate_InvalidReading(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *Reading)
		expected []Kind
	}{
		{
			name:     "missing heart rate",
			mutate:   func(r *Reading) { r.HeartRate = nil },
			expected: []Kind{HeartRate},
		},
		{
			name:     "NaN temperature",
			mutate:   func(r *Reading) { r.Temperature = ptr(math.NaN()) },
			expected: []Kind{Temperature},
		},
		{
			name: "infinite pressure and missing saturation",
			mutate: func(r *Reading) {
				r.SystolicPressure = ptr(math.Inf(1))
				r.OxygenSaturation = nil
			},
			expected: []Kind{SystolicPressure, OxygenSaturation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := normalReading()
			tt.mutate(&r)

			alerts, err := Evaluate(r, DefaultTable())
			assert.Nil(t, alerts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidReading))

			var invalid *InvalidReadingError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.expected, invalid.Kinds)
		})
	}
}

func TestEvaluate_CustomTable(t *testing.T) {
	ranges := DefaultRanges()
	ranges[string(HeartRate)] = Range{Min: 50, Max: 120, Unit: "bpm", DisplayName: "Heart rate"}
	table, err := NewRangeTable(ranges)
	require.NoError(t, err)

	r := normalReading()
	r.HeartRate = ptr(110)

	alerts, err := Evaluate(r, table)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestNewRangeTable_Validation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(m map[string]Range)
		expectedErr string
	}{
		{
			name:        "missing kind",
			mutate:      func(m map[string]Range) { delete(m, string(Temperature)) },
			expectedErr: "missing ranges for temperature",
		},
		{
			name:        "unknown kind",
			mutate:      func(m map[string]Range) { m["glucose"] = Range{Min: 70, Max: 110} },
			expectedErr: "unknown vital sign kind",
		},
		{
			name: "min greater than max",
			mutate: func(m map[string]Range) {
				m[string(HeartRate)] = Range{Min: 100, Max: 60, Unit: "lpm"}
			},
			expectedErr: "greater than max",
		},
		{
			name: "case-folded duplicate",
			mutate: func(m map[string]Range) {
				m["heartrate"] = Range{Min: 60, Max: 100, Unit: "lpm"}
			},
			expectedErr: "duplicate range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DefaultRanges()
			tt.mutate(m)
			_, err := NewRangeTable(m)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestNewRangeTable_AcceptsLowercaseKeys(t *testing.T) {
	m := map[string]Range{}
	for k, r := range DefaultRanges() {
		m[strings.ToLower(k)] = r
	}

	table, err := NewRangeTable(m)
	require.NoError(t, err)

	r, ok := table.Get(OxygenSaturation)
	require.True(t, ok)
	assert.Equal(t, "94 - 100 %", r.Description())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("systolicPressure")
	require.NoError(t, err)
	assert.Equal(t, SystolicPressure, k)

	_, err = ParseKind("diastolicPressure")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(normalReading()))

	err := Validate(Reading{})
	var invalid *InvalidReadingError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, Kinds(), invalid.Kinds)
}
