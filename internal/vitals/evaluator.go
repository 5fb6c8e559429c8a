package vitals

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StatusActive is the status of a freshly evaluated alert
const StatusActive = "active"

// ErrInvalidReading is matched by every *InvalidReadingError
var ErrInvalidReading = errors.New("invalid vital reading")

// InvalidReadingError lists the kinds that were missing or not finite
type InvalidReadingError struct {
	Kinds []Kind
}

func (e *InvalidReadingError) Error() string {
	names := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		names[i] = string(k)
	}
	return fmt.Sprintf("invalid vital reading: missing or non-finite %s", strings.Join(names, ", "))
}

func (e *InvalidReadingError) Is(target error) bool {
	return target == ErrInvalidReading
}

// Reading is one set of vital sign values. A nil field is a missing kind.
type Reading struct {
	Timestamp        int64
	HeartRate        *float64
	SystolicPressure *float64
	OxygenSaturation *float64
	Temperature      *float64
}

// Value returns the value recorded for a kind.
func (r Reading) Value(k Kind) *float64 {
	switch k {
	case HeartRate:
		return r.HeartRate
	case SystolicPressure:
		return r.SystolicPressure
	case OxygenSaturation:
		return r.OxygenSaturation
	case Temperature:
		return r.Temperature
	}
	return nil
}

// Direction tells on which side of the range a value fell
type Direction int

const (
	Low Direction = iota + 1
	High
)

func (d Direction) phrase() string {
	if d == Low {
		return "por debajo"
	}
	return "por encima"
}

// Alert describes one out-of-range value
type Alert struct {
	Kind                   Kind
	Direction              Direction
	Value                  float64
	NormalRangeDescription string
	Message                string
	Status                 string
}

// Evaluate returns one alert per out-of-range kind, in Kinds order. Bounds
// are inclusive. A reading with any missing or non-finite value is rejected
// as a whole.
func Evaluate(r Reading, t RangeTable) ([]Alert, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}

	alerts := []Alert{}
	for _, k := range kinds {
		rng, ok := t.Get(k)
		if !ok {
			return nil, fmt.Errorf("range table has no entry for %s", k)
		}
		v := *r.Value(k)

		var dir Direction
		switch {
		case v < rng.Min:
			dir = Low
		case v > rng.Max:
			dir = High
		default:
			continue
		}

		alerts = append(alerts, Alert{
			Kind:                   k,
			Direction:              dir,
			Value:                  v,
			NormalRangeDescription: rng.Description(),
			Message:                message(rng, dir, v),
			Status:                 StatusActive,
		})
	}
	return alerts, nil
}

// Validate returns an *InvalidReadingError naming every kind that is missing
// or not finite.
func Validate(r Reading) error {
	var invalid []Kind
	for _, k := range kinds {
		v := r.Value(k)
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			invalid = append(invalid, k)
		}
	}
	if len(invalid) > 0 {
		return &InvalidReadingError{Kinds: invalid}
	}
	return nil
}

func message(rng Range, dir Direction, v float64) string {
	return fmt.Sprintf("%s está %s del rango normal. Valor: %s %s (Rango: %s)",
		rng.DisplayName, dir.phrase(), formatNumber(v), rng.Unit, rng.Description())
}

// formatNumber prints the shortest representation, so 110 stays "110" and
// 36.1 stays "36.1".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
