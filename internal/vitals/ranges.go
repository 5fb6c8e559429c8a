package vitals

import (
	"fmt"
	"math"
	"strings"
)

// Range is the inclusive normal range of one vital sign
type Range struct {
	Min         float64
	Max         float64
	Unit        string
	DisplayName string
}

// RangeTable maps every Kind to its normal range. It is built once and never
// mutated, so it is safe for concurrent use.
type RangeTable struct {
	ranges map[Kind]Range
}

// DefaultRanges returns the ranges used when configuration does not override
// them.
func DefaultRanges() map[string]Range {
	return map[string]Range{
		string(HeartRate):        {Min: 60, Max: 100, Unit: "lpm", DisplayName: "Frecuencia Cardíaca"},
		string(SystolicPressure): {Min: 90, Max: 140, Unit: "mmHg", DisplayName: "Presión Arterial Sistólica"},
		string(OxygenSaturation): {Min: 94, Max: 100, Unit: "%", DisplayName: "Saturación de Oxígeno"},
		string(Temperature):      {Min: 36.1, Max: 37.2, Unit: "°C", DisplayName: "Temperatura Corporal"},
	}
}

// DefaultTable returns the table built from DefaultRanges.
func DefaultTable() RangeTable {
	t, err := NewRangeTable(DefaultRanges())
	if err != nil {
		panic(err)
	}
	return t
}

// NewRangeTable validates a keyed set of ranges and builds a RangeTable.
// Every kind must be present exactly once, keys must name known kinds and
// Min must not exceed Max.
func NewRangeTable(in map[string]Range) (RangeTable, error) {
	ranges := make(map[Kind]Range, len(kinds))
	for key, r := range in {
		k, err := ParseKind(key)
		if err != nil {
			return RangeTable{}, err
		}
		if _, dup := ranges[k]; dup {
			return RangeTable{}, fmt.Errorf("duplicate range for %s", k)
		}
		if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
			return RangeTable{}, fmt.Errorf("range for %s must be finite", k)
		}
		if r.Min > r.Max {
			return RangeTable{}, fmt.Errorf("range for %s has min %v greater than max %v", k, r.Min, r.Max)
		}
		if strings.TrimSpace(r.DisplayName) == "" {
			r.DisplayName = string(k)
		}
		ranges[k] = r
	}

	var missing []string
	for _, k := range kinds {
		if _, ok := ranges[k]; !ok {
			missing = append(missing, string(k))
		}
	}
	if len(missing) > 0 {
		return RangeTable{}, fmt.Errorf("missing ranges for %s", strings.Join(missing, ", "))
	}

	return RangeTable{ranges: ranges}, nil
}

// Get returns the range for a kind.
func (t RangeTable) Get(k Kind) (Range, bool) {
	r, ok := t.ranges[k]
	return r, ok
}

// Description formats a range as "{min} - {max} {unit}".
func (r Range) Description() string {
	return fmt.Sprintf("%s - %s %s", formatNumber(r.Min), formatNumber(r.Max), r.Unit)
}
