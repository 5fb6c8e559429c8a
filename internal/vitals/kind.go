// Package vitals classifies vital sign readings against configured normal
// ranges.
package vitals

import (
	"fmt"
	"strings"
)

// Kind identifies one of the four monitored vital signs
type Kind string

const (
	HeartRate        Kind = "heartRate"
	SystolicPressure Kind = "systolicPressure"
	OxygenSaturation Kind = "oxygenSaturation"
	Temperature      Kind = "temperature"
)

var kinds = [...]Kind{HeartRate, SystolicPressure, OxygenSaturation, Temperature}

// Kinds returns every kind in evaluation order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds[:])
	return out
}

// ParseKind converts a key into a Kind. Matching ignores case since viper
// lowercases configuration keys.
func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown vital sign kind %q", s)
}

func (k Kind) String() string {
	return string(k)
}
