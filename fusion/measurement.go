package fusion

import (
	"fmt"
	"math"
	"strings"
)

// SensorKind identifies the sensor modality that produced a measurement
type SensorKind int

const (
	// RangeBearing sensor measures [rho, phi, rhoDot] in polar coordinates
	RangeBearing SensorKind = iota
	// Position sensor measures [x, y] in Cartesian coordinates
	Position
)

// String implements the Stringer interface.
func (k SensorKind) String() string {
	switch k {
	case RangeBearing:
		return "range_bearing"
	case Position:
		return "position"
	default:
		return fmt.Sprintf("SensorKind(%d)", int(k))
	}
}

// Dim returns the length of raw measurement vector of the sensor kind.
func (k SensorKind) Dim() int {
	switch k {
	case RangeBearing:
		return 3
	case Position:
		return 2
	default:
		return 0
	}
}

// ParseSensorKind parses sensor kind from its name or single letter tag:
// "R" or "range_bearing" for RangeBearing, "L" or "position" for Position.
func ParseSensorKind(s string) (SensorKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "radar", "range_bearing":
		return RangeBearing, nil
	case "l", "lidar", "laser", "position":
		return Position, nil
	default:
		return 0, fmt.Errorf("unknown sensor kind: %q", s)
	}
}

// Measurement is a single timestamped sensor reading
type Measurement struct {
	// Kind is the sensor modality
	Kind SensorKind
	// Timestamp is measurement time in microseconds
	Timestamp int64
	// Raw holds raw readings: [rho, phi, rhoDot] or [x, y]
	Raw []float64
}

// Validate checks that the raw reading matches its sensor kind and holds finite values.
func (m Measurement) Validate() error {
	dim := m.Kind.Dim()
	if dim == 0 {
		return fmt.Errorf("invalid sensor kind: %v", m.Kind)
	}

	if len(m.Raw) != dim {
		return fmt.Errorf("invalid %s measurement length: %d, expected %d", m.Kind, len(m.Raw), dim)
	}

	for i, v := range m.Raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid %s measurement: non-finite value at %d", m.Kind, i)
		}
	}

	return nil
}
