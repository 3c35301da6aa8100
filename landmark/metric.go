package landmark

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Metric measures distance between two map points
type Metric int

const (
	// Euclidean is straight line distance
	Euclidean Metric = iota
	// SquaredEuclidean is squared straight line distance
	SquaredEuclidean
	// Manhattan is sum of absolute coordinate differences
	Manhattan
)

// Distance returns distance between a and b
func (m Metric) Distance(a, b orb.Point) float64 {
	switch m {
	case SquaredEuclidean:
		return planar.DistanceSquared(a, b)
	case Manhattan:
		return math.Abs(a.X()-b.X()) + math.Abs(a.Y()-b.Y())
	default:
		return planar.Distance(a, b)
	}
}

// String implements the Stringer interface.
func (m Metric) String() string {
	switch m {
	case Euclidean:
		return "euclidean"
	case SquaredEuclidean:
		return "squared_euclidean"
	case Manhattan:
		return "manhattan"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// ParseMetric returns metric with the given name.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "euclidean":
		return Euclidean, nil
	case "squared_euclidean", "sqeuclidean":
		return SquaredEuclidean, nil
	case "manhattan":
		return Manhattan, nil
	default:
		return 0, fmt.Errorf("unknown distance metric: %q", s)
	}
}
