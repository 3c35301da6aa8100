package landmark

import (
	"math"

	"github.com/paulmach/orb"
)

// Unassociated marks an observation which has not been matched to any landmark
const Unassociated = -1

// Observation is a landmark reading in vehicle frame
type Observation struct {
	// X is forward distance to the landmark
	X float64
	// Y is lateral distance to the landmark
	Y float64
	// ID is associated landmark id or Unassociated
	ID int
}

// NewObservation returns unassociated observation at x, y
func NewObservation(x, y float64) Observation {
	return Observation{X: x, Y: y, ID: Unassociated}
}

// ToMap transforms vehicle frame observation o into map frame of a vehicle
// at position (x, y) with heading theta: it rotates o by theta and
// translates it by the vehicle position.
func ToMap(o Observation, x, y, theta float64) orb.Point {
	sin, cos := math.Sincos(theta)

	return orb.Point{
		x + cos*o.X - sin*o.Y,
		y + sin*o.X + cos*o.Y,
	}
}
