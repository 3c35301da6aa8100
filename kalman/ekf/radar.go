// Package ekf provides the nonlinear range/bearing observation model used by
// the extended Kalman filter update.
package ekf

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultMinRange is the smallest range for which the range/bearing model is defined.
const DefaultMinRange = 1e-4

// ErrDegenerateMeasurement is returned when the state lies too close to the sensor origin
// for the range/bearing model and its Jacobian to be evaluated.
var ErrDegenerateMeasurement = errors.New("degenerate range/bearing measurement")

// RangeBearing observes planar [px, py, vx, vy] state as [rho, phi, rhoDot]:
//   rho    = sqrt(px^2 + py^2)
//   phi    = atan2(py, px)
//   rhoDot = (px*vx + py*vy) / rho
// It implements filter.Observer.
type RangeBearing struct {
	// MinRange is the degenerate range threshold
	MinRange float64
}

// NewRangeBearing creates new range/bearing observer and returns it.
// Non-positive minRange falls back to DefaultMinRange.
func NewRangeBearing(minRange float64) *RangeBearing {
	if minRange <= 0 {
		minRange = DefaultMinRange
	}

	return &RangeBearing{MinRange: minRange}
}

// Observe returns expected [rho, phi, rhoDot] measurement for state x.
// It returns ErrDegenerateMeasurement if the range of x is below MinRange.
func (rb *RangeBearing) Observe(x mat.Vector) (mat.Vector, error) {
	if x.Len() != 4 {
		return nil, fmt.Errorf("invalid state vector length: %d", x.Len())
	}

	px, py, vx, vy := x.AtVec(0), x.AtVec(1), x.AtVec(2), x.AtVec(3)
	rho, phi, rhoDot, err := rb.polar(px, py, vx, vy)
	if err != nil {
		return nil, err
	}

	return mat.NewVecDense(3, []float64{rho, phi, rhoDot}), nil
}

// Jacobian returns the 3x4 Jacobian of the range/bearing model evaluated at x.
// It returns ErrDegenerateMeasurement if the range of x is below MinRange.
func (rb *RangeBearing) Jacobian(x mat.Vector) (mat.Matrix, error) {
	if x.Len() != 4 {
		return nil, fmt.Errorf("invalid state vector length: %d", x.Len())
	}

	px, py, vx, vy := x.AtVec(0), x.AtVec(1), x.AtVec(2), x.AtVec(3)

	c1 := px*px + py*py
	c2 := math.Sqrt(c1)
	if c2 < rb.MinRange {
		return nil, fmt.Errorf("%w: range %g below %g", ErrDegenerateMeasurement, c2, rb.MinRange)
	}
	c3 := c1 * c2

	return mat.NewDense(3, 4, []float64{
		px / c2, py / c2, 0, 0,
		-py / c1, px / c1, 0, 0,
		py * (vx*py - vy*px) / c3, px * (vy*px - vx*py) / c3, px / c2, py / c2,
	}), nil
}

// Residual returns z - y with the bearing component normalized into (-pi, pi].
func (rb *RangeBearing) Residual(z, y mat.Vector) mat.Vector {
	res := mat.NewVecDense(z.Len(), nil)
	res.SubVec(z, y)
	res.SetVec(1, NormalizeAngle(res.AtVec(1)))

	return res
}

func (rb *RangeBearing) polar(px, py, vx, vy float64) (rho, phi, rhoDot float64, err error) {
	rho = math.Hypot(px, py)
	if rho < rb.MinRange {
		return 0, 0, 0, fmt.Errorf("%w: range %g below %g", ErrDegenerateMeasurement, rho, rb.MinRange)
	}

	return rho, math.Atan2(py, px), (px*vx + py*vy) / rho, nil
}

// ToPolar converts Cartesian state to [rho, phi, rhoDot].
// It returns ErrDegenerateMeasurement if the position is at the origin.
func ToPolar(px, py, vx, vy float64) (rho, phi, rhoDot float64, err error) {
	return NewRangeBearing(DefaultMinRange).polar(px, py, vx, vy)
}

// ToCartesian converts range/bearing measurement to Cartesian state [px, py, vx, vy].
// Radial velocity only carries the velocity component along the line of sight.
func ToCartesian(rho, phi, rhoDot float64) (px, py, vx, vy float64) {
	cos, sin := math.Cos(phi), math.Sin(phi)

	return rho * cos, rho * sin, rhoDot * cos, rhoDot * sin
}

// NormalizeAngle maps angle a into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return a
	}

	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}

	return a
}
