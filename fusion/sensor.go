package fusion

import (
	"fmt"

	filter "github.com/milosgajdos/go-fusion"
	"github.com/milosgajdos/go-fusion/kalman"
	"github.com/milosgajdos/go-fusion/kalman/ekf"
	"gonum.org/v1/gonum/mat"
)

// Sensor is a measurement modality of the fusion engine
type Sensor interface {
	// Kind returns sensor kind
	Kind() SensorKind
	// Init returns initial [px, py, vx, vy] state from the first raw reading
	Init(raw []float64) mat.Vector
	// Update corrects filter state with raw reading
	Update(f kalman.Kalman, raw []float64) (filter.Estimate, error)
}

// PositionSensor observes position directly through a linear model
type PositionSensor struct {
	// H is observation matrix
	H *mat.Dense
	// R is measurement noise covariance
	R *mat.SymDense
}

// NewPositionSensor creates new position sensor with measurement noise r and returns it.
// It returns error if r is not 2x2.
func NewPositionSensor(r mat.Symmetric) (*PositionSensor, error) {
	if r == nil || r.SymmetricDim() != 2 {
		return nil, fmt.Errorf("invalid position noise covariance: %v", r)
	}

	R := mat.NewSymDense(2, nil)
	R.CopySym(r)

	H := mat.NewDense(2, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
	})

	return &PositionSensor{H: H, R: R}, nil
}

// Kind returns Position
func (s *PositionSensor) Kind() SensorKind { return Position }

// Init returns state at the measured position with zero velocity
func (s *PositionSensor) Init(raw []float64) mat.Vector {
	return mat.NewVecDense(4, []float64{raw[0], raw[1], 0, 0})
}

// Update runs linear Kalman update with the measured position
func (s *PositionSensor) Update(f kalman.Kalman, raw []float64) (filter.Estimate, error) {
	z := mat.NewVecDense(2, []float64{raw[0], raw[1]})

	return f.Update(z, s.H, s.R)
}

// RangeBearingSensor observes state through the nonlinear range/bearing model
type RangeBearingSensor struct {
	// obs is range/bearing observer
	obs *ekf.RangeBearing
	// R is measurement noise covariance
	R *mat.SymDense
}

// NewRangeBearingSensor creates new range/bearing sensor with measurement noise r
// and degenerate range threshold minRange and returns it.
// It returns error if r is not 3x3.
func NewRangeBearingSensor(r mat.Symmetric, minRange float64) (*RangeBearingSensor, error) {
	if r == nil || r.SymmetricDim() != 3 {
		return nil, fmt.Errorf("invalid range/bearing noise covariance: %v", r)
	}

	R := mat.NewSymDense(3, nil)
	R.CopySym(r)

	return &RangeBearingSensor{
		obs: ekf.NewRangeBearing(minRange),
		R:   R,
	}, nil
}

// Kind returns RangeBearing
func (s *RangeBearingSensor) Kind() SensorKind { return RangeBearing }

// Init converts polar reading to Cartesian position.
// Velocity is not observable from a single reading so it starts at zero.
func (s *RangeBearingSensor) Init(raw []float64) mat.Vector {
	px, py, _, _ := ekf.ToCartesian(raw[0], raw[1], raw[2])

	return mat.NewVecDense(4, []float64{px, py, 0, 0})
}

// Update runs extended Kalman update linearized at the current state
func (s *RangeBearingSensor) Update(f kalman.Kalman, raw []float64) (filter.Estimate, error) {
	z := mat.NewVecDense(3, []float64{raw[0], raw[1], raw[2]})

	return f.UpdateWith(z, s.obs, s.R)
}
