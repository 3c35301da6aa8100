// Package sim simulates ground truth and noisy sensor readings for both filters.
package sim

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-fusion"
	"github.com/milosgajdos/go-fusion/fusion"
	"github.com/milosgajdos/go-fusion/kalman/ekf"
	"github.com/milosgajdos/go-fusion/model"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Sample is a simulated measurement with the ground truth state at its time
type Sample struct {
	// Measurement is noisy sensor reading
	Measurement fusion.Measurement
	// Truth is ground truth state [px, py, vx, vy]
	Truth *mat.VecDense
}

// Target simulates a single object moving with nearly constant velocity
// observed by position and range/bearing sensors.
type Target struct {
	// model is target motion model
	model *model.ConstantVelocity
	// x is ground truth state
	x *mat.VecDense
	// t is current time in microseconds
	t int64
	// accel is acceleration noise
	accel filter.Noise
	// pos is position sensor noise
	pos filter.Noise
	// rb is range/bearing sensor noise
	rb filter.Noise
}

// NewTarget creates new Target starting in state x0 and returns it.
// Acceleration noise follows the variances of cv, sensor readings are corrupted
// by zero mean noise with covariances posNoise and rbNoise. All noise is drawn
// from sources derived from seed.
// It returns error if x0 or the noise covariances have invalid dimensions.
func NewTarget(x0 mat.Vector, cv *model.ConstantVelocity, posNoise, rbNoise mat.Symmetric, seed uint64) (*Target, error) {
	if x0 == nil || x0.Len() != model.StateDim {
		return nil, fmt.Errorf("invalid initial state: %v", x0)
	}

	if cv == nil {
		return nil, fmt.Errorf("invalid motion model: %v", cv)
	}

	if posNoise == nil || posNoise.SymmetricDim() != fusion.Position.Dim() {
		return nil, fmt.Errorf("invalid position noise covariance: %v", posNoise)
	}

	if rbNoise == nil || rbNoise.SymmetricDim() != fusion.RangeBearing.Dim() {
		return nil, fmt.Errorf("invalid range/bearing noise covariance: %v", rbNoise)
	}

	ax, ay := cv.NoiseVariances()
	accel, err := newNoise(diag(ax, ay), rand.NewSource(seed))
	if err != nil {
		return nil, fmt.Errorf("failed to create acceleration noise: %w", err)
	}

	pos, err := newNoise(posNoise, rand.NewSource(seed+1))
	if err != nil {
		return nil, fmt.Errorf("failed to create position noise: %w", err)
	}

	rb, err := newNoise(rbNoise, rand.NewSource(seed+2))
	if err != nil {
		return nil, fmt.Errorf("failed to create range/bearing noise: %w", err)
	}

	return &Target{
		model: cv,
		x:     mat.VecDenseCopyOf(x0),
		accel: accel,
		pos:   pos,
		rb:    rb,
	}, nil
}

// Step advances the target by dt seconds and returns its new state.
// Random acceleration drawn for the step perturbs both position and velocity.
func (s *Target) Step(dt float64) (mat.Vector, error) {
	x, err := s.model.Propagate(s.x, dt)
	if err != nil {
		return nil, err
	}

	a := s.accel.Sample()
	ax, ay := a.AtVec(0), a.AtVec(1)

	next := mat.NewVecDense(model.StateDim, []float64{
		x.AtVec(0) + dt*dt/2*ax,
		x.AtVec(1) + dt*dt/2*ay,
		x.AtVec(2) + dt*ax,
		x.AtVec(3) + dt*ay,
	})

	s.x = next
	s.t += int64(math.Round(dt * 1e6))

	return s.Truth(), nil
}

// Truth returns ground truth state
func (s *Target) Truth() *mat.VecDense {
	return mat.VecDenseCopyOf(s.x)
}

// Timestamp returns current simulation time in microseconds
func (s *Target) Timestamp() int64 {
	return s.t
}

// Measure returns noisy reading of the current state by sensor kind.
// It returns error if the target is too close to the sensor for a range/bearing reading.
func (s *Target) Measure(kind fusion.SensorKind) (fusion.Measurement, error) {
	px, py, vx, vy := s.x.AtVec(0), s.x.AtVec(1), s.x.AtVec(2), s.x.AtVec(3)

	switch kind {
	case fusion.Position:
		n := s.pos.Sample()
		return fusion.Measurement{
			Kind:      kind,
			Timestamp: s.t,
			Raw:       []float64{px + n.AtVec(0), py + n.AtVec(1)},
		}, nil
	case fusion.RangeBearing:
		rho, phi, rhoDot, err := ekf.ToPolar(px, py, vx, vy)
		if err != nil {
			return fusion.Measurement{}, err
		}
		n := s.rb.Sample()
		return fusion.Measurement{
			Kind:      kind,
			Timestamp: s.t,
			Raw:       []float64{rho + n.AtVec(0), ekf.NormalizeAngle(phi + n.AtVec(1)), rhoDot + n.AtVec(2)},
		}, nil
	default:
		return fusion.Measurement{}, fmt.Errorf("invalid sensor kind: %v", kind)
	}
}

// Run simulates n measurements taken every dt seconds alternating range/bearing
// and position sensors, starting with range/bearing at the current time.
func (s *Target) Run(n int, dt float64) ([]Sample, error) {
	if n < 0 || dt < 0 {
		return nil, fmt.Errorf("invalid simulation length %d or time step %v", n, dt)
	}

	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			if _, err := s.Step(dt); err != nil {
				return nil, err
			}
		}

		kind := fusion.RangeBearing
		if i%2 == 1 {
			kind = fusion.Position
		}

		m, err := s.Measure(kind)
		if err != nil {
			return nil, fmt.Errorf("measurement %d failed: %w", i, err)
		}

		samples = append(samples, Sample{Measurement: m, Truth: s.Truth()})
	}

	return samples, nil
}
