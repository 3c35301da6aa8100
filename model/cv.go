package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// StateDim is the dimension of the constant velocity state [px, py, vx, vy]
const StateDim = 4

// ConstantVelocity is a planar constant velocity motion model driven by
// white acceleration noise. Its state is [px, py, vx, vy].
type ConstantVelocity struct {
	// noiseAx is acceleration noise variance along x
	noiseAx float64
	// noiseAy is acceleration noise variance along y
	noiseAy float64
}

// NewConstantVelocity creates new constant velocity model with acceleration
// noise variances noiseAx and noiseAy and returns it.
// It returns error if either of the variances is negative or not finite.
func NewConstantVelocity(noiseAx, noiseAy float64) (*ConstantVelocity, error) {
	for _, v := range []float64{noiseAx, noiseAy} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid acceleration noise variance: %v", v)
		}
	}

	return &ConstantVelocity{
		noiseAx: noiseAx,
		noiseAy: noiseAy,
	}, nil
}

// Transition returns state transition matrix for time step dt given in seconds:
//   [1 0 dt  0]
//   [0 1  0 dt]
//   [0 0  1  0]
//   [0 0  0  1]
func (m *ConstantVelocity) Transition(dt float64) *mat.Dense {
	F := mat.NewDense(StateDim, StateDim, nil)
	for i := 0; i < StateDim; i++ {
		F.Set(i, i, 1.0)
	}
	F.Set(0, 2, dt)
	F.Set(1, 3, dt)

	return F
}

// ProcessNoise returns process noise covariance for time step dt given in seconds.
// Acceleration is modelled as white noise constant over dt, which yields
// dt^4/4, dt^3/2 and dt^2 terms scaled by the per-axis acceleration variance.
func (m *ConstantVelocity) ProcessNoise(dt float64) *mat.SymDense {
	dt2 := dt * dt
	dt3 := dt2 * dt
	dt4 := dt3 * dt

	Q := mat.NewSymDense(StateDim, nil)
	Q.SetSym(0, 0, dt4/4*m.noiseAx)
	Q.SetSym(0, 2, dt3/2*m.noiseAx)
	Q.SetSym(2, 2, dt2*m.noiseAx)
	Q.SetSym(1, 1, dt4/4*m.noiseAy)
	Q.SetSym(1, 3, dt3/2*m.noiseAy)
	Q.SetSym(3, 3, dt2*m.noiseAy)

	return Q
}

// Propagate returns state x advanced by dt seconds without noise.
func (m *ConstantVelocity) Propagate(x mat.Vector, dt float64) (mat.Vector, error) {
	if x.Len() != StateDim {
		return nil, fmt.Errorf("invalid state vector length: %d", x.Len())
	}

	out := mat.NewVecDense(StateDim, nil)
	out.MulVec(m.Transition(dt), x)

	return out, nil
}

// NoiseVariances returns per-axis acceleration noise variances
func (m *ConstantVelocity) NoiseVariances() (ax, ay float64) {
	return m.noiseAx, m.noiseAy
}
