package kf

import (
	"errors"
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-fusion"
	"github.com/milosgajdos/go-fusion/estimate"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDimensionMismatch is returned when matrix and vector shapes are inconsistent.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrNonFinite is returned when a step would produce NaN or Inf state.
	ErrNonFinite = errors.New("non-finite filter state")
)

// KF is Kalman Filter
type KF struct {
	// x is filter state
	x *mat.VecDense
	// p is the KF covariance matrix
	p *mat.SymDense
	// inn is innovation vector of the last update
	inn *mat.VecDense
	// k is Kalman gain of the last update
	k *mat.Dense
}

// New creates new KF from the initial condition init and returns it.
// It returns error if the initial state and covariance dimensions are invalid.
func New(init filter.InitCond) (*KF, error) {
	if init == nil || init.State() == nil || init.Cov() == nil {
		return nil, fmt.Errorf("invalid initial condition: %v", init)
	}

	nx := init.State().Len()
	if nx <= 0 {
		return nil, fmt.Errorf("invalid state dimension: %d", nx)
	}

	if n := init.Cov().SymmetricDim(); n != nx {
		return nil, fmt.Errorf("%w: state %d, covariance %d x %d", ErrDimensionMismatch, nx, n, n)
	}

	p := mat.NewSymDense(nx, nil)
	p.CopySym(init.Cov())

	return &KF{
		x:   mat.VecDenseCopyOf(init.State()),
		p:   p,
		inn: &mat.VecDense{},
		k:   &mat.Dense{},
	}, nil
}

// Predict propagates filter state using transition matrix F and process noise covariance Q:
//   x = F*x
//   P = F*P*F' + Q
// Q can be nil in which case no process noise is added.
// It returns error if the dimensions of F or Q do not match the filter state.
func (k *KF) Predict(F mat.Matrix, Q mat.Symmetric) (filter.Estimate, error) {
	nx := k.x.Len()

	if F == nil {
		return nil, fmt.Errorf("%w: nil transition matrix", ErrDimensionMismatch)
	}

	if r, c := F.Dims(); r != nx || c != nx {
		return nil, fmt.Errorf("%w: transition matrix [%d x %d], state %d", ErrDimensionMismatch, r, c, nx)
	}

	if Q != nil && Q.SymmetricDim() != nx {
		return nil, fmt.Errorf("%w: process noise %d, state %d", ErrDimensionMismatch, Q.SymmetricDim(), nx)
	}

	xNext := mat.NewVecDense(nx, nil)
	xNext.MulVec(F, k.x)

	fp := &mat.Dense{}
	fp.Mul(F, k.p)
	cov := &mat.Dense{}
	cov.Mul(fp, F.T())

	if Q != nil {
		cov.Add(cov, Q)
	}

	pNext := symmetrize(cov)
	if !isFinite(xNext, pNext) {
		return nil, fmt.Errorf("prediction: %w", ErrNonFinite)
	}

	k.x = xNext
	k.p = pNext

	return estimate.NewBaseWithCov(k.x, k.p)
}

// Update corrects filter state using measurement z, linear observation matrix H
// and measurement noise covariance R.
// It returns error if the dimensions are invalid or if the innovation covariance is singular.
func (k *KF) Update(z mat.Vector, H mat.Matrix, R mat.Symmetric) (filter.Estimate, error) {
	if H == nil {
		return nil, fmt.Errorf("%w: nil observation matrix", ErrDimensionMismatch)
	}

	return k.UpdateWith(z, NewLinear(H), R)
}

// UpdateWith corrects filter state using measurement z observed by obs with measurement noise R.
// The observation Jacobian is evaluated at the current state, so a nonlinear observer
// makes this an extended Kalman filter update.
// The filter state is left untouched if any step of the update fails.
func (k *KF) UpdateWith(z mat.Vector, obs filter.Observer, R mat.Symmetric) (filter.Estimate, error) {
	nx := k.x.Len()

	if z == nil || obs == nil {
		return nil, fmt.Errorf("invalid update: z=%v observer=%v", z, obs)
	}
	ny := z.Len()

	y, err := obs.Observe(k.x)
	if err != nil {
		return nil, fmt.Errorf("failed to observe state: %w", err)
	}

	if y.Len() != ny {
		return nil, fmt.Errorf("%w: measurement %d, expected %d", ErrDimensionMismatch, ny, y.Len())
	}

	H, err := obs.Jacobian(k.x)
	if err != nil {
		return nil, fmt.Errorf("failed to compute observation Jacobian: %w", err)
	}

	if r, c := H.Dims(); r != ny || c != nx {
		return nil, fmt.Errorf("%w: observation matrix [%d x %d], expected [%d x %d]", ErrDimensionMismatch, r, c, ny, nx)
	}

	if R == nil || R.SymmetricDim() != ny {
		return nil, fmt.Errorf("%w: measurement noise, expected %d", ErrDimensionMismatch, ny)
	}

	// P*H'
	pxy := mat.NewDense(nx, ny, nil)
	pxy.Mul(k.p, H.T())

	// H*P*H' + R
	pyy := mat.NewDense(ny, ny, nil)
	pyy.Mul(H, pxy)
	pyy.Add(pyy, R)

	pyyInv := &mat.Dense{}
	if err := pyyInv.Inverse(pyy); err != nil {
		return nil, fmt.Errorf("failed to invert innovation covariance: %w", err)
	}

	gain := &mat.Dense{}
	gain.Mul(pxy, pyyInv)

	inn := mat.VecDenseCopyOf(obs.Residual(z, y))

	corr := mat.NewVecDense(nx, nil)
	corr.MulVec(gain, inn)
	xNext := mat.NewVecDense(nx, nil)
	xNext.AddVec(k.x, corr)

	// Joseph form: (I-K*H)*P*(I-K*H)' + K*R*K'
	a := &mat.Dense{}
	a.Mul(gain, H)
	a.Sub(eye(nx), a)

	ap := &mat.Dense{}
	ap.Mul(a, k.p)
	apa := &mat.Dense{}
	apa.Mul(ap, a.T())

	kr := &mat.Dense{}
	kr.Mul(gain, R)
	krk := &mat.Dense{}
	krk.Mul(kr, gain.T())

	apa.Add(apa, krk)

	pNext := symmetrize(apa)
	if !isFinite(xNext, pNext) {
		return nil, fmt.Errorf("update: %w", ErrNonFinite)
	}

	k.x = xNext
	k.p = pNext
	k.inn = inn
	k.k = gain

	return estimate.NewBaseWithCov(k.x, k.p)
}

// State returns a copy of KF state
func (k *KF) State() mat.Vector {
	return mat.VecDenseCopyOf(k.x)
}

// SetState sets KF state to x.
// It returns error if x is nil or its dimension differs from KF state dimension.
func (k *KF) SetState(x mat.Vector) error {
	if x == nil || x.Len() != k.x.Len() {
		return fmt.Errorf("%w: invalid state vector", ErrDimensionMismatch)
	}

	k.x.CopyVec(x)

	return nil
}

// Cov returns KF covariance
func (k *KF) Cov() mat.Symmetric {
	cov := mat.NewSymDense(k.p.SymmetricDim(), nil)
	cov.CopySym(k.p)

	return cov
}

// SetCov sets KF covariance matrix to cov.
// It returns error if either cov is nil or its dimensions are not the same as KF covariance dimensions.
func (k *KF) SetCov(cov mat.Symmetric) error {
	if cov == nil {
		return fmt.Errorf("invalid covariance matrix: %v", cov)
	}

	if cov.SymmetricDim() != k.p.SymmetricDim() {
		return fmt.Errorf("%w: covariance matrix dims [%d x %d]", ErrDimensionMismatch, cov.SymmetricDim(), cov.SymmetricDim())
	}

	k.p.CopySym(cov)

	return nil
}

// Gain returns Kalman gain of the last update
func (k *KF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	if !k.k.IsEmpty() {
		gain.CloneFrom(k.k)
	}

	return gain
}

// Innovation returns innovation vector of the last update
func (k *KF) Innovation() mat.Vector {
	inn := &mat.VecDense{}
	if !k.inn.IsEmpty() {
		inn.CloneFromVec(k.inn)
	}

	return inn
}

// symmetrize stores the symmetric part of m in a new symmetric matrix
func symmetrize(m *mat.Dense) *mat.SymDense {
	n, _ := m.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}

	return s
}

func eye(n int) *mat.DiagDense {
	d := mat.NewDiagDense(n, nil)
	for i := 0; i < n; i++ {
		d.SetDiag(i, 1.0)
	}

	return d
}

func isFinite(x mat.Vector, p mat.Symmetric) bool {
	for i := 0; i < x.Len(); i++ {
		v := x.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		d := p.At(i, i)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return false
		}
	}

	return true
}
