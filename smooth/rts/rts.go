package rts

import (
	"fmt"

	filter "github.com/milosgajdos/go-fusion"
	"github.com/milosgajdos/go-fusion/estimate"
	"github.com/milosgajdos/go-fusion/model"
	"gonum.org/v1/gonum/mat"
)

// RTS is Rauch-Tung-Striebel smoother
type RTS struct {
	// m is system model
	m *model.ConstantVelocity
}

// New creates new RTS for estimates produced with model m and returns it.
// It returns error if m is nil.
func New(m *model.ConstantVelocity) (*RTS, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid model: %v", m)
	}

	return &RTS{
		m: m,
	}, nil
}

// Smooth implements Rauch-Tung-Striebel smoothing algorithm.
// It uses filtered estimates est recorded at timestamps ts to compute smoothed
// estimates and returns them. The last smoothed estimate equals the last filtered one.
// It returns error if est and ts are empty or of different length, if ts is not
// ordered or if smoothing could not be computed.
func (s *RTS) Smooth(est []filter.Estimate, ts []int64) ([]filter.Estimate, error) {
	if len(est) == 0 {
		return nil, fmt.Errorf("invalid estimates size: %d", len(est))
	}

	if len(ts) != len(est) {
		return nil, fmt.Errorf("invalid timestamps size: %d, expected %d", len(ts), len(est))
	}

	for i := range est {
		if est[i] == nil || est[i].Val().Len() != model.StateDim || est[i].Cov().SymmetricDim() != model.StateDim {
			return nil, fmt.Errorf("invalid estimate %d", i)
		}
		if i > 0 && ts[i] < ts[i-1] {
			return nil, fmt.Errorf("timestamp %d out of order: %d < %d", i, ts[i], ts[i-1])
		}
	}

	sx := make([]filter.Estimate, len(est))

	n := len(est) - 1
	e, err := estimate.NewBaseWithCov(est[n].Val(), est[n].Cov())
	if err != nil {
		return nil, err
	}
	sx[n] = e

	for i := n - 1; i >= 0; i-- {
		dt := float64(ts[i+1]-ts[i]) / 1e6
		F := s.m.Transition(dt)

		// propagate filtered state to the next step
		xk1 := &mat.VecDense{}
		xk1.MulVec(F, est[i].Val())

		// propagate covariance matrix to the next step
		pk1 := &mat.Dense{}
		pk1.Mul(F, est[i].Cov())
		pk1.Mul(pk1, F.T())
		pk1.Add(pk1, s.m.ProcessNoise(dt))

		// calculate smoothing matrix
		c := &mat.Dense{}
		// Pk*Fk'
		c.Mul(est[i].Cov(), F.T())
		// P_(k+1)^-1 inverse
		pinv := &mat.Dense{}
		if err := pinv.Inverse(pk1); err != nil {
			return nil, fmt.Errorf("failed to invert predicted covariance at %d: %w", i, err)
		}
		// Pk*Fk'* P_(k+1)^-1
		c.Mul(c, pinv)

		// smooth the state
		diff := &mat.VecDense{}
		diff.SubVec(e.Val(), xk1)
		// c*x_sub
		x := &mat.VecDense{}
		x.MulVec(c, diff)
		// xk + Ck*x_sub
		x.AddVec(est[i].Val(), x)

		// smooth covariance
		cov := &mat.Dense{}
		cov.Sub(e.Cov(), pk1)
		pk := &mat.Dense{}
		// Ck*P_sub
		pk.Mul(c, cov)
		// Ck*P_sub*Ck'
		pk.Mul(pk, c.T())
		// Pk + Ck*P_sub*Ck'
		pk.Add(est[i].Cov(), pk)

		r, _ := pk.Dims()
		pSmooth := mat.NewSymDense(r, nil)
		for j := 0; j < r; j++ {
			for k := j; k < r; k++ {
				pSmooth.SetSym(j, k, (pk.At(j, k)+pk.At(k, j))/2)
			}
		}

		e, err = estimate.NewBaseWithCov(x, pSmooth)
		if err != nil {
			return nil, err
		}
		sx[i] = e
	}

	return sx, nil
}
