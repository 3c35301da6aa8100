package kf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Linear is a linear observer: y = H*x
type Linear struct {
	// H is observation matrix
	H mat.Matrix
}

// NewLinear creates new linear observer with observation matrix H and returns it.
func NewLinear(H mat.Matrix) *Linear {
	return &Linear{H: H}
}

// Observe returns H*x.
// It returns error if the number of columns of H does not match the length of x.
func (l *Linear) Observe(x mat.Vector) (mat.Vector, error) {
	r, c := l.H.Dims()
	if c != x.Len() {
		return nil, fmt.Errorf("%w: observation matrix [%d x %d], state %d", ErrDimensionMismatch, r, c, x.Len())
	}

	y := mat.NewVecDense(r, nil)
	y.MulVec(l.H, x)

	return y, nil
}

// Jacobian returns H: linear observation is its own Jacobian.
func (l *Linear) Jacobian(x mat.Vector) (mat.Matrix, error) {
	return l.H, nil
}

// Residual returns z - y
func (l *Linear) Residual(z, y mat.Vector) mat.Vector {
	res := mat.NewVecDense(z.Len(), nil)
	res.SubVec(z, y)

	return res
}
