package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestInitCond(t *testing.T) {
	assert := assert.New(t)

	state := mat.NewVecDense(2, []float64{1.0, 3.0})
	cov := mat.NewSymDense(2, []float64{0.25, 0, 0, 0.25})

	ic := NewInitCond(state, cov)

	s := ic.State()
	for i := 0; i < state.Len(); i++ {
		assert.Equal(state.AtVec(i), s.AtVec(i))
	}

	c := ic.Cov()
	rows, cols := c.Dims()
	for r := 0; r < rows; r++ {
		for k := 0; k < cols; k++ {
			assert.Equal(cov.At(r, k), c.At(r, k))
		}
	}

	// mutating the source does not leak into the initial condition
	state.SetVec(0, 42)
	assert.Equal(1.0, ic.State().AtVec(0))
}

func TestNewConstantVelocity(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		ax, ay float64
		ok     bool
	}{
		{4.5, 4.5, true},
		{0, 0, true},
		{-1, 4.5, false},
		{4.5, math.NaN(), false},
		{math.Inf(1), 1, false},
	} {
		m, err := NewConstantVelocity(test.ax, test.ay)
		if test.ok {
			assert.NoError(err)
			assert.NotNil(m)
			continue
		}
		assert.Error(err)
		assert.Nil(m)
	}
}

func TestTransition(t *testing.T) {
	assert := assert.New(t)

	m, err := NewConstantVelocity(9, 9)
	assert.NoError(err)

	F := m.Transition(0.1)
	exp := mat.NewDense(4, 4, []float64{
		1, 0, 0.1, 0,
		0, 1, 0, 0.1,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	assert.True(mat.Equal(exp, F))

	// zero time step is identity
	F = m.Transition(0)
	assert.True(mat.Equal(eye4(), F))
}

func TestProcessNoise(t *testing.T) {
	assert := assert.New(t)

	m, err := NewConstantVelocity(4, 9)
	assert.NoError(err)

	dt := 2.0
	Q := m.ProcessNoise(dt)
	exp := mat.NewSymDense(4, []float64{
		4 * 4, 0, 4 * 4, 0,
		0, 4 * 9, 0, 4 * 9,
		4 * 4, 0, 4 * 4, 0,
		0, 4 * 9, 0, 4 * 9,
	})
	assert.True(mat.EqualApprox(exp, Q, 1e-12))

	Q = m.ProcessNoise(0)
	assert.True(mat.Equal(mat.NewSymDense(4, nil), Q))
}

func TestPropagate(t *testing.T) {
	assert := assert.New(t)

	m, err := NewConstantVelocity(0, 0)
	assert.NoError(err)

	x, err := m.Propagate(mat.NewVecDense(4, []float64{1, 2, 3, -4}), 0.5)
	assert.NoError(err)
	assert.InDeltaSlice([]float64{2.5, 0, 3, -4}, mat.Col(nil, 0, x), 1e-12)

	x, err = m.Propagate(mat.NewVecDense(2, nil), 1)
	assert.Error(err)
	assert.Nil(x)
}

func eye4() *mat.Dense {
	e := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		e.Set(i, i, 1)
	}
	return e
}
