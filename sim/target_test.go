package sim

import (
	"math"
	"testing"

	"github.com/milosgajdos/go-fusion/fusion"
	"github.com/milosgajdos/go-fusion/kalman/ekf"
	"github.com/milosgajdos/go-fusion/model"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func newTestTarget(t *testing.T, ax, ay float64, pos, rb *mat.SymDense) *Target {
	cv, err := model.NewConstantVelocity(ax, ay)
	if err != nil {
		t.Fatalf("failed to create model: %v", err)
	}

	x0 := mat.NewVecDense(4, []float64{3, 4, 1, -1})
	target, err := NewTarget(x0, cv, pos, rb, 1)
	if err != nil {
		t.Fatalf("failed to create target: %v", err)
	}

	return target
}

func TestNewTarget(t *testing.T) {
	assert := assert.New(t)

	cv, err := model.NewConstantVelocity(1, 1)
	assert.NoError(err)
	x0 := mat.NewVecDense(4, nil)
	pos := mat.NewSymDense(2, nil)
	rb := mat.NewSymDense(3, nil)

	target, err := NewTarget(x0, cv, pos, rb, 1)
	assert.NoError(err)
	assert.NotNil(target)

	for _, test := range []struct {
		x0  mat.Vector
		cv  *model.ConstantVelocity
		pos mat.Symmetric
		rb  mat.Symmetric
	}{
		{mat.NewVecDense(2, nil), cv, pos, rb},
		{x0, nil, pos, rb},
		{x0, cv, rb, rb},
		{x0, cv, pos, pos},
		{x0, cv, pos, mat.NewSymDense(3, []float64{1, 2, 0, 2, 1, 0, 0, 0, 1})},
	} {
		target, err := NewTarget(test.x0, test.cv, test.pos, test.rb, 1)
		assert.Nil(target)
		assert.Error(err)
	}
}

func TestTargetZeroVarianceAxis(t *testing.T) {
	assert := assert.New(t)

	pos := mat.NewSymDense(2, []float64{0.01, 0, 0, 0})
	rb := mat.NewSymDense(3, []float64{0.01, 0, 0, 0, 0, 0, 0, 0, 0.01})
	target := newTestTarget(t, 1, 0, pos, rb)

	for i := 0; i < 20; i++ {
		m, err := target.Measure(fusion.Position)
		assert.NoError(err)
		assert.Equal(target.Truth().AtVec(1), m.Raw[1])

		m, err = target.Measure(fusion.RangeBearing)
		assert.NoError(err)
		_, phi, _, err := ekf.ToPolar(target.Truth().AtVec(0), target.Truth().AtVec(1), 0, 0)
		assert.NoError(err)
		assert.InDelta(phi, m.Raw[1], 1e-12)

		_, err = target.Step(0.1)
		assert.NoError(err)
	}
}

func TestTargetNoiseless(t *testing.T) {
	assert := assert.New(t)

	target := newTestTarget(t, 0, 0, mat.NewSymDense(2, nil), mat.NewSymDense(3, nil))

	x, err := target.Step(0.5)
	assert.NoError(err)
	assert.InDeltaSlice([]float64{3.5, 3.5, 1, -1}, mat.Col(nil, 0, x), 1e-12)
	assert.Equal(int64(500000), target.Timestamp())

	m, err := target.Measure(fusion.Position)
	assert.NoError(err)
	assert.Equal(fusion.Position, m.Kind)
	assert.Equal(int64(500000), m.Timestamp)
	assert.InDeltaSlice([]float64{3.5, 3.5}, m.Raw, 1e-12)

	m, err = target.Measure(fusion.RangeBearing)
	assert.NoError(err)
	assert.NoError(m.Validate())
	assert.InDelta(math.Hypot(3.5, 3.5), m.Raw[0], 1e-12)
	assert.InDelta(math.Pi/4, m.Raw[1], 1e-12)
	assert.InDelta(0, m.Raw[2], 1e-12)

	_, err = target.Measure(fusion.SensorKind(9))
	assert.Error(err)
}

func TestTargetRun(t *testing.T) {
	assert := assert.New(t)

	target := newTestTarget(t, 0.5, 0.5, fusion.DefaultConfig().PositionNoise, fusion.DefaultConfig().RangeBearingNoise)

	samples, err := target.Run(10, 0.05)
	assert.NoError(err)
	assert.Len(samples, 10)

	for i, s := range samples {
		assert.NoError(s.Measurement.Validate())
		assert.Equal(int64(i)*50000, s.Measurement.Timestamp)
		if i%2 == 0 {
			assert.Equal(fusion.RangeBearing, s.Measurement.Kind)
		} else {
			assert.Equal(fusion.Position, s.Measurement.Kind)
			assert.InDelta(s.Truth.AtVec(0), s.Measurement.Raw[0], 0.5)
			assert.InDelta(s.Truth.AtVec(1), s.Measurement.Raw[1], 0.5)
		}
	}

	_, err = target.Run(-1, 0.1)
	assert.Error(err)
}

func TestTargetDegenerate(t *testing.T) {
	assert := assert.New(t)

	cv, err := model.NewConstantVelocity(0, 0)
	assert.NoError(err)

	target, err := NewTarget(mat.NewVecDense(4, nil), cv, mat.NewSymDense(2, nil), mat.NewSymDense(3, nil), 1)
	assert.NoError(err)

	_, err = target.Measure(fusion.RangeBearing)
	assert.Error(err)

	_, err = target.Run(1, 0.1)
	assert.Error(err)
}

func TestTargetTracking(t *testing.T) {
	assert := assert.New(t)

	cfg := fusion.DefaultConfig()
	target := newTestTarget(t, 0.1, 0.1, cfg.PositionNoise, cfg.RangeBearingNoise)

	samples, err := target.Run(200, 0.05)
	assert.NoError(err)

	engine, err := fusion.New(cfg)
	assert.NoError(err)

	var est *fusion.Estimate
	for _, s := range samples {
		est, err = engine.Process(s.Measurement)
		assert.NoError(err)
	}

	truth := samples[len(samples)-1].Truth
	assert.InDelta(truth.AtVec(0), est.Val().AtVec(0), 0.3)
	assert.InDelta(truth.AtVec(1), est.Val().AtVec(1), 0.3)
	assert.InDelta(truth.AtVec(2), est.Val().AtVec(2), 1.0)
	assert.InDelta(truth.AtVec(3), est.Val().AtVec(3), 1.0)
}
