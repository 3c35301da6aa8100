package particle

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func newTestSet(t *testing.T, poses []Pose, weights []float64) *Set {
	s, err := NewSet(len(poses))
	if err != nil {
		t.Fatalf("failed to create set: %v", err)
	}

	for i, p := range poses {
		s.SetPose(i, p)
	}

	if weights != nil {
		if err := s.SetWeights(weights); err != nil {
			t.Fatalf("failed to set weights: %v", err)
		}
	}

	return s
}

func TestNewSet(t *testing.T) {
	assert := assert.New(t)

	s, err := NewSet(5)
	assert.NoError(err)
	assert.Equal(5, s.Len())
	assert.Len(s.Weights(), 5)

	for i := 0; i < s.Len(); i++ {
		p := s.At(i)
		assert.Equal(i, p.ID)
		assert.Equal(1.0, p.Weight)
		assert.Equal(Pose{}, p.Pose)
	}

	for _, n := range []int{0, -3} {
		s, err = NewSet(n)
		assert.Nil(s)
		assert.Error(err)
	}
}

func TestWeights(t *testing.T) {
	assert := assert.New(t)

	s, err := NewSet(3)
	assert.NoError(err)

	s.SetWeight(1, 0.5)
	assert.Equal([]float64{1, 0.5, 1}, s.Weights())
	assert.Equal(0.5, s.At(1).Weight)

	w := s.Weights()
	w[0] = 42
	assert.Equal(1.0, s.At(0).Weight)

	assert.Error(s.SetWeights([]float64{1, 2}))
	assert.NoError(s.SetWeights([]float64{0.1, 0.2, 0.3}))
	assert.Equal(len(s.Particles()), len(s.Weights()))
}

func TestReplace(t *testing.T) {
	assert := assert.New(t)

	s := newTestSet(t, []Pose{{X: 1}, {X: 2}, {X: 3}}, []float64{0.2, 0.5, 0.3})

	assert.NoError(s.Replace([]int{1, 1, 2}))

	want := []Particle{
		{ID: 0, Pose: Pose{X: 2}, Weight: 0.5},
		{ID: 1, Pose: Pose{X: 2}, Weight: 0.5},
		{ID: 2, Pose: Pose{X: 3}, Weight: 0.3},
	}
	if diff := cmp.Diff(want, s.Particles()); diff != "" {
		t.Errorf("unexpected particles (-want +got):\n%s", diff)
	}
	assert.Equal([]float64{0.5, 0.5, 0.3}, s.Weights())

	assert.Error(s.Replace([]int{0, 1}))
	assert.Error(s.Replace([]int{0, 1, 3}))
	assert.Equal(3, s.Len())
}

func TestMean(t *testing.T) {
	poses := []Pose{
		{X: 0, Y: 0, Theta: math.Pi - 0.1},
		{X: 2, Y: 4, Theta: -math.Pi + 0.1},
	}

	for _, test := range []struct {
		name    string
		weights []float64
		want    Pose
	}{
		{"uniform", []float64{1, 1}, Pose{X: 1, Y: 2, Theta: math.Pi}},
		{"weighted", []float64{3, 1}, Pose{X: 0.5, Y: 1, Theta: math.Pi - 0.05}},
		{"degenerate", []float64{0, 0}, Pose{X: 1, Y: 2, Theta: math.Pi}},
	} {
		t.Run(test.name, func(t *testing.T) {
			s := newTestSet(t, poses, test.weights)
			got := s.Mean()

			// heading is compared on the unit circle
			got.Theta = math.Mod(got.Theta+2*math.Pi, 2*math.Pi)
			opt := cmpopts.EquateApprox(0, 1e-2)
			if diff := cmp.Diff(test.want, got, opt); diff != "" {
				t.Errorf("unexpected mean (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBest(t *testing.T) {
	assert := assert.New(t)

	s := newTestSet(t, []Pose{{X: 1}, {X: 2}, {X: 3}, {X: 4}}, []float64{0.1, 0.4, 0.4, 0.1})
	best := s.Best()
	assert.Equal(1, best.ID)
	assert.Equal(2.0, best.Pose.X)

	s = newTestSet(t, []Pose{{X: 1}, {X: 2}}, []float64{0, 0})
	assert.Equal(0, s.Best().ID)
}

func TestCov(t *testing.T) {
	assert := assert.New(t)

	s := newTestSet(t, []Pose{
		{X: 1, Y: 0, Theta: 0},
		{X: -1, Y: 0, Theta: 0},
		{X: 1, Y: 2, Theta: 0},
		{X: -1, Y: 2, Theta: 0},
	}, nil)

	cov, err := s.Cov()
	assert.NoError(err)
	assert.Equal(3, cov.SymmetricDim())
	assert.True(cov.At(0, 0) > 0)
	assert.True(cov.At(1, 1) > 0)
	assert.InDelta(0, cov.At(0, 1), 1e-12)
	assert.InDelta(0, cov.At(2, 2), 1e-12)
}

func TestPose(t *testing.T) {
	assert := assert.New(t)

	p := Pose{X: 1, Y: 2, Theta: 0.5}
	assert.Equal(orb.Point{1, 2}, p.Point())
	assert.Equal([]float64{1, 2, 0.5}, p.Vec().RawVector().Data)
	assert.Equal("1 2 0.5", p.String())

	s := newTestSet(t, []Pose{p, {}}, nil)
	m := s.Matrix()
	r, c := m.Dims()
	assert.Equal(3, r)
	assert.Equal(2, c)
	assert.Equal(0.5, m.At(2, 0))
}
