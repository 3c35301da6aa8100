package bf

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/milosgajdos/go-fusion/landmark"
	"github.com/milosgajdos/go-fusion/particle"
	rnd "github.com/milosgajdos/go-fusion/rand"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestLikelihood(t *testing.T) {
	assert := assert.New(t)

	// peak density
	assert.InDelta(1/(2*math.Pi*0.3*0.3), Likelihood(0, 0, 0.3, 0.3), 1e-12)

	// squared scaled residuals are added in the exponent
	dx, dy, sx, sy := 0.1, 0.2, 0.3, 0.4
	want := 1 / (2 * math.Pi * sx * sy) * math.Exp(-(dx*dx/(2*sx*sx) + dy*dy/(2*sy*sy)))
	assert.InDelta(want, Likelihood(dx, dy, sx, sy), 1e-12)
	assert.InDelta(1.1072, Likelihood(dx, dy, sx, sy), 1e-4)

	// multiplying the terms gives a different value
	product := 1 / (2 * math.Pi * sx * sy) * math.Exp(-(dx * dx / (2 * sx * sx) * dy * dy / (2 * sy * sy)))
	assert.Greater(math.Abs(product-Likelihood(dx, dy, sx, sy)), 0.1)

	// symmetric in residual sign
	assert.Equal(Likelihood(dx, dy, sx, sy), Likelihood(-dx, -dy, sx, sy))
}

func TestWeight(t *testing.T) {
	assert := assert.New(t)

	std := [2]float64{0.3, 0.3}

	// landmark at the origin observed at (0.1, 0.2)
	a := Association{ID: 1, Obs: orb.Point{0.1, 0.2}, Landmark: orb.Point{0, 0}}
	want := 1 / (2 * math.Pi * 0.09) * math.Exp(-(0.01/0.18 + 0.04/0.18))
	assert.InDelta(want, Weight([]Association{a}, std), 1e-12)

	// independent observations multiply
	b := Association{ID: 2, Obs: orb.Point{5, 5}, Landmark: orb.Point{5, 5.1}}
	assert.InDelta(want*Likelihood(0, -0.1, 0.3, 0.3), Weight([]Association{a, b}, std), 1e-12)

	// unassociated observations are neutral
	u := Association{ID: landmark.Unassociated, Obs: orb.Point{100, 100}}
	assert.InDelta(want, Weight([]Association{a, u}, std), 1e-12)
	assert.Equal(1.0, Weight([]Association{u}, std))
	assert.Equal(1.0, Weight(nil, std))
}

func weighTestMap(t *testing.T) *landmark.Map {
	m, err := landmark.NewMap([]landmark.Landmark{
		{ID: 1, Pos: orb.Point{5, 3}},
		{ID: 2, Pos: orb.Point{2, 1}},
		{ID: 3, Pos: orb.Point{6, 1}},
		{ID: 4, Pos: orb.Point{7, 4}},
		{ID: 5, Pos: orb.Point{4, 7}},
	})
	if err != nil {
		t.Fatalf("failed to create map: %v", err)
	}

	return m
}

func TestWeigherParallel(t *testing.T) {
	assert := assert.New(t)

	m := weighTestMap(t)
	obs := []landmark.Observation{
		landmark.NewObservation(2, 1),
		landmark.NewObservation(4, -2),
		landmark.NewObservation(1, 3),
	}

	s := newSet(t, 257)
	assert.NoError(Initialize(s, particle.Pose{X: 4, Y: 5, Theta: -math.Pi / 2}, [3]float64{0.5, 0.5, 0.05}, rnd.NewSource(11)))
	poses := s.Particles()

	var results [][]float64
	for _, workers := range []int{1, 2, 3, 8, 0, 1000} {
		w := &Weigher{Map: m, SensorRange: 50, Std: [2]float64{0.3, 0.3}, Workers: workers}
		assert.NoError(w.Update(s, obs))
		results = append(results, s.Weights())

		// weighting does not move particles
		for i := range poses {
			assert.Equal(poses[i].Pose, s.Pose(i))
		}
	}

	for i := 1; i < len(results); i++ {
		if diff := cmp.Diff(results[0], results[i]); diff != "" {
			t.Errorf("weights differ from serial evaluation (-serial +parallel):\n%s", diff)
		}
	}

	// the particle at the true pose weighs more than a displaced one
	two := newSet(t, 2)
	two.SetPose(0, particle.Pose{X: 4, Y: 5, Theta: -math.Pi / 2})
	two.SetPose(1, particle.Pose{X: 4.5, Y: 5, Theta: -math.Pi / 2})
	w := &Weigher{Map: m, SensorRange: 50, Std: [2]float64{0.3, 0.3}, Workers: 2}
	assert.NoError(w.Update(two, obs))
	assert.Greater(two.Weights()[0], two.Weights()[1])
	assert.InDelta(math.Pow(1/(2*math.Pi*0.09), 3), two.Weights()[0], 1e-9)
}

func TestWeigherInvalid(t *testing.T) {
	assert := assert.New(t)

	w := &Weigher{Map: weighTestMap(t), SensorRange: 50, Std: [2]float64{0, 0.3}}
	assert.Error(w.Update(newSet(t, 3), nil))
}
