package sim

import (
	"math"
	"testing"

	"github.com/milosgajdos/go-fusion/landmark"
	"github.com/milosgajdos/go-fusion/particle"
	"github.com/milosgajdos/go-fusion/particle/bf"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func testMap(t *testing.T) *landmark.Map {
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

func TestNewVehicle(t *testing.T) {
	assert := assert.New(t)

	m := testMap(t)

	v, err := NewVehicle(particle.Pose{}, m, VehicleConfig{SensorRange: 10})
	assert.NoError(err)
	assert.NotNil(v)

	for _, cfg := range []VehicleConfig{
		{SensorRange: -1},
		{SensorRange: 10, GPSStd: [3]float64{-1, 0, 0}},
		{SensorRange: 10, LandmarkStd: [2]float64{0, math.NaN()}},
	} {
		v, err = NewVehicle(particle.Pose{}, m, cfg)
		assert.Nil(v)
		assert.Error(err)
	}

	v, err = NewVehicle(particle.Pose{}, nil, VehicleConfig{})
	assert.Nil(v)
	assert.Error(err)
}

func TestVehicleNoiseless(t *testing.T) {
	assert := assert.New(t)

	start := particle.Pose{X: 4, Y: 5, Theta: -math.Pi / 2}
	v, err := NewVehicle(start, testMap(t), VehicleConfig{SensorRange: 2.3})
	assert.NoError(err)

	assert.Equal(start, v.GPS())

	// landmarks 1 and 5 are within range
	obs := v.Observe()
	assert.Len(obs, 2)
	assert.InDelta(2, obs[0].X, 1e-12)
	assert.InDelta(1, obs[0].Y, 1e-12)
	assert.InDelta(-2, obs[1].X, 1e-12)
	assert.InDelta(0, obs[1].Y, 1e-12)
	for _, o := range obs {
		assert.Equal(landmark.Unassociated, o.ID)
	}

	// observations map back onto the landmarks
	p := landmark.ToMap(obs[0], start.X, start.Y, start.Theta)
	assert.InDelta(5, p.X(), 1e-12)
	assert.InDelta(3, p.Y(), 1e-12)

	pose := v.Move(bf.Control{Dt: 1, Velocity: 2})
	assert.InDelta(4, pose.X, 1e-12)
	assert.InDelta(3, pose.Y, 1e-12)
	assert.Equal(pose, v.Pose())
}

func TestVehicleNoise(t *testing.T) {
	assert := assert.New(t)

	cfg := VehicleConfig{
		GPSStd:      [3]float64{0.3, 0.3, 0.01},
		LandmarkStd: [2]float64{0.3, 0.3},
		SensorRange: 50,
		Seed:        3,
	}

	start := particle.Pose{X: 1, Y: 1}
	v, err := NewVehicle(start, testMap(t), cfg)
	assert.NoError(err)

	n := 2000
	var sx, sy float64
	for i := 0; i < n; i++ {
		g := v.GPS()
		sx += g.X
		sy += g.Y
	}
	assert.InDelta(1, sx/float64(n), 0.05)
	assert.InDelta(1, sy/float64(n), 0.05)

	assert.Len(v.Observe(), 5)
}

func TestVehicleZeroStdAxis(t *testing.T) {
	assert := assert.New(t)

	cfg := VehicleConfig{
		GPSStd:      [3]float64{0.3, 0.3, 0},
		LandmarkStd: [2]float64{0, 0.3},
		SensorRange: 50,
		Seed:        5,
	}

	start := particle.Pose{X: 1, Y: 1, Theta: 0.5}
	v, err := NewVehicle(start, testMap(t), cfg)
	assert.NoError(err)
	assert.NotNil(v)

	moved := false
	for i := 0; i < 100; i++ {
		g := v.GPS()
		assert.Equal(start.Theta, g.Theta)
		if g.X != start.X {
			moved = true
		}
	}
	assert.True(moved)

	obs := v.Observe()
	assert.Len(obs, 5)
	// first landmark lies at (4, 2) from the start, rotated into the vehicle frame
	sin, cos := math.Sincos(start.Theta)
	assert.InDelta(cos*4+sin*2, obs[0].X, 1e-12)
}

func TestRandomMap(t *testing.T) {
	assert := assert.New(t)

	b := orb.Bound{Min: orb.Point{-10, 0}, Max: orb.Point{10, 5}}
	m, err := RandomMap(50, b, 1)
	assert.NoError(err)
	assert.Equal(50, m.Len())

	for i := 0; i < m.Len(); i++ {
		l := m.At(i)
		assert.Equal(i+1, l.ID)
		assert.True(b.Contains(l.Pos))
	}

	again, err := RandomMap(50, b, 1)
	assert.NoError(err)
	assert.Equal(m.Landmarks(), again.Landmarks())

	_, err = RandomMap(-1, b, 1)
	assert.Error(err)
}
