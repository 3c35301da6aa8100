package sim

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-fusion"
	"github.com/milosgajdos/go-fusion/landmark"
	"github.com/milosgajdos/go-fusion/particle"
	"github.com/milosgajdos/go-fusion/particle/bf"
	"golang.org/x/exp/rand"
)

// VehicleConfig configures Vehicle simulator
type VehicleConfig struct {
	// GPSStd holds standard deviations of GPS pose readings [x, y, theta]
	GPSStd [3]float64
	// LandmarkStd holds standard deviations of landmark readings [x, y]
	LandmarkStd [2]float64
	// SensorRange is the maximum distance of observed landmarks
	SensorRange float64
	// Seed seeds simulator noise
	Seed uint64
}

// Vehicle simulates a vehicle driving through a landmark map
type Vehicle struct {
	// pose is ground truth pose
	pose particle.Pose
	// m is landmark map
	m *landmark.Map
	// sensorRange is the maximum distance of observed landmarks
	sensorRange float64
	// gps is GPS noise
	gps filter.Noise
	// obs is landmark observation noise
	obs filter.Noise
}

// NewVehicle creates new Vehicle at pose start in landmark map m and returns it.
// It returns error if m is nil or the configuration is invalid.
func NewVehicle(start particle.Pose, m *landmark.Map, cfg VehicleConfig) (*Vehicle, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid landmark map: %v", m)
	}

	if cfg.SensorRange < 0 {
		return nil, fmt.Errorf("invalid sensor range: %v", cfg.SensorRange)
	}

	for _, v := range append(cfg.GPSStd[:], cfg.LandmarkStd[:]...) {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid standard deviation: %v", v)
		}
	}

	g := cfg.GPSStd
	gps, err := newNoise(diag(g[0]*g[0], g[1]*g[1], g[2]*g[2]), rand.NewSource(cfg.Seed))
	if err != nil {
		return nil, fmt.Errorf("failed to create gps noise: %w", err)
	}

	l := cfg.LandmarkStd
	obs, err := newNoise(diag(l[0]*l[0], l[1]*l[1]), rand.NewSource(cfg.Seed+1))
	if err != nil {
		return nil, fmt.Errorf("failed to create observation noise: %w", err)
	}

	return &Vehicle{
		pose:        start,
		m:           m,
		sensorRange: cfg.SensorRange,
		gps:         gps,
		obs:         obs,
	}, nil
}

// Move drives the vehicle by control c without noise and returns its new pose
func (v *Vehicle) Move(c bf.Control) particle.Pose {
	v.pose = bf.Move(v.pose, c)
	return v.pose
}

// Pose returns ground truth pose
func (v *Vehicle) Pose() particle.Pose {
	return v.pose
}

// GPS returns noisy reading of the vehicle pose
func (v *Vehicle) GPS() particle.Pose {
	n := v.gps.Sample()

	return particle.Pose{
		X:     v.pose.X + n.AtVec(0),
		Y:     v.pose.Y + n.AtVec(1),
		Theta: v.pose.Theta + n.AtVec(2),
	}
}

// Observe returns noisy vehicle frame readings of landmarks within sensor range
// in map order. Returned observations are unassociated.
func (v *Vehicle) Observe() []landmark.Observation {
	sin, cos := math.Sincos(v.pose.Theta)

	var obs []landmark.Observation
	for _, l := range v.m.Within(v.pose.Point(), v.sensorRange) {
		dx, dy := l.Pos.X()-v.pose.X, l.Pos.Y()-v.pose.Y
		n := v.obs.Sample()
		obs = append(obs, landmark.NewObservation(cos*dx+sin*dy+n.AtVec(0), -sin*dx+cos*dy+n.AtVec(1)))
	}

	return obs
}
