// Package bf implements a Bootstrap Filter a.k.a. SIR Particle Filter which
// localizes a vehicle against a map of known landmarks.
// For more information about Bootstrap Filter see:
// https://en.wikipedia.org/wiki/Particle_filter#The_bootstrap_filter
package bf

import (
	"errors"
	"fmt"
	"math"

	"github.com/milosgajdos/go-fusion/internal/monitoring"
	"github.com/milosgajdos/go-fusion/landmark"
	"github.com/milosgajdos/go-fusion/particle"
	rnd "github.com/milosgajdos/go-fusion/rand"
	"golang.org/x/exp/rand"
)

// ErrNotInitialized is returned when the filter is used before its particles are initialized
var ErrNotInitialized = errors.New("particle filter not initialized")

// Config configures Bootstrap Filter
type Config struct {
	// Particles is the number of filter particles
	Particles int
	// InitStd holds standard deviations of the initial pose [x, y, theta]
	InitStd [3]float64
	// MotionStd holds standard deviations of the motion noise [x, y, theta]
	MotionStd [3]float64
	// LandmarkStd holds standard deviations of landmark measurements [x, y]
	LandmarkStd [2]float64
	// SensorRange is the maximum distance of landmarks considered for association
	SensorRange float64
	// Metric is association distance metric
	Metric landmark.Metric
	// Seed seeds the filter random source
	Seed uint64
	// Workers is the number of goroutines evaluating particle weights; 0 uses all CPUs
	Workers int
}

// DefaultConfig returns default filter configuration
func DefaultConfig() Config {
	return Config{
		Particles:   1000,
		InitStd:     [3]float64{0.3, 0.3, 0.01},
		MotionStd:   [3]float64{0.3, 0.3, 0.01},
		LandmarkStd: [2]float64{0.3, 0.3},
		SensorRange: 50,
		Metric:      landmark.Euclidean,
		Seed:        1,
	}
}

// Validate checks configuration values.
func (c Config) Validate() error {
	if c.Particles <= 0 {
		return fmt.Errorf("invalid particle count: %d", c.Particles)
	}

	if err := validStd(c.InitStd[:]); err != nil {
		return fmt.Errorf("invalid initial pose noise: %w", err)
	}

	if err := validStd(c.MotionStd[:]); err != nil {
		return fmt.Errorf("invalid motion noise: %w", err)
	}

	for i, v := range c.LandmarkStd {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("invalid landmark noise %v at %d", v, i)
		}
	}

	if c.SensorRange < 0 || math.IsNaN(c.SensorRange) {
		return fmt.Errorf("invalid sensor range: %v", c.SensorRange)
	}

	if c.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", c.Workers)
	}

	return nil
}

// Result is filter estimate after a single step
type Result struct {
	// Mean is weighted mean pose of the particles
	Mean particle.Pose
	// Best is the particle with the highest weight
	Best particle.Particle
	// Degenerate is set when all weights vanished and particles were resampled uniformly
	Degenerate bool
}

// BF is a Bootstrap Filter a.k.a. SIR Particle Filter.
type BF struct {
	// cfg is filter configuration
	cfg Config
	// set holds filter particles
	set *particle.Set
	// weigher evaluates particle weights
	weigher *Weigher
	// src is random source owned by the filter
	src rand.Source
	// init is true once particles have been initialized
	init bool
}

// New creates new Bootstrap Filter with configuration cfg and landmark map m and returns it.
// Its random source is seeded once from cfg.Seed.
// It returns error if the configuration is invalid or m is nil.
func New(cfg Config, m *landmark.Map) (*BF, error) {
	return NewWithSource(cfg, m, rnd.NewSource(cfg.Seed))
}

// NewWithSource creates new Bootstrap Filter which draws random numbers from src and returns it.
// It returns error if the configuration is invalid or m or src is nil.
func NewWithSource(cfg Config, m *landmark.Map, src rand.Source) (*BF, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter config: %w", err)
	}

	if m == nil {
		return nil, fmt.Errorf("invalid landmark map: %v", m)
	}

	if src == nil {
		return nil, fmt.Errorf("invalid random source: %v", src)
	}

	set, err := particle.NewSet(cfg.Particles)
	if err != nil {
		return nil, err
	}

	return &BF{
		cfg: cfg,
		set: set,
		weigher: &Weigher{
			Map:         m,
			SensorRange: cfg.SensorRange,
			Metric:      cfg.Metric,
			Std:         cfg.LandmarkStd,
			Workers:     cfg.Workers,
		},
		src: src,
	}, nil
}

// Init initializes filter particles around pose.
// It returns error if the particles fail to be generated.
func (b *BF) Init(pose particle.Pose) error {
	if err := Initialize(b.set, pose, b.cfg.InitStd, b.src); err != nil {
		return err
	}
	b.init = true

	return nil
}

// Initialized returns true once particles have been initialized
func (b *BF) Initialized() bool {
	return b.init
}

// Predict moves filter particles by control c.
// It returns ErrNotInitialized if the filter has not been initialized.
func (b *BF) Predict(c Control) error {
	if !b.init {
		return ErrNotInitialized
	}

	return Predict(b.set, c, b.cfg.MotionStd, b.src)
}

// UpdateWeights sets particle weights to the likelihood of vehicle frame observations obs.
// It returns ErrNotInitialized if the filter has not been initialized.
func (b *BF) UpdateWeights(obs []landmark.Observation) error {
	if !b.init {
		return ErrNotInitialized
	}

	return b.weigher.Update(b.set, obs)
}

// Resample draws new particles proportionally to their weights.
// It reports whether the weights were degenerate and uniform resampling was used instead.
// It returns ErrNotInitialized if the filter has not been initialized.
func (b *BF) Resample() (bool, error) {
	if !b.init {
		return false, ErrNotInitialized
	}

	degenerate, err := Resample(b.set, b.src)
	if err != nil {
		return degenerate, err
	}

	if degenerate {
		monitoring.Logf("bf: all particle weights vanished, resampling uniformly")
	}

	return degenerate, nil
}

// Step runs a single filter step and returns the resulting estimate.
// An uninitialized filter is initialized around gps, otherwise particles are moved by control c.
// Particles are then weighted with observations obs and resampled.
// Mean and Best in the result are taken from the weighted particles before resampling.
func (b *BF) Step(gps particle.Pose, c Control, obs []landmark.Observation) (*Result, error) {
	if !b.init {
		if err := b.Init(gps); err != nil {
			return nil, fmt.Errorf("failed to initialize particles: %w", err)
		}
	} else {
		if err := b.Predict(c); err != nil {
			return nil, fmt.Errorf("failed to predict particles: %w", err)
		}
	}

	if err := b.UpdateWeights(obs); err != nil {
		return nil, fmt.Errorf("failed to update weights: %w", err)
	}

	res := &Result{
		Mean: b.set.Mean(),
		Best: b.set.Best(),
	}

	degenerate, err := b.Resample()
	if err != nil {
		return nil, fmt.Errorf("failed to resample particles: %w", err)
	}
	res.Degenerate = degenerate

	return res, nil
}

// Particles returns a copy of filter particles
func (b *BF) Particles() []particle.Particle {
	return b.set.Particles()
}

// Weights returns a copy of particle weights.
// After Step the particles are resampled and all weights are 1.0.
func (b *BF) Weights() []float64 {
	return b.set.Weights()
}

// Set returns filter particle set
func (b *BF) Set() *particle.Set {
	return b.set
}
