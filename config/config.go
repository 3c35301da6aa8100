// Package config loads tuning parameters of the tracker, the localizer and the simulators.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/milosgajdos/go-fusion/fusion"
	"github.com/milosgajdos/go-fusion/landmark"
	"github.com/milosgajdos/go-fusion/particle/bf"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// maxFileSize is the maximum accepted config file size
const maxFileSize = 1 * 1024 * 1024

// Config is the root configuration
type Config struct {
	Fusion       Fusion       `json:"fusion" yaml:"fusion"`
	Localization Localization `json:"localization" yaml:"localization"`
	Sim          Sim          `json:"sim" yaml:"sim"`
}

// Fusion configures the measurement fusion tracker
type Fusion struct {
	// NoiseAx is acceleration noise variance along x
	NoiseAx float64 `json:"noise_ax" yaml:"noise_ax"`
	// NoiseAy is acceleration noise variance along y
	NoiseAy float64 `json:"noise_ay" yaml:"noise_ay"`
	// PositionNoise is 2x2 position sensor noise covariance given by rows
	PositionNoise [][]float64 `json:"position_noise" yaml:"position_noise"`
	// RangeBearingNoise is 3x3 range/bearing sensor noise covariance given by rows
	RangeBearingNoise [][]float64 `json:"range_bearing_noise" yaml:"range_bearing_noise"`
	// InitialCov is 4x4 initial state covariance given by rows
	InitialCov [][]float64 `json:"initial_cov" yaml:"initial_cov"`
	// MinRange is the range below which range/bearing updates are skipped
	MinRange float64 `json:"min_range" yaml:"min_range"`
}

// Localization configures the particle filter
type Localization struct {
	// Particles is the number of particles
	Particles int `json:"particles" yaml:"particles"`
	// InitStd holds GPS standard deviations [x, y, theta]
	InitStd []float64 `json:"init_std" yaml:"init_std"`
	// MotionStd holds motion noise standard deviations [x, y, theta]
	MotionStd []float64 `json:"motion_std" yaml:"motion_std"`
	// LandmarkStd holds landmark measurement standard deviations [x, y]
	LandmarkStd []float64 `json:"landmark_std" yaml:"landmark_std"`
	// SensorRange is the maximum landmark association distance
	SensorRange float64 `json:"sensor_range" yaml:"sensor_range"`
	// Metric is association distance metric name
	Metric string `json:"metric" yaml:"metric"`
	// Seed seeds the filter random source
	Seed uint64 `json:"seed" yaml:"seed"`
	// Workers is the number of weighting goroutines; 0 uses all CPUs
	Workers int `json:"workers" yaml:"workers"`
}

// Sim configures the simulators
type Sim struct {
	// Seed seeds simulator noise
	Seed uint64 `json:"seed" yaml:"seed"`
	// Steps is the number of simulated steps
	Steps int `json:"steps" yaml:"steps"`
	// Dt is simulation time step in seconds
	Dt float64 `json:"dt" yaml:"dt"`
	// TargetState is initial tracked target state [px, py, vx, vy]
	TargetState []float64 `json:"target_state" yaml:"target_state"`
	// TargetAccelNoise is target acceleration noise variance
	TargetAccelNoise float64 `json:"target_accel_noise" yaml:"target_accel_noise"`
	// Velocity is simulated vehicle velocity
	Velocity float64 `json:"velocity" yaml:"velocity"`
	// YawRate is simulated vehicle yaw rate
	YawRate float64 `json:"yaw_rate" yaml:"yaw_rate"`
	// Landmarks is the number of generated landmarks
	Landmarks int `json:"landmarks" yaml:"landmarks"`
	// Area is the size of the square area landmarks are generated in
	Area float64 `json:"area" yaml:"area"`
}

// Default returns default configuration
func Default() *Config {
	fc := fusion.DefaultConfig()
	lc := bf.DefaultConfig()

	return &Config{
		Fusion: Fusion{
			NoiseAx:           fc.NoiseAx,
			NoiseAy:           fc.NoiseAy,
			PositionNoise:     rows(fc.PositionNoise),
			RangeBearingNoise: rows(fc.RangeBearingNoise),
			InitialCov:        rows(fc.InitialCov),
			MinRange:          fc.MinRange,
		},
		Localization: Localization{
			Particles:   lc.Particles,
			InitStd:     lc.InitStd[:],
			MotionStd:   lc.MotionStd[:],
			LandmarkStd: lc.LandmarkStd[:],
			SensorRange: lc.SensorRange,
			Metric:      lc.Metric.String(),
			Seed:        lc.Seed,
			Workers:     lc.Workers,
		},
		Sim: Sim{
			Seed:             42,
			Steps:            500,
			Dt:               0.05,
			TargetState:      []float64{0.6, 0.6, 5.2, 0},
			TargetAccelNoise: 1,
			Velocity:         5,
			YawRate:          0.1,
			Landmarks:        40,
			Area:             100,
		},
	}
}

// Load loads configuration from a .json, .yaml or .yml file.
// Fields omitted from the file keep their default values.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)

	var unmarshal func([]byte, interface{}) error
	switch ext := strings.ToLower(filepath.Ext(cleanPath)); ext {
	case ".json":
		unmarshal = json.Unmarshal
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	fc, err := c.Fusion.Config()
	if err != nil {
		return err
	}
	if err := fc.Validate(); err != nil {
		return fmt.Errorf("fusion: %w", err)
	}

	lc, err := c.Localization.Config()
	if err != nil {
		return err
	}
	if err := lc.Validate(); err != nil {
		return fmt.Errorf("localization: %w", err)
	}

	return c.Sim.Validate()
}

// Config converts fusion section to fusion.Config.
func (f Fusion) Config() (fusion.Config, error) {
	pos, err := symmetric("position_noise", f.PositionNoise, 2)
	if err != nil {
		return fusion.Config{}, err
	}

	rb, err := symmetric("range_bearing_noise", f.RangeBearingNoise, 3)
	if err != nil {
		return fusion.Config{}, err
	}

	cov, err := symmetric("initial_cov", f.InitialCov, 4)
	if err != nil {
		return fusion.Config{}, err
	}

	return fusion.Config{
		NoiseAx:           f.NoiseAx,
		NoiseAy:           f.NoiseAy,
		PositionNoise:     pos,
		RangeBearingNoise: rb,
		InitialCov:        cov,
		MinRange:          f.MinRange,
	}, nil
}

// Config converts localization section to bf.Config.
func (l Localization) Config() (bf.Config, error) {
	metric, err := landmark.ParseMetric(l.Metric)
	if err != nil {
		return bf.Config{}, fmt.Errorf("metric: %w", err)
	}

	cfg := bf.Config{
		Particles:   l.Particles,
		SensorRange: l.SensorRange,
		Metric:      metric,
		Seed:        l.Seed,
		Workers:     l.Workers,
	}

	for _, v := range []struct {
		name string
		src  []float64
		dst  []float64
	}{
		{"init_std", l.InitStd, cfg.InitStd[:]},
		{"motion_std", l.MotionStd, cfg.MotionStd[:]},
		{"landmark_std", l.LandmarkStd, cfg.LandmarkStd[:]},
	} {
		if len(v.src) != len(v.dst) {
			return bf.Config{}, fmt.Errorf("%s must have %d values, got %d", v.name, len(v.dst), len(v.src))
		}
		copy(v.dst, v.src)
	}

	return cfg, nil
}

// Validate checks simulator configuration values.
func (s Sim) Validate() error {
	if s.Steps < 0 {
		return fmt.Errorf("sim steps must be non-negative, got %d", s.Steps)
	}

	if s.Dt <= 0 || math.IsNaN(s.Dt) || math.IsInf(s.Dt, 0) {
		return fmt.Errorf("sim dt must be positive, got %v", s.Dt)
	}

	if len(s.TargetState) != 4 {
		return fmt.Errorf("target_state must have 4 values, got %d", len(s.TargetState))
	}

	if s.TargetAccelNoise < 0 {
		return fmt.Errorf("target_accel_noise must be non-negative, got %v", s.TargetAccelNoise)
	}

	if s.Landmarks < 0 || s.Area < 0 {
		return fmt.Errorf("invalid landmark count %d or area %v", s.Landmarks, s.Area)
	}

	return nil
}

func symmetric(name string, data [][]float64, n int) (*mat.SymDense, error) {
	if len(data) != n {
		return nil, fmt.Errorf("%s must have %d rows, got %d", name, n, len(data))
	}

	for i, row := range data {
		if len(row) != n {
			return nil, fmt.Errorf("%s row %d must have %d values, got %d", name, i, n, len(row))
		}
	}

	m := mat.NewSymDense(n, nil)
	for i, row := range data {
		for j := i; j < n; j++ {
			if row[j] != data[j][i] {
				return nil, fmt.Errorf("%s is not symmetric at [%d, %d]", name, i, j)
			}
			m.SetSym(i, j, row[j])
		}
	}

	return m, nil
}

func rows(m mat.Symmetric) [][]float64 {
	n := m.SymmetricDim()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}

	return out
}
