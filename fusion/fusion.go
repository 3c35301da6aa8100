// Package fusion implements a tracker fusing position and range/bearing
// measurements of a single moving object with an extended Kalman filter.
package fusion

import (
	"errors"
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-fusion"
	"github.com/milosgajdos/go-fusion/estimate"
	"github.com/milosgajdos/go-fusion/internal/monitoring"
	"github.com/milosgajdos/go-fusion/kalman"
	"github.com/milosgajdos/go-fusion/kalman/ekf"
	"github.com/milosgajdos/go-fusion/kalman/kf"
	"github.com/milosgajdos/go-fusion/model"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrOutOfOrder is returned when a measurement is older than the last processed one
	ErrOutOfOrder = errors.New("measurement out of order")
	// ErrNotInitialized is returned when state is requested before the first measurement
	ErrNotInitialized = errors.New("fusion engine not initialized")
)

// Config configures fusion Engine
type Config struct {
	// NoiseAx is acceleration noise variance along x
	NoiseAx float64
	// NoiseAy is acceleration noise variance along y
	NoiseAy float64
	// PositionNoise is 2x2 position sensor noise covariance
	PositionNoise *mat.SymDense
	// RangeBearingNoise is 3x3 range/bearing sensor noise covariance
	RangeBearingNoise *mat.SymDense
	// InitialCov is 4x4 state covariance set on the first measurement
	InitialCov *mat.SymDense
	// MinRange is the range below which range/bearing updates are skipped
	MinRange float64
}

// DefaultConfig returns configuration with offline calibrated sensor noise.
func DefaultConfig() Config {
	return Config{
		NoiseAx: 4.5,
		NoiseAy: 4.5,
		PositionNoise: mat.NewSymDense(2, []float64{
			0.0068374897772981421, 0,
			0, 0.0054887300686829819,
		}),
		RangeBearingNoise: mat.NewSymDense(3, []float64{
			0.014412589090776581, 0, 0,
			0, 1.3610836622321855e-06, 0,
			0, 0, 0.011073356944289297,
		}),
		InitialCov: mat.NewSymDense(4, []float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		}),
		MinRange: ekf.DefaultMinRange,
	}
}

// Validate checks configuration dimensions and values.
func (c Config) Validate() error {
	for _, v := range []float64{c.NoiseAx, c.NoiseAy} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid acceleration noise variance: %v", v)
		}
	}

	if c.PositionNoise == nil || c.PositionNoise.SymmetricDim() != 2 {
		return fmt.Errorf("%w: position noise must be 2x2", kf.ErrDimensionMismatch)
	}

	if c.RangeBearingNoise == nil || c.RangeBearingNoise.SymmetricDim() != 3 {
		return fmt.Errorf("%w: range/bearing noise must be 3x3", kf.ErrDimensionMismatch)
	}

	if c.InitialCov == nil || c.InitialCov.SymmetricDim() != model.StateDim {
		return fmt.Errorf("%w: initial covariance must be %dx%d", kf.ErrDimensionMismatch, model.StateDim, model.StateDim)
	}

	for name, m := range map[string]*mat.SymDense{
		"position noise":      c.PositionNoise,
		"range/bearing noise": c.RangeBearingNoise,
		"initial covariance":  c.InitialCov,
	} {
		for i := 0; i < m.SymmetricDim(); i++ {
			if d := m.At(i, i); d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
				return fmt.Errorf("invalid %s: diagonal element %d is %v", name, i, d)
			}
		}
	}

	if c.MinRange < 0 {
		return fmt.Errorf("invalid minimum range: %v", c.MinRange)
	}

	return nil
}

// Estimate is fusion engine estimate after processing a measurement
type Estimate struct {
	filter.Estimate
	// Timestamp is time of the processed measurement in microseconds
	Timestamp int64
	// Kind is sensor kind of the processed measurement
	Kind SensorKind
	// Skipped is set when the update was skipped and the estimate is prediction only
	Skipped error
}

// Stats counts processed measurements
type Stats struct {
	// Processed is the number of measurements that advanced the filter
	Processed int
	// Updated is the number of successful measurement updates
	Updated int
	// Skipped is the number of updates skipped due to degenerate measurements
	Skipped int
	// Rejected is the number of invalid or out of order measurements
	Rejected int
}

// Engine fuses measurements from multiple sensors into a single
// [px, py, vx, vy] state estimate.
type Engine struct {
	// model is motion model
	model *model.ConstantVelocity
	// sensors maps sensor kinds to their models
	sensors map[SensorKind]Sensor
	// initCov is covariance used to initialize the filter
	initCov *mat.SymDense
	// f is Kalman filter; nil until the first measurement
	f kalman.Kalman
	// prevTimestamp is timestamp of the last processed measurement
	prevTimestamp int64
	// stats holds processing counters
	stats Stats
}

// New creates new fusion Engine with configuration cfg and returns it.
// It returns error if the configuration is invalid.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fusion config: %w", err)
	}

	cv, err := model.NewConstantVelocity(cfg.NoiseAx, cfg.NoiseAy)
	if err != nil {
		return nil, err
	}

	pos, err := NewPositionSensor(cfg.PositionNoise)
	if err != nil {
		return nil, err
	}

	rb, err := NewRangeBearingSensor(cfg.RangeBearingNoise, cfg.MinRange)
	if err != nil {
		return nil, err
	}

	initCov := mat.NewSymDense(model.StateDim, nil)
	initCov.CopySym(cfg.InitialCov)

	return &Engine{
		model: cv,
		sensors: map[SensorKind]Sensor{
			Position:     pos,
			RangeBearing: rb,
		},
		initCov: initCov,
	}, nil
}

// Process runs one filter step for measurement m and returns the new estimate.
// The first measurement initializes the filter state. Every following measurement
// predicts the state to the measurement time and corrects it with the measurement.
// When the measurement is degenerate the correction is skipped, the predicted
// estimate is returned and Estimate.Skipped records the cause.
// It returns error if m is invalid or older than the previous measurement.
func (e *Engine) Process(m Measurement) (*Estimate, error) {
	if err := m.Validate(); err != nil {
		e.stats.Rejected++
		return nil, err
	}

	sensor := e.sensors[m.Kind]

	if e.f == nil {
		return e.init(sensor, m)
	}

	if m.Timestamp < e.prevTimestamp {
		e.stats.Rejected++
		return nil, fmt.Errorf("%w: %d < %d", ErrOutOfOrder, m.Timestamp, e.prevTimestamp)
	}

	dt := float64(m.Timestamp-e.prevTimestamp) / 1e6

	pred, err := e.f.Predict(e.model.Transition(dt), e.model.ProcessNoise(dt))
	if err != nil {
		e.stats.Rejected++
		return nil, fmt.Errorf("prediction failed: %w", err)
	}
	e.prevTimestamp = m.Timestamp
	e.stats.Processed++

	est, err := sensor.Update(e.f, m.Raw)
	if err != nil {
		if errors.Is(err, kf.ErrDimensionMismatch) {
			return nil, fmt.Errorf("%s update failed: %w", m.Kind, err)
		}

		e.stats.Skipped++
		monitoring.Logf("fusion: skipping %s update at %d: %v", m.Kind, m.Timestamp, err)

		return &Estimate{
			Estimate:  pred,
			Timestamp: m.Timestamp,
			Kind:      m.Kind,
			Skipped:   err,
		}, nil
	}
	e.stats.Updated++

	return &Estimate{
		Estimate:  est,
		Timestamp: m.Timestamp,
		Kind:      m.Kind,
	}, nil
}

func (e *Engine) init(sensor Sensor, m Measurement) (*Estimate, error) {
	f, err := kf.New(model.NewInitCond(sensor.Init(m.Raw), e.initCov))
	if err != nil {
		e.stats.Rejected++
		return nil, fmt.Errorf("failed to initialize filter: %w", err)
	}

	e.f = f
	e.prevTimestamp = m.Timestamp
	e.stats.Processed++

	est, err := estimate.NewBaseWithCov(f.State(), f.Cov())
	if err != nil {
		return nil, err
	}

	return &Estimate{
		Estimate:  est,
		Timestamp: m.Timestamp,
		Kind:      m.Kind,
	}, nil
}

// Initialized returns true once the first measurement has been processed
func (e *Engine) Initialized() bool {
	return e.f != nil
}

// State returns current state estimate [px, py, vx, vy].
// It returns ErrNotInitialized before the first measurement.
func (e *Engine) State() (mat.Vector, error) {
	if e.f == nil {
		return nil, ErrNotInitialized
	}

	return e.f.State(), nil
}

// Cov returns current state covariance.
// It returns ErrNotInitialized before the first measurement.
func (e *Engine) Cov() (mat.Symmetric, error) {
	if e.f == nil {
		return nil, ErrNotInitialized
	}

	return e.f.Cov(), nil
}

// Stats returns processing counters
func (e *Engine) Stats() Stats {
	return e.stats
}

// Reset drops filter state; the next measurement initializes the filter again.
func (e *Engine) Reset() {
	e.f = nil
	e.prevTimestamp = 0
	e.stats = Stats{}
}
