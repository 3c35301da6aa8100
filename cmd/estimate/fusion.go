package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	filter "github.com/milosgajdos/go-fusion"
	"github.com/milosgajdos/go-fusion/config"
	"github.com/milosgajdos/go-fusion/dataset"
	"github.com/milosgajdos/go-fusion/estimate"
	"github.com/milosgajdos/go-fusion/fusion"
	"github.com/milosgajdos/go-fusion/internal/monitoring"
	"github.com/milosgajdos/go-fusion/kalman/ekf"
	"github.com/milosgajdos/go-fusion/kalman/kf"
	"github.com/milosgajdos/go-fusion/model"
	"github.com/milosgajdos/go-fusion/sim"
	"github.com/milosgajdos/go-fusion/smooth/rts"
	"github.com/milosgajdos/matrix"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
)

func doFusion(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	input, err := cmd.Flags().GetString("input")
	if err != nil {
		return err
	}

	var records []dataset.Record
	if input != "" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("failed to open measurement log: %w", err)
		}
		records, err = dataset.ReadRecords(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to read measurement log: %w", err)
		}
	} else {
		records, err = simulateTarget(cfg)
		if err != nil {
			return err
		}
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	smoothed, _ := cmd.Flags().GetBool("smooth")
	res, err := runFusion(cfg, records, cmd.OutOrStdout(), verbose, smoothed)
	if err != nil {
		return err
	}

	if plotPath, _ := cmd.Flags().GetString("plot"); plotPath != "" {
		plt, err := sim.New2DPlot(res.truth, res.measured, res.filtered)
		if err != nil {
			return fmt.Errorf("failed to make plot: %w", err)
		}
		if err := plt.Save(10*vg.Inch, 10*vg.Inch, plotPath); err != nil {
			return fmt.Errorf("failed to save plot to %s: %w", plotPath, err)
		}
	}

	return nil
}

func simulateTarget(cfg *config.Config) ([]dataset.Record, error) {
	cv, err := model.NewConstantVelocity(cfg.Sim.TargetAccelNoise, cfg.Sim.TargetAccelNoise)
	if err != nil {
		return nil, err
	}

	fc, err := cfg.Fusion.Config()
	if err != nil {
		return nil, err
	}

	x0 := mat.NewVecDense(model.StateDim, cfg.Sim.TargetState)
	target, err := sim.NewTarget(x0, cv, fc.PositionNoise, fc.RangeBearingNoise, cfg.Sim.Seed)
	if err != nil {
		return nil, err
	}

	samples, err := target.Run(cfg.Sim.Steps, cfg.Sim.Dt)
	if err != nil {
		return nil, fmt.Errorf("target simulation failed: %w", err)
	}

	records := make([]dataset.Record, len(samples))
	for i, s := range samples {
		records[i] = dataset.Record{Measurement: s.Measurement, Truth: s.Truth}
	}

	return records, nil
}

type fusionResult struct {
	rmse       *mat.VecDense
	smoothRMSE *mat.VecDense
	stats      fusion.Stats
	truth      *mat.Dense
	measured   *mat.Dense
	filtered   *mat.Dense
}

func runFusion(cfg *config.Config, records []dataset.Record, out io.Writer, verbose, smoothed bool) (*fusionResult, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no measurements to process")
	}

	fc, err := cfg.Fusion.Config()
	if err != nil {
		return nil, err
	}

	engine, err := fusion.New(fc)
	if err != nil {
		return nil, err
	}

	res := &fusionResult{
		truth:    mat.NewDense(len(records), 2, nil),
		measured: mat.NewDense(len(records), 2, nil),
		filtered: mat.NewDense(len(records), 2, nil),
	}

	var (
		estimates, truth []mat.Vector
		track            []filter.Estimate
		ts               []int64
		tracked          []int
		kept             []int
	)
	for i, rec := range records {
		est, err := engine.Process(rec.Measurement)
		if err != nil {
			if errors.Is(err, kf.ErrDimensionMismatch) {
				return nil, fmt.Errorf("measurement %d: %w", i, err)
			}
			monitoring.Logf("fusion: skipping measurement %d: %v", i, err)
			continue
		}

		x := est.Val()
		kept = append(kept, i)
		track = append(track, est.Estimate)
		ts = append(ts, est.Timestamp)
		res.filtered.Set(i, 0, x.AtVec(0))
		res.filtered.Set(i, 1, x.AtVec(1))

		px, py := measuredPosition(rec.Measurement)
		res.measured.Set(i, 0, px)
		res.measured.Set(i, 1, py)

		if rec.Truth != nil {
			res.truth.Set(i, 0, rec.Truth.AtVec(0))
			res.truth.Set(i, 1, rec.Truth.AtVec(1))
			estimates = append(estimates, x)
			truth = append(truth, rec.Truth)
			tracked = append(tracked, len(track)-1)
		}

		if verbose {
			fmt.Fprintf(out, "ESTIMATE %d (%s at %d):\n%v\n", i, est.Kind, est.Timestamp, matrix.Format(x))
		}
	}
	res.stats = engine.Stats()

	fmt.Fprintf(out, "processed %d, updated %d, skipped %d, rejected %d\n",
		res.stats.Processed, res.stats.Updated, res.stats.Skipped, res.stats.Rejected)

	if len(kept) == 0 {
		return nil, fmt.Errorf("no valid measurements to process")
	}
	res.truth = selectRows(res.truth, kept)
	res.measured = selectRows(res.measured, kept)
	res.filtered = selectRows(res.filtered, kept)

	if len(truth) > 0 {
		res.rmse, err = estimate.RMSE(estimates, truth)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "RMSE [px py vx vy]:\n%v\n", matrix.Format(res.rmse))
	}

	if !smoothed {
		return res, nil
	}

	cv, err := model.NewConstantVelocity(fc.NoiseAx, fc.NoiseAy)
	if err != nil {
		return nil, err
	}

	s, err := rts.New(cv)
	if err != nil {
		return nil, err
	}

	sx, err := s.Smooth(track, ts)
	if err != nil {
		return nil, fmt.Errorf("smoothing failed: %w", err)
	}

	for j, e := range sx {
		res.filtered.Set(j, 0, e.Val().AtVec(0))
		res.filtered.Set(j, 1, e.Val().AtVec(1))
	}

	if len(truth) > 0 {
		smooth := make([]mat.Vector, len(tracked))
		for i, j := range tracked {
			smooth[i] = sx[j].Val()
		}
		res.smoothRMSE, err = estimate.RMSE(smooth, truth)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "smoothed RMSE [px py vx vy]:\n%v\n", matrix.Format(res.smoothRMSE))
	}

	return res, nil
}

// selectRows returns rows of m at indices
func selectRows(m *mat.Dense, indices []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(indices), c, nil)
	for i, idx := range indices {
		out.SetRow(i, m.RawRowView(idx))
	}

	return out
}

func measuredPosition(m fusion.Measurement) (float64, float64) {
	if m.Kind == fusion.RangeBearing {
		px, py, _, _ := ekf.ToCartesian(m.Raw[0], m.Raw[1], m.Raw[2])
		return px, py
	}

	return m.Raw[0], m.Raw[1]
}
