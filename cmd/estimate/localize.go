package main

import (
	"fmt"
	"io"
	"os"

	"github.com/milosgajdos/go-fusion/config"
	"github.com/milosgajdos/go-fusion/dataset"
	"github.com/milosgajdos/go-fusion/estimate"
	"github.com/milosgajdos/go-fusion/kalman/ekf"
	"github.com/milosgajdos/go-fusion/landmark"
	"github.com/milosgajdos/go-fusion/particle"
	"github.com/milosgajdos/go-fusion/particle/bf"
	"github.com/milosgajdos/go-fusion/sim"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
)

func doLocalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	mapPath, err := cmd.Flags().GetString("map")
	if err != nil {
		return err
	}

	m, err := loadMap(cfg, mapPath)
	if err != nil {
		return err
	}

	dump, _ := cmd.Flags().GetString("dump")
	verbose, _ := cmd.Flags().GetBool("verbose")

	res, err := runLocalize(cfg, m, cmd.OutOrStdout(), dump, verbose)
	if err != nil {
		return err
	}

	if plotPath, _ := cmd.Flags().GetString("plot"); plotPath != "" {
		plt, err := sim.New2DPlot(res.truth, res.gps, res.filtered)
		if err != nil {
			return fmt.Errorf("failed to make plot: %w", err)
		}
		if err := sim.AddLandmarks(plt, m); err != nil {
			return fmt.Errorf("failed to plot landmarks: %w", err)
		}
		if err := plt.Save(10*vg.Inch, 10*vg.Inch, plotPath); err != nil {
			return fmt.Errorf("failed to save plot to %s: %w", plotPath, err)
		}
	}

	return nil
}

func loadMap(cfg *config.Config, path string) (*landmark.Map, error) {
	if path == "" {
		b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{cfg.Sim.Area, cfg.Sim.Area}}
		return sim.RandomMap(cfg.Sim.Landmarks, b, cfg.Sim.Seed)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open landmark map: %w", err)
	}
	defer f.Close()

	m, err := dataset.ReadMap(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read landmark map: %w", err)
	}

	return m, nil
}

type localizeResult struct {
	rmse       *mat.VecDense
	degenerate int
	truth      *mat.Dense
	gps        *mat.Dense
	filtered   *mat.Dense
}

func runLocalize(cfg *config.Config, m *landmark.Map, out io.Writer, dump string, verbose bool) (*localizeResult, error) {
	if cfg.Sim.Steps < 2 {
		return nil, fmt.Errorf("invalid number of steps: %d", cfg.Sim.Steps)
	}

	bc, err := cfg.Localization.Config()
	if err != nil {
		return nil, err
	}

	f, err := bf.New(bc, m)
	if err != nil {
		return nil, err
	}

	start := particle.Pose{X: cfg.Sim.Area / 2, Y: cfg.Sim.Area / 2}
	if m.Len() > 0 {
		c := m.Bound().Center()
		start = particle.Pose{X: c.X(), Y: c.Y()}
	}

	vehicle, err := sim.NewVehicle(start, m, sim.VehicleConfig{
		GPSStd:      bc.InitStd,
		LandmarkStd: bc.LandmarkStd,
		SensorRange: bc.SensorRange,
		Seed:        cfg.Sim.Seed,
	})
	if err != nil {
		return nil, err
	}

	steps := cfg.Sim.Steps
	res := &localizeResult{
		truth:    mat.NewDense(steps, 2, nil),
		gps:      mat.NewDense(steps, 2, nil),
		filtered: mat.NewDense(steps, 2, nil),
	}

	c := bf.Control{Dt: cfg.Sim.Dt, Velocity: cfg.Sim.Velocity, YawRate: cfg.Sim.YawRate}

	estimates := make([]mat.Vector, steps)
	truth := make([]mat.Vector, steps)
	for i := 0; i < steps; i++ {
		if i > 0 {
			vehicle.Move(c)
		}
		pose := vehicle.Pose()
		gps := vehicle.GPS()

		r, err := f.Step(gps, c, vehicle.Observe())
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if r.Degenerate {
			res.degenerate++
		}

		if dump != "" {
			if err := f.DumpFile(dump); err != nil {
				return nil, err
			}
		}

		res.truth.Set(i, 0, pose.X)
		res.truth.Set(i, 1, pose.Y)
		res.gps.Set(i, 0, gps.X)
		res.gps.Set(i, 1, gps.Y)
		res.filtered.Set(i, 0, r.Mean.X)
		res.filtered.Set(i, 1, r.Mean.Y)

		// heading error is compared on the wrapped difference
		est := r.Mean.Vec()
		est.SetVec(2, pose.Theta+ekf.NormalizeAngle(r.Mean.Theta-pose.Theta))
		estimates[i] = est
		truth[i] = pose.Vec()

		if verbose {
			fmt.Fprintf(out, "STEP %d: truth %v mean %v best %v\n", i, pose, r.Mean, r.Best.Pose)
		}
	}

	res.rmse, err = estimate.RMSE(estimates, truth)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "steps %d, degenerate %d\n", steps, res.degenerate)
	fmt.Fprintf(out, "RMSE [x y theta]: %.4f %.4f %.4f\n", res.rmse.AtVec(0), res.rmse.AtVec(1), res.rmse.AtVec(2))

	return res, nil
}
