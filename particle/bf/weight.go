package bf

import (
	"fmt"
	"math"
	"runtime"

	"github.com/milosgajdos/go-fusion/landmark"
	"github.com/milosgajdos/go-fusion/particle"
	"golang.org/x/sync/errgroup"
)

// Likelihood returns bivariate Gaussian density of residual (dx, dy) with
// independent axes and standard deviations sx and sy.
func Likelihood(dx, dy, sx, sy float64) float64 {
	norm := 1 / (2 * math.Pi * sx * sy)
	exponent := dx*dx/(2*sx*sx) + dy*dy/(2*sy*sy)

	return norm * math.Exp(-exponent)
}

// Weight returns product of likelihoods of all associated observations in assocs.
// Unassociated observations do not change the weight.
func Weight(assocs []Association, std [2]float64) float64 {
	w := 1.0
	for _, a := range assocs {
		if !a.Associated() {
			continue
		}
		w *= Likelihood(a.Obs.X()-a.Landmark.X(), a.Obs.Y()-a.Landmark.Y(), std[0], std[1])
	}

	return w
}

// Weigher evaluates particle importance weights against a landmark map
type Weigher struct {
	// Map is landmark map
	Map *landmark.Map
	// SensorRange is the maximum distance of landmarks considered for association
	SensorRange float64
	// Metric is association distance metric
	Metric landmark.Metric
	// Std holds landmark measurement standard deviations along x and y
	Std [2]float64
	// Workers is the number of goroutines evaluating particles; 0 uses all CPUs
	Workers int
}

// Update sets the weight of every particle in s to the likelihood of observations obs.
// Particles are split between workers; the result does not depend on the number of workers.
func (w *Weigher) Update(s *particle.Set, obs []landmark.Observation) error {
	if w.Std[0] <= 0 || w.Std[1] <= 0 {
		return fmt.Errorf("invalid landmark standard deviation: %v", w.Std)
	}

	if s.Len() == 0 {
		return nil
	}

	workers := w.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > s.Len() {
		workers = s.Len()
	}

	weights := make([]float64, s.Len())
	chunk := (s.Len() + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < s.Len(); start += chunk {
		start, end := start, min(start+chunk, s.Len())
		g.Go(func() error {
			for i := start; i < end; i++ {
				assocs := Associate(s.Pose(i), obs, w.Map, w.SensorRange, w.Metric)
				weights[i] = Weight(assocs, w.Std)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return s.SetWeights(weights)
}
