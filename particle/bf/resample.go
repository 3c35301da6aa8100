package bf

import (
	"fmt"
	"math"

	"github.com/milosgajdos/go-fusion/particle"
	rnd "github.com/milosgajdos/go-fusion/rand"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// Resample replaces particles of s with particles drawn with replacement with
// probability proportional to their weights.
// Resampled particles represent the posterior by their count, so all weights are
// reset to 1.0 afterwards.
// When the weights sum to zero or a non-finite value every particle is drawn with
// equal probability and degenerate is true.
func Resample(s *particle.Set, src rand.Source) (degenerate bool, err error) {
	w := s.Weights()

	sum := floats.Sum(w)
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		degenerate = true
		for i := range w {
			w[i] = 1.0
		}
	}

	indices, err := rnd.RouletteDrawN(w, s.Len(), src)
	if err != nil {
		return degenerate, fmt.Errorf("failed to sample particles: %w", err)
	}

	if err := s.Replace(indices); err != nil {
		return degenerate, fmt.Errorf("failed to replace particles: %w", err)
	}

	for i := range w {
		w[i] = 1.0
	}
	if err := s.SetWeights(w); err != nil {
		return degenerate, err
	}

	return degenerate, nil
}
