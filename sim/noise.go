package sim

import (
	filter "github.com/milosgajdos/go-fusion"
	"github.com/milosgajdos/go-fusion/noise"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// newNoise returns zero mean noise with covariance cov drawing from src.
// All-zero covariance yields noise.Zero.
func newNoise(cov mat.Symmetric, src rand.Source) (filter.Noise, error) {
	n := cov.SymmetricDim()

	zero := true
	for i := 0; i < n && zero; i++ {
		for j := i; j < n; j++ {
			if cov.At(i, j) != 0 {
				zero = false
				break
			}
		}
	}

	if zero {
		return noise.NewZero(n)
	}

	return noise.NewGaussian(make([]float64, n), cov, src)
}

func diag(vals ...float64) *mat.SymDense {
	cov := mat.NewSymDense(len(vals), nil)
	for i, v := range vals {
		cov.SetSym(i, i, v)
	}

	return cov
}
