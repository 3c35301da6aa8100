// Package rand provides random sampling helpers that draw from a caller owned source.
package rand

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// NewSource returns a new random source seeded with seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewSource(seed)
}

// WithCovN draws n random samples from a zero-mean Normal (aka Gaussian) distribution with covariance cov.
// Samples are drawn from src; if src is nil the global source is used.
// It returns matrix which contains the randomly generated samples stored in its columns.
// It fails with error if n is non-positive or if SVD factorization of cov fails.
func WithCovN(cov mat.Symmetric, n int, src rand.Source) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid number of samples requested: %d", n)
	}

	U, err := SqrtCov(cov)
	if err != nil {
		return nil, err
	}

	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	rows := cov.SymmetricDim()
	data := make([]float64, rows*n)
	for i := range data {
		data[i] = norm.Rand()
	}
	samples := mat.NewDense(rows, n, data)
	samples.Mul(U, samples)

	return samples, nil
}

// SqrtCov returns matrix A such that A*A' equals covariance cov.
// Negative eigenvalues caused by rounding are clamped to zero, so cov may be
// singular as long as it is positive semidefinite.
// It fails with error if cov is empty or if SVD factorization of cov fails.
func SqrtCov(cov mat.Symmetric) (*mat.Dense, error) {
	if cov == nil || cov.SymmetricDim() == 0 {
		return nil, fmt.Errorf("invalid covariance matrix: %v", cov)
	}

	// Use SVD instead of Cholesky as Cholesky can be numerically unstable if cov is (almost) singular
	var svd mat.SVD
	if ok := svd.Factorize(cov, mat.SVDFull); !ok {
		return nil, fmt.Errorf("SVD factorization failed")
	}

	U := new(mat.Dense)
	svd.UTo(U)
	vals := svd.Values(nil)
	for i := range vals {
		vals[i] = math.Sqrt(math.Max(vals[i], 0))
	}
	U.Mul(U, mat.NewDiagDense(len(vals), vals))

	return U, nil
}

// RouletteDrawN draws n numbers randomly from a probability mass function (PMF) defined by weights in p.
// RouletteDrawN implements the Roulette Wheel Draw a.k.a. Fitness Proportionate Selection:
// - https://en.wikipedia.org/wiki/Fitness_proportionate_selection
// - http://www.keithschwarz.com/darts-dice-coins/
// Uniform draws come from src; if src is nil the global source is used.
// It returns a slice of n indices into p.
// It fails with error if p is empty, contains negative or non-finite weights or sums to zero.
func RouletteDrawN(p []float64, n int, src rand.Source) ([]int, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("invalid probability weights: %v", p)
	}

	if n < 0 {
		return nil, fmt.Errorf("invalid number of draws requested: %d", n)
	}

	for i, w := range p {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("invalid probability weight %v at %d", w, i)
		}
	}

	// cdf is sorted in ascending order
	cdf := make([]float64, len(p))
	floats.CumSum(cdf, p)

	total := cdf[len(cdf)-1]
	if total <= 0 || math.IsInf(total, 0) {
		return nil, fmt.Errorf("invalid probability weights total: %v", total)
	}

	unit := distuv.Uniform{Min: 0, Max: 1, Src: src}

	indices := make([]int, n)
	for i := range indices {
		// scale by the largest CDF value instead of normalizing p
		val := unit.Rand() * total
		// smallest index such that cdf[i] > val
		idx := sort.Search(len(cdf), func(i int) bool { return cdf[i] > val })
		if idx == len(cdf) {
			idx = len(cdf) - 1
		}
		indices[i] = idx
	}

	return indices, nil
}
