// Package noise provides sensor and process noise sources.
package noise

import (
	"fmt"

	rnd "github.com/milosgajdos/go-fusion/rand"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// psdTol is the tolerance of negative covariance eigenvalues
const psdTol = 1e-12

// Gaussian is gaussian noise
type Gaussian struct {
	// dist is a multivariate normal distribution; nil when cov is singular
	dist *distmv.Normal
	// root is square root of a singular cov used instead of dist
	root *mat.Dense
	// norm draws standard normal samples for root
	norm distuv.Normal
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov *mat.SymDense
}

// NewGaussian creates new Gaussian noise with given mean and covariance
// drawing its samples from src. The source is owned by the noise from now on.
// Covariance may be singular; axes with zero variance then always sample the mean.
// It returns error if cov is not positive semidefinite or it fails to create Gaussian.
func NewGaussian(mean []float64, cov mat.Symmetric, src rand.Source) (*Gaussian, error) {
	if cov == nil || len(mean) != cov.SymmetricDim() {
		return nil, fmt.Errorf("invalid gaussian noise: mean %v, cov %v", mean, cov)
	}

	m := make([]float64, len(mean))
	copy(m, mean)

	c := mat.NewSymDense(len(m), nil)
	c.CopySym(cov)

	if dist, ok := distmv.NewNormal(m, c, src); ok {
		return &Gaussian{
			dist: dist,
			mean: m,
			cov:  c,
		}, nil
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(c, false); !ok {
		return nil, fmt.Errorf("failed to create gaussian noise: eigen decomposition failed")
	}
	if low := floats.Min(eig.Values(nil)); low < -psdTol {
		return nil, fmt.Errorf("failed to create gaussian noise: covariance is not positive semidefinite: eigenvalue %v", low)
	}

	root, err := rnd.SqrtCov(c)
	if err != nil {
		return nil, fmt.Errorf("failed to create gaussian noise: %w", err)
	}

	return &Gaussian{
		root: root,
		norm: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		mean: m,
		cov:  c,
	}, nil
}

// Sample generates a sample from Gaussian noise and returns it.
func (g *Gaussian) Sample() mat.Vector {
	if g.dist != nil {
		r := g.dist.Rand(nil)
		return mat.NewVecDense(len(r), r)
	}

	z := mat.NewVecDense(len(g.mean), nil)
	for i := 0; i < z.Len(); i++ {
		z.SetVec(i, g.norm.Rand())
	}

	r := mat.NewVecDense(len(g.mean), nil)
	r.MulVec(g.root, z)
	r.AddVec(r, mat.NewVecDense(len(g.mean), g.mean))

	return r
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return cov
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	mean := make([]float64, len(g.mean))
	copy(mean, g.mean)

	return mean
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}
