package particle

import (
	"fmt"
	"math"

	"github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Set is a fixed size collection of particles with a parallel weight vector.
// The number of particles never changes after the set is created.
type Set struct {
	particles []Particle
	weights   []float64
}

// NewSet creates new set of n particles at the origin with unit weights and returns it.
// It returns error if n is not positive.
func NewSet(n int) (*Set, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid particle count: %d", n)
	}

	s := &Set{
		particles: make([]Particle, n),
		weights:   make([]float64, n),
	}

	for i := range s.particles {
		s.particles[i] = Particle{ID: i, Weight: 1.0}
		s.weights[i] = 1.0
	}

	return s, nil
}

// Len returns number of particles
func (s *Set) Len() int {
	return len(s.particles)
}

// At returns i-th particle.
// It panics if i is out of range.
func (s *Set) At(i int) Particle {
	return s.particles[i]
}

// Pose returns pose of i-th particle
func (s *Set) Pose(i int) Pose {
	return s.particles[i].Pose
}

// SetPose sets pose of i-th particle
func (s *Set) SetPose(i int, p Pose) {
	s.particles[i].Pose = p
}

// Weights returns a copy of particle weights
func (s *Set) Weights() []float64 {
	w := make([]float64, len(s.weights))
	copy(w, s.weights)

	return w
}

// SetWeight sets weight of i-th particle
func (s *Set) SetWeight(i int, w float64) {
	s.weights[i] = w
	s.particles[i].Weight = w
}

// SetWeights sets all particle weights.
// It returns error if the number of weights does not match the number of particles.
func (s *Set) SetWeights(w []float64) error {
	if len(w) != len(s.weights) {
		return fmt.Errorf("invalid weights length: %d, expected %d", len(w), len(s.weights))
	}

	for i := range w {
		s.SetWeight(i, w[i])
	}

	return nil
}

// Particles returns a copy of all particles
func (s *Set) Particles() []Particle {
	p := make([]Particle, len(s.particles))
	copy(p, s.particles)

	return p
}

// Replace replaces the set with particles selected by indices. Selected particles
// are copied with their poses and weights and get IDs matching their new position.
// It returns error if the number of indices does not match the set size or any index is out of range.
func (s *Set) Replace(indices []int) error {
	if len(indices) != len(s.particles) {
		return fmt.Errorf("invalid number of indices: %d, expected %d", len(indices), len(s.particles))
	}

	particles := make([]Particle, len(s.particles))
	for i, idx := range indices {
		if idx < 0 || idx >= len(s.particles) {
			return fmt.Errorf("particle index out of range: %d", idx)
		}
		particles[i] = s.particles[idx]
		particles[i].ID = i
	}

	s.particles = particles
	for i := range s.particles {
		s.weights[i] = s.particles[i].Weight
	}

	return nil
}

// Mean returns weighted mean pose of the set. Heading is averaged on the unit circle.
// If the weights do not sum to a positive finite value all particles count equally.
func (s *Set) Mean() Pose {
	w := s.Weights()

	sum := floats.Sum(w)
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		for i := range w {
			w[i] = 1.0
		}
		sum = float64(len(w))
	}

	var x, y, sin, cos float64
	for i, p := range s.particles {
		x += w[i] * p.Pose.X
		y += w[i] * p.Pose.Y
		sn, cs := math.Sincos(p.Pose.Theta)
		sin += w[i] * sn
		cos += w[i] * cs
	}

	return Pose{
		X:     x / sum,
		Y:     y / sum,
		Theta: math.Atan2(sin, cos),
	}
}

// Best returns the particle with the highest weight.
// When several particles share the highest weight the first one is returned.
func (s *Set) Best() Particle {
	best := 0
	for i := 1; i < len(s.weights); i++ {
		if s.weights[i] > s.weights[best] {
			best = i
		}
	}

	return s.particles[best]
}

// Matrix returns particle poses stored in the columns of a 3 x N matrix
func (s *Set) Matrix() *mat.Dense {
	m := mat.NewDense(3, len(s.particles), nil)
	for i, p := range s.particles {
		m.Set(0, i, p.Pose.X)
		m.Set(1, i, p.Pose.Y)
		m.Set(2, i, p.Pose.Theta)
	}

	return m
}

// Cov returns covariance matrix of particle poses.
// It returns error if the covariance can't be computed.
func (s *Set) Cov() (mat.Symmetric, error) {
	cov, err := matrix.Cov(s.Matrix(), "cols")
	if err != nil {
		return nil, fmt.Errorf("failed to calculate covariance matrix: %w", err)
	}

	return cov, nil
}
