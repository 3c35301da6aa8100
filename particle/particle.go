// Package particle provides weighted pose hypotheses used by particle filters.
package particle

import (
	"fmt"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/mat"
)

// Pose is a planar vehicle pose
type Pose struct {
	// X is position along map x axis
	X float64
	// Y is position along map y axis
	Y float64
	// Theta is heading in radians
	Theta float64
}

// Point returns pose position
func (p Pose) Point() orb.Point {
	return orb.Point{p.X, p.Y}
}

// Vec returns pose as [x, y, theta] vector
func (p Pose) Vec() *mat.VecDense {
	return mat.NewVecDense(3, []float64{p.X, p.Y, p.Theta})
}

// String implements the Stringer interface.
func (p Pose) String() string {
	return fmt.Sprintf("%g %g %g", p.X, p.Y, p.Theta)
}

// Particle is a single weighted pose hypothesis
type Particle struct {
	// ID is particle identifier
	ID int
	// Pose is hypothesized pose
	Pose Pose
	// Weight is importance weight
	Weight float64
}
