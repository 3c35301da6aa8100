package bf

import (
	"fmt"
	"math"

	"github.com/milosgajdos/go-fusion/particle"
	rnd "github.com/milosgajdos/go-fusion/rand"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// YawRateEpsilon is the yaw rate magnitude below which vehicle motion is treated as straight
const YawRateEpsilon = 0.001

// Control is vehicle control input applied over a time step
type Control struct {
	// Dt is time step in seconds
	Dt float64
	// Velocity is forward velocity
	Velocity float64
	// YawRate is heading change rate in radians per second
	YawRate float64
}

// Initialize places every particle of s at pose perturbed by independent Gaussian
// noise with per axis standard deviations std and resets all weights to 1.0.
// It returns error if std contains negative values or the noise can't be drawn.
func Initialize(s *particle.Set, pose particle.Pose, std [3]float64, src rand.Source) error {
	if err := validStd(std[:]); err != nil {
		return err
	}

	cov := mat.NewSymDense(3, []float64{
		std[0] * std[0], 0, 0,
		0, std[1] * std[1], 0,
		0, 0, std[2] * std[2],
	})

	noise, err := rnd.WithCovN(cov, s.Len(), src)
	if err != nil {
		return fmt.Errorf("failed to generate particles: %w", err)
	}

	for i := 0; i < s.Len(); i++ {
		s.SetPose(i, particle.Pose{
			X:     pose.X + noise.At(0, i),
			Y:     pose.Y + noise.At(1, i),
			Theta: pose.Theta + noise.At(2, i),
		})
		s.SetWeight(i, 1.0)
	}

	return nil
}

// Move returns pose p advanced by control c without noise.
// Motion follows a circular arc when the yaw rate exceeds YawRateEpsilon
// and a straight line otherwise.
func Move(p particle.Pose, c Control) particle.Pose {
	if math.Abs(c.YawRate) > YawRateEpsilon {
		theta := p.Theta + c.YawRate*c.Dt
		r := c.Velocity / c.YawRate

		return particle.Pose{
			X:     p.X + r*(math.Sin(theta)-math.Sin(p.Theta)),
			Y:     p.Y + r*(math.Cos(p.Theta)-math.Cos(theta)),
			Theta: theta,
		}
	}

	d := c.Velocity * c.Dt
	sin, cos := math.Sincos(p.Theta)

	return particle.Pose{
		X:     p.X + d*cos,
		Y:     p.Y + d*sin,
		Theta: p.Theta,
	}
}

// Predict moves every particle of s by control c and adds independent
// Gaussian noise with per axis standard deviations std to each coordinate.
// Noise is drawn from src one particle at a time so a fixed seed reproduces the motion.
// It returns error if std contains negative values or dt is negative.
func Predict(s *particle.Set, c Control, std [3]float64, src rand.Source) error {
	if err := validStd(std[:]); err != nil {
		return err
	}

	if c.Dt < 0 || math.IsNaN(c.Dt) {
		return fmt.Errorf("invalid time step: %v", c.Dt)
	}

	nx := distuv.Normal{Mu: 0, Sigma: std[0], Src: src}
	ny := distuv.Normal{Mu: 0, Sigma: std[1], Src: src}
	nt := distuv.Normal{Mu: 0, Sigma: std[2], Src: src}

	for i := 0; i < s.Len(); i++ {
		p := Move(s.Pose(i), c)
		p.X += nx.Rand()
		p.Y += ny.Rand()
		p.Theta += nt.Rand()
		s.SetPose(i, p)
	}

	return nil
}

func validStd(std []float64) error {
	for i, v := range std {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid standard deviation %v at %d", v, i)
		}
	}

	return nil
}
