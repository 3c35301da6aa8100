// Package kalman defines the interface shared by Kalman filters.
package kalman

import (
	filter "github.com/milosgajdos/go-fusion"
	"gonum.org/v1/gonum/mat"
)

// Kalman is Kalman Filter
type Kalman interface {
	// filter.Filter is linear-Gaussian filter
	filter.Filter
	// UpdateWith corrects filter state using measurement z, observer obs and noise R
	UpdateWith(z mat.Vector, obs filter.Observer, R mat.Symmetric) (filter.Estimate, error)
	// State returns Kalman filter state
	State() mat.Vector
	// Cov returns Kalman filter state covariance
	Cov() mat.Symmetric
	// Gain returns Kalman filter gain
	Gain() mat.Matrix
}
