package filter

import "gonum.org/v1/gonum/mat"

// Filter is a linear-Gaussian recursive state estimator.
type Filter interface {
	// Predict propagates filter state with transition matrix F and process noise Q
	Predict(F mat.Matrix, Q mat.Symmetric) (Estimate, error)
	// Update corrects filter state using measurement z, observation matrix H and noise R
	Update(z mat.Vector, H mat.Matrix, R mat.Symmetric) (Estimate, error)
}

// Observer maps filter state into measurement space
type Observer interface {
	// Observe returns expected measurement for state x
	Observe(x mat.Vector) (mat.Vector, error)
	// Jacobian returns observation Jacobian evaluated at state x
	Jacobian(x mat.Vector) (mat.Matrix, error)
	// Residual returns the difference between measurement z and expected measurement y
	Residual(z, y mat.Vector) mat.Vector
}

// InitCond is initial state condition of the filter
type InitCond interface {
	// State returns initial filter state
	State() mat.Vector
	// Cov returns initial state covariance
	Cov() mat.Symmetric
}

// Estimate is dynamical system filter estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
}
