// Package smooth provides offline smoothers of recorded filter estimates.
package smooth

import filter "github.com/milosgajdos/go-fusion"

// Smoother smooths a sequence of filter estimates
type Smoother interface {
	// Smooth returns smoothed estimates of est recorded at timestamps ts given in microseconds
	Smooth(est []filter.Estimate, ts []int64) ([]filter.Estimate, error)
}
