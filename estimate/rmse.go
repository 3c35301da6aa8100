package estimate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RMSE returns per-component root mean square error of estimates against ground truth.
// It returns error if the slices are empty, have different lengths or contain vectors
// of different dimensions.
func RMSE(estimates, truth []mat.Vector) (*mat.VecDense, error) {
	if len(estimates) == 0 || len(estimates) != len(truth) {
		return nil, fmt.Errorf("invalid RMSE input: %d estimates, %d ground truth values", len(estimates), len(truth))
	}

	n := estimates[0].Len()
	rmse := mat.NewVecDense(n, nil)
	diff := mat.NewVecDense(n, nil)

	for i := range estimates {
		if estimates[i].Len() != n || truth[i].Len() != n {
			return nil, fmt.Errorf("invalid dimensions at %d: estimate %d, truth %d, expected %d",
				i, estimates[i].Len(), truth[i].Len(), n)
		}
		diff.SubVec(estimates[i], truth[i])
		diff.MulElemVec(diff, diff)
		rmse.AddVec(rmse, diff)
	}

	rmse.ScaleVec(1/float64(len(estimates)), rmse)
	for i := 0; i < n; i++ {
		rmse.SetVec(i, math.Sqrt(rmse.AtVec(i)))
	}

	return rmse, nil
}
