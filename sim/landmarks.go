package sim

import (
	"fmt"

	"github.com/milosgajdos/go-fusion/landmark"
	"github.com/paulmach/orb"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// RandomMap returns map of n landmarks placed uniformly in bound b.
// Landmarks are numbered from 1.
func RandomMap(n int, b orb.Bound, seed uint64) (*landmark.Map, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid landmark count: %d", n)
	}

	src := rand.NewSource(seed)
	ux := distuv.Uniform{Min: b.Min.X(), Max: b.Max.X(), Src: src}
	uy := distuv.Uniform{Min: b.Min.Y(), Max: b.Max.Y(), Src: src}

	landmarks := make([]landmark.Landmark, n)
	for i := range landmarks {
		landmarks[i] = landmark.Landmark{
			ID:  i + 1,
			Pos: orb.Point{ux.Rand(), uy.Rand()},
		}
	}

	return landmark.NewMap(landmarks)
}
