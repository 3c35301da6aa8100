// Package landmark provides the read-only landmark map used for localization.
package landmark

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Landmark is a map feature with a fixed map frame position
type Landmark struct {
	// ID is landmark identifier
	ID int
	// Pos is landmark position in map frame
	Pos orb.Point
}

// Map is an ordered read-only collection of landmarks
type Map struct {
	landmarks []Landmark
	index     map[int]int
	bound     orb.Bound
}

// NewMap creates new landmark Map from landmarks and returns it.
// Landmarks keep their order. It returns error if two landmarks share
// an ID or a landmark position is not finite.
func NewMap(landmarks []Landmark) (*Map, error) {
	m := &Map{
		landmarks: make([]Landmark, len(landmarks)),
		index:     make(map[int]int, len(landmarks)),
	}

	mp := make(orb.MultiPoint, 0, len(landmarks))
	for i, l := range landmarks {
		if _, ok := m.index[l.ID]; ok {
			return nil, fmt.Errorf("duplicate landmark id: %d", l.ID)
		}

		if !finite(l.Pos) {
			return nil, fmt.Errorf("invalid landmark %d position: %v", l.ID, l.Pos)
		}

		m.landmarks[i] = l
		m.index[l.ID] = i
		mp = append(mp, l.Pos)
	}
	m.bound = mp.Bound()

	return m, nil
}

// Len returns number of landmarks in the map
func (m *Map) Len() int {
	return len(m.landmarks)
}

// At returns i-th landmark.
// It panics if i is out of range.
func (m *Map) At(i int) Landmark {
	return m.landmarks[i]
}

// Lookup returns landmark with the given id.
func (m *Map) Lookup(id int) (Landmark, bool) {
	i, ok := m.index[id]
	if !ok {
		return Landmark{}, false
	}

	return m.landmarks[i], true
}

// Within returns landmarks closer than Euclidean distance radius to center
// in map order. Landmarks exactly at radius are out of range.
func (m *Map) Within(center orb.Point, radius float64) []Landmark {
	if radius < 0 {
		return nil
	}

	r2 := radius * radius

	var res []Landmark
	for _, l := range m.landmarks {
		if planar.DistanceSquared(center, l.Pos) < r2 {
			res = append(res, l)
		}
	}

	return res
}

// Bound returns bounding box of all landmarks
func (m *Map) Bound() orb.Bound {
	return m.bound
}

// Landmarks returns a copy of map landmarks
func (m *Map) Landmarks() []Landmark {
	res := make([]Landmark, len(m.landmarks))
	copy(res, m.landmarks)

	return res
}

func finite(p orb.Point) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
