package bf

import (
	"github.com/milosgajdos/go-fusion/landmark"
	"github.com/milosgajdos/go-fusion/particle"
	"github.com/paulmach/orb"
)

// Association links a map frame observation to its nearest landmark
type Association struct {
	// ID is associated landmark id or landmark.Unassociated
	ID int
	// Distance is distance between the observation and the landmark
	Distance float64
	// Obs is observation position in map frame
	Obs orb.Point
	// Landmark is position of the associated landmark
	Landmark orb.Point
}

// Associated returns true if the observation was matched to a landmark
func (a Association) Associated() bool {
	return a.ID != landmark.Unassociated
}

// Nearest matches every map frame observation in obs to the closest landmark in
// candidates using metric. On equal distances the landmark listed first wins.
// Observations get landmark.Unassociated id when there are no candidates.
func Nearest(candidates []landmark.Landmark, obs []orb.Point, metric landmark.Metric) []Association {
	res := make([]Association, len(obs))

	for i, o := range obs {
		res[i] = Association{ID: landmark.Unassociated, Obs: o}

		for j, l := range candidates {
			d := metric.Distance(o, l.Pos)
			if j == 0 || d < res[i].Distance {
				res[i].ID = l.ID
				res[i].Distance = d
				res[i].Landmark = l.Pos
			}
		}
	}

	return res
}

// Associate transforms vehicle frame observations into map frame using pose
// and matches them to the nearest landmarks of m within sensorRange of the pose.
func Associate(pose particle.Pose, obs []landmark.Observation, m *landmark.Map, sensorRange float64, metric landmark.Metric) []Association {
	candidates := m.Within(pose.Point(), sensorRange)

	points := make([]orb.Point, len(obs))
	for i, o := range obs {
		points[i] = landmark.ToMap(o, pose.X, pose.Y, pose.Theta)
	}

	return Nearest(candidates, points, metric)
}
