package sim

import (
	"testing"

	"github.com/milosgajdos/go-fusion/landmark"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNew2DPlot(t *testing.T) {
	assert := assert.New(t)

	truth := mat.NewDense(3, 2, nil)
	measure := mat.NewDense(3, 2, nil)
	filter := mat.NewDense(3, 2, nil)

	plt, err := New2DPlot(truth, measure, filter)
	assert.NotNil(plt)
	assert.NoError(err)

	plt, err = New2DPlot(nil, nil, nil)
	assert.Nil(plt)
	assert.Error(err)

	plt, err = New2DPlot(truth, measure, mat.NewDense(3, 1, nil))
	assert.Nil(plt)
	assert.Error(err)
}

func TestAddLandmarks(t *testing.T) {
	assert := assert.New(t)

	plt, err := New2DPlot(mat.NewDense(2, 2, nil), mat.NewDense(2, 2, nil), mat.NewDense(2, 2, nil))
	assert.NoError(err)

	m, err := landmark.NewMap([]landmark.Landmark{{ID: 1, Pos: orb.Point{1, 2}}, {ID: 2, Pos: orb.Point{3, 4}}})
	assert.NoError(err)

	assert.NoError(AddLandmarks(plt, m))
	assert.Error(AddLandmarks(plt, nil))
	assert.Error(AddLandmarks(nil, m))
}
