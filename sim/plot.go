package sim

import (
	"fmt"
	"image/color"

	"github.com/milosgajdos/go-fusion/landmark"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// New2DPlot creates new plot of the simulation from the three data sources
// holding one [x, y] point per row:
// truth:   ground truth values
// measure: measurement values
// filter:  filter values
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * either of the supplied data matrices is nil
// * either of the supplied data matrices does not have at least 2 columns
// * gonum plot fails to be created
func New2DPlot(truth, measure, filter *mat.Dense) (*plot.Plot, error) {
	if truth == nil || measure == nil || filter == nil {
		return nil, fmt.Errorf("invalid data supplied")
	}

	for _, m := range []*mat.Dense{truth, measure, filter} {
		if _, c := m.Dims(); c < 2 {
			return nil, fmt.Errorf("invalid data dimensions")
		}
	}

	p := plot.New()

	p.Title.Text = "Simulation"
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	if err := addScatter(p, "truth", truth, color.RGBA{R: 255, B: 128, A: 255}, draw.PyramidGlyph{}); err != nil {
		return nil, err
	}

	if err := addScatter(p, "measurement", measure, color.RGBA{G: 255, A: 128}, draw.CircleGlyph{}); err != nil {
		return nil, err
	}

	if err := addScatter(p, "filtered", filter, color.RGBA{R: 169, G: 169, B: 169, A: 255}, draw.CrossGlyph{}); err != nil {
		return nil, err
	}

	return p, nil
}

// AddLandmarks adds landmarks of map m to plot p
func AddLandmarks(p *plot.Plot, m *landmark.Map) error {
	if p == nil || m == nil {
		return fmt.Errorf("invalid plot or landmark map")
	}

	pts := make(plotter.XYs, m.Len())
	for i := 0; i < m.Len(); i++ {
		pts[i].X = m.At(i).Pos.X()
		pts[i].Y = m.At(i).Pos.Y()
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to create scatter: %w", err)
	}
	s.GlyphStyle.Color = color.RGBA{B: 255, A: 255}
	s.Shape = draw.BoxGlyph{}
	s.GlyphStyle.Radius = vg.Points(4)

	p.Add(s)
	p.Legend.Add("landmarks", s)

	return nil
}

func addScatter(p *plot.Plot, name string, m *mat.Dense, c color.Color, shape draw.GlyphDrawer) error {
	s, err := plotter.NewScatter(makePoints(m))
	if err != nil {
		return fmt.Errorf("failed to create %s scatter: %w", name, err)
	}
	s.GlyphStyle.Color = c
	s.Shape = shape
	s.GlyphStyle.Radius = vg.Points(3)

	p.Add(s)
	p.Legend.Add(name, s)

	return nil
}

func makePoints(m *mat.Dense) plotter.XYs {
	r, _ := m.Dims()
	pts := make(plotter.XYs, r)
	for i := 0; i < r; i++ {
		pts[i].X = m.At(i, 0)
		pts[i].Y = m.At(i, 1)
	}

	return pts
}
