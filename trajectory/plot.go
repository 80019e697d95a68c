package trajectory

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	clrRawX      = color.RGBA{R: 255, G: 56, B: 56, A: 255}
	clrSmoothedX = color.RGBA{R: 132, G: 0, B: 0, A: 255}
	clrRawY      = color.RGBA{R: 0, G: 194, B: 255, A: 255}
	clrSmoothedY = color.RGBA{R: 0, G: 24, B: 236, A: 255}
)

// SavePlot renders the x and y translation of the raw and smoothed camera
// path against frame number and saves it to file.  The image format is
// taken from the file extension, eg: .png or .svg
func SavePlot(raw, smoothed []Point, file string) error {

	if len(raw) != len(smoothed) {
		return fmt.Errorf("raw and smoothed path lengths differ: %d != %d",
			len(raw), len(smoothed))
	}

	p := plot.New()
	p.Title.Text = filepath.Base(file)
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "pixels"

	series := []struct {
		label string
		clr   color.RGBA
		dash  bool
		value func(Point) float64
		path  []Point
	}{
		{"raw x", clrRawX, true, func(pt Point) float64 { return pt.X }, raw},
		{"smoothed x", clrSmoothedX, false, func(pt Point) float64 { return pt.X }, smoothed},
		{"raw y", clrRawY, true, func(pt Point) float64 { return pt.Y }, raw},
		{"smoothed y", clrSmoothedY, false, func(pt Point) float64 { return pt.Y }, smoothed},
	}

	for _, s := range series {
		pts := make(plotter.XYs, len(s.path))

		for i, pt := range s.path {
			pts[i] = plotter.XY{X: float64(i), Y: s.value(pt)}
		}

		line, err := plotter.NewLine(pts)

		if err != nil {
			return fmt.Errorf("failed to create %s line: %w", s.label, err)
		}

		line.Color = s.clr
		line.Width = vg.Points(1)

		if s.dash {
			line.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
		}

		p.Add(line)
		p.Legend.Add(s.label, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("failed to save trajectory plot: %w", err)
	}

	return nil
}
