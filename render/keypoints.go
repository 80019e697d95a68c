package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// PointStyle defines the parameters used for rendering feature points
type PointStyle struct {
	// Same defines if every point is drawn in the same Color, otherwise the
	// points cycle through the class colors
	Same   bool
	Color  color.RGBA
	Radius int
}

// DefaultPointStyle returns default feature point style settings
func DefaultPointStyle() PointStyle {
	return PointStyle{
		Same:   true,
		Color:  Green,
		Radius: 2,
	}
}

// Points renders a filled circle at each feature point
func Points(img *gocv.Mat, points []image.Point, style PointStyle) {

	for i, pt := range points {

		clr := style.Color

		if !style.Same {
			clr = PointColor(i)
		}

		gocv.Circle(img, pt, style.Radius, bgr(clr), -1)
	}
}
