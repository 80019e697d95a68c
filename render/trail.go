package render

import (
	"image"
	"image/color"

	"github.com/swdee/go-vidstab/tracker"
	"gocv.io/x/gocv"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	LineColor     color.RGBA
	LineThickness int
	// CircleColor is used for the circle marking the newest trail point
	CircleColor  color.RGBA
	CircleRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineColor:     Yellow,
		LineThickness: 1,
		CircleColor:   Pink,
		CircleRadius:  3,
	}
}

// Trail draws the subject position history on the source image, oldest
// point first
func Trail(img *gocv.Mat, points []tracker.Point, style TrailStyle) {

	if len(points) == 0 {
		return
	}

	for i := 1; i < len(points); i++ {
		// draw line segment of trail
		gocv.Line(img,
			image.Pt(points[i-1].X, points[i-1].Y),
			image.Pt(points[i].X, points[i].Y),
			bgr(style.LineColor), style.LineThickness,
		)
	}

	// draw circle on the current subject position
	last := points[len(points)-1]
	gocv.Circle(img, image.Pt(last.X, last.Y), style.CircleRadius,
		bgr(style.CircleColor), -1)
}
