package transform

import (
	"image"
	"math"

	clipper "github.com/ctessum/go.clipper"
)

// coverageScale is the fixed point scale used to convert pixel coordinates to
// the integer coordinates clipper works in
const coverageScale = 1000

// Coverage returns the fraction [0,1] of an output frame of the given size
// that is covered by the source frame after it has been warped by m.  A
// value below 1 means black borders are exposed in the output.
func Coverage(m Affine, size image.Point) float64 {

	if size.X <= 0 || size.Y <= 0 || !m.IsFinite() {
		return 0
	}

	w := float64(size.X)
	h := float64(size.Y)

	// corners of the source frame mapped into output space
	var subject clipper.Path

	for _, pt := range [][2]float64{{0, 0}, {w, 0}, {w, h}, {0, h}} {
		x, y := m.Apply(pt[0], pt[1])
		subject = append(subject, toIntPoint(x, y))
	}

	frame := clipper.Path{
		toIntPoint(0, 0),
		toIntPoint(w, 0),
		toIntPoint(w, h),
		toIntPoint(0, h),
	}

	c := clipper.NewClipper(0)
	c.AddPath(subject, clipper.PtSubject, true)
	c.AddPath(frame, clipper.PtClip, true)

	solution, ok := c.Execute1(clipper.CtIntersection, clipper.PftNonZero,
		clipper.PftNonZero)

	if !ok {
		return 0
	}

	covered := 0.0

	for _, path := range solution {
		// clipper.Area is signed by winding order
		covered += math.Abs(clipper.Area(path))
	}

	frameArea := w * h * coverageScale * coverageScale

	return math.Min(1, covered/frameArea)
}

// toIntPoint converts pixel coordinates to a scaled clipper point
func toIntPoint(x, y float64) *clipper.IntPoint {
	return &clipper.IntPoint{
		X: clipper.CInt(math.Round(x * coverageScale)),
		Y: clipper.CInt(math.Round(y * coverageScale)),
	}
}
