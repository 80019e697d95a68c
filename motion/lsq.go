package motion

import (
	"math"

	"github.com/swdee/go-vidstab/transform"
)

// LeastSquares is a pure Go SimilarityEstimator.  It solves the closed form
// least squares similarity between the two point sets, drops pairs whose
// residual exceeds the inlier threshold and refits once on the survivors.  It
// is not robust to a large share of outliers the way RANSAC is.
type LeastSquares struct{}

// Estimate implements SimilarityEstimator
func (LeastSquares) Estimate(from, to []Point, inlierThreshold float64) (transform.Affine, bool) {

	m, ok := similarity(from, to)

	if !ok || inlierThreshold <= 0 {
		return m, ok
	}

	inFrom := make([]Point, 0, len(from))
	inTo := make([]Point, 0, len(to))

	for i := range from {
		x, y := m.Apply(from[i].X, from[i].Y)

		if math.Hypot(x-to[i].X, y-to[i].Y) <= inlierThreshold {
			inFrom = append(inFrom, from[i])
			inTo = append(inTo, to[i])
		}
	}

	if len(inFrom) == len(from) {
		return m, true
	}

	// a similarity has four degrees of freedom so needs two pairs
	if len(inFrom) < 2 {
		return transform.Affine{}, false
	}

	return similarity(inFrom, inTo)
}

// similarity returns the least squares rotation, uniform scale and
// translation mapping from onto to
func similarity(from, to []Point) (transform.Affine, bool) {

	if len(from) != len(to) || len(from) < 2 {
		return transform.Affine{}, false
	}

	n := float64(len(from))

	var fc, tc Point

	for i := range from {
		fc = fc.Add(from[i])
		tc = tc.Add(to[i])
	}

	fc = Point{X: fc.X / n, Y: fc.Y / n}
	tc = Point{X: tc.X / n, Y: tc.Y / n}

	var sDot, sCross, sNorm float64

	for i := range from {
		a := from[i].Sub(fc)
		b := to[i].Sub(tc)

		sDot += a.X*b.X + a.Y*b.Y
		sCross += a.X*b.Y - a.Y*b.X
		sNorm += a.X*a.X + a.Y*a.Y
	}

	if sNorm == 0 {
		// all source points coincide
		return transform.Affine{}, false
	}

	// scale*cos and scale*sin of the rotation
	c := sDot / sNorm
	s := sCross / sNorm

	return transform.Affine{
		{c, -s, tc.X - (c*fc.X - s*fc.Y)},
		{s, c, tc.Y - (s*fc.X + c*fc.Y)},
	}, true
}
