// Package trajectory integrates per frame camera motion into an absolute
// camera path and smooths that path under a symmetric temporal window.
package trajectory

// Point is the cumulative camera position at a frame in (x translation,
// y translation, rotation angle in radians) space
type Point struct {
	X float64
	Y float64
	A float64
}

// Add returns the component wise sum p + o
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y, A: p.A + o.A}
}

// Sub returns the component wise difference p - o
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y, A: p.A - o.A}
}

// Delta is a relative motion step between two consecutive frames
type Delta interface {
	Components() (dx, dy, da float64)
}

// Accumulate folds the relative motion of each frame into an absolute path.
// The first frame has no predecessor so it always sits at the origin,
// regardless of the value of deltas[0].  The returned path has one Point
// per delta.
func Accumulate[D Delta](deltas []D) []Point {

	path := make([]Point, len(deltas))

	for i := 1; i < len(deltas); i++ {
		dx, dy, da := deltas[i].Components()
		path[i] = path[i-1].Add(Point{X: dx, Y: dy, A: da})
	}

	return path
}
