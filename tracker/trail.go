package tracker

import (
	"math"
	"sync"
)

// Point represents the x,y pixel coordinates of the subject position used
// for drawing the trail
type Point struct {
	X, Y int
}

// Trail is the struct to keep a history of estimated subject positions used
// for drawing a trail
type Trail struct {
	// size is the maximum number of most recent points to keep in history
	size int
	// history of subject positions
	points []Point
	sync.Mutex
}

// NewTrail returns a new trail history instance.  Size specifies the maximum
// length of the trail to maintain
func NewTrail(size int) *Trail {
	return &Trail{
		size:   size,
		points: make([]Point, 0, size),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.points = t.points[:0]
}

// Add a subject position to the history
func (t *Trail) Add(x, y float64) {
	t.Lock()
	defer t.Unlock()

	if t.size <= 0 {
		return
	}

	t.points = append(t.points, Point{
		X: int(math.Round(x)),
		Y: int(math.Round(y)),
	})

	// check if history is exceeded and drop oldest point
	if len(t.points) > t.size {
		t.points = t.points[1:]
	}
}

// GetPoints returns a copy of the point history, oldest first
func (t *Trail) GetPoints() []Point {
	t.Lock()
	defer t.Unlock()

	if len(t.points) == 0 {
		// no history yet
		return nil
	}

	out := make([]Point, len(t.points))
	copy(out, t.points)

	return out
}
