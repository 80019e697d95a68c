package tracker

import (
	"image"
	"math"
)

// Tlwh (top, left, width, height) represents a 1x4 matrix
type Tlwh [4]float64

// Rect represents a region of interest with Tlwh (top, left, width, height)
// format in frame pixel coordinates
type Rect struct {
	Tlwh Tlwh
}

// NewRect creates a new Rect with given coordinates
func NewRect(x, y, width, height float64) Rect {
	return Rect{
		Tlwh: Tlwh{x, y, width, height},
	}
}

// CenteredAt creates a Rect of the given size with its center at (cx, cy)
func CenteredAt(cx, cy, width, height float64) Rect {
	return NewRect(cx-width/2, cy-height/2, width, height)
}

// X returns the x coordinate of the rectangle
func (r Rect) X() float64 {
	return r.Tlwh[0]
}

// Y returns the y coordinate of the rectangle
func (r Rect) Y() float64 {
	return r.Tlwh[1]
}

// Width returns the width of the rectangle
func (r Rect) Width() float64 {
	return r.Tlwh[2]
}

// Height returns the height of the rectangle
func (r Rect) Height() float64 {
	return r.Tlwh[3]
}

// BRX returns the bottom-right x coordinate of the rectangle
func (r Rect) BRX() float64 {
	return r.Tlwh[0] + r.Tlwh[2]
}

// BRY returns the bottom-right y coordinate of the rectangle
func (r Rect) BRY() float64 {
	return r.Tlwh[1] + r.Tlwh[3]
}

// Center returns the center point of the rectangle
func (r Rect) Center() (float64, float64) {
	return r.Tlwh[0] + r.Tlwh[2]/2, r.Tlwh[1] + r.Tlwh[3]/2
}

// Empty reports whether the rectangle has no area
func (r Rect) Empty() bool {
	return r.Tlwh[2] <= 0 || r.Tlwh[3] <= 0
}

// Clamp returns the rectangle shifted to lie within a frame of the given
// size.  A rectangle larger than the frame is cropped to it.
func (r Rect) Clamp(frame image.Point) Rect {

	fw, fh := float64(frame.X), float64(frame.Y)

	w := math.Min(r.Tlwh[2], fw)
	h := math.Min(r.Tlwh[3], fh)

	x := math.Max(0, math.Min(r.Tlwh[0], fw-w))
	y := math.Max(0, math.Min(r.Tlwh[1], fh-h))

	return NewRect(x, y, w, h)
}

// Image converts the rectangle to integer pixel bounds
func (r Rect) Image() image.Rectangle {
	return image.Rect(
		int(math.Round(r.Tlwh[0])),
		int(math.Round(r.Tlwh[1])),
		int(math.Round(r.BRX())),
		int(math.Round(r.BRY())),
	)
}

// Contains reports whether the point (x, y) lies inside the rectangle
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Tlwh[0] && x < r.BRX() && y >= r.Tlwh[1] && y < r.BRY()
}
