package transform

import (
	"image"

	"github.com/swdee/go-vidstab/trajectory"
)

// Composer derives the per frame compensating transform from the gap between
// the actual and smoothed camera path and folds in the fixed zoom used to
// hide the borders exposed by compensation
type Composer struct {
	// zoom is the scale about the frame center, only used when zoomed is set
	zoom   Affine
	zoomed bool
	// factor is the configured zoom factor
	factor float64
}

// NewComposer returns a Composer for frames of the given size.  A zoom factor
// of 1 (or anything not positive) disables the zoom.
func NewComposer(size image.Point, zoom float64) *Composer {

	c := &Composer{
		factor: 1,
	}

	if zoom > 0 && zoom != 1 {
		c.factor = zoom
		c.zoomed = true
		c.zoom = ZoomAbout(float64(size.X)/2, float64(size.Y)/2, zoom)
	}

	return c
}

// Zoom returns the zoom matrix, identity when no zoom is configured
func (c *Composer) Zoom() Affine {
	if !c.zoomed {
		return Identity()
	}

	return c.zoom
}

// Factor returns the zoom factor in use
func (c *Composer) Factor() float64 {
	return c.factor
}

// Correct returns the transform that moves a frame on the actual path onto
// the smoothed path, composed with the zoom
func (c *Composer) Correct(actual, smoothed trajectory.Point) Affine {

	diff := smoothed.Sub(actual)

	return c.Compose(Rigid(diff.X, diff.Y, diff.A))
}

// Compose right multiplies the corrective matrix into the zoom so the
// correction is applied in frame space first and the zoom after, as a single
// warp.
func (c *Composer) Compose(corrective Affine) Affine {
	if !c.zoomed {
		return corrective
	}

	return c.zoom.Mul(corrective)
}
