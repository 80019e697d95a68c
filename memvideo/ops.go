package memvideo

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/swdee/go-vidstab/transform"
	"github.com/swdee/go-vidstab/video"
)

// Ops implements video.FrameOps on image backed frames
type Ops struct {
	// Interpolator is used for warping, nil uses bilinear interpolation
	Interpolator draw.Interpolator
}

// asFrame returns the memvideo frame behind f
func asFrame(f video.Frame) (*Frame, error) {

	mf, ok := f.(*Frame)

	if !ok {
		return nil, fmt.Errorf("memvideo: unsupported frame type %T", f)
	}

	if mf.Empty() {
		return nil, fmt.Errorf("memvideo: frame %d is empty", mf.Index())
	}

	return mf, nil
}

// Gray implements video.FrameOps
func (o Ops) Gray(f video.Frame) (video.Frame, error) {

	src, err := asFrame(f)

	if err != nil {
		return nil, err
	}

	b := src.img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src.img, b.Min, draw.Src)

	return NewFrame(dst, src.index), nil
}

// Warp implements video.FrameOps.  The matrix maps source pixel coordinates
// to destination coordinates, the same convention as OpenCV warpAffine.
func (o Ops) Warp(f video.Frame, m transform.Affine, size image.Point) (video.Frame, error) {

	src, err := asFrame(f)

	if err != nil {
		return nil, err
	}

	if !m.IsFinite() {
		return nil, fmt.Errorf("memvideo: warp matrix is not finite: %s", m)
	}

	interp := o.Interpolator

	if interp == nil {
		interp = draw.BiLinear
	}

	rect := image.Rect(0, 0, size.X, size.Y)

	var dst draw.Image

	if _, gray := src.img.(*image.Gray); gray {
		dst = image.NewGray(rect)
	} else {
		rgba := image.NewRGBA(rect)
		// uncovered borders are opaque black
		draw.Draw(rgba, rect, image.Black, image.Point{}, draw.Src)
		dst = rgba
	}

	// the source may not have its origin at (0,0)
	b := src.img.Bounds()
	s2d := m.Mul(transform.Translation(-float64(b.Min.X), -float64(b.Min.Y)))

	aff := f64.Aff3{
		s2d[0][0], s2d[0][1], s2d[0][2],
		s2d[1][0], s2d[1][1], s2d[1][2],
	}

	interp.Transform(dst, aff, src.img, b, draw.Src, nil)

	return NewFrame(dst, src.index), nil
}

// Resize implements video.FrameOps
func (o Ops) Resize(f video.Frame, size image.Point) (video.Frame, error) {

	src, err := asFrame(f)

	if err != nil {
		return nil, err
	}

	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("memvideo: invalid resize dimensions %dx%d", size.X, size.Y)
	}

	dst := imaging.Resize(src.img, size.X, size.Y, imaging.Linear)

	return NewFrame(dst, src.index), nil
}
