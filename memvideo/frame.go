// Package memvideo is a pure Go video backend that keeps decoded frames in
// memory as image.Image values.  It needs no cgo so it is suited to tests,
// to frames decoded by other means (eg: image/gif), and to platforms without
// OpenCV.
package memvideo

import (
	"image"

	"golang.org/x/image/draw"
)

// Frame is a video frame backed by an image.Image
type Frame struct {
	img   image.Image
	index int
}

// NewFrame wraps img as the frame at the given stream index.  The image is
// not copied.
func NewFrame(img image.Image, index int) *Frame {
	return &Frame{
		img:   img,
		index: index,
	}
}

// Image returns the underlying image, nil once the frame has been closed
func (f *Frame) Image() image.Image {
	return f.img
}

// Size returns the width and height of the frame
func (f *Frame) Size() image.Point {
	if f.img == nil {
		return image.Point{}
	}

	return f.img.Bounds().Size()
}

// Empty reports whether the frame holds no pixels
func (f *Frame) Empty() bool {
	return f.img == nil || f.img.Bounds().Empty()
}

// Index returns the position of the frame in its stream
func (f *Frame) Index() int {
	return f.index
}

// Close drops the reference to the underlying image
func (f *Frame) Close() error {
	f.img = nil
	return nil
}

// replace swaps in a new image for the frame, used by in place enhancers
func (f *Frame) replace(img image.Image) {
	f.img = img
}

// cloneRGBA returns a copy of img as *image.RGBA with its origin at (0,0)
func cloneRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	return dst
}
