// Package cv is the OpenCV video backend built on gocv.  It decodes and
// encodes video files, tracks features with pyramidal Lucas-Kanade optical
// flow or ORB descriptor matching, fits similarity transforms with RANSAC
// and renders warped frames with optional CLAHE and auto gamma enhancement.
package cv

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/swdee/go-vidstab/video"
)

var errClosedFrame = errors.New("frame has been closed")

// Frame is a video frame held in an OpenCV Mat.  Color frames are BGR.
type Frame struct {
	mat    gocv.Mat
	index  int
	closed bool
}

// NewFrame wraps mat as the frame at the given stream index.  The frame
// takes ownership of the Mat.
func NewFrame(mat gocv.Mat, index int) *Frame {
	return &Frame{
		mat:   mat,
		index: index,
	}
}

// Mat returns the underlying Mat
func (f *Frame) Mat() gocv.Mat {
	return f.mat
}

// Size returns the width and height of the frame
func (f *Frame) Size() image.Point {
	if f.Empty() {
		return image.Point{}
	}

	return image.Pt(f.mat.Cols(), f.mat.Rows())
}

// Empty reports whether the frame holds no pixels
func (f *Frame) Empty() bool {
	return f.closed || f.mat.Empty()
}

// Index returns the position of the frame in its stream
func (f *Frame) Index() int {
	return f.index
}

// Close frees the Mat
func (f *Frame) Close() error {

	if f.closed {
		return nil
	}

	f.closed = true

	return f.mat.Close()
}

// asFrame returns the Frame behind f
func asFrame(f video.Frame) (*Frame, error) {

	cf, ok := f.(*Frame)

	if !ok {
		return nil, fmt.Errorf("frame of type %T is not a gocv frame", f)
	}

	if cf.closed {
		return nil, errClosedFrame
	}

	if cf.mat.Empty() {
		return nil, fmt.Errorf("frame %d is empty", cf.index)
	}

	return cf, nil
}
