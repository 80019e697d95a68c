// Package video defines the capabilities the stabilizer consumes from a video
// backend: decoding a stream of frames, encoding frames with a prioritized
// codec fallback chain, the frame operations used when rendering, and post
// warp frame enhancement.
package video

import (
	"fmt"
	"image"
	"strings"

	"github.com/swdee/go-vidstab/transform"
)

// Frame is a decoded video frame.  Frames are owned by whoever obtained them
// and must be closed to release backend memory.
type Frame interface {
	// Size returns the width and height of the frame
	Size() image.Point
	// Empty reports whether the frame holds no image data
	Empty() bool
	// Index is the position of the frame in the stream it was read from
	Index() int
	// Close frees the memory held by the frame
	Close() error
}

// Info describes an opened video stream
type Info struct {
	// FrameCount is the number of frames reported by the container.  It may
	// be unreliable, zero means unknown
	FrameCount int
	Width      int
	Height     int
	FPS        float64
}

// Size returns the frame dimensions of the stream
func (i Info) Size() image.Point {
	return image.Pt(i.Width, i.Height)
}

// Source is a decodable video stream read sequentially
type Source interface {
	// Info returns the stream properties
	Info() Info
	// Read returns the next frame, or io.EOF at the end of the stream.  A
	// frame is never returned twice.
	Read() (Frame, error)
	// Rewind positions the stream back at the first frame.  Calling it
	// repeatedly has the same effect as calling it once.
	Rewind() error
	// Close releases the stream
	Close() error
}

// SourceOpener opens a Source for the given path
type SourceOpener interface {
	Open(path string) (Source, error)
}

// Sink is an encodable video output
type Sink interface {
	// Write encodes the frame.  The frame must match Size.
	Write(f Frame) error
	// Size returns the frame dimensions the sink was opened with
	Size() image.Point
	// Codec returns the identifier of the codec the sink was opened with
	Codec() string
	// Close finalizes the output
	Close() error
	// Abort closes the sink and discards any partial output
	Abort() error
}

// SinkOpener opens a Sink for a single codec candidate
type SinkOpener interface {
	Open(path, codec string, fps float64, size image.Point) (Sink, error)
}

// FrameOps are the pixel operations the renderer performs on frames.  Every
// returned Frame is new and owned by the caller, the input is left untouched.
type FrameOps interface {
	// Gray returns a single channel grayscale copy of the frame
	Gray(f Frame) (Frame, error)
	// Warp applies the affine transform m to the frame and returns an image
	// of the given size.  Uncovered pixels are black.
	Warp(f Frame, m transform.Affine, size image.Point) (Frame, error)
	// Resize scales the frame to the given size
	Resize(f Frame, size image.Point) (Frame, error)
}

// Enhancer is a post warp filter applied in place to a frame
type Enhancer interface {
	Enhance(f Frame) error
	Name() string
}

// Chain applies a list of enhancers in order
type Chain []Enhancer

// Enhance runs each enhancer over the frame, stopping at the first error
func (c Chain) Enhance(f Frame) error {
	for _, e := range c {
		if err := e.Enhance(f); err != nil {
			return fmt.Errorf("%s enhancer failed: %w", e.Name(), err)
		}
	}

	return nil
}

// Name returns the names of the enhancers in the chain
func (c Chain) Name() string {

	names := make([]string, len(c))

	for i, e := range c {
		names[i] = e.Name()
	}

	return strings.Join(names, "+")
}

// EvenSize rounds both dimensions down to the nearest even value, which some
// codecs require
func EvenSize(size image.Point) image.Point {
	return image.Pt(size.X&^1, size.Y&^1)
}
