package cv

import (
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"github.com/swdee/go-vidstab/video"
)

// Writer opens video files for encoding with gocv.VideoWriter
type Writer struct{}

// Open implements video.SinkOpener.  The encoder reports an unsupported
// codec by failing to open, in which case any file it created is removed.
func (Writer) Open(path, codec string, fps float64, size image.Point) (video.Sink, error) {

	if len(codec) != 4 {
		return nil, fmt.Errorf("codec %q is not a four character code", codec)
	}

	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("invalid frame size %v", size)
	}

	vw, err := gocv.VideoWriterFile(path, codec, fps, size.X, size.Y, true)

	if err != nil {
		removeOutput(path)
		return nil, fmt.Errorf("failed to create video writer: %w", err)
	}

	if !vw.IsOpened() {
		vw.Close()
		removeOutput(path)
		return nil, fmt.Errorf("encoder rejected codec %s", codec)
	}

	return &Sink{
		path:  path,
		codec: codec,
		size:  size,
		vw:    vw,
		color: gocv.NewMat(),
	}, nil
}

// removeOutput deletes a partial output file
func removeOutput(path string) error {

	err := os.Remove(path)

	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

// Sink is a video file being encoded
type Sink struct {
	path  string
	codec string
	size  image.Point
	vw    *gocv.VideoWriter
	// color holds the BGR conversion of grayscale frames
	color gocv.Mat
}

// Write implements video.Sink
func (s *Sink) Write(f video.Frame) error {

	if s.vw == nil {
		return fmt.Errorf("video writer is closed")
	}

	cf, err := asFrame(f)

	if err != nil {
		return err
	}

	if cf.Size() != s.size {
		return fmt.Errorf("frame size %v does not match output size %v", cf.Size(), s.size)
	}

	mat := cf.mat

	if mat.Channels() == 1 {
		gocv.CvtColor(mat, &s.color, gocv.ColorGrayToBGR)
		mat = s.color
	}

	return s.vw.Write(mat)
}

// Size implements video.Sink
func (s *Sink) Size() image.Point {
	return s.size
}

// Codec implements video.Sink
func (s *Sink) Codec() string {
	return s.codec
}

// Close implements video.Sink and finalizes the container
func (s *Sink) Close() error {

	if s.vw == nil {
		return nil
	}

	err := s.vw.Close()
	s.vw = nil
	s.color.Close()

	return err
}

// Abort implements video.Sink
func (s *Sink) Abort() error {
	return errors.Join(s.Close(), removeOutput(s.path))
}
