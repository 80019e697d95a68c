package cv

import (
	"fmt"
	"io"

	"gocv.io/x/gocv"

	"github.com/swdee/go-vidstab/video"
)

// Capture opens video files for decoding with gocv.VideoCapture
type Capture struct{}

// Open implements video.SourceOpener
func (Capture) Open(path string) (video.Source, error) {

	vc, err := openCapture(path)

	if err != nil {
		return nil, err
	}

	info := video.Info{
		FrameCount: max(0, int(vc.Get(gocv.VideoCaptureFrameCount))),
		Width:      int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(vc.Get(gocv.VideoCaptureFrameHeight)),
		FPS:        vc.Get(gocv.VideoCaptureFPS),
	}

	return &Source{
		path: path,
		vc:   vc,
		info: info,
	}, nil
}

// openCapture opens a handle to read frames of the video file
func openCapture(path string) (*gocv.VideoCapture, error) {

	vc, err := gocv.VideoCaptureFile(path)

	if err != nil {
		return nil, fmt.Errorf("failed to open video file: %w", err)
	}

	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("video file %s could not be opened for decoding", path)
	}

	return vc, nil
}

// Source is a video file being decoded
type Source struct {
	path string
	vc   *gocv.VideoCapture
	info video.Info
	// next is the index of the next frame Read returns
	next int
}

// Info implements video.Source
func (s *Source) Info() video.Info {
	return s.info
}

// Read implements video.Source
func (s *Source) Read() (video.Frame, error) {

	if s.vc == nil {
		return nil, io.EOF
	}

	img := gocv.NewMat()

	// read the next frame from the video
	if ok := s.vc.Read(&img); !ok || img.Empty() {
		// reached last video frame
		img.Close()
		return nil, io.EOF
	}

	f := NewFrame(img, s.next)
	s.next++

	return f, nil
}

// Rewind implements video.Source.  Seeking is unreliable for some
// containers so the file is reopened instead.
func (s *Source) Rewind() error {

	if s.vc != nil && s.next == 0 {
		return nil
	}

	if s.vc != nil {
		s.vc.Close()
		s.vc = nil
	}

	vc, err := openCapture(s.path)

	if err != nil {
		return fmt.Errorf("failed to rewind: %w", err)
	}

	s.vc = vc
	s.next = 0

	return nil
}

// Close implements video.Source
func (s *Source) Close() error {

	if s.vc == nil {
		return nil
	}

	err := s.vc.Close()
	s.vc = nil

	return err
}
