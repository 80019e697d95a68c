package memvideo

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/swdee/go-vidstab/video"
)

var (
	// ErrNotFound is returned when opening a path the store holds no clip for
	ErrNotFound = errors.New("memvideo: clip not found")
	// ErrCodecRejected is returned by a Writer for codecs it does not accept
	ErrCodecRejected = errors.New("memvideo: codec rejected")
	// ErrClosed is returned when using a closed source or sink
	ErrClosed = errors.New("memvideo: closed")
)

// Clip is a decoded video held in memory
type Clip struct {
	Frames []image.Image
	FPS    float64
	// FrameCount is the frame count the container reports.  Zero means use
	// len(Frames), a negative value reports an unknown count.
	FrameCount int
	// Codec is the codec the clip was written with
	Codec string
}

// info returns the stream properties of the clip
func (c *Clip) info() video.Info {

	inf := video.Info{
		FrameCount: c.FrameCount,
		FPS:        c.FPS,
	}

	if inf.FrameCount == 0 {
		inf.FrameCount = len(c.Frames)
	} else if inf.FrameCount < 0 {
		inf.FrameCount = 0
	}

	if len(c.Frames) > 0 {
		size := c.Frames[0].Bounds().Size()
		inf.Width, inf.Height = size.X, size.Y
	}

	return inf
}

// Store is a concurrency safe set of clips keyed by path acting as the
// filesystem for the memory backend
type Store struct {
	mu    sync.RWMutex
	clips map[string]*Clip
}

// NewStore returns an empty Store
func NewStore() *Store {
	return &Store{
		clips: make(map[string]*Clip),
	}
}

// Put stores the clip under path replacing any existing one
func (s *Store) Put(path string, clip *Clip) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clips[path] = clip
}

// Get returns the clip stored under path
func (s *Store) Get(path string) (*Clip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clips[path]
	return c, ok
}

// Delete removes the clip stored under path
func (s *Store) Delete(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.clips, path)
}

// Reader returns a SourceOpener that reads clips from the store
func (s *Store) Reader() *Reader {
	return &Reader{store: s}
}

// Writer returns a SinkOpener that writes clips into the store.  When accept
// is given only those codecs can be opened, otherwise every codec is accepted.
func (s *Store) Writer(accept ...string) *Writer {

	w := &Writer{store: s}

	if len(accept) > 0 {
		w.accept = make(map[string]bool, len(accept))

		for _, c := range accept {
			w.accept[c] = true
		}
	}

	return w
}

// Reader opens clips held in a Store
type Reader struct {
	store *Store
}

// Open implements video.SourceOpener
func (r *Reader) Open(path string) (video.Source, error) {

	clip, ok := r.store.Get(path)

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	return &Source{clip: clip}, nil
}

// Source reads the frames of a Clip in order
type Source struct {
	clip   *Clip
	pos    int
	closed bool
}

// Info implements video.Source
func (s *Source) Info() video.Info {
	return s.clip.info()
}

// Read implements video.Source.  Each frame is a copy of the stored image so
// callers are free to modify it.
func (s *Source) Read() (video.Frame, error) {

	if s.closed {
		return nil, ErrClosed
	}

	if s.pos >= len(s.clip.Frames) {
		return nil, io.EOF
	}

	f := NewFrame(cloneRGBA(s.clip.Frames[s.pos]), s.pos)
	s.pos++

	return f, nil
}

// Rewind implements video.Source
func (s *Source) Rewind() error {

	if s.closed {
		return ErrClosed
	}

	s.pos = 0
	return nil
}

// Close implements video.Source
func (s *Source) Close() error {
	s.closed = true
	return nil
}

// Writer opens sinks that publish their frames into a Store
type Writer struct {
	store  *Store
	accept map[string]bool
}

// Open implements video.SinkOpener
func (w *Writer) Open(path, codec string, fps float64, size image.Point) (video.Sink, error) {

	if w.accept != nil && !w.accept[codec] {
		return nil, fmt.Errorf("%w: %s", ErrCodecRejected, codec)
	}

	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("memvideo: invalid sink dimensions %dx%d", size.X, size.Y)
	}

	return &Sink{
		store: w.store,
		path:  path,
		size:  size,
		clip: &Clip{
			FPS:   fps,
			Codec: codec,
		},
	}, nil
}

// Sink collects written frames and publishes them to the store as a Clip when
// closed.  Nothing is visible at the path until then.
type Sink struct {
	store  *Store
	path   string
	size   image.Point
	clip   *Clip
	closed bool
}

// Write implements video.Sink
func (s *Sink) Write(f video.Frame) error {

	if s.closed {
		return ErrClosed
	}

	mf, err := asFrame(f)

	if err != nil {
		return err
	}

	if got := mf.Size(); got != s.size {
		return fmt.Errorf("memvideo: frame size %v does not match sink size %v", got, s.size)
	}

	s.clip.Frames = append(s.clip.Frames, cloneRGBA(mf.img))

	return nil
}

// Size implements video.Sink
func (s *Sink) Size() image.Point {
	return s.size
}

// Codec implements video.Sink
func (s *Sink) Codec() string {
	return s.clip.Codec
}

// Close implements video.Sink
func (s *Sink) Close() error {

	if s.closed {
		return nil
	}

	s.closed = true
	s.store.Put(s.path, s.clip)

	return nil
}

// Abort implements video.Sink
func (s *Sink) Abort() error {
	s.closed = true
	s.clip = &Clip{Codec: s.clip.Codec}

	return nil
}
