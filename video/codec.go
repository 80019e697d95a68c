package video

import (
	"errors"
	"fmt"
	"image"
)

// ErrNoCodec is returned when none of the codec candidates could be opened
var ErrNoCodec = errors.New("no output codec could be opened")

// DefaultCodecs is the ordered list of fourcc codec candidates tried when
// opening an output video: H.264 as avc1, its H264 alias, MPEG-4 part 2 and
// lastly Motion JPEG
var DefaultCodecs = []string{"avc1", "H264", "mp4v", "MJPG"}

// OpenSink opens an output with the first codec in codecs that the opener
// accepts.  Candidates after the first successful one are never attempted.
// The codec in use is reported by the returned Sink's Codec method.
func OpenSink(opener SinkOpener, path string, codecs []string, fps float64,
	size image.Point) (Sink, error) {

	if len(codecs) == 0 {
		return nil, fmt.Errorf("%w: empty codec list", ErrNoCodec)
	}

	errs := []error{ErrNoCodec}

	for _, codec := range codecs {
		sink, err := opener.Open(path, codec, fps, size)

		if err == nil {
			return sink, nil
		}

		errs = append(errs, fmt.Errorf("codec %s: %w", codec, err))
	}

	return nil, errors.Join(errs...)
}
