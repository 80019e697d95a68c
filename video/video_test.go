package video

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSink is a Sink that records nothing
type stubSink struct {
	codec string
	size  image.Point
}

func (s *stubSink) Write(f Frame) error { return nil }
func (s *stubSink) Size() image.Point  { return s.size }
func (s *stubSink) Codec() string      { return s.codec }
func (s *stubSink) Close() error       { return nil }
func (s *stubSink) Abort() error       { return nil }

// pickyOpener only opens codecs in its accept set and records each attempt
type pickyOpener struct {
	accept   map[string]bool
	attempts []string
}

func (o *pickyOpener) Open(path, codec string, fps float64, size image.Point) (Sink, error) {
	o.attempts = append(o.attempts, codec)

	if !o.accept[codec] {
		return nil, errors.New("unsupported")
	}

	return &stubSink{codec: codec, size: size}, nil
}

func TestOpenSinkFallsBack(t *testing.T) {

	opener := &pickyOpener{accept: map[string]bool{"mp4v": true, "MJPG": true}}

	sink, err := OpenSink(opener, "out.mp4", DefaultCodecs, 30, image.Pt(640, 480))
	require.NoError(t, err)

	assert.Equal(t, "mp4v", sink.Codec())
	assert.Equal(t, []string{"avc1", "H264", "mp4v"}, opener.attempts)
}

func TestOpenSinkFirstWins(t *testing.T) {

	opener := &pickyOpener{accept: map[string]bool{"avc1": true, "mp4v": true}}

	sink, err := OpenSink(opener, "out.mp4", DefaultCodecs, 30, image.Pt(64, 48))
	require.NoError(t, err)

	assert.Equal(t, "avc1", sink.Codec())
	assert.Len(t, opener.attempts, 1)
}

func TestOpenSinkNoCodec(t *testing.T) {

	opener := &pickyOpener{}

	_, err := OpenSink(opener, "out.mp4", DefaultCodecs, 30, image.Pt(64, 48))
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrNoCodec)
	assert.Equal(t, DefaultCodecs, opener.attempts)

	for _, c := range DefaultCodecs {
		assert.Contains(t, err.Error(), "codec "+c)
	}

	_, err = OpenSink(opener, "out.mp4", nil, 30, image.Pt(64, 48))
	assert.ErrorIs(t, err, ErrNoCodec)
}

func TestEvenSize(t *testing.T) {

	tests := []struct {
		in   image.Point
		want image.Point
	}{
		{image.Pt(641, 481), image.Pt(640, 480)},
		{image.Pt(640, 480), image.Pt(640, 480)},
		{image.Pt(1, 3), image.Pt(0, 2)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EvenSize(tt.in), "input %v", tt.in)
	}
}

// namedEnhancer records the order it was run in
type namedEnhancer struct {
	name  string
	order *[]string
	err   error
}

func (e namedEnhancer) Enhance(f Frame) error {
	*e.order = append(*e.order, e.name)
	return e.err
}

func (e namedEnhancer) Name() string { return e.name }

func TestChainOrderAndError(t *testing.T) {

	var order []string
	boom := errors.New("boom")

	chain := Chain{
		namedEnhancer{name: "clahe", order: &order},
		namedEnhancer{name: "gamma", order: &order, err: boom},
		namedEnhancer{name: "never", order: &order},
	}

	assert.Equal(t, "clahe+gamma+never", chain.Name())

	err := chain.Enhance(nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"clahe", "gamma"}, order)

	assert.NoError(t, Chain(nil).Enhance(nil))
	assert.Equal(t, "", Chain(nil).Name())
}

func TestInfoSize(t *testing.T) {
	assert.Equal(t, image.Pt(320, 240), Info{Width: 320, Height: 240}.Size())
}

func TestAutoGamma(t *testing.T) {

	tests := []struct {
		name       string
		brightness float64
		want       float64
	}{
		{"mid grey", 127.5, 1},
		{"dark clamps low", 50, AutoGammaMin},
		{"bright clamps high", 220, AutoGammaMax},
		{"black", 0, 1},
		{"white", 255, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AutoGamma(tt.brightness), 1e-9)
		})
	}
}

func TestGammaTable(t *testing.T) {

	identity := GammaTable(1)

	for i, v := range identity {
		require.Equal(t, uint8(i), v)
	}

	dark := GammaTable(1.2)
	assert.Equal(t, uint8(0), dark[0])
	assert.Equal(t, uint8(255), dark[255])
	assert.Less(t, dark[128], uint8(128))

	bright := GammaTable(0.8)
	assert.Greater(t, bright[128], uint8(128))
}
