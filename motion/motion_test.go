package motion

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-vidstab/transform"
	"github.com/swdee/go-vidstab/video"
)

const epsilon = 1e-9

// stubFrame is a video.Frame carrying no pixels
type stubFrame struct{ index int }

func (f stubFrame) Size() image.Point { return image.Pt(100, 100) }
func (f stubFrame) Empty() bool       { return false }
func (f stubFrame) Index() int        { return f.index }
func (f stubFrame) Close() error      { return nil }

// gridDetector returns a fixed grid of points
type gridDetector struct {
	n      int
	err    error
	gotMax int
	gotROI image.Rectangle
	called int
}

func (d *gridDetector) Detect(gray video.Frame, maxFeatures int, roi image.Rectangle) ([]Point, error) {
	d.called++
	d.gotMax = maxFeatures
	d.gotROI = roi

	if d.err != nil {
		return nil, d.err
	}

	pts := make([]Point, 0, d.n)

	for i := 0; i < d.n; i++ {
		pts = append(pts, Point{X: float64(10 + (i%5)*15), Y: float64(10 + (i/5)*15)})
	}

	return pts, nil
}

// shiftFlow moves every point by a fixed offset, marking the first lost
// points invalid
type shiftFlow struct {
	shift Point
	lost  int
	err   error
}

func (f *shiftFlow) Track(prev, curr video.Frame, pts []Point) ([]Correspondence, error) {
	if f.err != nil {
		return nil, f.err
	}

	out := make([]Correspondence, len(pts))

	for i, p := range pts {
		out[i] = Correspondence{From: p, To: p.Add(f.shift), Valid: i >= f.lost}
	}

	return out, nil
}

// failingEstimator never finds a transform
type failingEstimator struct{}

func (failingEstimator) Estimate(from, to []Point, thr float64) (transform.Affine, bool) {
	return transform.Affine{}, false
}

// nanEstimator returns a non finite transform
type nanEstimator struct{}

func (nanEstimator) Estimate(from, to []Point, thr float64) (transform.Affine, bool) {
	m := transform.Identity()
	m[0][2] = math.NaN()
	return m, true
}

// fixedMatcher returns canned correspondences
type fixedMatcher struct {
	pairs []Correspondence
	err   error
}

func (m fixedMatcher) Match(prev, curr video.Frame, maxFeatures int, roi image.Rectangle) ([]Correspondence, error) {
	return m.pairs, m.err
}

func TestFlowObserverMeasuresShift(t *testing.T) {

	det := &gridDetector{n: 20}
	cfg := DefaultConfig()
	cfg.ROI = image.Rect(0, 0, 50, 50)

	obs := NewFlowObserver(det, &shiftFlow{shift: Point{X: 2, Y: -1}}, LeastSquares{}, cfg)

	o := obs.Observe(stubFrame{0}, stubFrame{1})

	require.False(t, o.Degraded())
	assert.Equal(t, 20, o.Features)
	assert.Equal(t, 20, o.Correspondences)
	assert.InDelta(t, 2, o.Estimate.DX, epsilon)
	assert.InDelta(t, -1, o.Estimate.DY, epsilon)
	assert.InDelta(t, 0, o.Estimate.DAngle, epsilon)

	assert.Equal(t, cfg.MaxFeatures, det.gotMax)
	assert.Equal(t, cfg.ROI, det.gotROI)
}

func TestObserverFallbacks(t *testing.T) {

	boom := errors.New("boom")

	tests := []struct {
		name     string
		observer Observer
		want     Fallback
		wantErr  error
	}{
		{
			name:     "no features",
			observer: NewFlowObserver(&gridDetector{n: 0}, &shiftFlow{}, LeastSquares{}, DefaultConfig()),
			want:     FallbackNoFeatures,
		},
		{
			name:     "detector error",
			observer: NewFlowObserver(&gridDetector{err: boom}, &shiftFlow{}, LeastSquares{}, DefaultConfig()),
			want:     FallbackError,
			wantErr:  boom,
		},
		{
			name:     "flow error",
			observer: NewFlowObserver(&gridDetector{n: 10}, &shiftFlow{err: boom}, LeastSquares{}, DefaultConfig()),
			want:     FallbackError,
			wantErr:  boom,
		},
		{
			name: "too few valid pairs",
			observer: NewFlowObserver(&gridDetector{n: 8}, &shiftFlow{lost: 4},
				LeastSquares{}, DefaultConfig()),
			want: FallbackTooFewCorrespondences,
		},
		{
			name:     "fit failed",
			observer: NewFlowObserver(&gridDetector{n: 10}, &shiftFlow{}, failingEstimator{}, DefaultConfig()),
			want:     FallbackFitFailed,
		},
		{
			name:     "non finite fit",
			observer: NewFlowObserver(&gridDetector{n: 10}, &shiftFlow{}, nanEstimator{}, DefaultConfig()),
			want:     FallbackFitFailed,
		},
		{
			name:     "matcher error",
			observer: NewMatchObserver(fixedMatcher{err: boom}, LeastSquares{}, DefaultConfig()),
			want:     FallbackError,
			wantErr:  boom,
		},
		{
			name:     "matcher empty",
			observer: NewMatchObserver(fixedMatcher{}, LeastSquares{}, DefaultConfig()),
			want:     FallbackNoFeatures,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {

			o := tt.observer.Observe(stubFrame{0}, stubFrame{1})

			assert.Equal(t, tt.want, o.Fallback)
			assert.True(t, o.Degraded())
			assert.Equal(t, Identity, o.Estimate)

			if tt.wantErr != nil {
				assert.ErrorIs(t, o.Err, tt.wantErr)
			} else {
				assert.NoError(t, o.Err)
			}
		})
	}
}

func TestMinCorrespondencesBoundary(t *testing.T) {

	cfg := DefaultConfig()

	// exactly the minimum is enough
	obs := NewFlowObserver(&gridDetector{n: 9}, &shiftFlow{shift: Point{X: 1}, lost: 4},
		LeastSquares{}, cfg)

	o := obs.Observe(stubFrame{0}, stubFrame{1})
	require.False(t, o.Degraded())
	assert.Equal(t, cfg.MinCorrespondences, o.Correspondences)
	assert.InDelta(t, 1, o.Estimate.DX, epsilon)

	// one fewer is not
	obs = NewFlowObserver(&gridDetector{n: 8}, &shiftFlow{lost: 4}, LeastSquares{}, cfg)
	o = obs.Observe(stubFrame{0}, stubFrame{1})
	assert.Equal(t, FallbackTooFewCorrespondences, o.Fallback)
	assert.Equal(t, 4, o.Correspondences)
}

func TestMatchObserverRotation(t *testing.T) {

	angle := 0.05
	m := transform.Rigid(3, 4, angle)

	var pairs []Correspondence

	for _, p := range []Point{{10, 10}, {80, 15}, {40, 70}, {90, 90}, {20, 60}, {55, 35}} {
		x, y := m.Apply(p.X, p.Y)
		pairs = append(pairs, Correspondence{From: p, To: Point{X: x, Y: y}, Valid: true})
	}

	o := NewMatchObserver(fixedMatcher{pairs: pairs}, LeastSquares{}, DefaultConfig()).
		Observe(stubFrame{0}, stubFrame{1})

	require.False(t, o.Degraded())
	assert.InDelta(t, 3, o.Estimate.DX, 1e-6)
	assert.InDelta(t, 4, o.Estimate.DY, 1e-6)
	assert.InDelta(t, angle, o.Estimate.DAngle, 1e-6)
}

func TestLeastSquaresRejectsOutlier(t *testing.T) {

	var from, to []Point

	for i := 0; i < 10; i++ {
		p := Point{X: float64(i * 10), Y: float64((i * 37) % 100)}
		from = append(from, p)
		to = append(to, p.Add(Point{X: 5, Y: 0}))
	}

	// one outlier
	to[3] = to[3].Add(Point{X: 8, Y: 0})

	m, ok := LeastSquares{}.Estimate(from, to, 3)
	require.True(t, ok)

	dx, dy := m.Translation()
	assert.InDelta(t, 5, dx, 1e-6)
	assert.InDelta(t, 0, dy, 1e-6)
	assert.InDelta(t, 0, m.Angle(), 1e-6)
}

func TestLeastSquaresDegenerate(t *testing.T) {

	same := []Point{{5, 5}, {5, 5}, {5, 5}}

	_, ok := LeastSquares{}.Estimate(same, same, 3)
	assert.False(t, ok)

	_, ok = LeastSquares{}.Estimate([]Point{{1, 1}}, []Point{{2, 2}}, 3)
	assert.False(t, ok)
}

func TestFromAffine(t *testing.T) {

	e := FromAffine(transform.Rigid(1.5, -2, -0.1))

	assert.InDelta(t, 1.5, e.DX, epsilon)
	assert.InDelta(t, -2, e.DY, epsilon)
	assert.InDelta(t, -0.1, e.DAngle, epsilon)

	x, y, a := e.Components()
	assert.Equal(t, [3]float64{e.DX, e.DY, e.DAngle}, [3]float64{x, y, a})
}

func TestFallbackString(t *testing.T) {
	assert.Equal(t, "too few correspondences", FallbackTooFewCorrespondences.String())
	assert.Equal(t, "unknown fallback 9", Fallback(9).String())
}
