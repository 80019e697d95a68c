package cv

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/swdee/go-vidstab/motion"
	"github.com/swdee/go-vidstab/preprocess"
	"github.com/swdee/go-vidstab/transform"
	"github.com/swdee/go-vidstab/video"
)

// texture returns a blurred grayscale image of random 8x8 blocks, rich in
// corners for feature tracking
func texture(t *testing.T, w, h int) gocv.Mat {
	t.Helper()

	rng := rand.New(rand.NewSource(7))
	data := make([]byte, w*h)

	for by := 0; by < h; by += 8 {
		for bx := 0; bx < w; bx += 8 {
			v := byte(rng.Intn(256))

			for y := by; y < min(by+8, h); y++ {
				for x := bx; x < min(bx+8, w); x++ {
					data[y*w+x] = v
				}
			}
		}
	}

	raw, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, data)
	require.NoError(t, err)
	defer raw.Close()

	blurred := gocv.NewMat()
	gocv.GaussianBlur(raw, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	return blurred
}

// shifted returns frame f moved by (dx,dy)
func shifted(t *testing.T, f video.Frame, dx, dy float64) video.Frame {
	t.Helper()

	out, err := NewOps(preprocess.Stretch).Warp(f, transform.Translation(dx, dy), f.Size())
	require.NoError(t, err)

	return out
}

// meanShift averages the displacement of the valid correspondences
func meanShift(corr []motion.Correspondence) (motion.Point, int) {

	var sum motion.Point
	n := 0

	for _, c := range corr {
		if !c.Valid {
			continue
		}

		sum = sum.Add(c.To.Sub(c.From))
		n++
	}

	if n == 0 {
		return motion.Point{}, 0
	}

	return motion.Point{X: sum.X / float64(n), Y: sum.Y / float64(n)}, n
}

func TestFrameLifecycle(t *testing.T) {

	f := NewFrame(gocv.Zeros(4, 6, gocv.MatTypeCV8UC3), 9)
	assert.Equal(t, image.Pt(6, 4), f.Size())
	assert.Equal(t, 9, f.Index())
	assert.False(t, f.Empty())

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.True(t, f.Empty())
	assert.Equal(t, image.Point{}, f.Size())

	_, err := asFrame(f)
	assert.ErrorIs(t, err, errClosedFrame)
}

func TestOpsGray(t *testing.T) {

	ops := NewOps(preprocess.Stretch)
	defer ops.Close()

	color := NewFrame(gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0),
		8, 8, gocv.MatTypeCV8UC3), 0)
	defer color.Close()

	gray, err := ops.Gray(color)
	require.NoError(t, err)
	defer gray.Close()

	assert.Equal(t, 1, gray.(*Frame).Mat().Channels())
	assert.Equal(t, image.Pt(8, 8), gray.Size())

	again, err := ops.Gray(gray)
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, 1, again.(*Frame).Mat().Channels())
}

func TestOpsWarp(t *testing.T) {

	ops := NewOps(preprocess.Stretch)
	defer ops.Close()

	src := gocv.Zeros(20, 20, gocv.MatTypeCV8U)
	src.SetUCharAt(3, 3, 255)
	f := NewFrame(src, 0)
	defer f.Close()

	out, err := ops.Warp(f, transform.Translation(2, 0), image.Pt(20, 20))
	require.NoError(t, err)
	defer out.Close()

	m := out.(*Frame).Mat()
	assert.Equal(t, uint8(255), m.GetUCharAt(3, 5))
	assert.Equal(t, uint8(0), m.GetUCharAt(3, 3))

	// uncovered pixels are black
	white := NewFrame(gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0),
		10, 20, gocv.MatTypeCV8UC3), 0)
	defer white.Close()

	moved, err := ops.Warp(white, transform.Translation(5, 0), image.Pt(20, 10))
	require.NoError(t, err)
	defer moved.Close()

	mm := moved.(*Frame).Mat()
	assert.Equal(t, uint8(0), mm.GetVecbAt(5, 1)[0])
	assert.Equal(t, uint8(255), mm.GetVecbAt(5, 12)[0])

	_, err = ops.Warp(f, transform.Translation(math.NaN(), 0), image.Pt(20, 20))
	assert.Error(t, err)
}

func TestOpsResize(t *testing.T) {

	ops := NewOps(preprocess.Stretch)
	defer ops.Close()

	f := NewFrame(gocv.Zeros(21, 33, gocv.MatTypeCV8UC3), 4)
	defer f.Close()

	for i := 0; i < 2; i++ {
		out, err := ops.Resize(f, image.Pt(32, 20))
		require.NoError(t, err)
		assert.Equal(t, image.Pt(32, 20), out.Size())
		assert.Equal(t, 4, out.Index())
		out.Close()
	}

	// the resizer for the size pair is reused
	assert.Len(t, ops.resizers, 1)

	_, err := ops.Resize(f, image.Pt(0, 20))
	assert.Error(t, err)
}

func TestDetectorROI(t *testing.T) {

	f := NewFrame(texture(t, 160, 120), 0)
	defer f.Close()

	det := Detector{QualityLevel: 0.01, MinDistance: 5}

	all, err := det.Detect(f, 50, image.Rectangle{})
	require.NoError(t, err)
	assert.NotEmpty(t, all)
	assert.LessOrEqual(t, len(all), 50)

	roi := image.Rect(40, 30, 120, 90)
	inside, err := det.Detect(f, 50, roi)
	require.NoError(t, err)
	require.NotEmpty(t, inside)

	for _, p := range inside {
		assert.True(t, p.X >= 40 && p.X < 120 && p.Y >= 30 && p.Y < 90, "point %v outside roi", p)
	}

	none, err := det.Detect(f, 50, image.Rect(500, 500, 600, 600))
	require.NoError(t, err)
	assert.Empty(t, none)

	color := NewFrame(gocv.Zeros(10, 10, gocv.MatTypeCV8UC3), 0)
	defer color.Close()

	_, err = det.Detect(color, 50, image.Rectangle{})
	assert.ErrorContains(t, err, "grayscale")
}

func TestFlowMeasuresShift(t *testing.T) {

	prev := NewFrame(texture(t, 160, 120), 0)
	defer prev.Close()

	curr := shifted(t, prev, 3, 2)
	defer curr.Close()

	pts, err := Detector{QualityLevel: 0.01, MinDistance: 5}.Detect(prev, 100,
		image.Rect(20, 20, 140, 100))
	require.NoError(t, err)
	require.NotEmpty(t, pts)

	corr, err := Flow{}.Track(prev, curr, pts)
	require.NoError(t, err)
	require.Len(t, corr, len(pts))

	shift, valid := meanShift(corr)
	assert.Greater(t, valid, len(pts)*3/4)
	assert.InDelta(t, 3, shift.X, 0.3)
	assert.InDelta(t, 2, shift.Y, 0.3)

	empty, err := Flow{}.Track(prev, curr, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEstimatorRecoversRigid(t *testing.T) {

	want := transform.Rigid(4, -3, 0.05)

	var from, to []motion.Point

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			px, py := float64(20+x*15), float64(20+y*12)
			qx, qy := want.Apply(px, py)
			from = append(from, motion.Point{X: px, Y: py})
			to = append(to, motion.Point{X: qx, Y: qy})
		}
	}

	// one gross outlier is rejected by RANSAC
	to[17] = motion.Point{X: 500, Y: -200}

	got, ok := Estimator{}.Estimate(from, to, 3)
	require.True(t, ok)
	assert.True(t, want.ApproxEqual(got, 1e-2), "got %v want %v", got, want)

	_, ok = Estimator{}.Estimate(from[:1], to[:1], 3)
	assert.False(t, ok)

	_, ok = Estimator{}.Estimate(from, to[:5], 3)
	assert.False(t, ok)
}

func TestFlowObserver(t *testing.T) {

	ops := NewOps(preprocess.Stretch)
	defer ops.Close()

	prev := NewFrame(texture(t, 200, 150), 0)
	defer prev.Close()

	curr := shifted(t, prev, -4, 1)
	defer curr.Close()

	obs := motion.NewFlowObserver(Detector{QualityLevel: 0.01, MinDistance: 10},
		Flow{}, Estimator{}, motion.DefaultConfig()).Observe(prev, curr)

	require.Equal(t, motion.FallbackNone, obs.Fallback, "err: %v", obs.Err)
	assert.InDelta(t, -4, obs.Estimate.DX, 0.3)
	assert.InDelta(t, 1, obs.Estimate.DY, 0.3)
	assert.InDelta(t, 0, obs.Estimate.DAngle, 0.01)
}

func TestMatcherMeasuresShift(t *testing.T) {

	prev := NewFrame(texture(t, 320, 240), 0)
	defer prev.Close()

	curr := shifted(t, prev, 5, -3)
	defer curr.Close()

	corr, err := Matcher{}.Match(prev, curr, 500, image.Rectangle{})
	require.NoError(t, err)
	require.NotEmpty(t, corr)

	var from, to []motion.Point

	for _, c := range corr {
		if c.Valid {
			from = append(from, c.From)
			to = append(to, c.To)
		}
	}

	require.GreaterOrEqual(t, len(from), 10)

	m, ok := Estimator{}.Estimate(from, to, 3)
	require.True(t, ok)

	dx, dy := m.Translation()
	assert.InDelta(t, 5, dx, 1)
	assert.InDelta(t, -3, dy, 1)
}

func TestCLAHE(t *testing.T) {

	clahe := NewCLAHE(2.0, 8)
	defer clahe.Close()

	assert.Equal(t, "clahe(2.0,8x8)", clahe.Name())

	gray := texture(t, 64, 48)
	color := gocv.NewMat()
	gocv.CvtColor(gray, &color, gocv.ColorGrayToBGR)
	gray.Close()

	f := NewFrame(color, 0)
	defer f.Close()

	require.NoError(t, clahe.Enhance(f))
	assert.Equal(t, image.Pt(64, 48), f.Size())
	assert.Equal(t, 3, f.Mat().Channels())

	g := NewFrame(texture(t, 64, 48), 1)
	defer g.Close()

	require.NoError(t, clahe.Enhance(g))
	assert.Equal(t, 1, g.Mat().Channels())
}

func TestAutoGamma(t *testing.T) {

	mid := NewFrame(gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 0),
		8, 8, gocv.MatTypeCV8UC3), 0)
	defer mid.Close()

	require.NoError(t, AutoGamma{}.Enhance(mid))
	assert.InDelta(t, 128, meanBrightness(mid.Mat()), 1e-9)

	dark := NewFrame(gocv.NewMatWithSizeFromScalar(gocv.NewScalar(50, 50, 50, 0),
		8, 8, gocv.MatTypeCV8UC3), 0)
	defer dark.Close()

	require.NoError(t, AutoGamma{}.Enhance(dark))

	table := video.GammaTable(video.AutoGammaMin)
	assert.InDelta(t, float64(table[50]), meanBrightness(dark.Mat()), 1e-9)
	assert.Greater(t, meanBrightness(dark.Mat()), 50.0)
}
