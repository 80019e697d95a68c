package trajectory

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// step is a test Delta
type step struct {
	dx, dy, da float64
}

func (s step) Components() (float64, float64, float64) {
	return s.dx, s.dy, s.da
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestAccumulate(t *testing.T) {

	deltas := []step{
		{0, 0, 0},
		{1, -2, 0.01},
		{0.5, 0.5, -0.02},
		{-3, 1, 0},
	}

	path := Accumulate(deltas)

	require.Len(t, path, len(deltas))
	assert.Equal(t, Point{}, path[0])

	for i := 1; i < len(deltas); i++ {
		want := path[i-1].Add(Point{X: deltas[i].dx, Y: deltas[i].dy, A: deltas[i].da})

		if diff := cmp.Diff(want, path[i], approx); diff != "" {
			t.Errorf("frame %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestAccumulateIgnoresFirstDelta(t *testing.T) {

	path := Accumulate([]step{{9, 9, 9}, {1, 1, 1}})

	assert.Equal(t, []Point{{0, 0, 0}, {1, 1, 1}}, path)
}

func TestAccumulateEmpty(t *testing.T) {
	assert.Empty(t, Accumulate([]step{}))
}

// rampPath returns a constant velocity path moving by (1,0,0) each frame
func rampPath(n int) []Point {

	deltas := make([]step, n)

	for i := 1; i < n; i++ {
		deltas[i] = step{dx: 1}
	}

	return Accumulate(deltas)
}

func TestSmoothZeroRadius(t *testing.T) {

	path := []Point{{0, 0, 0}, {3, -1, 0.2}, {-2, 4, 0.1}, {7, 7, -0.3}}

	for _, kernel := range []Kernel{KernelUniform, KernelGaussian} {
		s := Smoother{Radius: 0, Kernel: kernel}
		got := s.Smooth(path)

		assert.Equal(t, path, got, "kernel %s", kernel)

		// smoothing the smoothed output again with r=0 is a no-op
		assert.Equal(t, got, s.Smooth(got), "kernel %s", kernel)
	}
}

func TestSmoothRampInterior(t *testing.T) {

	tests := []struct {
		radius int
		kernel Kernel
	}{
		{1, KernelUniform},
		{5, KernelUniform},
		{30, KernelUniform},
		{1, KernelGaussian},
		{5, KernelGaussian},
		{30, KernelGaussian},
	}

	path := rampPath(100)

	for _, tc := range tests {
		s := Smoother{Radius: tc.radius, Kernel: tc.kernel}
		smoothed := s.Smooth(path)

		require.Len(t, smoothed, len(path))

		// a symmetric window over a linear ramp is the ramp itself
		for i := tc.radius; i < len(path)-tc.radius; i++ {
			if diff := cmp.Diff(path[i], smoothed[i], approx); diff != "" {
				t.Errorf("%s r=%d: frame %d mismatch (-want +got):\n%s",
					tc.kernel, tc.radius, i, diff)
			}
		}
	}
}

func TestSmoothBoundaries(t *testing.T) {

	path := rampPath(10)
	s := Smoother{Radius: 3, Kernel: KernelUniform}
	smoothed := s.Smooth(path)

	// frame 0 averages frames 0..3, the last frame averages 6..9
	assert.InDelta(t, 1.5, smoothed[0].X, 1e-9)
	assert.InDelta(t, 7.5, smoothed[9].X, 1e-9)

	for _, pt := range smoothed {
		assert.False(t, math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsNaN(pt.A))
	}
}

func TestSmoothGaussianWeightsCenter(t *testing.T) {

	path := []Point{{0, 0, 0}, {0, 0, 0}, {10, 0, 0}, {0, 0, 0}, {0, 0, 0}}

	uniform := Smoother{Radius: 2, Kernel: KernelUniform}.Smooth(path)
	gauss := Smoother{Radius: 2, Kernel: KernelGaussian}.Smooth(path)

	assert.InDelta(t, 2.0, uniform[2].X, 1e-9)
	// gaussian concentrates weight on the spike
	assert.Greater(t, gauss[2].X, uniform[2].X)
}

func TestSmoothSingleFrame(t *testing.T) {

	path := []Point{{1, 2, 3}}
	smoothed := Smoother{Radius: 30, Kernel: KernelGaussian}.Smooth(path)

	assert.Equal(t, path, smoothed)
}

func TestParseKernel(t *testing.T) {

	k, err := ParseKernel("Gaussian")
	require.NoError(t, err)
	assert.Equal(t, KernelGaussian, k)

	k, err = ParseKernel("uniform")
	require.NoError(t, err)
	assert.Equal(t, KernelUniform, k)

	_, err = ParseKernel("kalman")
	assert.Error(t, err)

	var parsed Kernel
	require.NoError(t, parsed.UnmarshalText([]byte("gaussian")))
	assert.Equal(t, KernelGaussian, parsed)
}

func TestSavePlot(t *testing.T) {

	raw := rampPath(20)
	smoothed := Smoother{Radius: 3}.Smooth(raw)

	file := filepath.Join(t.TempDir(), "path.png")
	require.NoError(t, SavePlot(raw, smoothed, file))
	assert.FileExists(t, file)

	assert.Error(t, SavePlot(raw, smoothed[:5], file))
}
