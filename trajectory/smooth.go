package trajectory

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Kernel is the weighting policy applied across the smoothing window
type Kernel int

const (
	// KernelUniform weights every frame in the window equally, a moving
	// average
	KernelUniform Kernel = 0
	// KernelGaussian weights frames by exp(-j²/2σ²) so frames nearer the
	// center count more
	KernelGaussian Kernel = 1
)

// DefaultSigmaDivisor is the divisor applied to the radius to get the
// Gaussian sigma
const DefaultSigmaDivisor = 2.5

// String returns the name of the kernel
func (k Kernel) String() string {
	switch k {
	case KernelUniform:
		return "uniform"
	case KernelGaussian:
		return "gaussian"
	default:
		return fmt.Sprintf("unknown kernel %d", int(k))
	}
}

// ParseKernel returns the Kernel for the given name
func ParseKernel(name string) (Kernel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "uniform", "box", "average":
		return KernelUniform, nil
	case "gaussian", "gauss":
		return KernelGaussian, nil
	default:
		return KernelUniform, fmt.Errorf("unknown smoothing kernel: %s", name)
	}
}

// MarshalText implements encoding.TextMarshaler
func (k Kernel) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kernel) UnmarshalText(text []byte) error {
	parsed, err := ParseKernel(string(text))

	if err != nil {
		return err
	}

	*k = parsed
	return nil
}

// Smoother smooths a full camera path using a symmetric window of Radius
// frames either side of each frame
type Smoother struct {
	// Radius is the number of frames either side of the center frame.  The
	// larger the radius the floatier the result
	Radius int
	// Kernel is the weighting policy
	Kernel Kernel
	// SigmaDivisor sets sigma = Radius/SigmaDivisor for the Gaussian kernel.
	// Zero uses DefaultSigmaDivisor
	SigmaDivisor float64
}

// weights returns the kernel weight for each window offset j in [-r, r],
// stored at index j+r
func (s Smoother) weights() []float64 {

	w := make([]float64, 2*s.Radius+1)

	divisor := s.SigmaDivisor

	if divisor <= 0 {
		divisor = DefaultSigmaDivisor
	}

	sigma := float64(s.Radius) / divisor

	for j := -s.Radius; j <= s.Radius; j++ {
		switch s.Kernel {
		case KernelGaussian:
			w[j+s.Radius] = math.Exp(-float64(j*j) / (2 * sigma * sigma))
		default:
			w[j+s.Radius] = 1
		}
	}

	return w
}

// Smooth returns the smoothed path.  The whole path has to exist before any
// element can be computed as the window looks ahead.  Frames near either end
// of the path are averaged over the part of the window that falls within the
// path, so boundary frames use fewer, asymmetric samples.
func (s Smoother) Smooth(path []Point) []Point {

	smoothed := make([]Point, len(path))

	if s.Radius <= 0 {
		copy(smoothed, path)
		return smoothed
	}

	kernel := s.weights()

	// scratch buffers reused across frames
	xs := make([]float64, 0, len(kernel))
	ys := make([]float64, 0, len(kernel))
	as := make([]float64, 0, len(kernel))
	ws := make([]float64, 0, len(kernel))

	for i := range path {
		xs, ys, as, ws = xs[:0], ys[:0], as[:0], ws[:0]
		sum := 0.0

		lo := max(i-s.Radius, 0)
		hi := min(i+s.Radius, len(path)-1)

		for k := lo; k <= hi; k++ {
			w := kernel[k-i+s.Radius]

			xs = append(xs, path[k].X)
			ys = append(ys, path[k].Y)
			as = append(as, path[k].A)
			ws = append(ws, w)
			sum += w
		}

		if sum == 0 || math.IsNaN(sum) {
			// no usable weight, keep the frame where it is
			smoothed[i] = path[i]
			continue
		}

		smoothed[i] = Point{
			X: stat.Mean(xs, ws),
			Y: stat.Mean(ys, ws),
			A: stat.Mean(as, ws),
		}
	}

	return smoothed
}
