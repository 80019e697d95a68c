package transform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Affine represents a 2x3 affine matrix in the row major layout used by
// OpenCV's warpAffine
//
//	[ a00 a01 a02 ]
//	[ a10 a11 a12 ]
type Affine [2][3]float64

// Identity returns the identity transform
func Identity() Affine {
	return Affine{
		{1, 0, 0},
		{0, 1, 0},
	}
}

// Rigid returns the rotation plus translation matrix
//
//	[ cos(a) -sin(a) dx ]
//	[ sin(a)  cos(a) dy ]
func Rigid(dx, dy, angle float64) Affine {
	sin, cos := math.Sincos(angle)

	return Affine{
		{cos, -sin, dx},
		{sin, cos, dy},
	}
}

// Translation returns a pure translation matrix
func Translation(dx, dy float64) Affine {
	return Affine{
		{1, 0, dx},
		{0, 1, dy},
	}
}

// ZoomAbout returns a rotation free uniform scale of factor z about the
// point (cx, cy).  This is the same matrix getRotationMatrix2D produces for
// an angle of zero.
func ZoomAbout(cx, cy, z float64) Affine {
	return Affine{
		{z, 0, (1 - z) * cx},
		{0, z, (1 - z) * cy},
	}
}

// Homogeneous returns the 3x3 homogeneous form of the matrix
func (a Affine) Homogeneous() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		a[0][0], a[0][1], a[0][2],
		a[1][0], a[1][1], a[1][2],
		0, 0, 1,
	})
}

// FromHomogeneous drops a 3x3 homogeneous matrix back to 2x3 form.  The
// bottom row is assumed to be (0, 0, 1).
func FromHomogeneous(m mat.Matrix) (Affine, error) {

	r, c := m.Dims()

	if r != 3 || c != 3 {
		return Affine{}, fmt.Errorf("homogeneous matrix must be 3x3, got %dx%d", r, c)
	}

	return Affine{
		{m.At(0, 0), m.At(0, 1), m.At(0, 2)},
		{m.At(1, 0), m.At(1, 1), m.At(1, 2)},
	}, nil
}

// Mul returns the product a·b.  When the result is applied to a point, b is
// applied first and a second.
func (a Affine) Mul(b Affine) Affine {

	var prod mat.Dense
	prod.Mul(a.Homogeneous(), b.Homogeneous())

	// a 3x3 product can not fail the dimension check
	res, _ := FromHomogeneous(&prod)

	return res
}

// Apply maps the point (x, y) through the transform
func (a Affine) Apply(x, y float64) (float64, float64) {
	return a[0][0]*x + a[0][1]*y + a[0][2],
		a[1][0]*x + a[1][1]*y + a[1][2]
}

// Translation returns the (dx, dy) components of the matrix
func (a Affine) Translation() (float64, float64) {
	return a[0][2], a[1][2]
}

// Angle returns the rotation angle in radians encoded in the matrix
func (a Affine) Angle() float64 {
	return math.Atan2(a[1][0], a[0][0])
}

// ApproxEqual checks if all elements of both matrices are within epsilon
// of each other
func (a Affine) ApproxEqual(b Affine, epsilon float64) bool {
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			if math.Abs(a[r][c]-b[r][c]) > epsilon {
				return false
			}
		}
	}

	return true
}

// IsFinite reports whether every element of the matrix is a finite number
func (a Affine) IsFinite() bool {
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			if math.IsNaN(a[r][c]) || math.IsInf(a[r][c], 0) {
				return false
			}
		}
	}

	return true
}

// String returns a readable form of the matrix
func (a Affine) String() string {
	return fmt.Sprintf("[%.4f %.4f %.4f; %.4f %.4f %.4f]",
		a[0][0], a[0][1], a[0][2], a[1][0], a[1][1], a[1][2])
}
