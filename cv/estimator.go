package cv

import (
	"gocv.io/x/gocv"

	"github.com/swdee/go-vidstab/motion"
	"github.com/swdee/go-vidstab/transform"
)

// RANSAC defaults matching cv::estimateAffinePartial2D
const (
	defaultMaxIters    = 2000
	defaultConfidence  = 0.99
	defaultRefineIters = 10
)

// Estimator fits a similarity transform with RANSAC using
// cv::estimateAffinePartial2D.  Zero values use the OpenCV defaults.
type Estimator struct {
	MaxIters    uint
	Confidence  float64
	RefineIters uint
}

// Estimate implements motion.SimilarityEstimator
func (e Estimator) Estimate(from, to []motion.Point,
	inlierThreshold float64) (transform.Affine, bool) {

	if len(from) != len(to) || len(from) < 2 {
		return transform.Identity(), false
	}

	fromVec := gocv.NewPoint2fVectorFromPoints(point2f(from))
	defer fromVec.Close()
	toVec := gocv.NewPoint2fVectorFromPoints(point2f(to))
	defer toVec.Close()

	inliers := gocv.NewMat()
	defer inliers.Close()

	mm := gocv.EstimateAffinePartial2DWithParams(fromVec, toVec, inliers,
		int(gocv.HomograpyMethodRANSAC), inlierThreshold, e.maxIters(),
		e.confidence(), e.refineIters())
	defer mm.Close()

	if mm.Empty() || mm.Rows() != 2 || mm.Cols() != 3 {
		return transform.Identity(), false
	}

	m := matAffine(mm)

	if !m.IsFinite() {
		return transform.Identity(), false
	}

	return m, true
}

func (e Estimator) maxIters() uint {
	if e.MaxIters == 0 {
		return defaultMaxIters
	}

	return e.MaxIters
}

func (e Estimator) confidence() float64 {
	if e.Confidence <= 0 || e.Confidence >= 1 {
		return defaultConfidence
	}

	return e.Confidence
}

func (e Estimator) refineIters() uint {
	if e.RefineIters == 0 {
		return defaultRefineIters
	}

	return e.RefineIters
}

// point2f converts points to the gocv float32 type
func point2f(pts []motion.Point) []gocv.Point2f {

	out := make([]gocv.Point2f, len(pts))

	for i, p := range pts {
		out[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}

	return out
}
