package cv

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/swdee/go-vidstab/motion"
	"github.com/swdee/go-vidstab/video"
)

// Detector finds Shi-Tomasi corners with gocv.GoodFeaturesToTrack
type Detector struct {
	// QualityLevel is the minimum corner quality relative to the best corner
	QualityLevel float64
	// MinDistance is the minimum pixel distance between returned corners
	MinDistance float64
}

// Detect implements motion.FeatureDetector
func (d Detector) Detect(gray video.Frame, maxFeatures int,
	roi image.Rectangle) ([]motion.Point, error) {

	cf, err := asFrame(gray)

	if err != nil {
		return nil, err
	}

	if cf.mat.Channels() != 1 {
		return nil, fmt.Errorf("feature detection needs a grayscale frame, got %d channels",
			cf.mat.Channels())
	}

	if maxFeatures <= 0 {
		return nil, nil
	}

	img := cf.mat
	var offset image.Point

	if !roi.Empty() {
		roi = roi.Intersect(image.Rect(0, 0, cf.mat.Cols(), cf.mat.Rows()))

		if roi.Empty() {
			return nil, nil
		}

		region := cf.mat.Region(roi)
		defer region.Close()

		img = region
		offset = roi.Min
	}

	corners := gocv.NewMat()
	defer corners.Close()

	gocv.GoodFeaturesToTrack(img, &corners, maxFeatures, d.QualityLevel, d.MinDistance)

	pts := make([]motion.Point, 0, corners.Rows())

	for i := 0; i < corners.Rows(); i++ {
		p := pointAt(corners, i)
		pts = append(pts, motion.Point{
			X: p.X + float64(offset.X),
			Y: p.Y + float64(offset.Y),
		})
	}

	return pts, nil
}

// Flow follows points between frames with pyramidal Lucas-Kanade optical
// flow
type Flow struct{}

// Track implements motion.FlowTracker
func (Flow) Track(prev, curr video.Frame, pts []motion.Point) ([]motion.Correspondence, error) {

	pf, err := asFrame(prev)

	if err != nil {
		return nil, err
	}

	cf, err := asFrame(curr)

	if err != nil {
		return nil, err
	}

	if pf.Size() != cf.Size() {
		return nil, fmt.Errorf("frame size changed from %v to %v", pf.Size(), cf.Size())
	}

	if len(pts) == 0 {
		return nil, nil
	}

	prevPts := pointsMat(pts)
	defer prevPts.Close()

	nextPts := gocv.NewMat()
	defer nextPts.Close()
	status := gocv.NewMat()
	defer status.Close()
	errMat := gocv.NewMat()
	defer errMat.Close()

	gocv.CalcOpticalFlowPyrLK(pf.mat, cf.mat, prevPts, nextPts, &status, &errMat)

	if nextPts.Rows() != len(pts) || status.Rows() != len(pts) {
		return nil, fmt.Errorf("optical flow returned %d points for %d inputs",
			nextPts.Rows(), len(pts))
	}

	corr := make([]motion.Correspondence, len(pts))

	for i, from := range pts {
		to := pointAt(nextPts, i)

		corr[i] = motion.Correspondence{
			From:  from,
			To:    to,
			Valid: status.GetUCharAt(i, 0) == 1 && finite(to),
		}
	}

	return corr, nil
}

// pointsMat packs points into the Nx2 float Mat OpenCV takes as a point
// list
func pointsMat(pts []motion.Point) gocv.Mat {

	m := gocv.NewMatWithSize(len(pts), 2, gocv.MatTypeCV32F)

	for i, p := range pts {
		m.SetFloatAt(i, 0, float32(p.X))
		m.SetFloatAt(i, 1, float32(p.Y))
	}

	return m
}

// pointAt reads the i'th point of an OpenCV point list, which is either
// Nx1 with two channels or Nx2 with one
func pointAt(m gocv.Mat, i int) motion.Point {

	if m.Channels() == 2 {
		v := m.GetVecfAt(i, 0)
		return motion.Point{X: float64(v[0]), Y: float64(v[1])}
	}

	return motion.Point{
		X: float64(m.GetFloatAt(i, 0)),
		Y: float64(m.GetFloatAt(i, 1)),
	}
}

// finite reports whether both coordinates are real numbers
func finite(p motion.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
