package cv

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/swdee/go-vidstab/motion"
	"github.com/swdee/go-vidstab/video"
)

// DefaultMatchRatio is the nearest to second nearest descriptor distance
// ratio a match must beat to be valid
const DefaultMatchRatio = 0.75

// Matcher matches ORB descriptors between frames with a brute force hamming
// matcher
type Matcher struct {
	// Ratio is the ratio test threshold, zero uses DefaultMatchRatio
	Ratio float64
}

// Match implements motion.DescriptorMatcher
func (m Matcher) Match(prev, curr video.Frame, maxFeatures int,
	roi image.Rectangle) ([]motion.Correspondence, error) {

	pf, err := asFrame(prev)

	if err != nil {
		return nil, err
	}

	cf, err := asFrame(curr)

	if err != nil {
		return nil, err
	}

	if maxFeatures <= 0 {
		return nil, nil
	}

	orb := gocv.NewORBWithParams(maxFeatures, 1.2, 8, 31, 0, 2,
		gocv.ORBScoreTypeHarris, 31, 20)
	defer orb.Close()

	prevMask := roiMask(pf.mat, roi)
	defer prevMask.Close()
	currMask := roiMask(cf.mat, roi)
	defer currMask.Close()

	prevKps, prevDesc := orb.DetectAndCompute(pf.mat, prevMask)
	defer prevDesc.Close()
	currKps, currDesc := orb.DetectAndCompute(cf.mat, currMask)
	defer currDesc.Close()

	if prevDesc.Empty() || currDesc.Empty() {
		return nil, nil
	}

	bf := gocv.NewBFMatcherWithParams(gocv.NormHamming, false)
	defer bf.Close()

	ratio := m.Ratio

	if ratio <= 0 {
		ratio = DefaultMatchRatio
	}

	knn := bf.KnnMatch(prevDesc, currDesc, 2)
	corr := make([]motion.Correspondence, 0, len(knn))

	for _, pair := range knn {
		if len(pair) == 0 {
			continue
		}

		best := pair[0]

		if best.QueryIdx >= len(prevKps) || best.TrainIdx >= len(currKps) {
			continue
		}

		from := prevKps[best.QueryIdx]
		to := currKps[best.TrainIdx]

		corr = append(corr, motion.Correspondence{
			From:  motion.Point{X: from.X, Y: from.Y},
			To:    motion.Point{X: to.X, Y: to.Y},
			Valid: len(pair) < 2 || best.Distance < ratio*pair[1].Distance,
		})
	}

	return corr, nil
}

// roiMask returns the detection mask for roi, an empty Mat when roi is
// empty which OpenCV treats as the full frame
func roiMask(img gocv.Mat, roi image.Rectangle) gocv.Mat {

	if roi.Empty() {
		return gocv.NewMat()
	}

	mask := gocv.Zeros(img.Rows(), img.Cols(), gocv.MatTypeCV8U)
	roi = roi.Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))

	if roi.Empty() {
		return mask
	}

	region := mask.Region(roi)
	region.SetTo(gocv.NewScalar(255, 0, 0, 0))
	region.Close()

	return mask
}
