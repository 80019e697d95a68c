package motion

import (
	"image"

	"github.com/swdee/go-vidstab/transform"
	"github.com/swdee/go-vidstab/video"
)

// Point is a 2D position in frame pixel coordinates
type Point struct {
	X, Y float64
}

// Add returns p + o
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p - o
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Correspondence is a feature position on the previous frame paired with
// its position on the current frame
type Correspondence struct {
	From Point
	To   Point
	// Valid is false when the tracker or matcher flagged the pair as lost
	Valid bool
}

// FeatureDetector finds trackable feature points on a grayscale frame
type FeatureDetector interface {
	// Detect returns at most maxFeatures points.  An empty roi means the full
	// frame, otherwise only points inside roi are returned.
	Detect(gray video.Frame, maxFeatures int, roi image.Rectangle) ([]Point, error)
}

// FlowTracker follows points from the previous frame to the current frame,
// eg: pyramidal Lucas-Kanade optical flow
type FlowTracker interface {
	// Track returns one Correspondence per input point in the same order
	Track(prev, curr video.Frame, pts []Point) ([]Correspondence, error)
}

// DescriptorMatcher extracts feature descriptors on both frames and matches
// them, eg: ORB with a brute force hamming matcher
type DescriptorMatcher interface {
	Match(prev, curr video.Frame, maxFeatures int, roi image.Rectangle) ([]Correspondence, error)
}

// SimilarityEstimator fits a rotation, uniform scale and translation
// transform mapping from onto to, eg: RANSAC estimateAffinePartial2D.  It
// returns false when no transform could be fitted.
type SimilarityEstimator interface {
	Estimate(from, to []Point, inlierThreshold float64) (transform.Affine, bool)
}

// Observer measures the camera motion between two consecutive grayscale
// frames.  Implementations must not hold on to the frames after returning.
type Observer interface {
	Observe(prev, curr video.Frame) Observation
}

// Config holds the evidence thresholds shared by all observers
type Config struct {
	// MaxFeatures caps the number of feature points requested per frame
	MaxFeatures int
	// MinCorrespondences is the fewest valid point pairs a fit is attempted
	// with.  Below this an under-determined fit is worse than no correction
	MinCorrespondences int
	// InlierThreshold is the RANSAC reprojection threshold in pixels
	InlierThreshold float64
	// ROI restricts feature detection, empty means the full frame
	ROI image.Rectangle
}

// DefaultConfig returns the thresholds used by the light stabilization mode
func DefaultConfig() Config {
	return Config{
		MaxFeatures:        200,
		MinCorrespondences: 5,
		InlierThreshold:    3,
	}
}

// FlowObserver detects features on the previous frame and follows them onto
// the current frame with optical flow
type FlowObserver struct {
	detector  FeatureDetector
	flow      FlowTracker
	estimator SimilarityEstimator
	cfg       Config
}

// NewFlowObserver returns a flow based Observer
func NewFlowObserver(detector FeatureDetector, flow FlowTracker,
	estimator SimilarityEstimator, cfg Config) *FlowObserver {

	return &FlowObserver{
		detector:  detector,
		flow:      flow,
		estimator: estimator,
		cfg:       cfg,
	}
}

// Observe implements Observer
func (o *FlowObserver) Observe(prev, curr video.Frame) Observation {

	pts, err := o.detector.Detect(prev, o.cfg.MaxFeatures, o.cfg.ROI)

	if err != nil {
		return fallback(FallbackError, 0, 0, err)
	}

	if len(pts) == 0 {
		return fallback(FallbackNoFeatures, 0, 0, nil)
	}

	pairs, err := o.flow.Track(prev, curr, pts)

	if err != nil {
		return fallback(FallbackError, len(pts), 0, err)
	}

	return fit(o.estimator, o.cfg, len(pts), pairs)
}

// MatchObserver matches feature descriptors between the previous and current
// frame
type MatchObserver struct {
	matcher   DescriptorMatcher
	estimator SimilarityEstimator
	cfg       Config
}

// NewMatchObserver returns a descriptor matching based Observer
func NewMatchObserver(matcher DescriptorMatcher, estimator SimilarityEstimator,
	cfg Config) *MatchObserver {

	return &MatchObserver{
		matcher:   matcher,
		estimator: estimator,
		cfg:       cfg,
	}
}

// Observe implements Observer
func (o *MatchObserver) Observe(prev, curr video.Frame) Observation {

	pairs, err := o.matcher.Match(prev, curr, o.cfg.MaxFeatures, o.cfg.ROI)

	if err != nil {
		return fallback(FallbackError, 0, 0, err)
	}

	if len(pairs) == 0 {
		return fallback(FallbackNoFeatures, 0, 0, nil)
	}

	return fit(o.estimator, o.cfg, len(pairs), pairs)
}

// fit filters out invalid pairs and runs the robust similarity fit, applying
// the minimum correspondence policy
func fit(estimator SimilarityEstimator, cfg Config, features int,
	pairs []Correspondence) Observation {

	from := make([]Point, 0, len(pairs))
	to := make([]Point, 0, len(pairs))

	for _, p := range pairs {
		if !p.Valid {
			continue
		}

		from = append(from, p.From)
		to = append(to, p.To)
	}

	minPairs := cfg.MinCorrespondences

	if minPairs <= 0 {
		minPairs = DefaultConfig().MinCorrespondences
	}

	if len(from) < minPairs {
		return fallback(FallbackTooFewCorrespondences, features, len(from), nil)
	}

	m, ok := estimator.Estimate(from, to, cfg.InlierThreshold)

	if !ok || !m.IsFinite() {
		return fallback(FallbackFitFailed, features, len(from), nil)
	}

	return Observation{
		Estimate:        FromAffine(m),
		Fallback:        FallbackNone,
		Features:        features,
		Correspondences: len(from),
	}
}
