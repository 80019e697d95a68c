package vidstab

import (
	"fmt"
	"image"
	"io"

	"github.com/swdee/go-vidstab/motion"
	"github.com/swdee/go-vidstab/tracker"
	"github.com/swdee/go-vidstab/transform"
	"github.com/swdee/go-vidstab/video"
)

// Overlay is the per frame debug state handed to an Annotator
type Overlay struct {
	Mode  Mode
	Index int
	// Fallback is the reason the frame's estimate was substituted
	Fallback motion.Fallback
	// Coverage is the share of the output covered by the corrected frame
	Coverage float64
	// Transform maps input frame coordinates onto the annotated frame
	Transform transform.Affine
	// ROI, Points, Trail and State are only set in ModeTrack
	ROI    image.Rectangle
	Points []motion.Point
	Trail  []tracker.Point
	State  tracker.State
}

// Annotator draws debug overlays onto rendered frames in place
type Annotator interface {
	Annotate(f video.Frame, o Overlay) error
}

// Backend bundles the video and computer vision collaborators a Pipeline
// runs on
type Backend struct {
	Source video.SourceOpener
	Sink   video.SinkOpener
	Ops    video.FrameOps

	// Detector and Flow back the flow strategy and object-lock mode,
	// Matcher backs the match strategy
	Detector  motion.FeatureDetector
	Flow      motion.FlowTracker
	Matcher   motion.DescriptorMatcher
	Estimator motion.SimilarityEstimator

	// Enhancer is the optional post warp enhancement chain
	Enhancer video.Enhancer
	// Annotator optionally draws debug overlays before frames are written
	Annotator Annotator

	// Closer releases backend resources when the Pipeline is closed
	Closer io.Closer
}

// check returns an error when a collaborator needed by the params is missing
func (b Backend) check(p Params) error {

	if b.Source == nil || b.Sink == nil || b.Ops == nil {
		return fmt.Errorf("backend requires a source, sink and frame ops")
	}

	if p.Mode == ModeTrack {
		if b.Detector == nil || b.Flow == nil {
			return fmt.Errorf("%s mode requires a feature detector and flow tracker", ModeTrack)
		}

		return nil
	}

	if b.Estimator == nil {
		return fmt.Errorf("%s mode requires a similarity estimator", ModeStabilize)
	}

	switch p.Strategy {
	case StrategyMatch:
		if b.Matcher == nil {
			return fmt.Errorf("%s strategy requires a descriptor matcher", StrategyMatch)
		}
	default:
		if b.Detector == nil || b.Flow == nil {
			return fmt.Errorf("%s strategy requires a feature detector and flow tracker", StrategyFlow)
		}
	}

	return nil
}

// observer builds the motion observer selected by the params
func (b Backend) observer(p Params) motion.Observer {

	if p.Strategy == StrategyMatch {
		return motion.NewMatchObserver(b.Matcher, b.Estimator, p.ObserverConfig())
	}

	return motion.NewFlowObserver(b.Detector, b.Flow, b.Estimator, p.ObserverConfig())
}
