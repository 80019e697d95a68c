package vidstab

import (
	"time"

	"github.com/swdee/go-vidstab/motion"
	"github.com/swdee/go-vidstab/trajectory"
)

// Path holds the camera trajectory of a run
type Path struct {
	Raw      []trajectory.Point
	Smoothed []trajectory.Point
}

// Result describes a successful run
type Result struct {
	// RunID uniquely identifies the run in logs
	RunID  string
	Mode   Mode
	Input  string
	Output string
	// Codec is the output codec that was opened
	Codec string
	// FramesAnalyzed is the number of frames motion was measured over
	FramesAnalyzed int
	FramesWritten  int
	// Fallbacks counts the estimates substituted with identity by reason
	Fallbacks map[motion.Fallback]int
	// Reseeds counts object-lock reseeds including the initial seed
	Reseeds int
	// MinCoverage is the smallest share of the output covered by any
	// corrected frame
	MinCoverage float64
	Duration    time.Duration
	// Path is only set when Params.KeepTrajectory is set in ModeStabilize
	Path *Path
}

// Degraded returns the total number of substituted estimates
func (r *Result) Degraded() int {

	n := 0

	for reason, c := range r.Fallbacks {
		if reason != motion.FallbackNone {
			n += c
		}
	}

	return n
}
