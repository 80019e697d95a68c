package motion

import (
	"fmt"

	"github.com/swdee/go-vidstab/transform"
)

// Estimate is the relative rigid motion of the camera from frame i-1 to
// frame i
type Estimate struct {
	DX     float64
	DY     float64
	DAngle float64
}

// Identity is the no motion estimate
var Identity = Estimate{}

// FromAffine decomposes an accepted similarity transform into its
// translation and rotation components.  Scale is discarded.
func FromAffine(m transform.Affine) Estimate {
	dx, dy := m.Translation()

	return Estimate{
		DX:     dx,
		DY:     dy,
		DAngle: m.Angle(),
	}
}

// Components implements trajectory.Delta
func (e Estimate) Components() (float64, float64, float64) {
	return e.DX, e.DY, e.DAngle
}

// Fallback records why an Observation carries the identity estimate instead
// of a measured one
type Fallback int

const (
	// FallbackNone means the estimate was measured
	FallbackNone Fallback = 0
	// FallbackNoFeatures means the previous frame had no trackable features
	FallbackNoFeatures Fallback = 1
	// FallbackTooFewCorrespondences means too few valid point pairs survived
	// to attempt a fit
	FallbackTooFewCorrespondences Fallback = 2
	// FallbackFitFailed means the robust similarity fit found no transform
	FallbackFitFailed Fallback = 3
	// FallbackError means a collaborator returned an error
	FallbackError Fallback = 4
)

// String returns a readable description of the fallback
func (f Fallback) String() string {
	switch f {
	case FallbackNone:
		return "none"
	case FallbackNoFeatures:
		return "no features"
	case FallbackTooFewCorrespondences:
		return "too few correspondences"
	case FallbackFitFailed:
		return "fit failed"
	case FallbackError:
		return "error"
	default:
		return fmt.Sprintf("unknown fallback %d", int(f))
	}
}

// Observation is the result of observing one frame pair.  It always carries a
// usable Estimate, the identity one when the evidence was insufficient.
type Observation struct {
	// Estimate is the measured motion, or Identity on fallback
	Estimate Estimate
	// Fallback is the reason Identity was substituted, FallbackNone otherwise
	Fallback Fallback
	// Features is the number of feature points found on the previous frame
	Features int
	// Correspondences is the number of valid point pairs used for the fit
	Correspondences int
	// Err is the collaborator error behind a FallbackError
	Err error
}

// Degraded reports whether the estimate is a substituted identity
func (o Observation) Degraded() bool {
	return o.Fallback != FallbackNone
}

// fallback returns an identity Observation for the given reason
func fallback(reason Fallback, features, correspondences int, err error) Observation {
	return Observation{
		Estimate:        Identity,
		Fallback:        reason,
		Features:        features,
		Correspondences: correspondences,
		Err:             err,
	}
}
