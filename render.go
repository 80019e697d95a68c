package vidstab

import (
	"github.com/sirupsen/logrus"

	"github.com/swdee/go-vidstab/transform"
	"github.com/swdee/go-vidstab/video"
)

// emit renders a frame into the output.  The frame is warped by m when warp
// is set, then enhanced, annotated, resized to the output size when it does
// not match and written.  The frame is closed before emit returns.
func (r *run) emit(stage string, f video.Frame, m transform.Affine, warp bool, ov Overlay) error {

	defer f.Close()

	ops := r.p.backend.Ops
	out := f

	if warp {
		ov.Coverage = r.coverage(ov.Index, m)
		ov.Transform = m

		warped, err := ops.Warp(f, m, r.size)

		if err != nil {
			return newError(KindWrite, stage, r.res.Output, err)
		}

		defer warped.Close()
		out = warped
	} else {
		ov.Coverage = 1
		ov.Transform = transform.Identity()
	}

	if enh := r.p.backend.Enhancer; enh != nil {
		if err := enh.Enhance(out); err != nil {
			return newError(KindWrite, stage, r.res.Output, err)
		}
	}

	if ann := r.p.backend.Annotator; ann != nil {
		if err := ann.Annotate(out, ov); err != nil {
			return newError(KindWrite, stage, r.res.Output, err)
		}
	}

	if size := r.sink.Size(); out.Size() != size {
		resized, err := ops.Resize(out, size)

		if err != nil {
			return newError(KindWrite, stage, r.res.Output, err)
		}

		defer resized.Close()
		out = resized
	}

	if err := r.sink.Write(out); err != nil {
		return newError(KindWrite, stage, r.res.Output, err)
	}

	r.res.FramesWritten++
	r.p.metrics.frame(stage)

	return nil
}

// coverage returns the share of the output the corrected frame covers,
// tracking the run minimum and warning the first time it drops below the
// configured threshold
func (r *run) coverage(index int, m transform.Affine) float64 {

	c := transform.Coverage(m, r.size)

	if c < r.res.MinCoverage {
		r.res.MinCoverage = c
	}

	if !r.warned && c < r.p.params.CoverageWarn {
		r.warned = true

		r.log.WithFields(logrus.Fields{
			"frame":    index,
			"coverage": c,
			"zoom":     r.p.params.Zoom,
		}).Warn("Corrected frame exposes borders, consider a larger zoom")
	}

	return c
}
