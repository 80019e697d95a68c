package cv

import (
	"errors"
	"fmt"
	"io"

	vidstab "github.com/swdee/go-vidstab"
	"github.com/swdee/go-vidstab/preprocess"
	"github.com/swdee/go-vidstab/video"
)

// Options are the backend settings that are not stabilizer parameters
type Options struct {
	// Annotate draws the debug overlay on every output frame
	Annotate bool
	// Resize sets how frames are fitted to the output size
	Resize preprocess.Mode
}

// NewBackend returns the OpenCV backend for the given parameters.  Close
// the Pipeline, or the backend Closer, to free the OpenCV resources.
func NewBackend(p vidstab.Params, opts Options) (vidstab.Backend, error) {

	ops := NewOps(opts.Resize)
	closers := closeAll{ops}

	var chain video.Chain

	for _, name := range p.EnhancerNames() {
		switch name {
		case string(vidstab.EnhanceCLAHE):
			clahe := NewCLAHE(p.ClipLimit, p.TileGrid)
			closers = append(closers, clahe)
			chain = append(chain, clahe)

		case string(vidstab.EnhanceGamma):
			chain = append(chain, AutoGamma{})

		default:
			_ = closers.Close()
			return vidstab.Backend{}, fmt.Errorf("unknown enhancer %s", name)
		}
	}

	b := vidstab.Backend{
		Source: Capture{},
		Sink:   Writer{},
		Ops:    ops,
		Detector: Detector{
			QualityLevel: p.QualityLevel,
			MinDistance:  p.MinDistance,
		},
		Flow:      Flow{},
		Matcher:   Matcher{},
		Estimator: Estimator{},
		Closer:    closers,
	}

	if len(chain) > 0 {
		b.Enhancer = chain
	}

	if opts.Annotate {
		b.Annotator = NewAnnotator()
	}

	return b, nil
}

// closeAll closes each of its members in order
type closeAll []io.Closer

// Close implements io.Closer
func (c closeAll) Close() error {

	var errs []error

	for _, closer := range c {
		errs = append(errs, closer.Close())
	}

	return errors.Join(errs...)
}
