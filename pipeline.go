package vidstab

import (
	"context"
	"errors"
	"image"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/swdee/go-vidstab/motion"
	"github.com/swdee/go-vidstab/trajectory"
	"github.com/swdee/go-vidstab/transform"
	"github.com/swdee/go-vidstab/video"
)

const (
	// progressEvery is the frame interval progress is logged at
	progressEvery = 30
	// defaultFPS is used when the input does not report a frame rate
	defaultFPS = 30.0
)

// pipeline stages reported on errors and in logs
const (
	stageConfigure = "configure"
	stageOpen      = "open"
	stageAnalyze   = "analyze"
	stageRender    = "render"
	stageTrack     = "track"
)

// Pipeline stabilizes videos using a Backend.  A Pipeline must only be used
// by one goroutine at a time, use a Pool to process videos concurrently.
type Pipeline struct {
	params  Params
	backend Backend
	log     logrus.FieldLogger
	metrics *Metrics
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger runs are logged to, defaults to the logrus
// standard logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics sets the collectors runs are recorded in
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// NewPipeline returns a Pipeline for the given params and backend
func NewPipeline(params Params, backend Backend, opts ...Option) (*Pipeline, error) {

	if err := params.Validate(); err != nil {
		return nil, newError(KindInvalidParams, stageConfigure, "", err)
	}

	if err := backend.check(params); err != nil {
		return nil, newError(KindInvalidParams, stageConfigure, "", err)
	}

	p := &Pipeline{
		params:  params,
		backend: backend,
		log:     logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Params returns the params the pipeline was created with
func (p *Pipeline) Params() Params {
	return p.params
}

// Close releases the backend
func (p *Pipeline) Close() error {
	if p.backend.Closer == nil {
		return nil
	}

	return p.backend.Closer.Close()
}

// Run stabilizes input into output using the mode set in the params
func (p *Pipeline) Run(ctx context.Context, input, output string) (*Result, error) {

	if p.params.Mode == ModeTrack {
		return p.Track(ctx, input, output)
	}

	return p.Stabilize(ctx, input, output)
}

// Stabilize smooths the camera trajectory of input and writes the corrected
// frames to output.  It reads the input twice, once to measure the motion
// and once to render.
func (p *Pipeline) Stabilize(ctx context.Context, input, output string) (*Result, error) {

	r := p.begin(ctx, ModeStabilize, input, output)

	return r.finish(r.stabilize())
}

// Track locks onto the subject at the center of the first frame of input
// and writes frames compensated to hold it in place to output
func (p *Pipeline) Track(ctx context.Context, input, output string) (*Result, error) {

	r := p.begin(ctx, ModeTrack, input, output)

	return r.finish(r.track())
}

// run is the state of a single invocation
type run struct {
	p     *Pipeline
	ctx   context.Context
	log   *logrus.Entry
	res   *Result
	start time.Time

	src  video.Source
	info video.Info
	sink video.Sink
	// size is the frame size of the input
	size image.Point
	// warned is set once a low coverage warning has been logged
	warned bool
}

// begin starts a run
func (p *Pipeline) begin(ctx context.Context, mode Mode, input, output string) *run {

	id := uuid.NewString()

	return &run{
		p:   p,
		ctx: ctx,
		log: p.log.WithFields(logrus.Fields{
			"run_id": id,
			"mode":   mode,
			"input":  input,
			"output": output,
		}),
		res: &Result{
			RunID:       id,
			Mode:        mode,
			Input:       input,
			Output:      output,
			Fallbacks:   make(map[motion.Fallback]int),
			MinCoverage: 1,
		},
		start: time.Now(),
	}
}

// finish releases the run resources, discarding the output on failure, and
// records the outcome
func (r *run) finish(err error) (*Result, error) {

	if r.sink != nil {
		if err != nil {
			if aerr := r.sink.Abort(); aerr != nil {
				r.log.WithField("error", aerr.Error()).Warn("Failed to discard partial output")
			}
		} else if cerr := r.sink.Close(); cerr != nil {
			err = newError(KindWrite, stageRender, r.res.Output, cerr)
		}
	}

	if r.src != nil {
		_ = r.src.Close()
	}

	r.res.Duration = time.Since(r.start)
	r.p.metrics.run(r.res.Mode, err, r.res.Duration)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"kind":  KindOf(err).String(),
			"error": err.Error(),
		}).Error("Stabilization failed")

		return nil, err
	}

	r.log.WithFields(logrus.Fields{
		"codec":    r.res.Codec,
		"frames":   r.res.FramesWritten,
		"degraded": r.res.Degraded(),
		"coverage": r.res.MinCoverage,
		"duration": r.res.Duration.String(),
	}).Info("Stabilization complete")

	return r.res, nil
}

// cancelled returns a KindCancelled error once the context is done
func (r *run) cancelled(stage string) error {
	if err := r.ctx.Err(); err != nil {
		return newError(KindCancelled, stage, "", err)
	}

	return nil
}

// openInput opens the source and reads the first frame
func (r *run) openInput() (video.Frame, error) {

	if err := r.cancelled(stageOpen); err != nil {
		return nil, err
	}

	src, err := r.p.backend.Source.Open(r.res.Input)

	if err != nil {
		return nil, newError(KindInputOpen, stageOpen, r.res.Input, err)
	}

	r.src = src
	r.info = src.Info()

	first, err := src.Read()

	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("input has no frames")
		}

		return nil, newError(KindDegenerateVideo, stageOpen, r.res.Input, err)
	}

	size := first.Size()

	if first.Empty() || size.X <= 0 || size.Y <= 0 {
		_ = first.Close()
		return nil, newError(KindDegenerateVideo, stageOpen, r.res.Input,
			errors.New("first frame is empty"))
	}

	r.size = size

	r.log.WithFields(logrus.Fields{
		"width":       size.X,
		"height":      size.Y,
		"fps":         r.info.FPS,
		"frame_count": r.info.FrameCount,
	}).Info("Input opened")

	return first, nil
}

// openOutput opens the sink at the even frame size with the first codec
// candidate that works
func (r *run) openOutput() error {

	size := video.EvenSize(r.size)

	if size.X <= 0 || size.Y <= 0 {
		return newError(KindDegenerateVideo, stageOpen, r.res.Input,
			errors.New("frame too small to encode"))
	}

	fps := r.info.FPS

	if fps <= 0 {
		r.log.WithField("fps", defaultFPS).Warn("Input reports no frame rate, using default")
		fps = defaultFPS
	}

	sink, err := video.OpenSink(r.p.backend.Sink, r.res.Output, r.p.params.Codecs, fps, size)

	if err != nil {
		return newError(KindNoCodec, stageOpen, r.res.Output, err)
	}

	r.sink = sink
	r.res.Codec = sink.Codec()

	r.log.WithFields(logrus.Fields{
		"codec":  sink.Codec(),
		"width":  size.X,
		"height": size.Y,
	}).Info("Output opened")

	return nil
}

// readLimit returns the number of frames the container reports, 0 when the
// stream should be read to its end
func (r *run) readLimit() int {
	if r.info.FrameCount > 0 {
		return r.info.FrameCount
	}

	return 0
}

// stabilize performs the two pass smoothing run
func (r *run) stabilize() error {

	if err := r.p.backend.check(r.p.params.withMode(ModeStabilize)); err != nil {
		return newError(KindInvalidParams, stageConfigure, "", err)
	}

	first, err := r.openInput()

	if err != nil {
		return err
	}

	if err := r.openOutput(); err != nil {
		_ = first.Close()
		return err
	}

	estimates, fallbacks, err := r.analyze(first)

	if err != nil {
		return err
	}

	path := trajectory.Accumulate(estimates)
	smoothed := r.p.params.Smoother().Smooth(path)

	if r.p.params.KeepTrajectory {
		r.res.Path = &Path{Raw: path, Smoothed: smoothed}
	}

	r.log.WithFields(logrus.Fields{
		"frames":   len(estimates),
		"degraded": r.res.Degraded(),
		"radius":   r.p.params.Radius,
		"kernel":   r.p.params.Kernel.String(),
	}).Info("Trajectory smoothed, rendering")

	if err := r.src.Rewind(); err != nil {
		return newError(KindSourceChanged, stageRender, r.res.Input, err)
	}

	return r.renderPath(path, smoothed, fallbacks)
}

// analyze measures the motion between every consecutive frame pair.  The
// estimate of the first frame is always identity.
func (r *run) analyze(first video.Frame) ([]motion.Estimate, []motion.Fallback, error) {

	ops := r.p.backend.Ops

	prev, err := ops.Gray(first)
	_ = first.Close()

	if err != nil {
		return nil, nil, newError(KindDegenerateVideo, stageAnalyze, r.res.Input, err)
	}

	defer func() {
		_ = prev.Close()
	}()

	observer := r.p.backend.observer(r.p.params)
	limit := r.readLimit()

	estimates := make([]motion.Estimate, 1, max(limit, 1))
	estimates[0] = motion.Identity
	fallbacks := make([]motion.Fallback, 1, max(limit, 1))
	r.p.metrics.frame(stageAnalyze)

	for limit == 0 || len(estimates) < limit {

		if err := r.cancelled(stageAnalyze); err != nil {
			return nil, nil, err
		}

		f, err := r.src.Read()

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			// a broken tail is treated as the end of the stream
			r.log.WithFields(logrus.Fields{
				"frame": len(estimates),
				"error": err.Error(),
			}).Warn("Read failed during analysis, ending stream")
			break
		}

		if f.Empty() {
			_ = f.Close()
			break
		}

		gray, err := ops.Gray(f)
		_ = f.Close()

		var obs motion.Observation

		if err != nil {
			obs = motion.Observation{Estimate: motion.Identity, Fallback: motion.FallbackError, Err: err}
		} else {
			obs = observer.Observe(prev, gray)
			_ = prev.Close()
			prev = gray
		}

		r.observed(len(estimates), obs)

		estimates = append(estimates, obs.Estimate)
		fallbacks = append(fallbacks, obs.Fallback)
		r.p.metrics.frame(stageAnalyze)

		if len(estimates)%progressEvery == 0 {
			r.log.WithFields(logrus.Fields{
				"frame": len(estimates),
				"total": limit,
			}).Debug("Analyzing")
		}
	}

	r.res.FramesAnalyzed = len(estimates)

	return estimates, fallbacks, nil
}

// observed records the outcome of observing one frame
func (r *run) observed(index int, obs motion.Observation) {

	if !obs.Degraded() {
		return
	}

	r.res.Fallbacks[obs.Fallback]++
	r.p.metrics.fallback(obs.Fallback)

	fields := logrus.Fields{
		"frame":           index,
		"reason":          obs.Fallback.String(),
		"features":        obs.Features,
		"correspondences": obs.Correspondences,
	}

	if obs.Err != nil {
		fields["error"] = obs.Err.Error()
	}

	r.log.WithFields(fields).Debug("Motion estimate degraded to identity")
}

// renderPath writes every analyzed frame corrected onto the smoothed path
func (r *run) renderPath(path, smoothed []trajectory.Point, fallbacks []motion.Fallback) error {

	composer := transform.NewComposer(r.size, r.p.params.Zoom)

	for i := range path {

		if err := r.cancelled(stageRender); err != nil {
			return err
		}

		f, err := r.src.Read()

		if err != nil {
			if errors.Is(err, io.EOF) {
				err = errors.New("stream ended early")
			}

			r.log.WithFields(logrus.Fields{
				"frame":    i,
				"analyzed": len(path),
			}).Error("Input returned fewer frames on render")

			return newError(KindSourceChanged, stageRender, r.res.Input, err)
		}

		m := composer.Correct(path[i], smoothed[i])

		ov := Overlay{
			Mode:     ModeStabilize,
			Index:    i,
			Fallback: fallbacks[i],
		}

		if err := r.emit(stageRender, f, m, true, ov); err != nil {
			return err
		}

		if (i+1)%progressEvery == 0 {
			r.log.WithFields(logrus.Fields{
				"frame": i + 1,
				"total": len(path),
			}).Debug("Rendering")
		}
	}

	return nil
}

// withMode returns a copy of the params set to the given mode
func (p Params) withMode(mode Mode) Params {
	p.Mode = mode
	return p
}
