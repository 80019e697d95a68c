// Package tracker implements the object-lock variant of stabilization.  It
// follows a cloud of feature points seeded in a region of interest around the
// subject and accumulates their motion into a compensating shift, holding the
// subject fixed in frame instead of smoothing the whole camera path.
package tracker

import (
	"fmt"
	"image"

	"github.com/swdee/go-vidstab/motion"
	"github.com/swdee/go-vidstab/transform"
	"github.com/swdee/go-vidstab/video"
)

// State of the object-lock tracker
type State int

const (
	// Tracking means the tracker holds live points and follows them
	Tracking State = 0
	// Reseeding means the tracker needs fresh points from the region of interest
	Reseeding State = 1
)

// String returns a readable description of the state
func (s State) String() string {
	switch s {
	case Tracking:
		return "tracking"
	case Reseeding:
		return "reseeding"
	default:
		return fmt.Sprintf("unknown state %d", int(s))
	}
}

// Config holds the object-lock tunables
type Config struct {
	// MaxFeatures caps the number of points seeded in the region of interest
	MaxFeatures int
	// ReseedMinPoints triggers a reseed when fewer live points survive a
	// flow update
	ReseedMinPoints int
	// ReseedEvery forces a reseed after this many frames, 0 disables it
	ReseedEvery int
	// ROIFraction is the size of the region of interest as a fraction of the
	// frame dimensions
	ROIFraction float64
	// TrailSize is the number of subject positions kept for the overlay
	TrailSize int
}

// DefaultConfig returns the settings of the aggressive object-lock preset
func DefaultConfig() Config {
	return Config{
		MaxFeatures:     100,
		ReseedMinPoints: 20,
		ReseedEvery:     30,
		ROIFraction:     0.5,
		TrailSize:       60,
	}
}

// TrackState is the evolving state of the tracker
type TrackState struct {
	// ROI is the region feature points were last seeded from
	ROI Rect
	// Points are the live feature positions on the latest frame
	Points []motion.Point
	// Shift is the cumulative compensating translation
	Shift motion.Point
	State State
}

// Step reports the outcome of one tracker update
type Step struct {
	// Shift is the cumulative compensating translation after the update
	Shift motion.Point
	// Live is the number of points that survived the flow update
	Live int
	// Reseeded is set when fresh points were requested this frame
	Reseeded bool
	// Err is a collaborator error, the update carried on without its result
	Err error
}

// ObjectLock tracks a subject across frames and derives the translation that
// keeps it fixed
type ObjectLock struct {
	detector motion.FeatureDetector
	flow     motion.FlowTracker
	cfg      Config
	size     image.Point
	// center is the frame center, the position of the subject when seeded
	center    motion.Point
	state     TrackState
	sinceSeed int
	reseeds   int
	trail     *Trail
}

// NewObjectLock returns a tracker for frames of the given size
func NewObjectLock(detector motion.FeatureDetector, flow motion.FlowTracker,
	cfg Config, size image.Point) *ObjectLock {

	if cfg.ROIFraction <= 0 || cfg.ROIFraction > 1 {
		cfg.ROIFraction = DefaultConfig().ROIFraction
	}

	return &ObjectLock{
		detector: detector,
		flow:     flow,
		cfg:      cfg,
		size:     size,
		center:   motion.Point{X: float64(size.X) / 2, Y: float64(size.Y) / 2},
		state:    TrackState{State: Reseeding},
		trail:    NewTrail(cfg.TrailSize),
	}
}

// Seed initializes the tracker on the first grayscale frame, seeding points
// in the region of interest at the frame center
func (o *ObjectLock) Seed(gray video.Frame) error {

	o.state = TrackState{State: Reseeding}
	o.sinceSeed = 0
	o.trail.Reset()
	o.trail.Add(o.center.X, o.center.Y)

	return o.reseed(gray)
}

// Update follows the live points from prev onto curr, accumulates their mean
// motion into the compensating shift and reseeds when the evidence runs thin
// or the refresh cadence is due
func (o *ObjectLock) Update(prev, curr video.Frame) Step {

	var step Step

	if len(o.state.Points) > 0 {
		live, err := o.follow(prev, curr)
		step.Live = live
		step.Err = err
	}

	o.sinceSeed++

	if o.needsReseed(step.Live) {
		o.state.State = Reseeding
		step.Reseeded = true

		if err := o.reseed(curr); err != nil && step.Err == nil {
			step.Err = err
		}
	}

	pos := o.Subject()
	o.trail.Add(pos.X, pos.Y)

	step.Shift = o.state.Shift

	return step
}

// follow tracks the live points and applies their mean displacement to the
// shift, returning the number of points that survived
func (o *ObjectLock) follow(prev, curr video.Frame) (int, error) {

	pairs, err := o.flow.Track(prev, curr, o.state.Points)

	if err != nil {
		o.state.Points = nil
		return 0, err
	}

	kept := make([]motion.Point, 0, len(pairs))
	var sum motion.Point

	for _, p := range pairs {
		if !p.Valid {
			continue
		}

		sum = sum.Add(p.To.Sub(p.From))
		kept = append(kept, p.To)
	}

	o.state.Points = kept

	if len(kept) == 0 {
		return 0, nil
	}

	n := float64(len(kept))
	o.state.Shift = o.state.Shift.Sub(motion.Point{X: sum.X / n, Y: sum.Y / n})

	return len(kept), nil
}

// needsReseed applies the reseed policy after a flow update
func (o *ObjectLock) needsReseed(live int) bool {

	if o.state.State == Reseeding || len(o.state.Points) == 0 {
		return true
	}

	if live < o.cfg.ReseedMinPoints {
		return true
	}

	return o.cfg.ReseedEvery > 0 && o.sinceSeed >= o.cfg.ReseedEvery
}

// reseed recomputes the region of interest around the subject and requests
// fresh points inside it
func (o *ObjectLock) reseed(gray video.Frame) error {

	pos := o.Subject()
	o.state.ROI = CenteredAt(pos.X, pos.Y,
		float64(o.size.X)*o.cfg.ROIFraction,
		float64(o.size.Y)*o.cfg.ROIFraction,
	).Clamp(o.size)

	o.reseeds++
	o.sinceSeed = 0

	pts, err := o.detector.Detect(gray, o.cfg.MaxFeatures, o.state.ROI.Image())

	if err != nil {
		o.state.Points = nil
		return fmt.Errorf("reseed failed: %w", err)
	}

	o.state.Points = pts

	if len(pts) > 0 {
		o.state.State = Tracking
	}

	return nil
}

// Subject returns the current estimated subject position, the frame center
// displaced by the motion accumulated so far
func (o *ObjectLock) Subject() motion.Point {
	return o.center.Sub(o.state.Shift)
}

// Correction returns the pure translation that holds the subject in place
func (o *ObjectLock) Correction() transform.Affine {
	return transform.Translation(o.state.Shift.X, o.state.Shift.Y)
}

// State returns a copy of the current tracker state
func (o *ObjectLock) State() TrackState {

	st := o.state
	st.Points = append([]motion.Point(nil), o.state.Points...)

	return st
}

// Reseeds returns the number of times points were requested, including the
// initial seed
func (o *ObjectLock) Reseeds() int {
	return o.reseeds
}

// Trail returns the subject position history
func (o *ObjectLock) Trail() *Trail {
	return o.trail
}
