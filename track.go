package vidstab

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/swdee/go-vidstab/tracker"
	"github.com/swdee/go-vidstab/transform"
)

// track performs the single pass object-lock run
func (r *run) track() error {

	if err := r.p.backend.check(r.p.params.withMode(ModeTrack)); err != nil {
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

	ops := r.p.backend.Ops

	prev, err := ops.Gray(first)

	if err != nil {
		_ = first.Close()
		return newError(KindDegenerateVideo, stageTrack, r.res.Input, err)
	}

	defer func() {
		_ = prev.Close()
	}()

	lock := tracker.NewObjectLock(r.p.backend.Detector, r.p.backend.Flow,
		r.p.params.TrackerConfig(), r.size)

	if err := lock.Seed(prev); err != nil {
		r.log.WithField("error", err.Error()).Debug("Initial seed failed")
	}

	r.p.metrics.reseed()

	// the first frame is the reference and is written untransformed
	if err := r.emit(stageTrack, first, transform.Identity(), false, r.trackOverlay(0, lock)); err != nil {
		return err
	}

	composer := transform.NewComposer(r.size, r.p.params.Zoom)
	limit := r.readLimit()
	n := 1

	for limit == 0 || n < limit {

		if err := r.cancelled(stageTrack); err != nil {
			return err
		}

		f, err := r.src.Read()

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			r.log.WithFields(logrus.Fields{
				"frame": n,
				"error": err.Error(),
			}).Warn("Read failed during tracking, ending stream")
			break
		}

		if f.Empty() {
			_ = f.Close()
			break
		}

		if gray, err := ops.Gray(f); err != nil {
			// keep the last correction for this frame
			r.log.WithFields(logrus.Fields{
				"frame": n,
				"error": err.Error(),
			}).Debug("Grayscale conversion failed, holding correction")
		} else {
			r.stepped(n, lock.Update(prev, gray), lock)
			_ = prev.Close()
			prev = gray
		}

		m := composer.Compose(lock.Correction())

		if err := r.emit(stageTrack, f, m, true, r.trackOverlay(n, lock)); err != nil {
			return err
		}

		n++

		if n%progressEvery == 0 {
			r.log.WithFields(logrus.Fields{
				"frame": n,
				"total": limit,
			}).Debug("Tracking")
		}
	}

	r.res.FramesAnalyzed = n
	r.res.Reseeds = lock.Reseeds()

	return nil
}

// stepped records the outcome of one tracker update
func (r *run) stepped(index int, step tracker.Step, lock *tracker.ObjectLock) {

	if step.Reseeded {
		r.p.metrics.reseed()

		r.log.WithFields(logrus.Fields{
			"frame": index,
			"live":  step.Live,
			"state": lock.State().State.String(),
		}).Debug("Object-lock reseeded")
	}

	if step.Err != nil {
		r.log.WithFields(logrus.Fields{
			"frame": index,
			"error": step.Err.Error(),
		}).Debug("Object-lock update degraded")
	}
}

// trackOverlay returns the debug overlay for a tracked frame, only built
// when an annotator is configured
func (r *run) trackOverlay(index int, lock *tracker.ObjectLock) Overlay {

	ov := Overlay{
		Mode:  ModeTrack,
		Index: index,
	}

	if r.p.backend.Annotator == nil {
		return ov
	}

	st := lock.State()
	ov.ROI = st.ROI.Image()
	ov.Points = st.Points
	ov.State = st.State
	ov.Trail = lock.Trail().GetPoints()

	return ov
}
