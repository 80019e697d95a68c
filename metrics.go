package vidstab

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/swdee/go-vidstab/motion"
)

// Metrics are the prometheus collectors updated by pipelines
type Metrics struct {
	frames    *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	runs      *prometheus.CounterVec
	reseeds   prometheus.Counter
	duration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.  A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {

	m := &Metrics{
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidstab",
			Name:      "frames_total",
			Help:      "Frames processed per pipeline pass.",
		}, []string{"pass"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidstab",
			Name:      "fallbacks_total",
			Help:      "Motion estimates substituted with identity, by reason.",
		}, []string{"reason"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidstab",
			Name:      "runs_total",
			Help:      "Completed runs by mode and outcome.",
		}, []string{"mode", "outcome"}),
		reseeds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vidstab",
			Name:      "reseeds_total",
			Help:      "Object-lock feature reseeds.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vidstab",
			Name:      "run_duration_seconds",
			Help:      "Wall time of runs by mode.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"mode"}),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{m.frames, m.fallbacks, m.runs, m.reseeds, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// frame counts one processed frame of the named pass
func (m *Metrics) frame(pass string) {
	if m == nil {
		return
	}

	m.frames.WithLabelValues(pass).Inc()
}

// fallback counts one substituted estimate
func (m *Metrics) fallback(reason motion.Fallback) {
	if m == nil || reason == motion.FallbackNone {
		return
	}

	m.fallbacks.WithLabelValues(reason.String()).Inc()
}

// reseed counts one object-lock reseed
func (m *Metrics) reseed() {
	if m == nil {
		return
	}

	m.reseeds.Inc()
}

// run records a finished run
func (m *Metrics) run(mode Mode, err error, took time.Duration) {
	if m == nil {
		return
	}

	outcome := "ok"

	if err != nil {
		outcome = KindOf(err).String()
	}

	m.runs.WithLabelValues(string(mode), outcome).Inc()
	m.duration.WithLabelValues(string(mode)).Observe(took.Seconds())
}
