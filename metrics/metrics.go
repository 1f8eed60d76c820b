// Package metrics records step, validation and sequence outcomes of one
// session. The registry is private to the session and may be dumped in the
// node-exporter textfile format at exit.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns the session registry and its collectors.
type Recorder struct {
	registry *prometheus.Registry

	stepTotal          *prometheus.CounterVec
	stepDuration       *prometheus.HistogramVec
	validationAttempts *prometheus.CounterVec
	sequenceTotal      *prometheus.CounterVec
	componentTotal     *prometheus.CounterVec
}

// NewRecorder creates a Recorder whose series all carry run_id.
func NewRecorder(runID string) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"run_id": runID}, reg))

	return &Recorder{
		registry: reg,
		stepTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xmstack_step_total",
				Help: "Steps finished, by section and outcome",
			},
			[]string{"section", "state"}, // success, failure or skipped
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xmstack_step_duration_seconds",
				Help:    "Wall-clock time of executed steps including validation",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"section"},
		),
		validationAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xmstack_validation_attempts_total",
				Help: "Readiness checks run, by result",
			},
			[]string{"result"}, // ready or not_ready
		),
		sequenceTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xmstack_sequence_total",
				Help: "Sequences finished, by final phase",
			},
			[]string{"phase"},
		),
		componentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xmstack_component_operation_total",
				Help: "Component deploy and cleanup operations, by outcome",
			},
			[]string{"component", "action", "status"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// StepFinished records one step outcome. Skipped steps carry no duration.
func (r *Recorder) StepFinished(section, state string, d time.Duration) {
	r.stepTotal.WithLabelValues(section, state).Inc()
	if d > 0 {
		r.stepDuration.WithLabelValues(section).Observe(d.Seconds())
	}
}

// ValidationAttempt records one readiness check.
func (r *Recorder) ValidationAttempt(err error) {
	result := "ready"
	if err != nil {
		result = "not_ready"
	}
	r.validationAttempts.WithLabelValues(result).Inc()
}

// SequenceFinished records the terminal phase of a sequence.
func (r *Recorder) SequenceFinished(phase string) {
	r.sequenceTotal.WithLabelValues(phase).Inc()
}

// ComponentFinished records a component deploy or cleanup.
func (r *Recorder) ComponentFinished(component, action string, ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	r.componentTotal.WithLabelValues(component, action, status).Inc()
}

// WriteTextfile dumps all series to path for the node-exporter textfile
// collector. The write is atomic.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
