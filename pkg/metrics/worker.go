package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics tracks outbox event handling by the background workers.
type WorkerMetrics struct {
	duration   *prometheus.HistogramVec
	processed  *prometheus.CounterVec
	failed     *prometheus.CounterVec
	deadLetter *prometheus.CounterVec
}

// NewWorkerMetrics registers the worker metrics on the provided registerer.
// A nil registerer yields a no-op collector.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		return &WorkerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "outbox_event_duration_seconds",
		Help:      "Time spent handling a single outbox event.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event_type"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_events_processed_total",
		Help:      "Outbox events handled successfully.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_events_failed_total",
		Help:      "Outbox event attempts that failed and will be retried.",
	}, []string{"event_type"})
	deadLetter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_events_dead_lettered_total",
		Help:      "Outbox events moved to the dead letter queue.",
	}, []string{"event_type", "reason"})
	reg.MustRegister(duration, processed, failed, deadLetter)
	return &WorkerMetrics{
		duration:   duration,
		processed:  processed,
		failed:     failed,
		deadLetter: deadLetter,
	}
}

// ObserveDuration records how long an event took to handle.
func (w *WorkerMetrics) ObserveDuration(eventType string, d time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(eventType)).Observe(d.Seconds())
}

func (w *WorkerMetrics) IncProcessed(eventType string) {
	if w == nil || w.processed == nil {
		return
	}
	w.processed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (w *WorkerMetrics) IncFailed(eventType string) {
	if w == nil || w.failed == nil {
		return
	}
	w.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (w *WorkerMetrics) IncDeadLettered(eventType, reason string) {
	if w == nil || w.deadLetter == nil {
		return
	}
	w.deadLetter.WithLabelValues(normalizeLabel(eventType), normalizeLabel(reason)).Inc()
}
