// Package prommetrics exports eventloop.Metrics as Prometheus collectors.
package prommetrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeycumines/go-slotloop/eventloop"
	prom "github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace is used when Options.Namespace is empty.
const DefaultNamespace = "slotloop"

// Options controls collector configuration.
type Options struct {
	// Namespace prefixes every metric name, defaults to DefaultNamespace.
	Namespace string
	// Registerer defaults to prometheus.DefaultRegisterer.
	Registerer prom.Registerer
	// DurationBuckets defaults to prometheus.DefBuckets.
	DurationBuckets []float64
}

// Exporter adapts eventloop.Metrics to Prometheus collectors. A nil
// *Exporter is a valid no-op.
type Exporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskPanicTotal      *prom.CounterVec
	queueDepth          *prom.GaugeVec
	timerFiredTotal     *prom.CounterVec
	timerCanceledTotal  *prom.CounterVec
	droppedTotal        *prom.CounterVec
}

var _ eventloop.Metrics = (*Exporter)(nil)

// New creates and registers the collectors. Collectors that are already
// registered (e.g. by another Exporter with the same namespace) are shared.
func New(opts Options) (*Exporter, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := opts.Registerer
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Dispatched callback execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"loop"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of panics recovered from dispatched callbacks.",
	}, []string{"loop"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Queue depth, sampled on submission.",
	}, []string{"loop"})
	firedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "timer_fired_total",
		Help:      "Total number of timer timeouts emitted.",
	}, []string{"loop"})
	canceledVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "timer_canceled_total",
		Help:      "Total number of live timers stopped or replaced.",
	}, []string{"loop"})
	droppedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "submission_dropped_total",
		Help:      "Total number of submissions that could not be queued.",
	}, []string{"loop", "reason"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}
	if firedVec, err = registerCollector(reg, firedVec); err != nil {
		return nil, err
	}
	if canceledVec, err = registerCollector(reg, canceledVec); err != nil {
		return nil, err
	}
	if droppedVec, err = registerCollector(reg, droppedVec); err != nil {
		return nil, err
	}

	return &Exporter{
		taskDurationSeconds: durationVec,
		taskPanicTotal:      panicVec,
		queueDepth:          queueDepthVec,
		timerFiredTotal:     firedVec,
		timerCanceledTotal:  canceledVec,
		droppedTotal:        droppedVec,
	}, nil
}

func (m *Exporter) RecordTaskDuration(loop string, duration time.Duration) {
	if m == nil {
		return
	}
	m.taskDurationSeconds.WithLabelValues(normalizeLabel(loop, "unknown")).Observe(duration.Seconds())
}

func (m *Exporter) RecordTaskPanic(loop string, _ any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(normalizeLabel(loop, "unknown")).Inc()
}

func (m *Exporter) RecordQueueDepth(loop string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(loop, "unknown")).Set(float64(depth))
}

func (m *Exporter) RecordTimerFired(loop string) {
	if m == nil {
		return
	}
	m.timerFiredTotal.WithLabelValues(normalizeLabel(loop, "unknown")).Inc()
}

func (m *Exporter) RecordTimerCanceled(loop string) {
	if m == nil {
		return
	}
	m.timerCanceledTotal.WithLabelValues(normalizeLabel(loop, "unknown")).Inc()
}

func (m *Exporter) RecordSubmissionDropped(loop string, reason string) {
	if m == nil {
		return
	}
	m.droppedTotal.WithLabelValues(normalizeLabel(loop, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("prommetrics: collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
