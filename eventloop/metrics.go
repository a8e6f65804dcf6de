package eventloop

import (
	"time"
)

// Metrics receives runtime statistics from an EventLoop, see WithMetrics.
// The loop argument is the loop's name, see WithName.
//
// Implementations must be safe for concurrent use, and should not block.
// Package prommetrics provides a Prometheus implementation.
type Metrics interface {
	// RecordTaskDuration records how long a dispatched callback or task ran.
	RecordTaskDuration(loop string, duration time.Duration)

	// RecordTaskPanic records a panic recovered from a dispatched handler.
	RecordTaskPanic(loop string, value any)

	// RecordQueueDepth records the queue depth, sampled on submission.
	RecordQueueDepth(loop string, depth int)

	// RecordTimerFired records a timeout notification being emitted.
	RecordTimerFired(loop string)

	// RecordTimerCanceled records a live timer registration being canceled,
	// by a stop-timer request, or by replacement.
	RecordTimerCanceled(loop string)

	// RecordSubmissionDropped records work that could not be queued.
	RecordSubmissionDropped(loop string, reason string)
}

// NilMetrics is a no-op Metrics, the default.
type NilMetrics struct{}

var _ Metrics = NilMetrics{}

func (NilMetrics) RecordTaskDuration(string, time.Duration) {}

func (NilMetrics) RecordTaskPanic(string, any) {}

func (NilMetrics) RecordQueueDepth(string, int) {}

func (NilMetrics) RecordTimerFired(string) {}

func (NilMetrics) RecordTimerCanceled(string) {}

func (NilMetrics) RecordSubmissionDropped(string, string) {}
