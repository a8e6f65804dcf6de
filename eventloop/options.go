// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventloop

import (
	"time"

	"github.com/joeycumines/logiface"
)

// loopOptions holds configuration options for EventLoop creation.
type loopOptions struct {
	logger        *logiface.Logger[logiface.Event]
	name          string
	metrics       Metrics
	panicHandler  func(PanicError)
	panicLogRates map[time.Duration]int
	channelWakeup bool
}

// --- Loop Options ---

// LoopOption configures an EventLoop instance.
type LoopOption interface {
	applyLoop(*loopOptions) error
}

// loopOptionImpl implements LoopOption.
type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions) error
}

func (l *loopOptionImpl) applyLoop(opts *loopOptions) error {
	return l.applyLoopFunc(opts)
}

// WithLogger configures structured logging. A nil logger (the default)
// disables logging.
//
// Usage errors are logged at critical (wrong goroutine) and warning
// (inactive loop) levels, recovered handler panics at error, lifecycle
// transitions at debug, and timer bookkeeping at trace.
func WithLogger(logger *logiface.Logger[logiface.Event]) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithName sets the name used for log fields and metric labels. Defaults
// to "loop-" followed by the loop's ID.
func WithName(name string) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.name = name
		return nil
	}}
}

// WithMetrics attaches a Metrics sink. Defaults to NilMetrics.
func WithMetrics(metrics Metrics) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.metrics = metrics
		return nil
	}}
}

// WithPanicHandler is called (on the loop goroutine) with each panic
// recovered from a dispatched handler, after it has been logged.
func WithPanicHandler(fn func(PanicError)) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.panicHandler = fn
		return nil
	}}
}

// WithPanicLogRates limits how often a panic is logged, per panic value
// type and message. See catrate.NewLimiter for the format of rates, which
// are validated by New. An empty map disables limiting. Defaults to
// DefaultPanicLogRates.
func WithPanicLogRates(rates map[time.Duration]int) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.panicLogRates = rates
		return nil
	}}
}

// WithChannelWakeup uses a portable, channel based mechanism to wake the
// loop goroutine, instead of the platform one (eventfd on Linux).
func WithChannelWakeup(enabled bool) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.channelWakeup = enabled
		return nil
	}}
}

// DefaultPanicLogRates allows a burst of 5 log lines per panic category,
// and at most 20 per minute.
var DefaultPanicLogRates = map[time.Duration]int{
	time.Second: 5,
	time.Minute: 20,
}

// resolveLoopOptions applies LoopOption instances to loopOptions.
func resolveLoopOptions(opts []LoopOption) (*loopOptions, error) {
	cfg := &loopOptions{
		metrics:       NilMetrics{},
		panicLogRates: DefaultPanicLogRates,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.metrics == nil {
		cfg.metrics = NilMetrics{}
	}
	return cfg, nil
}
