package eventloop

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"weak"
)

// Timer emits Timeout on its loop's owning goroutine, once, or every
// interval, after being started.
//
// The loop references timers weakly: a Timer that becomes unreachable is
// stopped, and never notifies again. Keep a reference for as long as the
// timer should run.
type Timer struct {
	loop     *EventLoop
	timeout  Signal
	id       uint64
	mu       sync.Mutex
	interval time.Duration
	repeat   bool
	active   atomic.Bool
}

// timerCleanup must not reference the Timer, see runtime.AddCleanup.
type timerCleanup struct {
	loop *EventLoop
	id   uint64
}

// NewTimer constructs a stopped Timer, bound to loop.
func NewTimer(loop *EventLoop) *Timer {
	if loop == nil {
		panic(`eventloop: nil loop`)
	}
	t := &Timer{loop: loop, id: NextID()}
	runtime.AddCleanup(t, func(c timerCleanup) {
		c.loop.PostEvent(StopTimer{ID: c.id})
	}, timerCleanup{loop: loop, id: t.id})
	return t
}

// ID returns the timer's process-wide unique identity.
func (t *Timer) ID() uint64 { return t.id }

// Loop returns the loop the timer is bound to.
func (t *Timer) Loop() *EventLoop { return t.loop }

// Timeout is emitted on each expiry.
func (t *Timer) Timeout() *Signal { return &t.timeout }

// Active reports whether the timer is started. It is set and cleared only
// by the loop: set when a start request is applied, cleared when a stop
// request is applied, or when a non-repeating timer expires.
func (t *Timer) Active() bool { return t.active.Load() }

// Interval returns the interval from the most recent Start.
func (t *Timer) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

// Repeating reports the repeat flag from the most recent Start.
func (t *Timer) Repeating() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.repeat
}

// Start (re)starts the timer. Restarting replaces the previous schedule.
// Intervals below one millisecond are raised to one millisecond.
func (t *Timer) Start(interval time.Duration, repeat bool) {
	interval = max(interval, minTimerInterval)
	t.mu.Lock()
	t.interval = interval
	t.repeat = repeat
	t.mu.Unlock()
	t.loop.PostEvent(StartTimer{
		Timer:    weak.Make(t),
		ID:       t.id,
		Interval: interval,
		Repeat:   repeat,
	})
}

// Stop stops the timer. It is a no-op if the timer is not started.
func (t *Timer) Stop() {
	t.loop.PostEvent(StopTimer{ID: t.id})
}
