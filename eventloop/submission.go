package eventloop

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"weak"
)

// Submission is work submitted via EventLoop.PostEvent. It is a closed set:
// Callback, *BlockingCallback, StartTimer and StopTimer.
type Submission interface {
	submission()
}

type (
	// Callback is fire-and-forget work, queued for the owning goroutine.
	Callback struct {
		Fn func()
	}

	// BlockingCallback is queued work that a submitting goroutine can block
	// on, until it has been executed, see NewBlockingCallback.
	BlockingCallback struct {
		fn      func()
		done    chan struct{}
		once    sync.Once
		invoked atomic.Bool
	}

	// StartTimer (re)starts the timer with the given ID. It is applied
	// immediately, under the loop's lock, rather than being queued.
	StartTimer struct {
		Timer    weak.Pointer[Timer]
		ID       uint64
		Interval time.Duration
		Repeat   bool
	}

	// StopTimer stops the timer with the given ID. It is applied
	// immediately, under the loop's lock, rather than being queued.
	StopTimer struct {
		ID uint64
	}
)

var (
	_ Submission = Callback{}
	_ Submission = (*BlockingCallback)(nil)
	_ Submission = StartTimer{}
	_ Submission = StopTimer{}
)

func (Callback) submission() {}

func (*BlockingCallback) submission() {}

func (StartTimer) submission() {}

func (StopTimer) submission() {}

// NewBlockingCallback wraps fn.
func NewBlockingCallback(fn func()) *BlockingCallback {
	if fn == nil {
		panic(`eventloop: nil blocking callback`)
	}
	return &BlockingCallback{fn: fn, done: make(chan struct{})}
}

// Invoke runs the callback, then releases waiters, even if it panicked.
// Subsequent calls are no-ops.
func (x *BlockingCallback) Invoke() {
	x.once.Do(func() {
		defer close(x.done)
		defer x.invoked.Store(true)
		x.fn()
	})
}

// release releases waiters without running the callback, unless it has
// already run. Subsequent calls to Invoke are no-ops.
func (x *BlockingCallback) release() {
	x.once.Do(func() { close(x.done) })
}

// Wait blocks until Invoke has completed, or the callback was discarded by
// a closed loop, see Invoked.
func (x *BlockingCallback) Wait() { <-x.done }

// Done is closed once Wait would return.
func (x *BlockingCallback) Done() <-chan struct{} { return x.done }

// Invoked reports whether Invoke has completed. It remains false for a
// callback discarded by a closed loop.
func (x *BlockingCallback) Invoked() bool {
	select {
	case <-x.done:
		return x.invoked.Load()
	default:
		return false
	}
}

// PostEvent submits work. Safe to call from any goroutine.
//
// Timer requests are applied immediately, under the loop's lock, so they
// are not ordered relative to queued work. Callbacks are queued, and will
// be dispatched in submission order. A nil submission is ignored.
func (l *EventLoop) PostEvent(s Submission) {
	switch s := s.(type) {
	case nil:
	case Callback:
		if s.Fn != nil {
			l.post(s.Fn)
		}
	case *BlockingCallback:
		if s != nil {
			l.postBlocking(s)
		}
	case StartTimer:
		l.startTimer(s)
	case StopTimer:
		l.stopTimer(s.ID)
	default:
		panic(fmt.Sprintf(`eventloop: unsupported submission type %T`, s))
	}
}

// PostCallback queues fn, see Callback.
func (l *EventLoop) PostCallback(fn func()) {
	l.PostEvent(Callback{Fn: fn})
}

// PostBlockingCallback queues fn, then blocks until it has run. If called
// from the owning goroutine, fn is instead run immediately, as queuing it
// would deadlock.
//
// It returns without running fn if the loop is closed, including while
// waiting.
//
// WARNING: This blocks indefinitely if the loop is never pumped.
func (l *EventLoop) PostBlockingCallback(fn func()) {
	if l.IsLoopGoroutine() {
		fn()
		return
	}
	b := NewBlockingCallback(fn)
	if !l.postBlocking(b) {
		return
	}
	b.Wait()
}

// Invoker is a unit of work accepted by PostTask, e.g. *Task. Any
// completion signaling is the implementation's responsibility.
type Invoker interface {
	Invoke()
}

// PostTask runs task immediately if called from the owning goroutine, so
// that the caller may safely wait on it. Otherwise, it is queued.
func (l *EventLoop) PostTask(task Invoker) {
	if task == nil {
		return
	}
	if l.IsLoopGoroutine() {
		task.Invoke()
		return
	}
	l.post(task.Invoke)
}

// PostStopEvent queues a call to Stop, allowing work queued ahead of it to
// be dispatched first. Unlike Stop, work queued after it is not dispatched
// (until the loop is restarted and pumped again).
func (l *EventLoop) PostStopEvent() {
	l.post(l.Stop)
}

// post queues fn for the owning goroutine, returning false if it was
// dropped.
func (l *EventLoop) post(fn func()) bool {
	if err := l.reactor.Post(l.dispatch(fn)); err != nil {
		l.dropped(err)
		return false
	}
	l.metrics.RecordQueueDepth(l.name, l.reactor.Len())
	return true
}

// postBlocking queues b, tracking it until it is dispatched, so that Close
// can release its waiters. If b is dropped it is released immediately, and
// false is returned.
func (l *EventLoop) postBlocking(b *BlockingCallback) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.dropped(ErrLoopClosed)
		b.release()
		return false
	}
	l.pending[b] = struct{}{}
	l.mu.Unlock()

	if l.post(func() {
		l.mu.Lock()
		delete(l.pending, b)
		l.mu.Unlock()
		b.Invoke()
	}) {
		return true
	}

	// Close has already released it
	b.release()
	return false
}

func (l *EventLoop) dropped(err error) {
	l.metrics.RecordSubmissionDropped(l.name, `closed`)
	l.logger.Debug().Err(err).Log(`dropped submission`)
}

// dispatch adapts fn for the reactor, timing it.
func (l *EventLoop) dispatch(fn func()) func() {
	return func() {
		start := time.Now()
		fn()
		l.metrics.RecordTaskDuration(l.name, time.Since(start))
	}
}
