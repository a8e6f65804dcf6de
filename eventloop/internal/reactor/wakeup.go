package reactor

import (
	"time"
)

// waker parks a pumping goroutine until signaled or a timeout elapses.
// At most one goroutine may be inside wait at any time.
type waker interface {
	// signal wakes the current or next call to wait. Signals coalesce.
	signal()
	// wait blocks until signaled, or until timeout elapses when timeout is
	// non-negative. Spurious returns are permitted.
	wait(timeout time.Duration)
	close() error
}

// chanWaker is the portable waker, and the fallback when the platform
// waker cannot be created.
type chanWaker struct {
	ch chan struct{}
}

func newChanWaker() *chanWaker {
	return &chanWaker{ch: make(chan struct{}, 1)}
}

func (w *chanWaker) signal() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

func (w *chanWaker) wait(timeout time.Duration) {
	if timeout < 0 {
		<-w.ch
		return
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-w.ch:
	case <-t.C:
	}
}

func (w *chanWaker) close() error { return nil }
