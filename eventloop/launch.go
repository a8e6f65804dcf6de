package eventloop

import (
	"errors"
)

// Launched is a goroutine running an EventLoop, see LaunchInGoroutine.
type Launched struct {
	loop   *EventLoop
	done   chan struct{}
	err    error
	// guarded by loop.mu
	goroutineID uint64
	exited      bool
}

// LaunchInGoroutine starts a goroutine that calls Start, then Run, on loop.
// It blocks until Run is in progress, or the goroutine has exited (e.g.
// because the loop was already started elsewhere, or was stopped first).
//
// A *WrongGoroutineError raised by Run is recovered, and reported by Join.
func LaunchInGoroutine(loop *EventLoop) *Launched {
	g := &Launched{loop: loop, done: make(chan struct{})}

	go func() {
		defer close(g.done)
		defer func() {
			loop.mu.Lock()
			g.exited = true
			loop.runningCond.Broadcast()
			loop.mu.Unlock()
		}()
		defer func() {
			if r := recover(); r != nil {
				var err *WrongGoroutineError
				if e, ok := r.(error); ok && errors.As(e, &err) {
					g.err = err
					return
				}
				panic(r)
			}
		}()
		loop.mu.Lock()
		g.goroutineID = getGoroutineID()
		loop.mu.Unlock()
		loop.Start()
		g.err = loop.Run()
	}()

	loop.mu.Lock()
	for !(loop.running && loop.runner == g.goroutineID) && !g.exited && !loop.closed {
		loop.runningCond.Wait()
	}
	loop.mu.Unlock()

	return g
}

// Loop returns the launched loop.
func (g *Launched) Loop() *EventLoop { return g.loop }

// Done is closed once the goroutine has exited.
func (g *Launched) Done() <-chan struct{} { return g.done }

// Join waits for the goroutine to exit, returning the error from Run.
func (g *Launched) Join() error {
	<-g.done
	return g.err
}

// RemoveFromGoroutine stops a launched loop, then joins its goroutine. If
// postStop is true the stop is queued (see PostStopEvent), so work already
// queued is dispatched first, otherwise Stop is called directly.
func RemoveFromGoroutine(loop *EventLoop, g *Launched, postStop bool) error {
	if postStop {
		loop.PostStopEvent()
	} else {
		loop.Stop()
	}
	return g.Join()
}
