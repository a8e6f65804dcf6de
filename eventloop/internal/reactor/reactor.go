// Package reactor implements the dispatch primitive underneath an event
// loop: a FIFO handler queue, blocking and non-blocking pumps, work-keepers,
// and cancellable delays.
//
// The reactor does not enforce goroutine affinity, callers are expected to
// pump from a single goroutine at a time.
package reactor

import (
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/godyy/gutils/container/heap"
)

// ErrClosed is returned by Post after Close.
var ErrClosed = errors.New("reactor: closed")

type (
	// Reactor is a FIFO handler queue, pumped by Run or Poll.
	Reactor struct {
		waker        waker
		panicHandler func(value any, stack []byte)
		now          func() time.Time
		delays       *heap.Heap[*arming]
		queue        queue
		mu           sync.Mutex
		armSeq       uint64
		gen          uint64
		keepers      int
		pumping      int
		stopped      bool
		parked       bool
		closed       bool
		wakerClosed  bool
	}

	// Work keeps Run from returning while the queue is empty. Release it to
	// allow Run to return once it runs out of work.
	Work struct {
		r        *Reactor
		released atomic.Bool
	}

	// Option configures a Reactor, see New.
	Option func(c *config)

	config struct {
		panicHandler func(value any, stack []byte)
		channelWaker bool
	}
)

// WithPanicHandler recovers handler panics, reporting them to fn, after
// which the pump continues. Without it, a panicking handler unwinds through
// Run or Poll (leaving the reactor consistent).
func WithPanicHandler(fn func(value any, stack []byte)) Option {
	return func(c *config) {
		c.panicHandler = fn
	}
}

// WithChannelWakeup forces the portable, channel based wakeup, instead of
// the platform one (eventfd on Linux).
func WithChannelWakeup() Option {
	return func(c *config) {
		c.channelWaker = true
	}
}

// New constructs a Reactor, which must be closed to release its wakeup
// primitive.
func New(options ...Option) (*Reactor, error) {
	var c config
	for _, o := range options {
		if o != nil {
			o(&c)
		}
	}

	var w waker
	if c.channelWaker {
		w = newChanWaker()
	} else {
		var err error
		if w, err = newPlatformWaker(); err != nil {
			return nil, err
		}
	}

	return &Reactor{
		waker:        w,
		panicHandler: c.panicHandler,
		now:          time.Now,
		delays:       heap.NewHeap[*arming](),
	}, nil
}

// Post enqueues fn, to be run by a pump, after all previously posted
// handlers. Safe to call from any goroutine, including from handlers.
func (r *Reactor) Post(fn func()) error {
	if fn == nil {
		panic(`reactor: nil handler`)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.pushLocked(fn)
	return nil
}

func (r *Reactor) pushLocked(fn func()) {
	r.queue.push(fn)
	r.wakeLocked()
}

func (r *Reactor) wakeLocked() {
	if r.parked {
		r.parked = false
		r.waker.signal()
	}
}

// Len returns the number of queued handlers.
func (r *Reactor) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.len()
}

// Keep acquires a work-keeper, see Work.
func (r *Reactor) Keep() *Work {
	r.mu.Lock()
	r.keepers++
	r.mu.Unlock()
	return &Work{r: r}
}

// Release gives up the work-keeper. Subsequent calls are no-ops.
func (x *Work) Release() {
	if !x.released.CompareAndSwap(false, true) {
		return
	}
	r := x.r
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keepers--
	if r.keepers == 0 {
		r.wakeLocked()
	}
}

// Stop halts Run and Poll as soon as the current handler returns. Queued
// handlers and armed delays are retained. Idempotent.
func (r *Reactor) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	r.wakeLocked()
}

// Stopped reports whether Stop was called since the last Reset.
func (r *Reactor) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Reset prepares a stopped reactor to be pumped again. A pump still active
// from before the Reset (e.g. blocked in a handler) returns as soon as its
// current handler does, without running anything further.
func (r *Reactor) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = false
	r.gen++
}

// Close stops the reactor, drops queued handlers, and releases the wakeup
// primitive once no pump is active. Idempotent.
func (r *Reactor) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.stopped = true
	for {
		if _, ok := r.queue.pop(); !ok {
			break
		}
	}
	for r.delays.Len() != 0 {
		a := r.delays.Top()
		r.delays.Remove(a.index)
		a.index = -1
		a.delay.pending = nil
	}
	r.wakeLocked()
	return r.closeWakerLocked()
}

func (r *Reactor) closeWakerLocked() error {
	if !r.closed || r.pumping != 0 || r.wakerClosed {
		return nil
	}
	r.wakerClosed = true
	return r.waker.close()
}

// Run pumps handlers, including expired delays, parking while there is
// nothing ready. It returns after Stop, or once there are no queued
// handlers, no armed delays, and no work-keepers. The return value is the
// number of handlers run.
func (r *Reactor) Run() (n int) {
	r.mu.Lock()
	r.pumping++
	locked := true
	defer func() {
		if !locked {
			r.mu.Lock()
		}
		r.pumping--
		r.parked = false
		_ = r.closeWakerLocked()
		r.mu.Unlock()
	}()

	for gen := r.gen; !r.stopped && r.gen == gen; {
		now := r.now()
		r.expireLocked(now)

		if fn, ok := r.queue.pop(); ok {
			r.mu.Unlock()
			locked = false
			r.invoke(fn)
			n++
			r.mu.Lock()
			locked = true
			continue
		}

		if r.keepers == 0 && r.delays.Len() == 0 {
			break
		}

		timeout := r.nextTimeoutLocked(now)
		r.parked = true
		r.mu.Unlock()
		locked = false
		r.waker.wait(timeout)
		r.mu.Lock()
		locked = true
		r.parked = false
	}

	return n
}

// Poll runs one non-blocking pass: expired delays are queued, then at most
// the handlers queued at the start of the pass are run. Handlers posted
// during the pass are left for the next. Returns the number run.
func (r *Reactor) Poll() (n int) {
	r.mu.Lock()
	r.pumping++
	locked := true
	defer func() {
		if !locked {
			r.mu.Lock()
		}
		r.pumping--
		_ = r.closeWakerLocked()
		r.mu.Unlock()
	}()

	if r.stopped {
		return 0
	}

	r.expireLocked(r.now())

	for budget, gen := r.queue.len(), r.gen; n < budget && !r.stopped && r.gen == gen; {
		fn, ok := r.queue.pop()
		if !ok {
			break
		}
		r.mu.Unlock()
		locked = false
		r.invoke(fn)
		n++
		r.mu.Lock()
		locked = true
	}

	return n
}

func (r *Reactor) invoke(fn func()) {
	if r.panicHandler == nil {
		fn()
		return
	}
	defer func() {
		if v := recover(); v != nil {
			r.panicHandler(v, debug.Stack())
		}
	}()
	fn()
}
