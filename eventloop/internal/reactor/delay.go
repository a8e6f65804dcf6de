package reactor

import (
	"time"
)

// Delay is a cancellable, re-armable one-shot deadline. Handlers run
// through the owning Reactor's queue, on whichever goroutine is pumping.
//
// A Delay has at most one pending arming. Every arming is completed exactly
// once, either with aborted=false (expired), or aborted=true (canceled, or
// superseded by a later Arm).
type Delay struct {
	r       *Reactor
	pending *arming
}

// arming is a heap element: one Arm call awaiting expiry.
type arming struct {
	delay    *Delay
	handler  func(aborted bool)
	deadline int64
	seq      uint64
	index    int
}

func (a *arming) HeapLess(other *arming) bool {
	if a.deadline != other.deadline {
		return a.deadline < other.deadline
	}
	return a.seq < other.seq
}

func (a *arming) HeapIndex() int { return a.index }

func (a *arming) SetHeapIndex(index int) { a.index = index }

// NewDelay returns an unarmed Delay bound to the receiver.
func (r *Reactor) NewDelay() *Delay {
	return &Delay{r: r}
}

// Arm schedules handler to be completed once d has elapsed, aborting any
// arming that is still pending. Negative durations are treated as zero.
func (x *Delay) Arm(d time.Duration, handler func(aborted bool)) {
	if handler == nil {
		panic(`reactor: nil delay handler`)
	}
	if d < 0 {
		d = 0
	}

	r := x.r
	r.mu.Lock()
	defer r.mu.Unlock()

	if x.pending != nil {
		r.abortLocked(x.pending)
	}

	r.armSeq++
	a := &arming{
		delay:    x,
		handler:  handler,
		deadline: r.now().Add(d).UnixNano(),
		seq:      r.armSeq,
		index:    -1,
	}
	r.delays.Push(a)
	x.pending = a

	if r.delays.Top() == a {
		// earliest deadline changed
		r.wakeLocked()
	}
}

// Cancel aborts the pending arming, if any, reporting whether there was one.
// An arming that has already expired cannot be canceled, its handler is
// queued (or has run) with aborted=false.
func (x *Delay) Cancel() bool {
	r := x.r
	r.mu.Lock()
	defer r.mu.Unlock()
	if x.pending == nil {
		return false
	}
	r.abortLocked(x.pending)
	return true
}

// Pending reports whether the Delay is armed and not yet expired.
func (x *Delay) Pending() bool {
	r := x.r
	r.mu.Lock()
	defer r.mu.Unlock()
	return x.pending != nil
}

func (r *Reactor) abortLocked(a *arming) {
	r.delays.Remove(a.index)
	a.index = -1
	a.delay.pending = nil
	handler := a.handler
	r.pushLocked(func() { handler(true) })
}

// expireLocked moves every arming due at or before now onto the queue.
func (r *Reactor) expireLocked(now time.Time) {
	ns := now.UnixNano()
	for r.delays.Len() != 0 {
		a := r.delays.Top()
		if a.deadline > ns {
			return
		}
		r.delays.Remove(a.index)
		a.index = -1
		a.delay.pending = nil
		handler := a.handler
		r.pushLocked(func() { handler(false) })
	}
}

// nextTimeoutLocked returns how long a pump may park, -1 meaning no deadline.
func (r *Reactor) nextTimeoutLocked(now time.Time) time.Duration {
	if r.delays.Len() == 0 {
		return -1
	}
	d := time.Duration(r.delays.Top().deadline - now.UnixNano())
	if d < 0 {
		d = 0
	}
	return d
}
