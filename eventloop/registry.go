package eventloop

import (
	"sync/atomic"
	"time"
	"weak"

	"github.com/joeycumines/go-slotloop/eventloop/internal/reactor"
)

// minTimerInterval is the lower bound applied to timer intervals.
const minTimerInterval = time.Millisecond

// timerRegistration is the live record for one started timer.
//
// It is shared between the loop's registry and the expiry handler armed on
// its delay. The registry entry may be removed (stopped, replaced, or
// closed) while an expiry is in flight, which leaves the handler holding a
// canceled registration. Once set, canceled is never cleared.
type timerRegistration struct {
	timer    weak.Pointer[Timer]
	delay    *reactor.Delay
	id       uint64
	interval time.Duration
	repeat   bool
	canceled atomic.Bool
}

// cancel must be called with the loop's lock held.
func (x *timerRegistration) cancel() {
	x.canceled.Store(true)
	x.delay.Cancel()
}

// startTimer registers and arms a timer, replacing any existing
// registration for the same ID.
func (l *EventLoop) startTimer(s StartTimer) {
	interval := max(s.Interval, minTimerInterval)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || s.ID == InvalidID {
		return
	}

	t := s.Timer.Value()
	if t == nil {
		// the timer was collected before the request was applied
		return
	}

	if old, ok := l.timers[s.ID]; ok {
		old.cancel()
		delete(l.timers, s.ID)
		l.metrics.RecordTimerCanceled(l.name)
		l.logTimer(`timer replaced`, old.id, old.interval, old.repeat)
	}

	reg := &timerRegistration{
		timer:    s.Timer,
		delay:    l.reactor.NewDelay(),
		id:       s.ID,
		interval: interval,
		repeat:   s.Repeat,
	}
	l.timers[s.ID] = reg
	t.active.Store(true)
	l.armLocked(reg)

	l.logTimer(`timer started`, reg.id, reg.interval, reg.repeat)
}

// stopTimer cancels and removes the registration for id, if any.
func (l *EventLoop) stopTimer(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	reg, ok := l.timers[id]
	if !ok {
		return
	}

	if t := reg.timer.Value(); t != nil {
		t.active.Store(false)
	}
	reg.cancel()
	delete(l.timers, id)
	l.metrics.RecordTimerCanceled(l.name)

	l.logTimer(`timer stopped`, reg.id, reg.interval, reg.repeat)
}

func (l *EventLoop) armLocked(reg *timerRegistration) {
	reg.delay.Arm(reg.interval, func(aborted bool) {
		l.onTimeout(reg, aborted)
	})
}

// onTimeout runs on the owning goroutine, when the delay armed for reg
// completes. Every early return is an expected race, and is not logged.
func (l *EventLoop) onTimeout(reg *timerRegistration, aborted bool) {
	if aborted || reg.canceled.Load() {
		return
	}

	t := reg.timer.Value()

	l.mu.Lock()
	if reg.canceled.Load() {
		// canceled after the first check
		l.mu.Unlock()
		return
	}
	if t == nil {
		// the owner is gone, drop the registration lazily
		reg.canceled.Store(true)
		if l.timers[reg.id] == reg {
			delete(l.timers, reg.id)
		}
		l.mu.Unlock()
		return
	}
	if reg.repeat {
		// re-arm before notifying, so the next period starts now
		l.armLocked(reg)
	} else {
		t.active.Store(false)
		if l.timers[reg.id] == reg {
			delete(l.timers, reg.id)
		}
	}
	l.mu.Unlock()

	l.metrics.RecordTimerFired(l.name)
	t.timeout.Emit()
}

// TimerCount returns the number of live timer registrations.
func (l *EventLoop) TimerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}
