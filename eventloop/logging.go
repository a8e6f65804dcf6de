package eventloop

import (
	"fmt"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// Log field names.
const (
	fieldLoop      = `loop`
	fieldLoopID    = `loop_id`
	fieldTimerID   = `timer_id`
	fieldOp        = `op`
	fieldGoroutine = `goroutine`
	fieldOwner     = `owner`
	fieldInterval  = `interval`
	fieldRepeat    = `repeat`
	fieldStack     = `stack`
	fieldNextLog   = `next_log`
)

// newLoopLogger derives the loop's logger, tagging every event with the
// loop's name and ID. Returns nil if logger is nil.
func newLoopLogger(logger *logiface.Logger[logiface.Event], name string, id uint64) *logiface.Logger[logiface.Event] {
	return logger.Clone().
		Str(fieldLoop, name).
		Uint64(fieldLoopID, id).
		Logger()
}

func newPanicLimiter(rates map[time.Duration]int) (limiter *catrate.Limiter, err error) {
	if len(rates) == 0 {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			limiter, err = nil, fmt.Errorf("eventloop: invalid panic log rates: %v", r)
		}
	}()
	return catrate.NewLimiter(rates), nil
}

// panicCategory groups panics for rate limiting, by the type and text of
// the recovered value.
func panicCategory(value any) string {
	return fmt.Sprintf("%T: %v", value, value)
}

// handlePanic is the reactor's panic handler, running on the pump goroutine.
func (l *EventLoop) handlePanic(value any, stack []byte) {
	perr := PanicError{Value: value, Stack: stack, LoopID: l.id}

	l.metrics.RecordTaskPanic(l.name, value)

	if next, ok := l.panicLimiter.Allow(panicCategory(value)); ok {
		b := l.logger.Err().
			Err(perr).
			Str(fieldStack, string(stack))
		if !next.IsZero() {
			// further occurrences will be suppressed until next
			b = b.Str(fieldNextLog, next.Format(time.RFC3339))
		}
		b.Log(`handler panicked`)
	}

	if l.panicHandler != nil {
		l.panicHandler(perr)
	}
}

func (l *EventLoop) logInactive(op string) {
	l.logger.Warning().
		Str(fieldOp, op).
		Err(ErrLoopInactive).
		Log(`called but event loop has not been started`)
}

func (l *EventLoop) logWrongGoroutine(err *WrongGoroutineError) {
	l.logger.Crit().
		Str(fieldOp, err.Op).
		Uint64(fieldGoroutine, err.CallerID).
		Uint64(fieldOwner, err.OwnerID).
		Err(err).
		Log(`called from a goroutine that did not start the event loop`)
}

func (l *EventLoop) logLifecycle(msg string) {
	if b := l.logger.Debug(); b.Enabled() {
		b.Uint64(fieldGoroutine, getGoroutineID()).Log(msg)
	}
}

func (l *EventLoop) logTimer(msg string, id uint64, interval time.Duration, repeat bool) {
	if b := l.logger.Trace(); b.Enabled() {
		b.Uint64(fieldTimerID, id).
			Str(fieldInterval, interval.String()).
			Bool(fieldRepeat, repeat).
			Log(msg)
	}
}
