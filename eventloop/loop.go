package eventloop

import (
	"strconv"
	"sync"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-slotloop/eventloop/internal/reactor"
	"github.com/joeycumines/logiface"
)

const (
	opRun           = `Run`
	opProcessEvents = `ProcessEvents`
)

// EventLoop dispatches submitted work on a single owning goroutine: the
// goroutine that most recently called Start. Work may be submitted from
// any goroutine, at any time, including before Start.
//
// Lifecycle: Start (idempotent while started), then Run (blocking) or
// ProcessEvents (non-blocking) on the owning goroutine, then Stop (from any
// goroutine). A stopped loop may be started again. Work queued but not yet
// dispatched when Stop takes effect remains queued for the next Run or
// ProcessEvents.
type EventLoop struct {
	reactor      *reactor.Reactor
	work         *reactor.Work
	logger       *logiface.Logger[logiface.Event]
	metrics      Metrics
	panicHandler func(PanicError)
	panicLimiter *catrate.Limiter
	timers       map[uint64]*timerRegistration
	pending      map[*BlockingCallback]struct{}
	name         string

	startedCond sync.Cond
	runningCond sync.Cond
	stoppedCond sync.Cond
	mu          sync.Mutex

	id          uint64
	goroutineID uint64
	// runner is the goroutine in Run, which may differ from goroutineID
	// while a stopped Run is returning
	runner  uint64
	started bool
	running bool
	closed  bool
}

// New constructs an EventLoop. It must be closed to release its
// resources, see Close.
func New(opts ...LoopOption) (*EventLoop, error) {
	cfg, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}

	limiter, err := newPanicLimiter(cfg.panicLogRates)
	if err != nil {
		return nil, err
	}

	l := &EventLoop{
		id:           NextID(),
		name:         cfg.name,
		metrics:      cfg.metrics,
		panicHandler: cfg.panicHandler,
		panicLimiter: limiter,
		timers:       make(map[uint64]*timerRegistration),
		pending:      make(map[*BlockingCallback]struct{}),
	}
	if l.name == `` {
		l.name = `loop-` + strconv.FormatUint(l.id, 10)
	}
	l.logger = newLoopLogger(cfg.logger, l.name, l.id)
	l.startedCond.L = &l.mu
	l.runningCond.L = &l.mu
	l.stoppedCond.L = &l.mu

	reactorOpts := []reactor.Option{reactor.WithPanicHandler(l.handlePanic)}
	if cfg.channelWakeup {
		reactorOpts = append(reactorOpts, reactor.WithChannelWakeup())
	}
	if l.reactor, err = reactor.New(reactorOpts...); err != nil {
		return nil, err
	}

	return l, nil
}

// ID returns the loop's process-wide unique identity.
func (l *EventLoop) ID() uint64 { return l.id }

// Name returns the loop's name, see WithName.
func (l *EventLoop) Name() string { return l.name }

// GoroutineID returns the ID of the owning goroutine, or 0 if the loop is
// not started.
func (l *EventLoop) GoroutineID() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.goroutineID
}

// Started reports whether the loop is started.
func (l *EventLoop) Started() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started
}

// Running reports whether Run is in progress.
func (l *EventLoop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// State returns a consistent snapshot of the owning goroutine, and the
// started and running flags.
func (l *EventLoop) State() (goroutineID uint64, started, running bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.goroutineID, l.started, l.running
}

// LoopState returns the current lifecycle state.
func (l *EventLoop) LoopState() LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.closed:
		return StateClosed
	case l.running:
		return StateRunning
	case l.started:
		return StateStarted
	default:
		return StateIdle
	}
}

// IsLoopGoroutine reports whether the caller is the owning goroutine of a
// started loop.
func (l *EventLoop) IsLoopGoroutine() bool {
	l.mu.Lock()
	owner := l.goroutineID
	l.mu.Unlock()
	return owner != 0 && owner == getGoroutineID()
}

// Start makes the calling goroutine the owner of the loop, after which it
// may call Run or ProcessEvents. It is a no-op if the loop is already
// started, or closed.
//
// A Run left over from a previous start, still inside a handler, returns
// once that handler does, and dispatches nothing further.
func (l *EventLoop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started || l.closed {
		return
	}

	l.reactor.Reset()
	l.work = l.reactor.Keep()
	l.goroutineID = getGoroutineID()
	l.started = true
	l.startedCond.Broadcast()

	l.logLifecycle(`event loop started`)
}

// Run dispatches work on the owning goroutine, blocking until the loop is
// stopped.
//
// Returns ErrLoopInactive if the loop is not started, ErrLoopClosed if it
// is closed, or ErrReentrantRun if called from within Run. Panics with a
// *WrongGoroutineError if called from a goroutine other than the owner.
// If a Run from a previous start is still returning, on another goroutine,
// it waits for it to do so.
func (l *EventLoop) Run() error {
	if err := l.enter(opRun); err != nil {
		return err
	}
	defer l.leave()
	l.reactor.Run()
	return nil
}

// ProcessEvents performs a single non-blocking dispatch pass on the owning
// goroutine: expired timers are queued, then the work queued at the start
// of the pass is dispatched. Work submitted during the pass is left for a
// later pass.
//
// Fails in the same manner as Run (except for ErrReentrantRun, as
// ProcessEvents may be called from a handler).
func (l *EventLoop) ProcessEvents() error {
	if err := l.enter(opProcessEvents); err != nil {
		return err
	}
	l.reactor.Poll()
	return nil
}

// enter validates the preconditions for a pump, and marks the loop running,
// for opRun.
func (l *EventLoop) enter(op string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	caller := getGoroutineID()
	for {
		if l.closed {
			return ErrLoopClosed
		}

		if !l.started {
			l.logInactive(op)
			return ErrLoopInactive
		}

		if caller != l.goroutineID {
			err := newWrongGoroutineError(op, l.id, l.goroutineID, caller)
			l.logWrongGoroutine(err)
			panic(err)
		}

		if op != opRun || !l.running {
			break
		}
		if l.runner == caller {
			return ErrReentrantRun
		}
		// the previous owner's Run is returning, see Start
		l.stoppedCond.Wait()
	}

	if op == opRun {
		l.running = true
		l.runner = caller
		l.runningCond.Broadcast()
		l.logLifecycle(`event loop running`)
	}

	return nil
}

func (l *EventLoop) leave() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = false
	l.runner = 0
	l.stoppedCond.Broadcast()
	l.logLifecycle(`event loop run returned`)
}

// Stop stops the loop, and may be called from any goroutine, in any state.
// If Run is in progress, it returns once the handler currently executing
// (if any) returns. Idempotent.
func (l *EventLoop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

func (l *EventLoop) stopLocked() {
	if l.work != nil {
		l.work.Release()
		l.work = nil
	}
	l.reactor.Stop()
	l.goroutineID = 0
	if l.started {
		l.started = false
		l.logLifecycle(`event loop stopped`)
	}
	l.stoppedCond.Broadcast()
}

// Wait blocks until the loop is not started. It returns immediately if the
// loop was never started.
func (l *EventLoop) Wait() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.started {
		l.stoppedCond.Wait()
	}
}

// WaitUntilStarted blocks until the loop is started, or closed.
func (l *EventLoop) WaitUntilStarted() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for !l.started && !l.closed {
		l.startedCond.Wait()
	}
}

// WaitUntilRunning blocks until Run is in progress, or the loop is closed.
func (l *EventLoop) WaitUntilRunning() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for !l.running && !l.closed {
		l.runningCond.Wait()
	}
}

// Close stops the loop, cancels every registered timer, discards queued
// work, and releases the loop's resources. Subsequent submissions are
// dropped. Waiters on discarded blocking callbacks are released, without
// the callback being invoked. Idempotent.
func (l *EventLoop) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.stopLocked()
	l.closed = true
	for id, reg := range l.timers {
		if t := reg.timer.Value(); t != nil {
			t.active.Store(false)
		}
		reg.cancel()
		delete(l.timers, id)
	}
	pending := l.pending
	l.pending = nil
	l.startedCond.Broadcast()
	l.runningCond.Broadcast()
	l.logLifecycle(`event loop closed`)
	l.mu.Unlock()

	err := l.reactor.Close()
	for b := range pending {
		b.release()
	}
	return err
}
