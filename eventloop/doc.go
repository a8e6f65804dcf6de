// Package eventloop provides an event loop that is owned by a single
// goroutine, to which work may be submitted from any goroutine.
//
// # Architecture
//
// An [EventLoop] wraps a reactor (a FIFO handler queue, with blocking and
// non-blocking pumps, and cancellable delays), adding a restartable
// lifecycle, goroutine affinity, and a registry of timers.
//
//   - [EventLoop.Start] makes the calling goroutine the owner.
//   - [EventLoop.Run] (blocking) or [EventLoop.ProcessEvents] (single
//     non-blocking pass) dispatch work, and may only be called by the owner.
//   - [EventLoop.Stop] may be called from any goroutine. [EventLoop.Wait]
//     blocks until the loop is stopped.
//
// [LaunchInGoroutine] and [RemoveFromGoroutine] compose these, for the
// common case of a loop on a dedicated goroutine.
//
// # Submission
//
// [EventLoop.PostEvent] accepts a [Submission]:
//   - [Callback] and [*BlockingCallback] are queued, and dispatched in
//     submission order.
//   - [StartTimer] and [StopTimer] are applied immediately, under the loop's
//     lock, and are therefore unaffected by queue depth.
//
// [EventLoop.PostTask] runs a task immediately when called by the owner, and
// queues it otherwise. [EventLoop.PostStopEvent] queues a call to Stop.
//
// # Timers
//
// A [Timer] is bound to a loop, and emits [Timer.Timeout] on the owning
// goroutine. Loops hold only weak references to timers: a timer that is no
// longer referenced stops firing, and is eventually unregistered.
// Repeating timers are re-armed before notifying observers, so the period
// does not drift by the time spent handling each notification.
//
// # Errors
//
// Calling Run or ProcessEvents on a loop that is not started returns
// [ErrLoopInactive], which is recoverable. Calling them from a goroutine
// other than the owner is a usage defect: it is logged at critical
// severity, and raised as a panic, with a [*WrongGoroutineError].
//
// Panics in dispatched handlers are recovered, logged (rate limited per
// panic value), reported via [WithPanicHandler], and do not stop the loop.
package eventloop
