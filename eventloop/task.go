package eventloop

import (
	"context"
	"sync"
	"time"
)

// WaitStatus is the outcome of waiting on a Task.
type WaitStatus uint8

const (
	// WaitFinished indicates the task had already completed, when the wait
	// began.
	WaitFinished WaitStatus = iota + 1
	// WaitReady indicates the task completed while waiting.
	WaitReady
	// WaitTimeout indicates the wait ended before the task completed.
	WaitTimeout
)

func (s WaitStatus) String() string {
	switch s {
	case WaitFinished:
		return "Finished"
	case WaitReady:
		return "Ready"
	case WaitTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// Task is a one-shot unit of work, with completion signaling, for use with
// EventLoop.PostTask.
type Task struct {
	fn   func()
	done chan struct{}
	once sync.Once
}

// NewTask wraps fn.
func NewTask(fn func()) *Task {
	if fn == nil {
		panic(`eventloop: nil task`)
	}
	return &Task{fn: fn, done: make(chan struct{})}
}

// Invoke runs the task, then marks it complete, even if it panicked.
// Subsequent calls are no-ops.
func (t *Task) Invoke() {
	t.once.Do(func() {
		defer close(t.done)
		t.fn()
	})
}

// Done is closed once the task has completed.
func (t *Task) Done() <-chan struct{} { return t.done }

// Complete reports whether the task has completed.
func (t *Task) Complete() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task has completed.
func (t *Task) Wait() WaitStatus {
	if t.Complete() {
		return WaitFinished
	}
	<-t.done
	return WaitReady
}

// WaitFor blocks until the task has completed, or timeout elapses.
func (t *Task) WaitFor(timeout time.Duration) WaitStatus {
	if t.Complete() {
		return WaitFinished
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.done:
		return WaitReady
	case <-timer.C:
		return WaitTimeout
	}
}

// WaitContext blocks until the task has completed, or ctx is done, in which
// case it returns WaitTimeout and ctx.Err().
func (t *Task) WaitContext(ctx context.Context) (WaitStatus, error) {
	if t.Complete() {
		return WaitFinished, nil
	}
	select {
	case <-t.done:
		return WaitReady, nil
	case <-ctx.Done():
		return WaitTimeout, ctx.Err()
	}
}
