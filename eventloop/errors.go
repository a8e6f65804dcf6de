package eventloop

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrLoopInactive is returned by Run and ProcessEvents when called before
	// Start, or after Stop. It is recoverable: Start the loop and retry.
	ErrLoopInactive = errors.New("eventloop: loop has not been started")

	// ErrWrongGoroutine is matched (via errors.Is) by *WrongGoroutineError.
	ErrWrongGoroutine = errors.New("eventloop: called from a goroutine that did not start the loop")

	// ErrReentrantRun is returned when Run is called from a handler that is
	// already being dispatched by Run, on the same loop.
	ErrReentrantRun = errors.New("eventloop: cannot call Run from within Run")

	// ErrLoopClosed is returned by operations on a closed loop.
	ErrLoopClosed = errors.New("eventloop: loop has been closed")
)

// WrongGoroutineError reports Run or ProcessEvents being called from a
// goroutine other than the one that called Start.
//
// This is a usage defect, and is raised as a panic, after being logged at
// critical severity. Left unrecovered, it terminates the process. It may be
// recovered at a caller-defined boundary, in which case the loop is left
// exactly as it was prior to the failed call.
type WrongGoroutineError struct {
	stack pkgerrors.StackTrace

	Op       string
	LoopID   uint64
	OwnerID  uint64
	CallerID uint64
}

func newWrongGoroutineError(op string, loopID, ownerID, callerID uint64) *WrongGoroutineError {
	var stack pkgerrors.StackTrace
	if v, ok := pkgerrors.New(op).(interface{ StackTrace() pkgerrors.StackTrace }); ok {
		// drop this frame
		stack = v.StackTrace()[1:]
	}
	return &WrongGoroutineError{
		stack:    stack,
		Op:       op,
		LoopID:   loopID,
		OwnerID:  ownerID,
		CallerID: callerID,
	}
}

func (e *WrongGoroutineError) Error() string {
	return fmt.Sprintf(
		"eventloop: %s called from goroutine %d, but loop %d was started by goroutine %d",
		e.Op, e.CallerID, e.LoopID, e.OwnerID,
	)
}

// Is matches ErrWrongGoroutine.
func (e *WrongGoroutineError) Is(target error) bool {
	return target == ErrWrongGoroutine
}

// StackTrace returns the stack captured where the error was raised.
func (e *WrongGoroutineError) StackTrace() pkgerrors.StackTrace {
	return e.stack
}

// Format supports %+v, which includes the stack trace of the call site.
func (e *WrongGoroutineError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') && e.stack != nil {
			_, _ = fmt.Fprintf(s, "%s%+v", e.Error(), e.stack)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value  any
	Stack  []byte
	LoopID uint64
}

func (e PanicError) Error() string {
	return fmt.Sprintf("eventloop: handler panicked: %v", e.Value)
}

// Unwrap returns the panic value, if it is an error.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
