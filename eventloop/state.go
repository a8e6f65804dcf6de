package eventloop

// LoopState is a snapshot of an EventLoop's lifecycle.
//
// State Machine:
//
//	StateIdle → StateStarted              [Start()]
//	StateStarted → StateRunning           [Run()]
//	StateStarted/StateRunning → StateIdle [Stop()]
//	StateIdle → StateClosed               [Close()]
//
// StateRunning implies started. ProcessEvents never changes the state.
type LoopState uint8

const (
	// StateIdle indicates the loop is not started, either because it never
	// was, or because it has been stopped. It may be (re)started.
	StateIdle LoopState = iota
	// StateStarted indicates Start was called, and the loop is owned by the
	// goroutine that called it, but Run is not in progress.
	StateStarted
	// StateRunning indicates Run is in progress on the owning goroutine.
	StateRunning
	// StateClosed indicates Close was called. It is terminal.
	StateClosed
)

// String returns a human-readable representation of the state.
func (s LoopState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStarted:
		return "Started"
	case StateRunning:
		return "Running"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
