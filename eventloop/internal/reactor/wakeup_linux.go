//go:build linux

package reactor

import (
	"encoding/binary"
	"time"

	"golang.org/x/sys/unix"
)

// eventfdWaker parks on an eventfd, which also coalesces signals: the
// counter accumulates writes and a single read resets it.
type eventfdWaker struct {
	fd int
}

func newPlatformWaker() (waker, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &eventfdWaker{fd: fd}, nil
}

func (w *eventfdWaker) signal() {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	// EAGAIN means the counter is saturated, which is already a pending wakeup
	_, _ = unix.Write(w.fd, buf[:])
}

func (w *eventfdWaker) wait(timeout time.Duration) {
	ms := -1
	if timeout >= 0 {
		// round up, to avoid spinning until the deadline
		ms = int((timeout + time.Millisecond - 1) / time.Millisecond)
	}
	fds := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLIN}}
	if n, err := unix.Poll(fds, ms); err != nil || n == 0 {
		// EINTR or timeout, the caller re-evaluates either way
		return
	}
	if fds[0].Revents&unix.POLLIN != 0 {
		var buf [8]byte
		_, _ = unix.Read(w.fd, buf[:])
	}
}

func (w *eventfdWaker) close() error {
	return unix.Close(w.fd)
}
