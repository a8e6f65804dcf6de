package eventloop

import (
	"bytes"
	"sync"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

func newTestLoop(t *testing.T, opts ...LoopOption) *EventLoop {
	t.Helper()
	loop, err := New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = loop.Close() })
	return loop
}

// syncBuffer is a bytes.Buffer safe for concurrent writes.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (x *syncBuffer) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.buf.Write(p)
}

func (x *syncBuffer) String() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.buf.String()
}

// newTestLogger returns a JSON logger, enabled for all levels, writing to
// the returned buffer, with the timestamp omitted.
func newTestLogger() (*logiface.Logger[logiface.Event], *syncBuffer) {
	var buf syncBuffer
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(&buf), stumpy.WithTimeField(``)),
		stumpy.L.WithLevel(logiface.LevelTrace),
	).Logger()
	return logger, &buf
}

// recoverPanic runs fn, returning the recovered panic value, if any.
func recoverPanic(fn func()) (r any) {
	defer func() { r = recover() }()
	fn()
	return nil
}

// runOn runs fn on a new goroutine, waiting for it to return.
func runOn(fn func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	<-done
}
