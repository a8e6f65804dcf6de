package eventloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitStatus_String(t *testing.T) {
	for _, tc := range []struct {
		status WaitStatus
		want   string
	}{
		{WaitFinished, "Finished"},
		{WaitReady, "Ready"},
		{WaitTimeout, "Timeout"},
		{0, "Unknown"},
	} {
		assert.Equal(t, tc.want, tc.status.String())
	}
}

func TestTask_WaitAfterComplete(t *testing.T) {
	task := NewTask(func() {})
	assert.False(t, task.Complete())
	task.Invoke()
	assert.True(t, task.Complete())
	assert.Equal(t, WaitFinished, task.Wait())
	assert.Equal(t, WaitFinished, task.WaitFor(0))
	status, err := task.WaitContext(context.Background())
	assert.Equal(t, WaitFinished, status)
	assert.NoError(t, err)
}

func TestTask_WaitReady(t *testing.T) {
	task := NewTask(func() {})
	go func() {
		time.Sleep(10 * time.Millisecond)
		task.Invoke()
	}()
	assert.Equal(t, WaitReady, task.WaitFor(time.Second))
}

func TestTask_WaitForTimeout(t *testing.T) {
	task := NewTask(func() {})
	assert.Equal(t, WaitTimeout, task.WaitFor(10*time.Millisecond))
	assert.False(t, task.Complete())
}

func TestTask_WaitContextCanceled(t *testing.T) {
	task := NewTask(func() {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status, err := task.WaitContext(ctx)
	assert.Equal(t, WaitTimeout, status)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTask_InvokeOnce(t *testing.T) {
	var count int
	task := NewTask(func() { count++ })
	task.Invoke()
	task.Invoke()
	assert.Equal(t, 1, count)
}

func TestTask_PanicCompletes(t *testing.T) {
	task := NewTask(func() { panic(`boom`) })
	assert.Panics(t, task.Invoke)
	assert.True(t, task.Complete())
	select {
	case <-task.Done():
	default:
		t.Fatal("done not closed")
	}
}

// TestTask_LoopRunning covers a task posted to a launched loop, then waited
// on with a deadline.
func TestTask_LoopRunning(t *testing.T) {
	loop := newTestLoop(t)
	g := LaunchInGoroutine(loop)

	var onLoop bool
	task := NewTask(func() { onLoop = loop.IsLoopGoroutine() })
	loop.PostTask(task)
	require.NotEqual(t, WaitTimeout, task.WaitFor(time.Second))
	assert.True(t, onLoop)

	require.NoError(t, RemoveFromGoroutine(loop, g, false))
}

func TestNewTask_NilPanics(t *testing.T) {
	assert.Panics(t, func() { NewTask(nil) })
}
