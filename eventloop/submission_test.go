package eventloop

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPostEvent_FIFOThenBlocking covers three fire-and-forget callbacks
// followed by a blocking callback, submitted from a non-owning goroutine:
// dispatch is in order, and the submitter resumes only after the blocking
// callback has finished.
func TestPostEvent_FIFOThenBlocking(t *testing.T) {
	loop := newTestLoop(t)
	g := LaunchInGoroutine(loop)
	defer func() { require.NoError(t, RemoveFromGoroutine(loop, g, false)) }()

	var (
		mu     sync.Mutex
		order  []string
		e4Done atomic.Bool
		onLoop = make(chan bool, 4)
		record = func(name string) func() {
			return func() {
				onLoop <- loop.IsLoopGoroutine()
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
			}
		}
	)

	loop.PostEvent(Callback{Fn: record(`e1`)})
	loop.PostEvent(Callback{Fn: record(`e2`)})
	loop.PostEvent(Callback{Fn: record(`e3`)})

	e4 := NewBlockingCallback(func() {
		record(`e4`)()
		time.Sleep(20 * time.Millisecond)
		e4Done.Store(true)
	})
	loop.PostEvent(e4)
	e4.Wait()

	assert.True(t, e4Done.Load(), "submitter resumed before e4 finished")
	assert.True(t, e4.Invoked())
	mu.Lock()
	assert.Equal(t, []string{`e1`, `e2`, `e3`, `e4`}, order)
	mu.Unlock()
	for range 4 {
		assert.True(t, <-onLoop, "dispatched off the owning goroutine")
	}
}

// TestPostEvent_FIFOManyProducers verifies per-producer ordering is
// preserved when several goroutines submit concurrently.
func TestPostEvent_FIFOManyProducers(t *testing.T) {
	loop := newTestLoop(t)
	g := LaunchInGoroutine(loop)

	const (
		producers = 8
		perProd   = 500
	)
	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	var outOfOrder atomic.Int32

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := range producers {
		go func() {
			defer wg.Done()
			for i := range perProd {
				loop.PostCallback(func() {
					// only the loop goroutine touches last
					if last[p] != i-1 {
						outOfOrder.Add(1)
					}
					last[p] = i
				})
			}
		}()
	}
	wg.Wait()

	require.NoError(t, RemoveFromGoroutine(loop, g, true))
	assert.Equal(t, int32(0), outOfOrder.Load())
	for p := range producers {
		assert.Equal(t, perProd-1, last[p])
	}
}

func TestPostBlockingCallback_FromOwnerRunsInline(t *testing.T) {
	loop := newTestLoop(t)
	loop.Start()
	var ran bool
	loop.PostBlockingCallback(func() { ran = true })
	assert.True(t, ran)
}

func TestPostBlockingCallback_FromOtherGoroutine(t *testing.T) {
	loop := newTestLoop(t)
	g := LaunchInGoroutine(loop)
	var onLoop bool
	loop.PostBlockingCallback(func() { onLoop = loop.IsLoopGoroutine() })
	assert.True(t, onLoop)
	require.NoError(t, RemoveFromGoroutine(loop, g, false))
}

func TestPostBlockingCallback_ClosedLoopReturns(t *testing.T) {
	loop := newTestLoop(t)
	require.NoError(t, loop.Close())

	done := make(chan bool, 1)
	go func() {
		var ran bool
		loop.PostBlockingCallback(func() { ran = true })
		done <- ran
	}()
	select {
	case ran := <-done:
		assert.False(t, ran)
	case <-time.After(time.Second):
		t.Fatal("blocked on a closed loop")
	}

	b := NewBlockingCallback(func() {})
	loop.PostEvent(b)
	assert.True(t, isClosed(b.Done()))
	assert.False(t, b.Invoked())
}

// TestEventLoop_CloseReleasesQueuedBlockingCallbacks verifies waiters on
// blocking callbacks discarded by Close are released, without the callbacks
// running.
func TestEventLoop_CloseReleasesQueuedBlockingCallbacks(t *testing.T) {
	loop, err := New()
	require.NoError(t, err)

	var ran atomic.Int32
	waited := make(chan struct{})
	go func() {
		defer close(waited)
		loop.PostBlockingCallback(func() { ran.Add(1) })
	}()
	b := NewBlockingCallback(func() { ran.Add(1) })
	loop.PostEvent(b)
	require.Eventually(t, func() bool { return loop.reactor.Len() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, loop.Close())

	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}
	b.Wait()
	assert.False(t, b.Invoked())
	assert.Equal(t, int32(0), ran.Load())
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// TestPostTask_SameGoroutine verifies a task posted by the owner has run
// before PostTask returns, without pumping.
func TestPostTask_SameGoroutine(t *testing.T) {
	loop := newTestLoop(t)
	loop.Start()

	var work int
	task := NewTask(func() {
		for range 1000 {
			work++
		}
	})
	loop.PostTask(task)

	assert.Equal(t, 1000, work)
	assert.Equal(t, WaitFinished, task.Wait())
}

// TestPostTask_OtherGoroutine verifies a task posted by a non-owner runs only
// once the owner pumps.
func TestPostTask_OtherGoroutine(t *testing.T) {
	loop := newTestLoop(t)
	loop.Start()

	var work atomic.Int32
	task := NewTask(func() { work.Store(1000) })
	runOn(func() { loop.PostTask(task) })

	assert.Equal(t, int32(0), work.Load())
	assert.False(t, task.Complete())

	require.NoError(t, loop.ProcessEvents())
	assert.Equal(t, int32(1000), work.Load())
	assert.Equal(t, WaitFinished, task.Wait())
}

func TestPostTask_LaunchedLoop(t *testing.T) {
	loop := newTestLoop(t)
	g := LaunchInGoroutine(loop)

	var work int
	task := NewTask(func() { work = 1000 })
	loop.PostTask(task)

	status := task.Wait()
	assert.Contains(t, []WaitStatus{WaitReady, WaitFinished}, status)
	assert.Equal(t, 1000, work)

	require.NoError(t, RemoveFromGoroutine(loop, g, true))
}

// TestPostEvent_TimerControlBypassesQueue verifies start and stop timer
// requests take effect immediately, regardless of queued work.
func TestPostEvent_TimerControlBypassesQueue(t *testing.T) {
	loop := newTestLoop(t)
	for range 100 {
		loop.PostCallback(func() {})
	}
	timer := NewTimer(loop)

	timer.Start(time.Hour, false)
	assert.True(t, timer.Active())
	assert.Equal(t, 1, loop.TimerCount())

	timer.Stop()
	assert.False(t, timer.Active())
	assert.Equal(t, 0, loop.TimerCount())
}

func TestPostEvent_IgnoresNil(t *testing.T) {
	loop := newTestLoop(t)
	loop.PostEvent(nil)
	loop.PostEvent(Callback{})
	loop.PostEvent((*BlockingCallback)(nil))
	loop.PostTask(nil)
	loop.Start()
	require.NoError(t, loop.ProcessEvents())
}

// TestEventLoop_HandlerPanicIsRecovered verifies a panicking handler is
// reported, and does not prevent subsequent dispatch.
func TestEventLoop_HandlerPanicIsRecovered(t *testing.T) {
	logger, buf := newTestLogger()
	var reported []PanicError
	loop := newTestLoop(t,
		WithLogger(logger),
		WithPanicHandler(func(err PanicError) { reported = append(reported, err) }),
	)
	loop.Start()

	var after bool
	loop.PostCallback(func() { panic(`boom`) })
	loop.PostCallback(func() { after = true })
	require.NoError(t, loop.ProcessEvents())

	assert.True(t, after)
	require.Len(t, reported, 1)
	assert.Equal(t, `boom`, reported[0].Value)
	assert.Equal(t, loop.ID(), reported[0].LoopID)
	assert.NotEmpty(t, reported[0].Stack)
	assert.Contains(t, buf.String(), `"lvl":"err"`)
	assert.Contains(t, buf.String(), `handler panicked: boom`)
}

// TestEventLoop_PanicLogIsRateLimited verifies repeated panics with the same
// value are logged at most at the configured rate.
func TestEventLoop_PanicLogIsRateLimited(t *testing.T) {
	logger, buf := newTestLogger()
	var handled int
	loop := newTestLoop(t,
		WithLogger(logger),
		WithPanicLogRates(map[time.Duration]int{time.Hour: 2}),
		WithPanicHandler(func(PanicError) { handled++ }),
	)
	loop.Start()
	for range 5 {
		loop.PostCallback(func() { panic(`same`) })
	}
	require.NoError(t, loop.ProcessEvents())

	assert.Equal(t, 5, handled)
	assert.Equal(t, 2, countOccurrences(buf.String(), `handler panicked: same`))
}

func TestEventLoop_BlockingCallbackPanicReleasesWaiter(t *testing.T) {
	loop := newTestLoop(t, WithPanicLogRates(nil))
	g := LaunchInGoroutine(loop)
	b := NewBlockingCallback(func() { panic(`boom`) })
	loop.PostEvent(b)
	select {
	case <-b.Done():
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}
	require.NoError(t, RemoveFromGoroutine(loop, g, false))
}

func countOccurrences(s, sub string) (n int) {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
