package eventloop

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging_FieldsIdentifyLoop(t *testing.T) {
	logger, buf := newTestLogger()
	loop := newTestLoop(t, WithLogger(logger), WithName(`tagged`))
	loop.Start()
	loop.Stop()

	out := buf.String()
	assert.Contains(t, out, `"loop":"tagged"`)
	assert.Contains(t, out, `"loop_id":`)
	assert.Contains(t, out, `event loop started`)
	assert.Contains(t, out, `event loop stopped`)
	assert.Contains(t, out, `"lvl":"debug"`)
}

func TestLogging_TimerTrace(t *testing.T) {
	logger, buf := newTestLogger()
	loop := newTestLoop(t, WithLogger(logger))
	timer := NewTimer(loop)
	timer.Start(time.Hour, true)
	timer.Start(time.Hour, false)
	timer.Stop()

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, `timer started`))
	assert.Equal(t, 1, strings.Count(out, `timer replaced`))
	assert.Equal(t, 1, strings.Count(out, `timer stopped`))
	assert.Contains(t, out, `"lvl":"trace"`)
	assert.Contains(t, out, `"interval":"1h0m0s"`)
}

func TestLogging_NilLoggerIsSilent(t *testing.T) {
	loop := newTestLoop(t)
	loop.Start()
	loop.PostCallback(func() { panic(`boom`) })
	require.NoError(t, loop.ProcessEvents())
	require.ErrorIs(t, runInactive(loop), ErrLoopInactive)
}

func runInactive(loop *EventLoop) error {
	loop.Stop()
	return loop.Run()
}

func TestPanicCategory(t *testing.T) {
	assert.Equal(t, `string: boom`, panicCategory(`boom`))
	assert.NotEqual(t, panicCategory(1), panicCategory(`1`))
}

func TestNewPanicLimiter(t *testing.T) {
	limiter, err := newPanicLimiter(nil)
	assert.NoError(t, err)
	assert.Nil(t, limiter)

	limiter, err = newPanicLimiter(DefaultPanicLogRates)
	assert.NoError(t, err)
	assert.NotNil(t, limiter)

	limiter, err = newPanicLimiter(map[time.Duration]int{-time.Second: 1})
	assert.Error(t, err)
	assert.Nil(t, limiter)
}
