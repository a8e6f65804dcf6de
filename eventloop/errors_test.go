package eventloop

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrongGoroutineError(t *testing.T) {
	err := newWrongGoroutineError(opRun, 3, 7, 9)

	assert.Equal(t, "eventloop: Run called from goroutine 9, but loop 3 was started by goroutine 7", err.Error())
	assert.ErrorIs(t, err, ErrWrongGoroutine)
	assert.NotErrorIs(t, err, ErrLoopInactive)

	wrapped := fmt.Errorf("outer: %w", err)
	var target *WrongGoroutineError
	require.True(t, errors.As(wrapped, &target))
	assert.Same(t, err, target)
}

// TestWrongGoroutineError_Format verifies %+v includes the call site, and
// that the constructor's own frame is omitted.
func TestWrongGoroutineError_Format(t *testing.T) {
	err := newWrongGoroutineError(opProcessEvents, 1, 2, 3)

	require.NotEmpty(t, err.StackTrace())
	assert.Equal(t, err.Error(), fmt.Sprintf("%v", err))
	assert.Equal(t, err.Error(), fmt.Sprintf("%s", err))
	assert.Equal(t, fmt.Sprintf("%q", err.Error()), fmt.Sprintf("%q", err))

	verbose := fmt.Sprintf("%+v", err)
	assert.True(t, strings.HasPrefix(verbose, err.Error()))
	assert.Contains(t, verbose, `TestWrongGoroutineError_Format`)
	assert.NotContains(t, verbose, `newWrongGoroutineError`)
}

func TestPanicError(t *testing.T) {
	perr := PanicError{Value: `boom`, LoopID: 4}
	assert.Equal(t, "eventloop: handler panicked: boom", perr.Error())
	assert.NoError(t, perr.Unwrap())

	perr = PanicError{Value: io.EOF}
	assert.ErrorIs(t, perr, io.EOF)
}
