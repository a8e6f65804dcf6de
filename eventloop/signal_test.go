package eventloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignal_EmitOrder(t *testing.T) {
	var (
		s     Signal
		order []int
	)
	s.Connect(func() { order = append(order, 1) })
	s.Connect(func() { order = append(order, 2) })
	s.Connect(func() { order = append(order, 3) })
	s.Emit()
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 3, s.Len())
}

func TestSignal_Disconnect(t *testing.T) {
	var (
		s     Signal
		count int
	)
	id := s.Connect(func() { count++ })
	assert.NotEqual(t, InvalidID, id)
	assert.True(t, s.Disconnect(id))
	assert.False(t, s.Disconnect(id))
	s.Emit()
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, s.Len())
}

// TestSignal_ModifyDuringEmit verifies changes made by a slot apply from
// the next Emit.
func TestSignal_ModifyDuringEmit(t *testing.T) {
	var (
		s     Signal
		calls []string
		id    uint64
	)
	id = s.Connect(func() {
		calls = append(calls, `a`)
		s.Disconnect(id)
		s.Connect(func() { calls = append(calls, `c`) })
	})
	s.Connect(func() { calls = append(calls, `b`) })

	s.Emit()
	assert.Equal(t, []string{`a`, `b`}, calls)
	s.Emit()
	assert.Equal(t, []string{`a`, `b`, `b`, `c`}, calls)
}

func TestSignal_NilSlotPanics(t *testing.T) {
	var s Signal
	assert.Panics(t, func() { s.Connect(nil) })
}
