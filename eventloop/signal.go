package eventloop

import (
	"sync"
)

// Signal is a list of observers, notified synchronously, in connection
// order, by Emit. The zero value is ready to use.
type Signal struct {
	slots []slot
	mu    sync.Mutex
}

type slot struct {
	fn func()
	id uint64
}

// Connect adds fn, returning a connection ID for Disconnect.
func (x *Signal) Connect(fn func()) uint64 {
	if fn == nil {
		panic(`eventloop: nil slot`)
	}
	id := NextID()
	x.mu.Lock()
	defer x.mu.Unlock()
	// copy on write, Emit iterates a snapshot
	slots := make([]slot, len(x.slots), len(x.slots)+1)
	copy(slots, x.slots)
	x.slots = append(slots, slot{fn: fn, id: id})
	return id
}

// Disconnect removes the connection, reporting whether it was found.
func (x *Signal) Disconnect(id uint64) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, s := range x.slots {
		if s.id == id {
			slots := make([]slot, 0, len(x.slots)-1)
			slots = append(slots, x.slots[:i]...)
			x.slots = append(slots, x.slots[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of connections.
func (x *Signal) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.slots)
}

// Emit calls every slot connected at the time of the call. Slots may
// connect or disconnect during Emit, taking effect for the next call.
func (x *Signal) Emit() {
	x.mu.Lock()
	slots := x.slots
	x.mu.Unlock()
	for _, s := range slots {
		s.fn()
	}
}
