package eventloop

import (
	"sync/atomic"
)

// InvalidID is never assigned by NextID, and may be used to mean "unset".
const InvalidID uint64 = 0

var idCounter atomic.Uint64

// NextID allocates a process-wide unique identity, shared by loops, timers
// and signal connections. Identities are strictly increasing, starting at 1.
func NextID() uint64 {
	for {
		if id := idCounter.Add(1); id != InvalidID {
			return id
		}
		// wrapped, skip the sentinel
	}
}
