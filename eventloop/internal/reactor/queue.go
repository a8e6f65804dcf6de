package reactor

import (
	"sync"
)

// handlersPerChunk is the number of handlers stored per node of a queue.
// 128 handlers * 8 bytes + cursors = ~1KB per chunk.
const handlersPerChunk = 128

// queue is a FIFO of handlers, stored as a linked list of fixed-size chunks.
//
// Not thread-safe: every method requires the owning Reactor's mutex.
type queue struct { // betteralign:ignore
	head   *chunk
	tail   *chunk
	length int
}

var chunkPool = sync.Pool{
	New: func() any {
		return &chunk{}
	},
}

// chunk uses read/write cursors so push and pop never shift.
type chunk struct {
	handlers [handlersPerChunk]func()
	next     *chunk
	read     int
	write    int
}

func getChunk() *chunk {
	c := chunkPool.Get().(*chunk)
	c.read = 0
	c.write = 0
	c.next = nil
	return c
}

// putChunk recycles an exhausted chunk. Slots are cleared so the pool does
// not retain closures.
func putChunk(c *chunk) {
	for i := 0; i < c.write; i++ {
		c.handlers[i] = nil
	}
	c.read = 0
	c.write = 0
	c.next = nil
	chunkPool.Put(c)
}

func (q *queue) push(fn func()) {
	if q.tail == nil {
		q.tail = getChunk()
		q.head = q.tail
	} else if q.tail.write == len(q.tail.handlers) {
		c := getChunk()
		q.tail.next = c
		q.tail = c
	}
	q.tail.handlers[q.tail.write] = fn
	q.tail.write++
	q.length++
}

func (q *queue) pop() (func(), bool) {
	if q.length == 0 {
		return nil, false
	}

	// invariant: a drained head is recycled (or rewound) by the pop that drains it
	fn := q.head.handlers[q.head.read]
	q.head.handlers[q.head.read] = nil
	q.head.read++
	q.length--

	if q.head.read == q.head.write {
		if q.head == q.tail {
			q.head.read = 0
			q.head.write = 0
		} else {
			old := q.head
			q.head = old.next
			putChunk(old)
		}
	}

	return fn, true
}

func (q *queue) len() int {
	return q.length
}
