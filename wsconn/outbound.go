package wsconn

import (
	"github.com/eapache/queue"

	"github.com/momentics/wscore/pool"
)

// outboundFrame is one serialized frame awaiting a write, plus the
// pooled buffer it was built in (nil if it wasn't pool-backed, i.e. a
// frame larger than the pool's largest size class). flushOutbound releases
// buf back to its pool once the frame has been written.
type outboundFrame struct {
	bytes []byte
	buf   *pool.Buffer
}

// outboundQueue is the bounded FIFO of serialized outbound frames each
// Conn drains into its output sink. It gives the teacher's declared-
// but-unused github.com/eapache/queue dependency a concrete home: a
// ring-buffer-backed queue of pending writes, exactly the shape
// spec.md's "Backpressure" section describes for the output channel.
type outboundQueue struct {
	q        *queue.Queue
	capacity int
}

func newOutboundQueue(capacity int) *outboundQueue {
	if capacity <= 0 {
		capacity = 64
	}
	return &outboundQueue{q: queue.New(), capacity: capacity}
}

func (o *outboundQueue) push(frame outboundFrame) {
	o.q.Add(frame)
}

func (o *outboundQueue) pop() (outboundFrame, bool) {
	if o.q.Length() == 0 {
		return outboundFrame{}, false
	}
	return o.q.Remove().(outboundFrame), true
}

func (o *outboundQueue) len() int {
	return o.q.Length()
}

func (o *outboundQueue) atCapacity() bool {
	return o.q.Length() >= o.capacity
}
