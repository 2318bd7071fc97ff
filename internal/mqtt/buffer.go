package mqtt

import "log"

// bufferCapacity bounds how many messages are held while disconnected.
const bufferCapacity = 256

// pendingMsg is a serialized MQTT message held for replay after reconnection.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// pendingQueue keeps the most recent messages published while offline.
// When full, the oldest message is dropped.
// Not safe for concurrent use; RealPublisher guards it with its mutex.
type pendingQueue struct {
	msgs    []pendingMsg
	next    int // slot the next push writes
	n       int
	dropped int // messages lost since the last drain
}

func newPendingQueue(capacity int) *pendingQueue {
	return &pendingQueue{msgs: make([]pendingMsg, capacity)}
}

// push queues msg and reports whether an older message was dropped.
func (q *pendingQueue) push(msg pendingMsg) bool {
	size := len(q.msgs)
	q.msgs[q.next] = msg
	q.next = (q.next + 1) % size
	if q.n < size {
		q.n++
		return false
	}
	if q.dropped == 0 {
		log.Printf("mqtt: offline queue full (%d messages), dropping oldest", size)
	}
	q.dropped++
	return true
}

// drain returns the queued messages oldest first and empties the queue.
func (q *pendingQueue) drain() []pendingMsg {
	if q.n == 0 {
		return nil
	}

	size := len(q.msgs)
	out := make([]pendingMsg, 0, q.n)
	for i := q.n; i > 0; i-- {
		out = append(out, q.msgs[(q.next-i+size)%size])
	}
	if q.dropped > 0 {
		log.Printf("mqtt: replaying %d queued messages, %d dropped while offline", len(out), q.dropped)
	}

	q.n = 0
	q.next = 0
	q.dropped = 0
	return out
}

func (q *pendingQueue) len() int {
	return q.n
}
