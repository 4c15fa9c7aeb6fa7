package bridge

import (
	"sync"

	"github.com/jbell/webbridge/internal/protocol"
)

// messageQueue buffers outbound application messages sent before the
// handshake completes. Flush order is enqueue order.
type messageQueue struct {
	mu    sync.Mutex
	items []protocol.Message
}

func (q *messageQueue) enqueue(msg protocol.Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, msg)
}

// drain returns the queued messages in FIFO order and empties the queue.
func (q *messageQueue) drain() []protocol.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

func (q *messageQueue) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

func (q *messageQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
