package bridge

import (
	"fmt"
	"sync"
	"time"
)

// requestOutcome settles one in-flight request: a response payload, a peer
// error, a timeout, or manager close.
type requestOutcome struct {
	payload any
	err     error
}

// pendingRequest tracks one request awaiting its correlated response. gen
// counts timer rearms so a stale expiry can never settle a request whose
// deadline was extended under it.
type pendingRequest struct {
	id      string
	msgType string
	done    chan requestOutcome
	timer   *time.Timer
	gen     uint64
}

// pendingTable owns in-flight requests keyed by correlation id. Every exit
// path (response, timeout, close, caller abandon) takes the entry out under
// the lock, so a request settles exactly once.
type pendingTable struct {
	mu        sync.Mutex
	items     map[string]*pendingRequest
	closedErr error
}

func newPendingTable() *pendingTable {
	return &pendingTable{items: make(map[string]*pendingRequest)}
}

// add registers an in-flight request. After failAll the table is terminal:
// a late add settles immediately with the close error instead of leaking a
// waiter no teardown path will ever reach.
func (t *pendingTable) add(req *pendingRequest) bool {
	t.mu.Lock()
	if t.closedErr != nil {
		err := t.closedErr
		t.mu.Unlock()
		req.done <- requestOutcome{err: err}
		return false
	}
	t.items[req.id] = req
	t.mu.Unlock()
	return true
}

// expireAfter arms the request's timeout for its current generation. The
// request must already be in the table.
func (t *pendingTable) expireAfter(req *pendingRequest, d time.Duration) {
	id, gen := req.id, req.gen
	req.timer = time.AfterFunc(d, func() {
		t.expire(id, gen)
	})
}

// expire settles a request whose window elapsed. A request that was
// rescheduled or already settled is left alone.
func (t *pendingTable) expire(id string, gen uint64) {
	t.mu.Lock()
	req, ok := t.items[id]
	if !ok || req.gen != gen {
		t.mu.Unlock()
		return
	}
	delete(t.items, id)
	t.mu.Unlock()
	req.done <- requestOutcome{err: fmt.Errorf("%w: %s", ErrRequestTimeout, req.msgType)}
}

// remove takes the entry out without settling it. The caller owns stopping
// the timer.
func (t *pendingTable) remove(id string) (*pendingRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	req, ok := t.items[id]
	if ok {
		delete(t.items, id)
	}
	return req, ok
}

// settle resolves the request for id. Returns false when id is unknown or
// already settled.
func (t *pendingTable) settle(id string, out requestOutcome) bool {
	req, ok := t.remove(id)
	if !ok {
		return false
	}
	if req.timer != nil {
		req.timer.Stop()
	}
	req.done <- out
	return true
}

// reschedule replaces the request's timeout with d. Unknown or settled ids
// are a no-op.
func (t *pendingTable) reschedule(id string, d time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	req, ok := t.items[id]
	if !ok {
		return false
	}
	req.gen++
	if req.timer != nil {
		req.timer.Stop()
	}
	t.expireAfter(req, d)
	return true
}

// failAll settles every pending request with err and marks the table
// terminal.
func (t *pendingTable) failAll(err error) {
	t.mu.Lock()
	items := t.items
	t.items = make(map[string]*pendingRequest)
	t.closedErr = err
	t.mu.Unlock()
	for _, req := range items {
		if req.timer != nil {
			req.timer.Stop()
		}
		req.done <- requestOutcome{err: err}
	}
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}
