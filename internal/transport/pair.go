package transport

import (
	"context"
	"sync"

	"github.com/jbell/webbridge/internal/protocol"
)

const pairInboxDepth = 256

// Endpoint is one side of an in-memory connected pair. Each endpoint pumps
// its inbox on a dedicated goroutine so delivery order matches post order
// without re-entering the sender's stack.
type Endpoint struct {
	peer *Endpoint

	mu     sync.Mutex
	subs   map[uint64]func(protocol.Message)
	nextID uint64
	closed bool

	inbox chan protocol.Message
	done  chan struct{}
}

// Pair returns two connected endpoints: messages posted on one are delivered
// to subscribers of the other.
func Pair() (*Endpoint, *Endpoint) {
	a := newEndpoint()
	b := newEndpoint()
	a.peer = b
	b.peer = a
	go a.pump()
	go b.pump()
	return a, b
}

func newEndpoint() *Endpoint {
	return &Endpoint{
		subs:  make(map[uint64]func(protocol.Message)),
		inbox: make(chan protocol.Message, pairInboxDepth),
		done:  make(chan struct{}),
	}
}

func (e *Endpoint) Post(ctx context.Context, msg protocol.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrTransportClosed
	}
	select {
	case e.peer.inbox <- msg:
		return nil
	case <-e.peer.done:
		return ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Endpoint) Subscribe(fn func(protocol.Message)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

// Close stops delivery in both directions for this endpoint.
func (e *Endpoint) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()
	close(e.done)
}

func (e *Endpoint) pump() {
	for {
		select {
		case msg := <-e.inbox:
			for _, fn := range e.subscribers() {
				fn(msg)
			}
		case <-e.done:
			return
		}
	}
}

func (e *Endpoint) subscribers() []func(protocol.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]func(protocol.Message), 0, len(e.subs))
	for _, fn := range e.subs {
		out = append(out, fn)
	}
	return out
}
