package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jbell/webbridge/internal/logging"
	"github.com/jbell/webbridge/internal/protocol"
	"github.com/jbell/webbridge/internal/transport"
)

type State int32

const (
	StateUninitialized State = iota
	StateAwaitingHandshake
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAwaitingHandshake:
		return "awaiting_handshake"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Manager binds the handshake, the pre-ready queue, the pending-request
// table, the handler registry, and the retry policy to one transport.
// All of those structures are owned by the Manager and torn down on Close.
type Manager struct {
	opts      Options
	transport transport.Transport
	log       zerolog.Logger

	mu    sync.Mutex
	state State

	queue    *messageQueue
	pending  *pendingTable
	handlers *handlerRegistry

	stateVersion atomic.Uint64

	peerReady chan struct{}
	ready     chan struct{}
	readyOnce sync.Once
	closed    chan struct{}
	closeOnce sync.Once

	unsubscribe func()
}

// New wires a manager over tr and subscribes to its inbound traffic. The
// handshake does not start until Initialize.
func New(tr transport.Transport, opts Options) *Manager {
	opts = opts.withDefaults()
	m := &Manager{
		opts:      opts,
		transport: tr,
		log:       resolveLogger(opts),
		queue:     &messageQueue{},
		pending:   newPendingTable(),
		handlers:  newHandlerRegistry(),
		peerReady: make(chan struct{}, 1),
		ready:     make(chan struct{}),
		closed:    make(chan struct{}),
	}
	m.unsubscribe = tr.Subscribe(m.dispatch)
	return m
}

// Connect builds a manager over tr and drives the handshake to completion.
// On failure the manager is closed and only the error is returned.
func Connect(ctx context.Context, tr transport.Transport, opts Options) (*Manager, error) {
	m := New(tr, opts)
	if err := m.Initialize(ctx); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

func resolveLogger(opts Options) zerolog.Logger {
	if !opts.EnableLogging {
		return zerolog.Nop()
	}
	if opts.Logger != nil {
		return opts.Logger.With().Str("component", "bridge").Logger()
	}
	return logging.New("bridge")
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) StateVersion() uint64 {
	return m.stateVersion.Load()
}

func (m *Manager) IncrementStateVersion() uint64 {
	return m.stateVersion.Add(1)
}

// On registers a persistent handler for msgType and returns its removal
// handle. Every registered handler runs for each matching message; when the
// message expects a response, the last-registered handler's result is the
// one sent back.
func (m *Manager) On(msgType string, fn Handler) func() {
	return m.handlers.add(msgType, fn, false)
}

// Once registers a handler invoked for at most one matching message.
func (m *Manager) Once(msgType string, fn Handler) {
	m.handlers.add(msgType, fn, true)
}

// Send delivers a fire-and-forget application message. Before the handshake
// completes the message is queued and flushed, in order, once the peer is
// ready; afterwards it is delivered with the retry policy.
func (m *Manager) Send(ctx context.Context, msgType string, payload any) error {
	msg := m.newMessage(msgType, payload, false)
	m.mu.Lock()
	switch m.state {
	case StateClosed:
		m.mu.Unlock()
		return ErrClosed
	case StateReady:
		m.mu.Unlock()
	default:
		m.queue.enqueue(msg)
		m.mu.Unlock()
		m.log.Debug().Str("msg_type", msgType).Str("msg_id", msg.ID).Msg("queued until handshake")
		return nil
	}
	return m.postWithRetry(ctx, msg)
}

// Request sends msgType expecting a correlated response within the default
// message timeout.
func (m *Manager) Request(ctx context.Context, msgType string, payload any) (any, error) {
	return m.RequestTimeout(ctx, msgType, payload, m.opts.MessageTimeout)
}

// RequestTimeout is Request with an explicit response window. A request made
// before the handshake completes waits for readiness instead of failing. The
// peer can widen the window mid-flight with a timeout hint.
func (m *Manager) RequestTimeout(ctx context.Context, msgType string, payload any, timeout time.Duration) (any, error) {
	select {
	case <-m.ready:
	case <-m.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	msg := m.newMessage(msgType, payload, true)
	req := &pendingRequest{
		id:      msg.ID,
		msgType: msgType,
		done:    make(chan requestOutcome, 1),
	}
	if m.pending.add(req) {
		m.pending.expireAfter(req, timeout)
	}

	if err := m.postWithRetry(ctx, msg); err != nil {
		m.abandon(msg.ID)
		return nil, err
	}

	select {
	case out := <-req.done:
		return out.payload, out.err
	case <-ctx.Done():
		m.abandon(msg.ID)
		return nil, ctx.Err()
	}
}

// abandon drops a pending entry whose caller is no longer waiting.
func (m *Manager) abandon(id string) {
	if req, ok := m.pending.remove(id); ok && req.timer != nil {
		req.timer.Stop()
	}
}

// Close tears the manager down: pending requests settle with ErrClosed, the
// queue is dropped unsent, timers stop, and the transport subscription is
// released. Closing twice is a no-op.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.state = StateClosed
		m.mu.Unlock()
		close(m.closed)
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		m.queue.clear()
		m.pending.failAll(ErrClosed)
		m.handlers.clear()
		m.log.Debug().Msg("manager closed")
	})
	return nil
}

func (m *Manager) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

func (m *Manager) newMessage(msgType string, payload any, expectsResponse bool) protocol.Message {
	return protocol.Message{
		ID:              uuid.NewString(),
		Type:            msgType,
		Payload:         payload,
		Timestamp:       protocol.NowMillis(),
		ExpectsResponse: expectsResponse,
	}
}
