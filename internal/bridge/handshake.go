package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/jbell/webbridge/internal/protocol"
)

// Initialize drives the ready-signal handshake: it posts
// __extension_ready__, waits for the peer's __webview_ready__, then
// advertises __handshake_complete__ (carrying the current state version) and
// flushes every message queued in the meantime, in enqueue order. A timeout
// leaves the manager awaiting the handshake so the embedder may call
// Initialize again; there is no automatic retry.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateClosed:
		m.mu.Unlock()
		return ErrClosed
	case StateReady:
		m.mu.Unlock()
		return nil
	}
	m.state = StateAwaitingHandshake
	m.mu.Unlock()

	readySignal := m.newMessage(protocol.TypeExtensionReady, nil, false)
	if err := m.transport.Post(ctx, readySignal); err != nil {
		return fmt.Errorf("bridge: ready signal: %w", err)
	}
	m.log.Debug().Str("msg_id", readySignal.ID).Msg("extension ready signal sent")

	timer := time.NewTimer(m.opts.HandshakeTimeout)
	defer timer.Stop()
	select {
	case <-m.peerReady:
	case <-timer.C:
		return ErrHandshakeTimeout
	case <-ctx.Done():
		return ctx.Err()
	case <-m.closed:
		return ErrClosed
	}

	// The READY transition and the queue drain happen under one lock
	// acquisition so nothing can slip between a direct send and the flush.
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.state = StateReady
	queued := m.queue.drain()
	m.mu.Unlock()

	complete := m.newMessage(protocol.TypeHandshakeComplete, protocol.HandshakeComplete{
		StateVersion: m.StateVersion(),
	}, false)
	if err := m.postWithRetry(ctx, complete); err != nil {
		return err
	}

	for _, msg := range queued {
		if err := m.postWithRetry(ctx, msg); err != nil {
			m.log.Error().Str("msg_id", msg.ID).Str("msg_type", msg.Type).Err(err).Msg("queued message lost")
		}
	}
	m.log.Info().
		Int("flushed", len(queued)).
		Uint64("state_version", m.StateVersion()).
		Msg("handshake complete")

	m.readyOnce.Do(func() { close(m.ready) })
	return nil
}

// signalPeerReady records the peer's ready signal. The buffered channel
// keeps a signal that arrives before Initialize, so a freshly restarted
// webview announcing itself early still completes the next handshake.
func (m *Manager) signalPeerReady() {
	select {
	case m.peerReady <- struct{}{}:
	default:
	}
}
