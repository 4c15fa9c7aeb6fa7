package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jbell/webbridge/internal/protocol"
)

// dispatch routes one inbound message: handshake signals first, then
// response correlation, then timeout hints, then the handler registry.
// Handler work runs on its own goroutine so a slow handler never blocks the
// next inbound message.
func (m *Manager) dispatch(msg protocol.Message) {
	if m.isClosed() {
		return
	}
	if msg.Type == protocol.TypeWebviewReady {
		m.log.Debug().Str("msg_id", msg.ID).Msg("webview ready signal observed")
		m.signalPeerReady()
		return
	}
	if msg.IsResponse || msg.Type == protocol.TypeResponse {
		m.resolveResponse(msg)
		return
	}
	if msg.Type == protocol.TypeTimeoutHint {
		m.applyTimeoutHint(msg)
		return
	}
	if protocol.IsReserved(msg.Type) {
		// Peer-side control traffic (acknowledgments, its handshake
		// signals) needs no reply; acknowledging it would loop.
		m.log.Debug().Str("msg_type", msg.Type).Str("msg_id", msg.ID).Msg("control message")
		return
	}
	go m.runHandlers(context.Background(), msg)
}

func (m *Manager) resolveResponse(msg protocol.Message) {
	out := requestOutcome{payload: msg.Payload}
	if msg.Error != "" {
		out.payload = nil
		out.err = fmt.Errorf("%w: %s", ErrRequestFailed, msg.Error)
	}
	if !m.pending.settle(msg.ResponseToID, out) {
		m.log.Debug().Str("response_to", msg.ResponseToID).Msg("response without pending request")
	}
}

func (m *Manager) applyTimeoutHint(msg protocol.Message) {
	var hint protocol.TimeoutHint
	if err := protocol.DecodePayload(msg.Payload, &hint); err != nil || hint.RequestID == "" || hint.Timeout <= 0 {
		m.log.Debug().Str("msg_id", msg.ID).Msg("malformed timeout hint ignored")
		return
	}
	d := time.Duration(hint.Timeout) * time.Millisecond
	if m.pending.reschedule(hint.RequestID, d) {
		m.log.Debug().Str("request_id", hint.RequestID).Dur("timeout", d).Msg("request deadline extended")
	}
}

// runHandlers invokes every handler registered for the message type and
// answers the peer: a __response__ when one was requested, otherwise a
// receipt __acknowledge__ (sent even when no handler is registered, so the
// peer knows the message landed).
func (m *Manager) runHandlers(ctx context.Context, msg protocol.Message) {
	entries := m.handlers.snapshot(msg.Type)
	var (
		result     any
		handlerErr error
	)
	for _, e := range entries {
		out, err := m.invokeHandler(ctx, e.fn, &msg)
		result, handlerErr = out, err
	}

	if msg.ExpectsResponse {
		m.respond(ctx, msg.ID, result, handlerErr)
		return
	}
	m.acknowledge(ctx, msg.ID)
}

// invokeHandler isolates one handler call. A panic becomes the handler
// error; panics that are not errors normalize to "Unknown error" rather
// than serializing an arbitrary value onto the wire.
func (m *Manager) invokeHandler(ctx context.Context, fn Handler, msg *protocol.Message) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = errors.New("Unknown error")
			}
			out = nil
			m.log.Error().Str("msg_type", msg.Type).Str("msg_id", msg.ID).Any("panic", r).Msg("handler panicked")
		}
	}()
	return fn(ctx, msg)
}

func (m *Manager) respond(ctx context.Context, inboundID string, payload any, handlerErr error) {
	msg := protocol.Message{
		ID:           uuid.NewString(),
		Type:         protocol.TypeResponse,
		Timestamp:    protocol.NowMillis(),
		IsResponse:   true,
		ResponseToID: inboundID,
	}
	if handlerErr != nil {
		msg.Error = handlerErr.Error()
	} else {
		msg.Payload = payload
	}
	// Single attempt: a peer that misses a response re-issues the request
	// under its own timeout, so retrying here would only duplicate traffic.
	if err := m.transport.Post(ctx, msg); err != nil {
		m.log.Warn().Str("response_to", inboundID).Err(err).Msg("response delivery failed")
	}
}

func (m *Manager) acknowledge(ctx context.Context, inboundID string) {
	msg := protocol.Message{
		ID:           uuid.NewString(),
		Type:         protocol.TypeAcknowledge,
		Timestamp:    protocol.NowMillis(),
		ResponseToID: inboundID,
	}
	if err := m.transport.Post(ctx, msg); err != nil {
		m.log.Warn().Str("response_to", inboundID).Err(err).Msg("acknowledge delivery failed")
	}
}
