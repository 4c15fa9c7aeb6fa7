// Package transport defines the message channel primitive the bridge is
// built over, plus the in-memory and stream implementations used by tests
// and the loopback demo. Production embedders supply their own Transport
// around the host platform's postMessage surface.
package transport

import (
	"context"
	"errors"

	"github.com/jbell/webbridge/internal/protocol"
)

var ErrTransportClosed = errors.New("transport: closed")

// Transport is an asynchronous, unordered, fire-and-forget message channel.
// Post delivers one message toward the peer; Subscribe registers a callback
// for inbound messages and returns its unsubscribe handle. Implementations
// must tolerate concurrent Post calls and must not invoke subscribers after
// their unsubscribe handle returns.
type Transport interface {
	Post(ctx context.Context, msg protocol.Message) error
	Subscribe(fn func(protocol.Message)) (unsubscribe func())
}
