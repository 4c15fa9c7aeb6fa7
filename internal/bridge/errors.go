package bridge

import "errors"

// ErrHandshakeTimeout and ErrRequestTimeout carry wire-stable text: embedders
// and the webview runtime match on these exact strings.
var (
	ErrHandshakeTimeout = errors.New("Webview handshake timeout")
	ErrRequestTimeout   = errors.New("Request timeout")

	ErrSendFailed    = errors.New("bridge: send failed")
	ErrRequestFailed = errors.New("bridge: request failed")
	ErrClosed        = errors.New("bridge: manager closed")
)
