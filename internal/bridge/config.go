package bridge

import (
	"time"

	"github.com/rs/zerolog"
)

// Options defines handshake, request, and delivery reliability settings for
// one Manager. Start from DefaultOptions and override fields as needed; zero
// durations fall back to the defaults. MaxRetries of zero means a single
// delivery attempt.
type Options struct {
	// HandshakeTimeout bounds the wait for the peer's ready signal.
	HandshakeTimeout time.Duration
	// MessageTimeout is the default request/response window. A peer may
	// extend an individual request's window with a timeout hint.
	MessageTimeout time.Duration
	// MaxRetries is the number of additional delivery attempts after a
	// failed outbound send.
	MaxRetries int
	// RetryDelay is the delay before the first retry; later retries back
	// off by RetryMultiplier up to RetryMaxDelay.
	RetryDelay      time.Duration
	RetryMultiplier float64
	RetryMaxDelay   time.Duration
	// EnableLogging routes diagnostics to Logger (or a default console
	// logger). Disabled swaps in a no-op logger.
	EnableLogging bool
	Logger        *zerolog.Logger
}

func DefaultOptions() Options {
	return Options{
		HandshakeTimeout: 5 * time.Second,
		MessageTimeout:   30 * time.Second,
		MaxRetries:       3,
		RetryDelay:       250 * time.Millisecond,
		RetryMultiplier:  2.0,
		RetryMaxDelay:    5 * time.Second,
		EnableLogging:    true,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = def.HandshakeTimeout
	}
	if o.MessageTimeout <= 0 {
		o.MessageTimeout = def.MessageTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = def.MaxRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = def.RetryDelay
	}
	if o.RetryMultiplier < 1.0 {
		o.RetryMultiplier = def.RetryMultiplier
	}
	if o.RetryMaxDelay <= 0 {
		o.RetryMaxDelay = def.RetryMaxDelay
	}
	return o
}
