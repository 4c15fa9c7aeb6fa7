package bridge

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jbell/webbridge/internal/protocol"
)

// nextRetryDelay returns the wait before retry N (1-based). Growth is
// monotonic and capped at RetryMaxDelay.
func nextRetryDelay(opts Options, retry int) time.Duration {
	if retry <= 1 {
		return opts.RetryDelay
	}
	if opts.RetryDelay <= 0 {
		return 0
	}
	delay := float64(opts.RetryDelay) * math.Pow(opts.RetryMultiplier, float64(retry-1))
	if opts.RetryMaxDelay > 0 && delay > float64(opts.RetryMaxDelay) {
		delay = float64(opts.RetryMaxDelay)
	}
	return time.Duration(delay)
}

// postWithRetry delivers msg, retrying failed sends up to MaxRetries extra
// attempts. The loop is explicit so Close and ctx cancel cleanly between
// attempts; the last transport error is surfaced when every attempt fails.
func (m *Manager) postWithRetry(ctx context.Context, msg protocol.Message) error {
	attempts := m.opts.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := m.wait(ctx, nextRetryDelay(m.opts, attempt-1)); err != nil {
				return err
			}
		}
		if err := m.transport.Post(ctx, msg); err != nil {
			lastErr = err
			m.log.Warn().
				Str("msg_id", msg.ID).
				Str("msg_type", msg.Type).
				Int("attempt", attempt).
				Err(err).
				Msg("send attempt failed")
			continue
		}
		return nil
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrSendFailed, attempts, lastErr)
}

// wait sleeps for d unless the context ends or the manager closes first.
func (m *Manager) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.closed:
		return ErrClosed
	}
}
