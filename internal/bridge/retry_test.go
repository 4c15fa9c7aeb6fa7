package bridge

import (
	"testing"
	"time"

	"github.com/jbell/webbridge/internal/testutil/testlog"
)

func TestNextRetryDelayMonotonicAndBounded(t *testing.T) {
	testlog.Start(t)
	opts := DefaultOptions()
	opts.RetryDelay = 250 * time.Millisecond
	opts.RetryMultiplier = 2.0
	opts.RetryMaxDelay = 5 * time.Second

	if got := nextRetryDelay(opts, 1); got != 250*time.Millisecond {
		t.Fatalf("retry1 got=%v", got)
	}
	if got := nextRetryDelay(opts, 2); got != 500*time.Millisecond {
		t.Fatalf("retry2 got=%v", got)
	}
	if got := nextRetryDelay(opts, 3); got != time.Second {
		t.Fatalf("retry3 got=%v", got)
	}
	if got := nextRetryDelay(opts, 10); got != 5*time.Second {
		t.Fatalf("retry10 should cap at max, got=%v", got)
	}

	prev := time.Duration(0)
	for retry := 1; retry <= 12; retry++ {
		d := nextRetryDelay(opts, retry)
		if d < prev {
			t.Fatalf("delay shrank at retry %d: %v < %v", retry, d, prev)
		}
		prev = d
	}
}

func TestNextRetryDelayZeroBase(t *testing.T) {
	testlog.Start(t)
	opts := DefaultOptions()
	opts.RetryDelay = 0
	if got := nextRetryDelay(opts, 3); got != 0 {
		t.Fatalf("zero base should stay zero, got=%v", got)
	}
}
