package bridge

import (
	"testing"

	"github.com/jbell/webbridge/internal/protocol"
	"github.com/jbell/webbridge/internal/testutil/testlog"
)

func TestQueueDrainPreservesFIFO(t *testing.T) {
	testlog.Start(t)
	q := &messageQueue{}
	for _, id := range []string{"m.1", "m.2", "m.3"} {
		q.enqueue(protocol.Message{ID: id, Type: "seq"})
	}
	if q.len() != 3 {
		t.Fatalf("unexpected queue length %d", q.len())
	}
	out := q.drain()
	if len(out) != 3 {
		t.Fatalf("drain returned %d messages", len(out))
	}
	for i, want := range []string{"m.1", "m.2", "m.3"} {
		if out[i].ID != want {
			t.Fatalf("position %d: got %s want %s", i, out[i].ID, want)
		}
	}
	if q.len() != 0 {
		t.Fatalf("drain left %d messages queued", q.len())
	}
}

func TestQueueClearDropsWithoutSending(t *testing.T) {
	testlog.Start(t)
	q := &messageQueue{}
	q.enqueue(protocol.Message{ID: "m.1", Type: "seq"})
	q.clear()
	if q.len() != 0 {
		t.Fatalf("clear left messages queued")
	}
	if out := q.drain(); len(out) != 0 {
		t.Fatalf("drain after clear returned %d messages", len(out))
	}
}
