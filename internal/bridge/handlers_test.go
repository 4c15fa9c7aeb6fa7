package bridge

import (
	"context"
	"testing"

	"github.com/jbell/webbridge/internal/protocol"
	"github.com/jbell/webbridge/internal/testutil/testlog"
)

func namedHandler(name string) Handler {
	return func(_ context.Context, _ *protocol.Message) (any, error) {
		return name, nil
	}
}

func handlerNames(t *testing.T, entries []handlerEntry) []string {
	t.Helper()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		v, err := e.fn(context.Background(), nil)
		if err != nil {
			t.Fatalf("handler error: %v", err)
		}
		out = append(out, v.(string))
	}
	return out
}

func TestRegistrySnapshotKeepsRegistrationOrder(t *testing.T) {
	testlog.Start(t)
	r := newHandlerRegistry()
	r.add("x", namedHandler("first"), false)
	r.add("x", namedHandler("second"), false)
	r.add("y", namedHandler("other"), false)

	names := handlerNames(t, r.snapshot("x"))
	if len(names) != 2 || names[0] != "first" || names[1] != "second" {
		t.Fatalf("unexpected snapshot order: %v", names)
	}
	if r.count("x") != 2 {
		t.Fatalf("persistent handlers should survive snapshot")
	}
}

func TestRegistryOnceRemovedAtSnapshot(t *testing.T) {
	testlog.Start(t)
	r := newHandlerRegistry()
	r.add("x", namedHandler("keep"), false)
	r.add("x", namedHandler("oneshot"), true)

	first := r.snapshot("x")
	if len(first) != 2 {
		t.Fatalf("first snapshot should include the one-shot, got %d", len(first))
	}
	second := r.snapshot("x")
	if len(second) != 1 {
		t.Fatalf("one-shot survived its snapshot, got %d entries", len(second))
	}
}

func TestRegistryRemoveHandle(t *testing.T) {
	testlog.Start(t)
	r := newHandlerRegistry()
	remove := r.add("x", namedHandler("gone"), false)
	r.add("x", namedHandler("stays"), false)

	remove()
	names := handlerNames(t, r.snapshot("x"))
	if len(names) != 1 || names[0] != "stays" {
		t.Fatalf("unexpected handlers after removal: %v", names)
	}
	// Removing twice is harmless.
	remove()
	if r.count("x") != 1 {
		t.Fatalf("double removal changed the registry")
	}
}

func TestRegistryUnknownTypeHasNoHandlers(t *testing.T) {
	testlog.Start(t)
	r := newHandlerRegistry()
	if entries := r.snapshot("nope"); entries != nil {
		t.Fatalf("expected nil snapshot, got %d entries", len(entries))
	}
}

func TestRegistryClear(t *testing.T) {
	testlog.Start(t)
	r := newHandlerRegistry()
	r.add("x", namedHandler("a"), false)
	r.add("y", namedHandler("b"), true)
	r.clear()
	if r.count("x") != 0 || r.count("y") != 0 {
		t.Fatalf("clear left handlers registered")
	}
}
