package bridge

import (
	"context"
	"sync"

	"github.com/jbell/webbridge/internal/protocol"
)

// Handler processes one inbound message. The returned value becomes the
// response payload when the peer asked for one; a returned error is reported
// back as the response error. Handlers may block; each inbound message is
// dispatched on its own goroutine.
type Handler func(ctx context.Context, msg *protocol.Message) (any, error)

type handlerEntry struct {
	id   uint64
	fn   Handler
	once bool
}

// handlerRegistry maps message types to registered handlers. Each Manager
// owns exactly one registry; nothing is shared across instances.
type handlerRegistry struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[string][]handlerEntry
}

func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{entries: make(map[string][]handlerEntry)}
}

func (r *handlerRegistry) add(typ string, fn Handler, once bool) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.entries[typ] = append(r.entries[typ], handlerEntry{id: id, fn: fn, once: once})
	return func() {
		r.removeEntry(typ, id)
	}
}

// snapshot returns the handlers for typ in registration order. One-shot
// entries are unregistered here, at selection time, so a second message of
// the same type can never pick them up even while the first is still running.
func (r *handlerRegistry) snapshot(typ string) []handlerEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.entries[typ]
	if len(entries) == 0 {
		return nil
	}
	out := make([]handlerEntry, len(entries))
	copy(out, entries)
	kept := entries[:0]
	for _, e := range entries {
		if !e.once {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(r.entries, typ)
	} else {
		r.entries[typ] = kept
	}
	return out
}

func (r *handlerRegistry) removeEntry(typ string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.entries[typ]
	for i, e := range entries {
		if e.id == id {
			r.entries[typ] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(r.entries[typ]) == 0 {
		delete(r.entries, typ)
	}
}

func (r *handlerRegistry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string][]handlerEntry)
}

func (r *handlerRegistry) count(typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries[typ])
}
