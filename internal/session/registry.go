package session

import (
	"sync"

	"ubxgo/internal/ubx"
)

// Handle identifies one registered handler for later removal.
type Handle struct {
	key ubx.Key
	seq uint64
}

type registryEntry struct {
	seq uint64
	h   handler
}

// registry is a concurrency-safe multi-map from message key to handlers.
// Caller goroutines register and unregister while the reader goroutine
// dispatches; delivery order is registration order. The lock is never
// held across a handler invocation: dispatch snapshots the handler list
// first, so handlers registered mid-dispatch do not see the in-flight
// payload.
type registry struct {
	mu       sync.Mutex
	nextSeq  uint64
	handlers map[ubx.Key][]registryEntry
}

func (r *registry) register(key ubx.Key, h handler) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.handlers == nil {
		r.handlers = make(map[ubx.Key][]registryEntry)
	}
	r.nextSeq++
	r.handlers[key] = append(r.handlers[key], registryEntry{seq: r.nextSeq, h: h})

	return Handle{key: key, seq: r.nextSeq}
}

// unregister removes the handler if still present. Removing an already
// removed handle is a no-op.
func (r *registry) unregister(handle Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.handlers[handle.key]
	for i, entry := range entries {
		if entry.seq != handle.seq {
			continue
		}
		entries = append(entries[:i], entries[i+1:]...)
		if len(entries) == 0 {
			delete(r.handlers, handle.key)
		} else {
			r.handlers[handle.key] = entries
		}

		return
	}
}

func (r *registry) dispatch(key ubx.Key, payload []byte) {
	r.mu.Lock()
	entries := r.handlers[key]
	snapshot := make([]handler, len(entries))
	for i, entry := range entries {
		snapshot[i] = entry.h
	}
	r.mu.Unlock()

	for _, h := range snapshot {
		h.deliver(payload)
	}
}
