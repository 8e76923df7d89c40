package session

import (
	"log/slog"
	"time"

	"ubxgo/internal/ubx"
)

// msgPtr constrains PT to a pointer to T implementing ubx.Message, so
// generic operations can decode payloads into caller-visible types.
type msgPtr[T any] interface {
	*T
	ubx.Message
}

// handler receives raw payloads for one registry key. Implementations
// are invoked only from the session reader goroutine.
type handler interface {
	deliver(payload []byte)
}

// subscription is a persistent handler: every matching payload is decoded
// and handed to the user callback until the subscription is cancelled.
// A payload that fails to decode is dropped for this handler only.
type subscription[T any, PT msgPtr[T]] struct {
	cb     func(T)
	logger *slog.Logger
}

func (h *subscription[T, PT]) deliver(payload []byte) {
	var msg T
	if err := PT(&msg).UnmarshalPayload(payload); err != nil {
		h.logger.Debug("subscription decode failed", "key", PT(&msg).Key(), "error", err)

		return
	}
	h.cb(msg)
}

// waiter is a one-shot handler used by Read and PollAndRead. The first
// successfully decoded payload is stored and the waiting caller released;
// later deliveries are ignored.
type waiter struct {
	// decode stores the payload into the caller's destination and
	// reports success. Runs on the reader goroutine only.
	decode   func(payload []byte) bool
	done     chan struct{}
	consumed bool
}

func newWaiter(decode func(payload []byte) bool) *waiter {
	return &waiter{
		decode: decode,
		done:   make(chan struct{}),
	}
}

func (w *waiter) deliver(payload []byte) {
	if w.consumed {
		return
	}
	if !w.decode(payload) {
		return
	}
	w.consumed = true
	close(w.done)
}

// wait blocks until delivery, timeout, or session shutdown. The decoded
// value is safe to read by the caller once wait returns nil.
func (w *waiter) wait(timeout time.Duration, closed <-chan struct{}) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.done:
		return nil
	case <-closed:
		return ErrClosed
	case <-timer.C:
		return ErrTimeout
	}
}
