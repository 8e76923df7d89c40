package session

import (
	"sync"
	"time"

	"ubxgo/internal/ubx"
)

// ackLatch is a single-use tri-state latch for one acknowledge-requiring
// request: pending until the reader goroutine resolves it positive or
// negative. One latch per Configure call removes the cross-call
// interference of a session-wide acknowledge field.
type ackLatch struct {
	key      ubx.Key
	done     chan struct{}
	positive bool // written by the resolving goroutine before close(done)
}

// wait blocks until the latch resolves, the timeout expires, or the
// session shuts down. A resolved latch returns immediately even if the
// answer arrived before wait was entered.
func (l *ackLatch) wait(timeout time.Duration, closed <-chan struct{}) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-l.done:
		if l.positive {
			return nil
		}

		return ErrNack
	case <-closed:
		return ErrClosed
	case <-timer.C:
		return ErrTimeout
	}
}

// ackTable correlates inbound ACK-ACK/ACK-NAK frames with outstanding
// requests by the acknowledged class/id. The UBX protocol carries no
// request token, so concurrent Configure calls for the same key stay
// ambiguous; latches for one key resolve oldest first.
type ackTable struct {
	mu      sync.Mutex
	pending map[ubx.Key][]*ackLatch
}

// arm registers a latch for the given request key. Must happen before the
// request bytes are sent so a fast reply cannot be missed.
func (t *ackTable) arm(key ubx.Key) *ackLatch {
	latch := &ackLatch{key: key, done: make(chan struct{})}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil {
		t.pending = make(map[ubx.Key][]*ackLatch)
	}
	t.pending[key] = append(t.pending[key], latch)

	return latch
}

// cancel removes a latch that is no longer waited on. Idempotent; a latch
// already resolved and popped by the reader is simply absent.
func (t *ackTable) cancel(latch *ackLatch) {
	t.mu.Lock()
	defer t.mu.Unlock()

	latches := t.pending[latch.key]
	for i, candidate := range latches {
		if candidate != latch {
			continue
		}
		latches = append(latches[:i], latches[i+1:]...)
		if len(latches) == 0 {
			delete(t.pending, latch.key)
		} else {
			t.pending[latch.key] = latches
		}

		return
	}
}

// resolve pops the oldest latch armed for the acknowledged key and
// releases its waiter. Reports whether any request was waiting.
func (t *ackTable) resolve(key ubx.Key, positive bool) bool {
	t.mu.Lock()
	latches := t.pending[key]
	if len(latches) == 0 {
		t.mu.Unlock()

		return false
	}
	latch := latches[0]
	if len(latches) == 1 {
		delete(t.pending, key)
	} else {
		t.pending[key] = latches[1:]
	}
	t.mu.Unlock()

	latch.positive = positive
	close(latch.done)

	return true
}
