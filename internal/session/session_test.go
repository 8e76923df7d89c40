package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"ubxgo/internal/ubx"
)

// fakeTransport feeds scripted inbound chunks to the reader goroutine and
// records everything the session sends.
type fakeTransport struct {
	inbound chan []byte

	mu   sync.Mutex
	sent [][]byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbound: make(chan []byte, 16)}
}

func (t *fakeTransport) Name() string { return "fake" }

func (t *fakeTransport) Connect(_ context.Context) error { return nil }

func (t *fakeTransport) Close() error { return nil }

func (t *fakeTransport) Connected() bool { return true }

func (t *fakeTransport) Read(ctx context.Context, buf []byte) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case chunk, ok := <-t.inbound:
		if !ok {
			return 0, io.EOF
		}

		return copy(buf, chunk), nil
	case <-time.After(10 * time.Millisecond):
		return 0, nil
	}
}

func (t *fakeTransport) Write(_ context.Context, buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, append([]byte(nil), buf...))

	return nil
}

func (t *fakeTransport) sentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.sent)
}

func (t *fakeTransport) sentFrame(i int) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.sent[i]
}

func (t *fakeTransport) inject(t2 *testing.T, msg ubx.Message) {
	t2.Helper()
	raw, err := ubx.Encode(msg)
	if err != nil {
		t2.Fatalf("encode injected frame: %v", err)
	}
	t.inbound <- raw
}

func (t *fakeTransport) waitForSend(t2 *testing.T, n int) {
	t2.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for t.sentCount() < n {
		if time.Now().After(deadline) {
			t2.Fatalf("timed out waiting for %d sends, got %d", n, t.sentCount())
		}
		time.Sleep(time.Millisecond)
	}
}

func newTestSession(t *testing.T) (*Session, *fakeTransport) {
	t.Helper()
	tr := newFakeTransport()
	s := New(nil)
	s.SetAckTimeout(200 * time.Millisecond)
	if err := s.Initialize(context.Background(), tr); err != nil {
		t.Fatalf("initialize session: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s, tr
}

func waitForCondition(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestConfigureSucceedsOnPositiveAcknowledge(t *testing.T) {
	s, tr := newTestSession(t)

	result := make(chan error, 1)
	go func() {
		result <- s.ConfigRate(context.Background(), 1000, 1)
	}()

	tr.waitForSend(t, 1)
	tr.inject(t, &ubx.AckAck{ClsID: ubx.ClassCfg, MsgID: ubx.IDCfgRate})

	if err := <-result; err != nil {
		t.Fatalf("expected ack to succeed, got %v", err)
	}
}

func TestConfigureFailsWithNackError(t *testing.T) {
	s, tr := newTestSession(t)

	result := make(chan error, 1)
	go func() {
		result <- s.SetDynamicModel(context.Background(), ubx.DynModelAirborne4)
	}()

	tr.waitForSend(t, 1)
	tr.inject(t, &ubx.AckNak{ClsID: ubx.ClassCfg, MsgID: ubx.IDCfgNav5})

	if err := <-result; !errors.Is(err, ErrNack) {
		t.Fatalf("expected ErrNack, got %v", err)
	}
}

func TestConfigureTimesOutWithoutAnswerAndLeavesNoLatch(t *testing.T) {
	s, _ := newTestSession(t)
	s.SetAckTimeout(50 * time.Millisecond)

	err := s.ConfigRate(context.Background(), 1000, 1)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	s.acks.mu.Lock()
	pending := len(s.acks.pending)
	s.acks.mu.Unlock()
	if pending != 0 {
		t.Fatalf("expected no pending latches after timeout, got %d", pending)
	}
}

func TestConfigureIgnoresAcknowledgeForOtherRequest(t *testing.T) {
	s, tr := newTestSession(t)
	s.SetAckTimeout(100 * time.Millisecond)

	result := make(chan error, 1)
	go func() {
		result <- s.ConfigRate(context.Background(), 1000, 1)
	}()

	tr.waitForSend(t, 1)
	tr.inject(t, &ubx.AckAck{ClsID: ubx.ClassCfg, MsgID: ubx.IDCfgMsg})

	if err := <-result; !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout for mismatched ack, got %v", err)
	}
}

func TestConfigureWithoutWaitReturnsOnceSent(t *testing.T) {
	s, tr := newTestSession(t)

	err := s.Configure(context.Background(), &ubx.CfgRate{MeasRate: 250, NavRate: 1}, false)
	if err != nil {
		t.Fatalf("fire-and-forget configure: %v", err)
	}
	if tr.sentCount() != 1 {
		t.Fatalf("expected one sent frame, got %d", tr.sentCount())
	}
}

func TestOperationsFailBeforeInitialize(t *testing.T) {
	s := New(nil)

	if err := s.ConfigRate(context.Background(), 1000, 1); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized from configure, got %v", err)
	}
	if err := s.Poll(context.Background(), ubx.ClassCfg, ubx.IDCfgRate, nil); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized from poll, got %v", err)
	}
	if _, err := Read[ubx.CfgRate](s, time.Second); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized from read, got %v", err)
	}
	if _, err := Subscribe[ubx.NavPvt](s, func(ubx.NavPvt) {}); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized from subscribe, got %v", err)
	}
}

func TestReadTimesOutAndLeavesRegistryClean(t *testing.T) {
	s, _ := newTestSession(t)

	start := time.Now()
	_, err := Read[ubx.CfgRate](s, 50*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("read returned too early: %s", elapsed)
	}

	s.registry.mu.Lock()
	remaining := len(s.registry.handlers)
	s.registry.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("expected empty registry after timeout, got %d keys", remaining)
	}
}

func TestPollAndReadDeliversAnswer(t *testing.T) {
	s, tr := newTestSession(t)

	type result struct {
		msg ubx.CfgRate
		err error
	}
	results := make(chan result, 1)
	go func() {
		msg, err := PollAndRead[ubx.CfgRate](context.Background(), s, time.Second)
		results <- result{msg: msg, err: err}
	}()

	tr.waitForSend(t, 1)
	tr.inject(t, &ubx.CfgRate{MeasRate: 1000, NavRate: 1, TimeRef: ubx.TimeRefGPS})

	got := <-results
	if got.err != nil {
		t.Fatalf("poll and read: %v", got.err)
	}
	if got.msg.MeasRate != 1000 || got.msg.NavRate != 1 {
		t.Fatalf("unexpected answer: %+v", got.msg)
	}

	// The poll request is an empty-payload frame for the polled key.
	poll := tr.sentFrame(0)
	want, err := ubx.EncodeFrame(ubx.Key{Class: ubx.ClassCfg, ID: ubx.IDCfgRate}, nil)
	if err != nil {
		t.Fatalf("encode expected poll: %v", err)
	}
	if string(poll) != string(want) {
		t.Fatalf("poll frame mismatch: got %x want %x", poll, want)
	}
}

func TestSubscriptionAndWaiterShareTheSameKey(t *testing.T) {
	s, tr := newTestSession(t)

	var mu sync.Mutex
	var seen []uint32
	handle, err := Subscribe[ubx.NavStatus](s, func(msg ubx.NavStatus) {
		mu.Lock()
		seen = append(seen, msg.ITow)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer s.Unsubscribe(handle)

	type result struct {
		msg ubx.NavStatus
		err error
	}
	results := make(chan result, 1)
	readReady := make(chan struct{})
	go func() {
		close(readReady)
		msg, err := Read[ubx.NavStatus](s, time.Second)
		results <- result{msg: msg, err: err}
	}()
	<-readReady
	// Give the reader goroutine a moment to register the waiter.
	waitForCondition(t, "waiter registration", func() bool {
		s.registry.mu.Lock()
		defer s.registry.mu.Unlock()

		return len(s.registry.handlers[ubx.Key{Class: ubx.ClassNav, ID: ubx.IDNavStatus}]) == 2
	})

	tr.inject(t, &ubx.NavStatus{ITow: 1})
	tr.inject(t, &ubx.NavStatus{ITow: 2})

	got := <-results
	if got.err != nil {
		t.Fatalf("read: %v", got.err)
	}
	if got.msg.ITow != 1 {
		t.Fatalf("waiter should deliver the first frame, got itow %d", got.msg.ITow)
	}

	waitForCondition(t, "both subscription deliveries", func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(seen) == 2
	})
	mu.Lock()
	defer mu.Unlock()
	if seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("subscription order mismatch: %v", seen)
	}
}

func TestSubscribeRateCreatesNoSubscriptionOnNack(t *testing.T) {
	s, tr := newTestSession(t)

	var calls int
	var mu sync.Mutex
	done := make(chan error, 1)
	go func() {
		_, err := SubscribeRate[ubx.NavPvt](context.Background(), s, func(ubx.NavPvt) {
			mu.Lock()
			calls++
			mu.Unlock()
		}, 1)
		done <- err
	}()

	tr.waitForSend(t, 1)
	tr.inject(t, &ubx.AckNak{ClsID: ubx.ClassCfg, MsgID: ubx.IDCfgMsg})

	if err := <-done; !errors.Is(err, ErrNack) {
		t.Fatalf("expected ErrNack, got %v", err)
	}

	tr.inject(t, &ubx.NavPvt{ITow: 7, FixType: ubx.FixType3D})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Fatalf("callback must not run after failed rate config, got %d calls", calls)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s, tr := newTestSession(t)

	var mu sync.Mutex
	var calls int
	handle, err := Subscribe[ubx.NavPosLLH](s, func(ubx.NavPosLLH) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	tr.inject(t, &ubx.NavPosLLH{ITow: 1})
	waitForCondition(t, "first delivery", func() bool {
		mu.Lock()
		defer mu.Unlock()

		return calls == 1
	})

	s.Unsubscribe(handle)
	s.Unsubscribe(handle) // removing twice is a no-op

	tr.inject(t, &ubx.NavPosLLH{ITow: 2})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected no delivery after unsubscribe, got %d calls", calls)
	}
}

func TestCloseUnblocksWaitingCallers(t *testing.T) {
	s, tr := newTestSession(t)
	s.SetAckTimeout(5 * time.Second)

	configureErr := make(chan error, 1)
	readErr := make(chan error, 1)
	go func() {
		configureErr <- s.ConfigRate(context.Background(), 1000, 1)
	}()
	go func() {
		_, err := Read[ubx.NavPvt](s, 5*time.Second)
		readErr <- err
	}()
	tr.waitForSend(t, 1)

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := <-configureErr; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from configure, got %v", err)
	}
	if err := <-readErr; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from read, got %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("second close must be a no-op, got %v", err)
	}
	if s.IsInitialized() {
		t.Fatalf("session must not report initialized after close")
	}
}

func TestMalformedFramesDoNotStopDispatch(t *testing.T) {
	s, tr := newTestSession(t)

	var mu sync.Mutex
	var calls int
	if _, err := Subscribe[ubx.NavStatus](s, func(ubx.NavStatus) {
		mu.Lock()
		calls++
		mu.Unlock()
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	good, err := ubx.Encode(&ubx.NavStatus{ITow: 42})
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	bad := append([]byte(nil), good...)
	bad[len(bad)-1] ^= 0xFF

	tr.inbound <- append(bad, good...)

	waitForCondition(t, "delivery after malformed frame", func() bool {
		mu.Lock()
		defer mu.Unlock()

		return calls == 1
	})
}

func TestFrameObserverSeesBothDirections(t *testing.T) {
	tr := newFakeTransport()
	s := New(nil)
	s.SetAckTimeout(100 * time.Millisecond)

	var mu sync.Mutex
	type observed struct {
		inbound bool
		key     ubx.Key
	}
	var events []observed
	s.SetFrameObserver(func(inbound bool, key ubx.Key, _ int) {
		mu.Lock()
		events = append(events, observed{inbound: inbound, key: key})
		mu.Unlock()
	})
	if err := s.Initialize(context.Background(), tr); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer s.Close()

	if err := s.Poll(context.Background(), ubx.ClassMon, ubx.IDMonVer, nil); err != nil {
		t.Fatalf("poll: %v", err)
	}
	tr.inject(t, &ubx.NavStatus{ITow: 9})

	waitForCondition(t, "observer events", func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(events) == 2
	})

	mu.Lock()
	defer mu.Unlock()
	if events[0].inbound || events[0].key.Class != ubx.ClassMon {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if !events[1].inbound || events[1].key.Class != ubx.ClassNav {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}
