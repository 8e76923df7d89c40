package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ubxgo/internal/transport"
	"ubxgo/internal/ubx"
)

const (
	// DefaultAckTimeout bounds how long Configure waits for ACK/NAK.
	DefaultAckTimeout = time.Second

	// writerSize bounds one encoded outbound frame.
	writerSize = 1024

	readChunkSize = 4096
)

// FrameObserver is notified of every complete frame crossing the session,
// for diagnostics. It runs on the reader goroutine for inbound frames and
// on the caller goroutine for outbound ones, so it must be fast and must
// not block.
type FrameObserver func(inbound bool, key ubx.Key, size int)

// Session is the correlation and dispatch engine between one receiver
// byte stream and any number of caller goroutines. A single reader
// goroutine feeds inbound frames to registered handlers and resolves
// acknowledge latches; callers send requests and block on their own
// latches or waiters, never on each other.
type Session struct {
	logger   *slog.Logger
	timeout  time.Duration
	observer FrameObserver

	mu           sync.Mutex
	tr           transport.Transport
	cancelReader context.CancelFunc
	readerDone   chan struct{}
	configured   bool
	baudRate     uint32
	uartIn       uint16
	uartOut      uint16

	closeOnce sync.Once
	closed    chan struct{}

	registry registry
	acks     ackTable
}

func New(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		logger:  logger.With("component", "session"),
		timeout: DefaultAckTimeout,
		closed:  make(chan struct{}),
	}
}

// SetAckTimeout overrides the default acknowledge/read timeout. Must be
// called before operations begin.
func (s *Session) SetAckTimeout(timeout time.Duration) {
	if timeout > 0 {
		s.timeout = timeout
	}
}

// SetFrameObserver installs a diagnostics hook. Must be called before
// Initialize.
func (s *Session) SetFrameObserver(observer FrameObserver) {
	s.observer = observer
}

// Initialize binds a connected transport and starts the reader goroutine.
// Calling it on an initialized session is a no-op.
func (s *Session) Initialize(ctx context.Context, tr transport.Transport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tr != nil {
		return nil
	}
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}

	if err := tr.Connect(ctx); err != nil {
		return fmt.Errorf("connect transport: %w", err)
	}

	readerCtx, cancel := context.WithCancel(context.Background())
	s.tr = tr
	s.cancelReader = cancel
	s.readerDone = make(chan struct{})
	go s.runReader(readerCtx, tr, s.readerDone)
	s.logger.Info("initialized", "transport", tr.Name())

	return nil
}

// Close detaches the transport, stops the reader, and releases every
// caller blocked in Configure, Read, or PollAndRead. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	tr := s.tr
	cancel := s.cancelReader
	readerDone := s.readerDone
	s.tr = nil
	s.cancelReader = nil
	s.configured = false
	s.mu.Unlock()

	s.closeOnce.Do(func() {
		close(s.closed)
	})

	if tr == nil {
		return nil
	}

	cancel()
	err := tr.Close()
	<-readerDone
	s.logger.Info("closed")

	return err
}

func (s *Session) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tr != nil
}

func (s *Session) IsConfigured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tr != nil && s.configured
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tr != nil && s.tr.Connected()
}

// UARTParams reports the port settings recorded by ConfigUART1.
func (s *Session) UARTParams() (baudRate uint32, inProtoMask, outProtoMask uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.baudRate, s.uartIn, s.uartOut
}

// Configure sends a configuration message. With wait true the call arms
// an acknowledge latch before sending (a fast reply cannot be missed) and
// blocks until ACK, NAK, timeout, or shutdown. With wait false it returns
// as soon as the bytes are handed to the transport.
func (s *Session) Configure(ctx context.Context, msg ubx.Message, wait bool) error {
	tr, err := s.currentTransport()
	if err != nil {
		return err
	}

	var latch *ackLatch
	if wait {
		latch = s.acks.arm(msg.Key())
		defer s.acks.cancel(latch)
	}

	raw, err := ubx.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Key(), err)
	}
	if len(raw) > writerSize {
		return fmt.Errorf("encoded %s frame exceeds writer size: %d", msg.Key(), len(raw))
	}

	if err := s.send(ctx, tr, msg.Key(), raw); err != nil {
		return err
	}
	if !wait {
		return nil
	}

	return latch.wait(s.timeout, s.closed)
}

// Poll requests the receiver's current value of the given message type.
// An empty payload polls the whole message; some types (CFG-PRT) take a
// selector payload. Fire-and-forget: the answer arrives through the
// registry like any other frame.
func (s *Session) Poll(ctx context.Context, classID, messageID byte, payload []byte) error {
	tr, err := s.currentTransport()
	if err != nil {
		return err
	}

	key := ubx.Key{Class: classID, ID: messageID}
	raw, err := ubx.EncodeFrame(key, payload)
	if err != nil {
		return fmt.Errorf("encode %s poll: %w", key, err)
	}
	if len(raw) > writerSize {
		return fmt.Errorf("encoded %s poll exceeds writer size: %d", key, len(raw))
	}

	return s.send(ctx, tr, key, raw)
}

// Unsubscribe cancels a persistent subscription. Safe to call more than
// once and concurrently with dispatch.
func (s *Session) Unsubscribe(handle Handle) {
	s.registry.unregister(handle)
}

func (s *Session) send(ctx context.Context, tr transport.Transport, key ubx.Key, raw []byte) error {
	if err := tr.Write(ctx, raw); err != nil {
		return fmt.Errorf("send %s: %w", key, err)
	}
	if s.observer != nil {
		s.observer(false, key, len(raw))
	}

	return nil
}

func (s *Session) currentTransport() (transport.Transport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tr == nil {
		return nil, ErrNotInitialized
	}

	return s.tr, nil
}

func (s *Session) markConfigured(configured bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configured = configured
}

func (s *Session) recordUARTParams(baudRate uint32, inProtoMask, outProtoMask uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baudRate = baudRate
	s.uartIn = inProtoMask
	s.uartOut = outProtoMask
}

// runReader is the single reader goroutine: transport chunks go through
// the frame scanner, complete frames to the ack table or the registry.
// It must never block on caller-side state.
func (s *Session) runReader(ctx context.Context, tr transport.Transport, done chan struct{}) {
	defer close(done)

	var scanner ubx.Scanner
	buf := make([]byte, readChunkSize)
	for {
		if ctx.Err() != nil {
			return
		}

		n, err := tr.Read(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("transport read failed", "error", err)

			return
		}
		if n == 0 {
			continue
		}

		scanner.Push(buf[:n])
		for {
			frame, status := scanner.Next()
			if status == ubx.ScanIncomplete {
				break
			}
			if status == ubx.ScanInvalid {
				s.logger.Debug("discarded malformed frame bytes", "pending", scanner.Pending())

				continue
			}
			s.handleFrame(frame)
		}
	}
}

func (s *Session) handleFrame(frame ubx.Frame) {
	if s.observer != nil {
		s.observer(true, frame.Key, len(frame.Payload))
	}

	if frame.Key.Class == ubx.ClassAck {
		s.handleAck(frame)

		return
	}

	s.registry.dispatch(frame.Key, frame.Payload)
}

func (s *Session) handleAck(frame ubx.Frame) {
	if len(frame.Payload) != 2 {
		s.logger.Debug("malformed acknowledge payload", "key", frame.Key, "len", len(frame.Payload))

		return
	}

	answered := ubx.Key{Class: frame.Payload[0], ID: frame.Payload[1]}
	positive := frame.Key.ID == ubx.IDAckAck
	if !s.acks.resolve(answered, positive) {
		s.logger.Debug("acknowledge without pending request", "answered", answered, "positive", positive)
	}
}

// Read blocks for the next inbound frame of type T. The waiter is
// registered immediately and removed unconditionally on return, so a
// timed-out call leaves no residual registry entry. Frames dispatched
// before registration are not buffered.
func Read[T any, PT msgPtr[T]](s *Session, timeout time.Duration) (T, error) {
	var zero T
	if !s.IsInitialized() {
		return zero, ErrNotInitialized
	}
	if timeout <= 0 {
		timeout = s.timeout
	}

	key := PT(&zero).Key()
	var result T
	w := newWaiter(func(payload []byte) bool {
		var msg T
		if err := PT(&msg).UnmarshalPayload(payload); err != nil {
			s.logger.Debug("read decode failed", "key", key, "error", err)

			return false
		}
		result = msg

		return true
	})

	handle := s.registry.register(key, w)
	defer s.registry.unregister(handle)

	if err := w.wait(timeout, s.closed); err != nil {
		return zero, err
	}

	return result, nil
}

// PollAndRead polls for T and waits for the answer. The waiter is
// registered before the poll request is sent, closing the window in
// which a fast answer could be lost between send and registration.
func PollAndRead[T any, PT msgPtr[T]](ctx context.Context, s *Session, timeout time.Duration) (T, error) {
	return PollAndReadWith[T, PT](ctx, s, nil, timeout)
}

// PollAndReadWith is PollAndRead with a poll selector payload, for
// message types polled per instance (CFG-PRT takes a port id).
func PollAndReadWith[T any, PT msgPtr[T]](ctx context.Context, s *Session, payload []byte, timeout time.Duration) (T, error) {
	var zero T
	if !s.IsInitialized() {
		return zero, ErrNotInitialized
	}
	if timeout <= 0 {
		timeout = s.timeout
	}

	key := PT(&zero).Key()
	var result T
	w := newWaiter(func(payload []byte) bool {
		var msg T
		if err := PT(&msg).UnmarshalPayload(payload); err != nil {
			s.logger.Debug("poll decode failed", "key", key, "error", err)

			return false
		}
		result = msg

		return true
	})

	handle := s.registry.register(key, w)
	defer s.registry.unregister(handle)

	if err := s.Poll(ctx, key.Class, key.ID, payload); err != nil {
		return zero, err
	}

	if err := w.wait(timeout, s.closed); err != nil {
		return zero, err
	}

	return result, nil
}

// Subscribe registers a persistent callback for every inbound frame of
// type T until the returned handle is passed to Unsubscribe.
func Subscribe[T any, PT msgPtr[T]](s *Session, cb func(T)) (Handle, error) {
	if !s.IsInitialized() {
		return Handle{}, ErrNotInitialized
	}

	var zero T
	key := PT(&zero).Key()
	h := &subscription[T, PT]{cb: cb, logger: s.logger}

	return s.registry.register(key, h), nil
}

// SubscribeRate first asks the receiver to emit T periodically via
// CFG-MSG, then subscribes. A rejected or unanswered rate command creates
// no subscription.
func SubscribeRate[T any, PT msgPtr[T]](ctx context.Context, s *Session, cb func(T), rate uint8) (Handle, error) {
	var zero T
	key := PT(&zero).Key()
	if err := s.SetRate(ctx, key.Class, key.ID, rate); err != nil {
		return Handle{}, err
	}

	return Subscribe[T, PT](s, cb)
}
