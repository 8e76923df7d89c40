package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Reads wake up at this interval so a blocked reader can notice context
// cancellation and baud changes.
const defaultSerialReadTimeout = 300 * time.Millisecond

// SerialTransport talks to a receiver over a local serial port.
type SerialTransport struct {
	portName string
	baudRate int

	mu      sync.Mutex
	port    serial.Port
	writeMu sync.Mutex
}

func NewSerialTransport(portName string, baudRate int) *SerialTransport {
	return &SerialTransport{
		portName: portName,
		baudRate: baudRate,
	}
}

func (t *SerialTransport) Name() string {
	return "serial"
}

func (t *SerialTransport) PortName() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.portName
}

func (t *SerialTransport) BaudRate() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.baudRate
}

func (t *SerialTransport) StatusTarget() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.portName
}

func (t *SerialTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.port != nil
}

func (t *SerialTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.portName == "" {
		return errors.New("serial port is empty")
	}
	if t.baudRate <= 0 {
		return fmt.Errorf("invalid serial baud rate: %d", t.baudRate)
	}

	port, err := serial.Open(t.portName, &serial.Mode{BaudRate: t.baudRate})
	if err != nil {
		return fmt.Errorf("open serial port %q: %w", t.portName, err)
	}
	if err := port.SetReadTimeout(defaultSerialReadTimeout); err != nil {
		_ = port.Close()

		return fmt.Errorf("set serial read timeout: %w", err)
	}
	t.port = port
	transportLogger("serial", "port", t.portName).Info("opened", "baud", t.baudRate)

	return nil
}

// SetBaudRate reconfigures the open port. Used after a CFG-PRT command
// switched the receiver to a different rate.
func (t *SerialTransport) SetBaudRate(baudRate int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if baudRate <= 0 {
		return fmt.Errorf("invalid serial baud rate: %d", baudRate)
	}
	t.baudRate = baudRate
	if t.port == nil {
		return nil
	}
	if err := t.port.SetMode(&serial.Mode{BaudRate: baudRate}); err != nil {
		return fmt.Errorf("set serial baud rate: %w", err)
	}
	transportLogger("serial", "port", t.portName).Info("baud changed", "baud", baudRate)

	return nil
}

func (t *SerialTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil

	return err
}

// Read returns the next chunk from the port. A zero count with nil error
// means the poll timeout elapsed without data.
func (t *SerialTransport) Read(ctx context.Context, buf []byte) (int, error) {
	port, err := t.currentPort()
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return port.Read(buf)
}

func (t *SerialTransport) Write(ctx context.Context, buf []byte) error {
	port, err := t.currentPort()
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	written := 0
	for written < len(buf) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := port.Write(buf[written:])
		if err != nil {
			return fmt.Errorf("write serial: %w", err)
		}
		if n == 0 {
			continue
		}
		written += n
	}

	return nil
}

func (t *SerialTransport) currentPort() (serial.Port, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil, errors.New("transport is not connected")
	}

	return t.port, nil
}
