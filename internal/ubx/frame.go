package ubx

import (
	"encoding/binary"
	"fmt"
	"math"
)

// UBX wire layout: two sync bytes, class, id, little-endian payload length,
// payload, then a two-byte 8-bit Fletcher checksum covering class..payload.
const (
	sync1 = 0xB5
	sync2 = 0x62

	headerLen  = 6
	trailerLen = 2

	// MaxPayloadLen bounds inbound payloads so a corrupted length field
	// cannot force a huge allocation.
	MaxPayloadLen = 8192
)

// Key identifies a UBX message type on the wire.
type Key struct {
	Class byte
	ID    byte
}

func (k Key) String() string {
	return fmt.Sprintf("%02X-%02X", k.Class, k.ID)
}

// Frame is one complete protocol message extracted from the byte stream.
type Frame struct {
	Key     Key
	Payload []byte
}

// EncodeFrame wraps a payload in UBX framing for the given key.
func EncodeFrame(key Key, payload []byte) ([]byte, error) {
	if len(payload) > math.MaxUint16 {
		return nil, fmt.Errorf("payload too large: %d", len(payload))
	}

	frame := make([]byte, headerLen+len(payload)+trailerLen)
	frame[0] = sync1
	frame[1] = sync2
	frame[2] = key.Class
	frame[3] = key.ID
	// #nosec G115 -- length is bounded by math.MaxUint16 above.
	binary.LittleEndian.PutUint16(frame[4:6], uint16(len(payload)))
	copy(frame[headerLen:], payload)

	ckA, ckB := checksum(frame[2 : headerLen+len(payload)])
	frame[headerLen+len(payload)] = ckA
	frame[headerLen+len(payload)+1] = ckB

	return frame, nil
}

func checksum(data []byte) (byte, byte) {
	var ckA, ckB byte
	for _, b := range data {
		ckA += b
		ckB += ckA
	}

	return ckA, ckB
}

// ScanStatus is the outcome of one Scanner.Next call.
type ScanStatus int

const (
	// ScanComplete means a well-formed frame was extracted.
	ScanComplete ScanStatus = iota
	// ScanIncomplete means more bytes are needed; buffered data is kept.
	ScanIncomplete
	// ScanInvalid means a malformed candidate was discarded; call Next
	// again, more data may still be buffered.
	ScanInvalid
)

// Scanner accumulates raw transport bytes and extracts UBX frames,
// resynchronizing on garbage between frames.
type Scanner struct {
	buf []byte
}

// Push appends a raw chunk read from the transport.
func (s *Scanner) Push(chunk []byte) {
	s.buf = append(s.buf, chunk...)
}

// Pending reports how many bytes are buffered but not yet consumed.
func (s *Scanner) Pending() int {
	return len(s.buf)
}

// Next tries to extract the next complete frame from the buffer. The
// returned payload is a copy and stays valid after further Push calls.
func (s *Scanner) Next() (Frame, ScanStatus) {
	s.resync()

	if len(s.buf) < 2 {
		return Frame{}, ScanIncomplete
	}
	if s.buf[1] != sync2 {
		s.drop(1)

		return Frame{}, ScanInvalid
	}
	if len(s.buf) < headerLen {
		return Frame{}, ScanIncomplete
	}

	payloadLen := int(binary.LittleEndian.Uint16(s.buf[4:6]))
	if payloadLen > MaxPayloadLen {
		s.drop(2)

		return Frame{}, ScanInvalid
	}

	total := headerLen + payloadLen + trailerLen
	if len(s.buf) < total {
		return Frame{}, ScanIncomplete
	}

	ckA, ckB := checksum(s.buf[2 : headerLen+payloadLen])
	if ckA != s.buf[headerLen+payloadLen] || ckB != s.buf[headerLen+payloadLen+1] {
		// A valid frame may start inside the corrupted span, so only the
		// sync bytes are dropped before rescanning.
		s.drop(2)

		return Frame{}, ScanInvalid
	}

	frame := Frame{
		Key:     Key{Class: s.buf[2], ID: s.buf[3]},
		Payload: append([]byte(nil), s.buf[headerLen:headerLen+payloadLen]...),
	}
	s.drop(total)

	return frame, ScanComplete
}

func (s *Scanner) resync() {
	start := 0
	for start < len(s.buf) && s.buf[start] != sync1 {
		start++
	}
	if start > 0 {
		s.drop(start)
	}
}

func (s *Scanner) drop(n int) {
	remaining := copy(s.buf, s.buf[n:])
	s.buf = s.buf[:remaining]
}
