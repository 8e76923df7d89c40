package ubx

import (
	"bytes"
	"fmt"
)

const (
	monVerFixedLen = 40
	monVerExtLen   = 30
)

// MonVer is the MON-VER receiver/software version report. It is normally
// polled once at startup to identify the connected device.
type MonVer struct {
	SWVersion  string
	HWVersion  string
	Extensions []string
}

func (m *MonVer) Key() Key {
	return Key{Class: ClassMon, ID: IDMonVer}
}

func (m *MonVer) MarshalPayload() ([]byte, error) {
	if len(m.SWVersion) >= 30 {
		return nil, fmt.Errorf("mon-ver sw version too long: %d", len(m.SWVersion))
	}
	if len(m.HWVersion) >= 10 {
		return nil, fmt.Errorf("mon-ver hw version too long: %d", len(m.HWVersion))
	}

	payload := make([]byte, monVerFixedLen+monVerExtLen*len(m.Extensions))
	copy(payload[0:30], m.SWVersion)
	copy(payload[30:40], m.HWVersion)
	for i, ext := range m.Extensions {
		if len(ext) >= monVerExtLen {
			return nil, fmt.Errorf("mon-ver extension too long: %d", len(ext))
		}
		copy(payload[monVerFixedLen+i*monVerExtLen:], ext)
	}

	return payload, nil
}

func (m *MonVer) UnmarshalPayload(payload []byte) error {
	if len(payload) < monVerFixedLen || (len(payload)-monVerFixedLen)%monVerExtLen != 0 {
		return fmt.Errorf("mon-ver payload length: %d", len(payload))
	}
	m.SWVersion = cString(payload[0:30])
	m.HWVersion = cString(payload[30:40])
	m.Extensions = nil
	for off := monVerFixedLen; off < len(payload); off += monVerExtLen {
		m.Extensions = append(m.Extensions, cString(payload[off:off+monVerExtLen]))
	}

	return nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(b)
}
