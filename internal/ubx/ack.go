package ubx

import "fmt"

// AckAck is the positive acknowledge (ACK-ACK) answering a CFG request.
type AckAck struct {
	ClsID byte
	MsgID byte
}

func (m *AckAck) Key() Key {
	return Key{Class: ClassAck, ID: IDAckAck}
}

func (m *AckAck) MarshalPayload() ([]byte, error) {
	return []byte{m.ClsID, m.MsgID}, nil
}

func (m *AckAck) UnmarshalPayload(payload []byte) error {
	if len(payload) != 2 {
		return fmt.Errorf("ack-ack payload length: %d", len(payload))
	}
	m.ClsID = payload[0]
	m.MsgID = payload[1]

	return nil
}

// AckNak is the negative acknowledge (ACK-NAK) answering a CFG request.
type AckNak struct {
	ClsID byte
	MsgID byte
}

func (m *AckNak) Key() Key {
	return Key{Class: ClassAck, ID: IDAckNak}
}

func (m *AckNak) MarshalPayload() ([]byte, error) {
	return []byte{m.ClsID, m.MsgID}, nil
}

func (m *AckNak) UnmarshalPayload(payload []byte) error {
	if len(payload) != 2 {
		return fmt.Errorf("ack-nak payload length: %d", len(payload))
	}
	m.ClsID = payload[0]
	m.MsgID = payload[1]

	return nil
}
