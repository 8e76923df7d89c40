package ubx

// UBX class identifiers used by this driver.
const (
	ClassNav   = 0x01
	ClassRxm   = 0x02
	ClassAck   = 0x05
	ClassCfg   = 0x06
	ClassMon   = 0x0A
	ClassRtcm3 = 0xF5
)

// Message identifiers, grouped by class.
const (
	IDAckNak = 0x00
	IDAckAck = 0x01

	IDCfgPrt    = 0x00
	IDCfgMsg    = 0x01
	IDCfgRst    = 0x04
	IDCfgRate   = 0x08
	IDCfgSbas   = 0x16
	IDCfgNavX5  = 0x23
	IDCfgNav5   = 0x24
	IDCfgDgnss  = 0x70
	IDCfgTmode3 = 0x71

	IDNavPosLLH = 0x02
	IDNavStatus = 0x03
	IDNavPvt    = 0x07
	IDNavSvin   = 0x3B

	IDMonVer = 0x04
)

// Message is a typed UBX message that knows its wire key and payload codec.
type Message interface {
	Key() Key
	MarshalPayload() ([]byte, error)
	UnmarshalPayload(payload []byte) error
}

// Encode marshals a typed message and wraps it in UBX framing.
func Encode(msg Message) ([]byte, error) {
	payload, err := msg.MarshalPayload()
	if err != nil {
		return nil, err
	}

	return EncodeFrame(msg.Key(), payload)
}
