package ubx

import (
	"encoding/binary"
	"fmt"
)

// CFG-PRT port identifiers and protocol masks.
const (
	PortDDC   = 0
	PortUART1 = 1
	PortUSB   = 3
	PortSPI   = 4

	ProtoUBX   = 0x0001
	ProtoNMEA  = 0x0002
	ProtoRTCM  = 0x0004
	ProtoRTCM3 = 0x0020
)

// CFG-NAV5 parameter mask bits.
const (
	Nav5MaskDyn        = 0x0001
	Nav5MaskMinEl      = 0x0002
	Nav5MaskPosFixMode = 0x0004
	Nav5MaskDrLim      = 0x0008
	Nav5MaskPosMask    = 0x0010
	Nav5MaskTimeMask   = 0x0020
	Nav5MaskStaticHold = 0x0040
	Nav5MaskDgpsMask   = 0x0080
	Nav5MaskUTC        = 0x0400
)

// CFG-NAVX5 parameter mask bits.
const (
	NavX5Mask1PPP = 0x2000
	NavX5Mask2ADR = 0x0040
)

// CFG-TMODE3 receiver modes.
const (
	Tmode3Disabled = 0
	Tmode3SurveyIn = 1
	Tmode3Fixed    = 2

	tmode3FlagLLA = 0x0100
)

// CFG-DGNSS modes.
const (
	DgnssModeRTKFloat = 2
	DgnssModeRTKFixed = 3
)

// CFG-RATE time references.
const (
	TimeRefUTC = 0
	TimeRefGPS = 1
)

// CfgRate is the CFG-RATE navigation/measurement rate configuration.
type CfgRate struct {
	MeasRate uint16 // measurement period [ms]
	NavRate  uint16 // navigation solutions per measurement cycle
	TimeRef  uint16
}

func (m *CfgRate) Key() Key {
	return Key{Class: ClassCfg, ID: IDCfgRate}
}

func (m *CfgRate) MarshalPayload() ([]byte, error) {
	payload := make([]byte, 6)
	binary.LittleEndian.PutUint16(payload[0:2], m.MeasRate)
	binary.LittleEndian.PutUint16(payload[2:4], m.NavRate)
	binary.LittleEndian.PutUint16(payload[4:6], m.TimeRef)

	return payload, nil
}

func (m *CfgRate) UnmarshalPayload(payload []byte) error {
	if len(payload) != 6 {
		return fmt.Errorf("cfg-rate payload length: %d", len(payload))
	}
	m.MeasRate = binary.LittleEndian.Uint16(payload[0:2])
	m.NavRate = binary.LittleEndian.Uint16(payload[2:4])
	m.TimeRef = binary.LittleEndian.Uint16(payload[4:6])

	return nil
}

// CfgMsg sets the per-port emission rate of one message type.
type CfgMsg struct {
	MsgClass byte
	MsgID    byte
	Rate     byte
}

func (m *CfgMsg) Key() Key {
	return Key{Class: ClassCfg, ID: IDCfgMsg}
}

func (m *CfgMsg) MarshalPayload() ([]byte, error) {
	return []byte{m.MsgClass, m.MsgID, m.Rate}, nil
}

func (m *CfgMsg) UnmarshalPayload(payload []byte) error {
	if len(payload) != 3 && len(payload) != 8 {
		return fmt.Errorf("cfg-msg payload length: %d", len(payload))
	}
	m.MsgClass = payload[0]
	m.MsgID = payload[1]
	m.Rate = payload[2]

	return nil
}

// CfgNav5 carries the CFG-NAV5 navigation engine settings. Only fields
// selected by Mask are applied by the receiver.
type CfgNav5 struct {
	Mask              uint16
	DynModel          uint8
	FixMode           uint8
	FixedAlt          int32  // [cm]
	FixedAltVar       uint32 // [cm^2]
	MinElev           int8   // [deg]
	DRLimit           uint8  // [s]
	PDOP              uint16
	TDOP              uint16
	PAcc              uint16 // [m]
	TAcc              uint16 // [m]
	StaticHoldThresh  uint8  // [cm/s]
	DGNSSTimeout      uint8  // [s]
	CnoThreshNumSVs   uint8
	CnoThresh         uint8 // [dBHz]
	StaticHoldMaxDist uint16
	UTCStandard       uint8
}

func (m *CfgNav5) Key() Key {
	return Key{Class: ClassCfg, ID: IDCfgNav5}
}

func (m *CfgNav5) MarshalPayload() ([]byte, error) {
	payload := make([]byte, 36)
	binary.LittleEndian.PutUint16(payload[0:2], m.Mask)
	payload[2] = m.DynModel
	payload[3] = m.FixMode
	binary.LittleEndian.PutUint32(payload[4:8], uint32(m.FixedAlt))
	binary.LittleEndian.PutUint32(payload[8:12], m.FixedAltVar)
	payload[12] = byte(m.MinElev)
	payload[13] = m.DRLimit
	binary.LittleEndian.PutUint16(payload[14:16], m.PDOP)
	binary.LittleEndian.PutUint16(payload[16:18], m.TDOP)
	binary.LittleEndian.PutUint16(payload[18:20], m.PAcc)
	binary.LittleEndian.PutUint16(payload[20:22], m.TAcc)
	payload[22] = m.StaticHoldThresh
	payload[23] = m.DGNSSTimeout
	payload[24] = m.CnoThreshNumSVs
	payload[25] = m.CnoThresh
	binary.LittleEndian.PutUint16(payload[28:30], m.StaticHoldMaxDist)
	payload[30] = m.UTCStandard

	return payload, nil
}

func (m *CfgNav5) UnmarshalPayload(payload []byte) error {
	if len(payload) != 36 {
		return fmt.Errorf("cfg-nav5 payload length: %d", len(payload))
	}
	m.Mask = binary.LittleEndian.Uint16(payload[0:2])
	m.DynModel = payload[2]
	m.FixMode = payload[3]
	m.FixedAlt = int32(binary.LittleEndian.Uint32(payload[4:8]))
	m.FixedAltVar = binary.LittleEndian.Uint32(payload[8:12])
	m.MinElev = int8(payload[12])
	m.DRLimit = payload[13]
	m.PDOP = binary.LittleEndian.Uint16(payload[14:16])
	m.TDOP = binary.LittleEndian.Uint16(payload[16:18])
	m.PAcc = binary.LittleEndian.Uint16(payload[18:20])
	m.TAcc = binary.LittleEndian.Uint16(payload[20:22])
	m.StaticHoldThresh = payload[22]
	m.DGNSSTimeout = payload[23]
	m.CnoThreshNumSVs = payload[24]
	m.CnoThresh = payload[25]
	m.StaticHoldMaxDist = binary.LittleEndian.Uint16(payload[28:30])
	m.UTCStandard = payload[30]

	return nil
}

// CfgNavX5 carries the CFG-NAVX5 expert settings. Only the PPP and ADR
// switches are modeled, the rest of the payload is carried opaquely so a
// poll-modify-write cycle does not clobber receiver state.
type CfgNavX5 struct {
	Version uint16
	Mask1   uint16
	Mask2   uint32
	UsePPP  bool
	UseADR  bool

	raw [40]byte
}

func (m *CfgNavX5) Key() Key {
	return Key{Class: ClassCfg, ID: IDCfgNavX5}
}

func (m *CfgNavX5) MarshalPayload() ([]byte, error) {
	payload := make([]byte, 40)
	copy(payload, m.raw[:])
	binary.LittleEndian.PutUint16(payload[0:2], m.Version)
	binary.LittleEndian.PutUint16(payload[2:4], m.Mask1)
	binary.LittleEndian.PutUint32(payload[4:8], m.Mask2)
	payload[26] = 0
	if m.UsePPP {
		payload[26] = 1
	}
	payload[39] = 0
	if m.UseADR {
		payload[39] = 1
	}

	return payload, nil
}

func (m *CfgNavX5) UnmarshalPayload(payload []byte) error {
	if len(payload) != 40 {
		return fmt.Errorf("cfg-navx5 payload length: %d", len(payload))
	}
	copy(m.raw[:], payload)
	m.Version = binary.LittleEndian.Uint16(payload[0:2])
	m.Mask1 = binary.LittleEndian.Uint16(payload[2:4])
	m.Mask2 = binary.LittleEndian.Uint32(payload[4:8])
	m.UsePPP = payload[26] != 0
	m.UseADR = payload[39] != 0

	return nil
}

// CfgPrt is the CFG-PRT I/O port configuration.
type CfgPrt struct {
	PortID       uint8
	TxReady      uint16
	Mode         uint32
	BaudRate     uint32
	InProtoMask  uint16
	OutProtoMask uint16
	Flags        uint16
}

// PrtMode8N1 is the UART mode field for the usual 8 data bits, no parity,
// one stop bit setting.
const PrtMode8N1 = 0x000008D0

func (m *CfgPrt) Key() Key {
	return Key{Class: ClassCfg, ID: IDCfgPrt}
}

func (m *CfgPrt) MarshalPayload() ([]byte, error) {
	payload := make([]byte, 20)
	payload[0] = m.PortID
	binary.LittleEndian.PutUint16(payload[2:4], m.TxReady)
	binary.LittleEndian.PutUint32(payload[4:8], m.Mode)
	binary.LittleEndian.PutUint32(payload[8:12], m.BaudRate)
	binary.LittleEndian.PutUint16(payload[12:14], m.InProtoMask)
	binary.LittleEndian.PutUint16(payload[14:16], m.OutProtoMask)
	binary.LittleEndian.PutUint16(payload[16:18], m.Flags)

	return payload, nil
}

func (m *CfgPrt) UnmarshalPayload(payload []byte) error {
	if len(payload) != 20 {
		return fmt.Errorf("cfg-prt payload length: %d", len(payload))
	}
	m.PortID = payload[0]
	m.TxReady = binary.LittleEndian.Uint16(payload[2:4])
	m.Mode = binary.LittleEndian.Uint32(payload[4:8])
	m.BaudRate = binary.LittleEndian.Uint32(payload[8:12])
	m.InProtoMask = binary.LittleEndian.Uint16(payload[12:14])
	m.OutProtoMask = binary.LittleEndian.Uint16(payload[14:16])
	m.Flags = binary.LittleEndian.Uint16(payload[16:18])

	return nil
}

// CfgDgnss selects the CFG-DGNSS differential corrections mode.
type CfgDgnss struct {
	DgnssMode uint8
}

func (m *CfgDgnss) Key() Key {
	return Key{Class: ClassCfg, ID: IDCfgDgnss}
}

func (m *CfgDgnss) MarshalPayload() ([]byte, error) {
	payload := make([]byte, 4)
	payload[0] = m.DgnssMode

	return payload, nil
}

func (m *CfgDgnss) UnmarshalPayload(payload []byte) error {
	if len(payload) != 4 {
		return fmt.Errorf("cfg-dgnss payload length: %d", len(payload))
	}
	m.DgnssMode = payload[0]

	return nil
}

// CfgSbas is the CFG-SBAS satellite-based augmentation configuration.
type CfgSbas struct {
	Mode      uint8
	Usage     uint8
	MaxSBAS   uint8
	Scanmode2 uint8
	Scanmode1 uint32
}

// CFG-SBAS mode bits.
const (
	SbasModeEnabled = 0x01
	SbasModeTest    = 0x02
)

func (m *CfgSbas) Key() Key {
	return Key{Class: ClassCfg, ID: IDCfgSbas}
}

func (m *CfgSbas) MarshalPayload() ([]byte, error) {
	payload := make([]byte, 8)
	payload[0] = m.Mode
	payload[1] = m.Usage
	payload[2] = m.MaxSBAS
	payload[3] = m.Scanmode2
	binary.LittleEndian.PutUint32(payload[4:8], m.Scanmode1)

	return payload, nil
}

func (m *CfgSbas) UnmarshalPayload(payload []byte) error {
	if len(payload) != 8 {
		return fmt.Errorf("cfg-sbas payload length: %d", len(payload))
	}
	m.Mode = payload[0]
	m.Usage = payload[1]
	m.MaxSBAS = payload[2]
	m.Scanmode2 = payload[3]
	m.Scanmode1 = binary.LittleEndian.Uint32(payload[4:8])

	return nil
}

// CfgTmode3 is the CFG-TMODE3 time mode configuration used by base
// stations: disabled, survey-in, or a fixed antenna reference point.
type CfgTmode3 struct {
	Version      uint8
	Flags        uint16
	ECEFXOrLat   int32
	ECEFYOrLon   int32
	ECEFZOrAlt   int32
	ECEFXOrLatHP int8
	ECEFYOrLonHP int8
	ECEFZOrAltHP int8
	FixedPosAcc  uint32 // [0.1 mm]
	SvinMinDur   uint32 // [s]
	SvinAccLimit uint32 // [0.1 mm]
}

func (m *CfgTmode3) Key() Key {
	return Key{Class: ClassCfg, ID: IDCfgTmode3}
}

// SetMode stores the receiver mode and coordinate frame in Flags.
func (m *CfgTmode3) SetMode(mode uint16, lla bool) {
	m.Flags = mode & 0x00FF
	if lla {
		m.Flags |= tmode3FlagLLA
	}
}

func (m *CfgTmode3) Mode() uint16 {
	return m.Flags & 0x00FF
}

func (m *CfgTmode3) IsLLA() bool {
	return m.Flags&tmode3FlagLLA != 0
}

func (m *CfgTmode3) MarshalPayload() ([]byte, error) {
	payload := make([]byte, 40)
	payload[0] = m.Version
	binary.LittleEndian.PutUint16(payload[2:4], m.Flags)
	binary.LittleEndian.PutUint32(payload[4:8], uint32(m.ECEFXOrLat))
	binary.LittleEndian.PutUint32(payload[8:12], uint32(m.ECEFYOrLon))
	binary.LittleEndian.PutUint32(payload[12:16], uint32(m.ECEFZOrAlt))
	payload[16] = byte(m.ECEFXOrLatHP)
	payload[17] = byte(m.ECEFYOrLonHP)
	payload[18] = byte(m.ECEFZOrAltHP)
	binary.LittleEndian.PutUint32(payload[20:24], m.FixedPosAcc)
	binary.LittleEndian.PutUint32(payload[24:28], m.SvinMinDur)
	binary.LittleEndian.PutUint32(payload[28:32], m.SvinAccLimit)

	return payload, nil
}

func (m *CfgTmode3) UnmarshalPayload(payload []byte) error {
	if len(payload) != 40 {
		return fmt.Errorf("cfg-tmode3 payload length: %d", len(payload))
	}
	m.Version = payload[0]
	m.Flags = binary.LittleEndian.Uint16(payload[2:4])
	m.ECEFXOrLat = int32(binary.LittleEndian.Uint32(payload[4:8]))
	m.ECEFYOrLon = int32(binary.LittleEndian.Uint32(payload[8:12]))
	m.ECEFZOrAlt = int32(binary.LittleEndian.Uint32(payload[12:16]))
	m.ECEFXOrLatHP = int8(payload[16])
	m.ECEFYOrLonHP = int8(payload[17])
	m.ECEFZOrAltHP = int8(payload[18])
	m.FixedPosAcc = binary.LittleEndian.Uint32(payload[20:24])
	m.SvinMinDur = binary.LittleEndian.Uint32(payload[24:28])
	m.SvinAccLimit = binary.LittleEndian.Uint32(payload[28:32])

	return nil
}

// CfgRst requests a receiver reset. The receiver does not acknowledge it.
type CfgRst struct {
	NavBbrMask uint16
	ResetMode  uint8
}

// CFG-RST reset modes.
const (
	ResetHardware     = 0x00
	ResetSoftware     = 0x01
	ResetSoftwareGNSS = 0x02
	ResetGNSSStop     = 0x08
	ResetGNSSStart    = 0x09
)

func (m *CfgRst) Key() Key {
	return Key{Class: ClassCfg, ID: IDCfgRst}
}

func (m *CfgRst) MarshalPayload() ([]byte, error) {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint16(payload[0:2], m.NavBbrMask)
	payload[2] = m.ResetMode

	return payload, nil
}

func (m *CfgRst) UnmarshalPayload(payload []byte) error {
	if len(payload) != 4 {
		return fmt.Errorf("cfg-rst payload length: %d", len(payload))
	}
	m.NavBbrMask = binary.LittleEndian.Uint16(payload[0:2])
	m.ResetMode = payload[2]

	return nil
}
