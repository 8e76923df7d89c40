package ubx

import (
	"encoding/binary"
	"fmt"
)

// NAV-PVT fix types.
const (
	FixTypeNone     = 0
	FixTypeDeadReck = 1
	FixType2D       = 2
	FixType3D       = 3
	FixTypeCombined = 4
	FixTypeTimeOnly = 5
)

// NAV-PVT flags bits.
const (
	PvtFlagGnssFixOK = 0x01
	PvtFlagDiffSoln  = 0x02
)

// NavPvt is the NAV-PVT navigation position/velocity/time solution.
type NavPvt struct {
	ITow    uint32 // GPS time of week [ms]
	Year    uint16
	Month   uint8
	Day     uint8
	Hour    uint8
	Min     uint8
	Sec     uint8
	Valid   uint8
	TAcc    uint32
	Nano    int32
	FixType uint8
	Flags   uint8
	Flags2  uint8
	NumSV   uint8
	Lon     int32 // [1e-7 deg]
	Lat     int32 // [1e-7 deg]
	Height  int32 // above ellipsoid [mm]
	HMSL    int32 // above mean sea level [mm]
	HAcc    uint32
	VAcc    uint32
	VelN    int32 // [mm/s]
	VelE    int32
	VelD    int32
	GSpeed  int32 // ground speed [mm/s]
	HeadMot int32 // heading of motion [1e-5 deg]
	SAcc    uint32
	HeadAcc uint32
	PDOP    uint16
	Flags3  uint16
	HeadVeh int32
	MagDec  int16
	MagAcc  uint16
}

func (m *NavPvt) Key() Key {
	return Key{Class: ClassNav, ID: IDNavPvt}
}

func (m *NavPvt) MarshalPayload() ([]byte, error) {
	payload := make([]byte, 92)
	binary.LittleEndian.PutUint32(payload[0:4], m.ITow)
	binary.LittleEndian.PutUint16(payload[4:6], m.Year)
	payload[6] = m.Month
	payload[7] = m.Day
	payload[8] = m.Hour
	payload[9] = m.Min
	payload[10] = m.Sec
	payload[11] = m.Valid
	binary.LittleEndian.PutUint32(payload[12:16], m.TAcc)
	binary.LittleEndian.PutUint32(payload[16:20], uint32(m.Nano))
	payload[20] = m.FixType
	payload[21] = m.Flags
	payload[22] = m.Flags2
	payload[23] = m.NumSV
	binary.LittleEndian.PutUint32(payload[24:28], uint32(m.Lon))
	binary.LittleEndian.PutUint32(payload[28:32], uint32(m.Lat))
	binary.LittleEndian.PutUint32(payload[32:36], uint32(m.Height))
	binary.LittleEndian.PutUint32(payload[36:40], uint32(m.HMSL))
	binary.LittleEndian.PutUint32(payload[40:44], m.HAcc)
	binary.LittleEndian.PutUint32(payload[44:48], m.VAcc)
	binary.LittleEndian.PutUint32(payload[48:52], uint32(m.VelN))
	binary.LittleEndian.PutUint32(payload[52:56], uint32(m.VelE))
	binary.LittleEndian.PutUint32(payload[56:60], uint32(m.VelD))
	binary.LittleEndian.PutUint32(payload[60:64], uint32(m.GSpeed))
	binary.LittleEndian.PutUint32(payload[64:68], uint32(m.HeadMot))
	binary.LittleEndian.PutUint32(payload[68:72], m.SAcc)
	binary.LittleEndian.PutUint32(payload[72:76], m.HeadAcc)
	binary.LittleEndian.PutUint16(payload[76:78], m.PDOP)
	binary.LittleEndian.PutUint16(payload[78:80], m.Flags3)
	binary.LittleEndian.PutUint32(payload[84:88], uint32(m.HeadVeh))
	binary.LittleEndian.PutUint16(payload[88:90], uint16(m.MagDec))
	binary.LittleEndian.PutUint16(payload[90:92], m.MagAcc)

	return payload, nil
}

func (m *NavPvt) UnmarshalPayload(payload []byte) error {
	if len(payload) != 92 {
		return fmt.Errorf("nav-pvt payload length: %d", len(payload))
	}
	m.ITow = binary.LittleEndian.Uint32(payload[0:4])
	m.Year = binary.LittleEndian.Uint16(payload[4:6])
	m.Month = payload[6]
	m.Day = payload[7]
	m.Hour = payload[8]
	m.Min = payload[9]
	m.Sec = payload[10]
	m.Valid = payload[11]
	m.TAcc = binary.LittleEndian.Uint32(payload[12:16])
	m.Nano = int32(binary.LittleEndian.Uint32(payload[16:20]))
	m.FixType = payload[20]
	m.Flags = payload[21]
	m.Flags2 = payload[22]
	m.NumSV = payload[23]
	m.Lon = int32(binary.LittleEndian.Uint32(payload[24:28]))
	m.Lat = int32(binary.LittleEndian.Uint32(payload[28:32]))
	m.Height = int32(binary.LittleEndian.Uint32(payload[32:36]))
	m.HMSL = int32(binary.LittleEndian.Uint32(payload[36:40]))
	m.HAcc = binary.LittleEndian.Uint32(payload[40:44])
	m.VAcc = binary.LittleEndian.Uint32(payload[44:48])
	m.VelN = int32(binary.LittleEndian.Uint32(payload[48:52]))
	m.VelE = int32(binary.LittleEndian.Uint32(payload[52:56]))
	m.VelD = int32(binary.LittleEndian.Uint32(payload[56:60]))
	m.GSpeed = int32(binary.LittleEndian.Uint32(payload[60:64]))
	m.HeadMot = int32(binary.LittleEndian.Uint32(payload[64:68]))
	m.SAcc = binary.LittleEndian.Uint32(payload[68:72])
	m.HeadAcc = binary.LittleEndian.Uint32(payload[72:76])
	m.PDOP = binary.LittleEndian.Uint16(payload[76:78])
	m.Flags3 = binary.LittleEndian.Uint16(payload[78:80])
	m.HeadVeh = int32(binary.LittleEndian.Uint32(payload[84:88]))
	m.MagDec = int16(binary.LittleEndian.Uint16(payload[88:90]))
	m.MagAcc = binary.LittleEndian.Uint16(payload[90:92])

	return nil
}

// LatDeg returns the latitude in degrees.
func (m *NavPvt) LatDeg() float64 {
	return float64(m.Lat) * 1e-7
}

// LonDeg returns the longitude in degrees.
func (m *NavPvt) LonDeg() float64 {
	return float64(m.Lon) * 1e-7
}

// NavPosLLH is the NAV-POSLLH geodetic position solution.
type NavPosLLH struct {
	ITow   uint32
	Lon    int32 // [1e-7 deg]
	Lat    int32 // [1e-7 deg]
	Height int32 // [mm]
	HMSL   int32 // [mm]
	HAcc   uint32
	VAcc   uint32
}

func (m *NavPosLLH) Key() Key {
	return Key{Class: ClassNav, ID: IDNavPosLLH}
}

func (m *NavPosLLH) MarshalPayload() ([]byte, error) {
	payload := make([]byte, 28)
	binary.LittleEndian.PutUint32(payload[0:4], m.ITow)
	binary.LittleEndian.PutUint32(payload[4:8], uint32(m.Lon))
	binary.LittleEndian.PutUint32(payload[8:12], uint32(m.Lat))
	binary.LittleEndian.PutUint32(payload[12:16], uint32(m.Height))
	binary.LittleEndian.PutUint32(payload[16:20], uint32(m.HMSL))
	binary.LittleEndian.PutUint32(payload[20:24], m.HAcc)
	binary.LittleEndian.PutUint32(payload[24:28], m.VAcc)

	return payload, nil
}

func (m *NavPosLLH) UnmarshalPayload(payload []byte) error {
	if len(payload) != 28 {
		return fmt.Errorf("nav-posllh payload length: %d", len(payload))
	}
	m.ITow = binary.LittleEndian.Uint32(payload[0:4])
	m.Lon = int32(binary.LittleEndian.Uint32(payload[4:8]))
	m.Lat = int32(binary.LittleEndian.Uint32(payload[8:12]))
	m.Height = int32(binary.LittleEndian.Uint32(payload[12:16]))
	m.HMSL = int32(binary.LittleEndian.Uint32(payload[16:20]))
	m.HAcc = binary.LittleEndian.Uint32(payload[20:24])
	m.VAcc = binary.LittleEndian.Uint32(payload[24:28])

	return nil
}

// NavStatus is the NAV-STATUS receiver navigation status.
type NavStatus struct {
	ITow    uint32
	GpsFix  uint8
	Flags   uint8
	FixStat uint8
	Flags2  uint8
	TTFF    uint32 // time to first fix [ms]
	MSSS    uint32 // milliseconds since startup
}

func (m *NavStatus) Key() Key {
	return Key{Class: ClassNav, ID: IDNavStatus}
}

func (m *NavStatus) MarshalPayload() ([]byte, error) {
	payload := make([]byte, 16)
	binary.LittleEndian.PutUint32(payload[0:4], m.ITow)
	payload[4] = m.GpsFix
	payload[5] = m.Flags
	payload[6] = m.FixStat
	payload[7] = m.Flags2
	binary.LittleEndian.PutUint32(payload[8:12], m.TTFF)
	binary.LittleEndian.PutUint32(payload[12:16], m.MSSS)

	return payload, nil
}

func (m *NavStatus) UnmarshalPayload(payload []byte) error {
	if len(payload) != 16 {
		return fmt.Errorf("nav-status payload length: %d", len(payload))
	}
	m.ITow = binary.LittleEndian.Uint32(payload[0:4])
	m.GpsFix = payload[4]
	m.Flags = payload[5]
	m.FixStat = payload[6]
	m.Flags2 = payload[7]
	m.TTFF = binary.LittleEndian.Uint32(payload[8:12])
	m.MSSS = binary.LittleEndian.Uint32(payload[12:16])

	return nil
}

// NavSvin is the NAV-SVIN survey-in status, emitted while TMODE3
// survey-in is running.
type NavSvin struct {
	Version uint8
	ITow    uint32
	Dur     uint32 // observation time [s]
	MeanX   int32  // ECEF [cm]
	MeanY   int32
	MeanZ   int32
	MeanXHP int8 // [0.1 mm]
	MeanYHP int8
	MeanZHP int8
	MeanAcc uint32 // [0.1 mm]
	Obs     uint32
	Valid   uint8
	Active  uint8
}

func (m *NavSvin) Key() Key {
	return Key{Class: ClassNav, ID: IDNavSvin}
}

func (m *NavSvin) MarshalPayload() ([]byte, error) {
	payload := make([]byte, 40)
	payload[0] = m.Version
	binary.LittleEndian.PutUint32(payload[4:8], m.ITow)
	binary.LittleEndian.PutUint32(payload[8:12], m.Dur)
	binary.LittleEndian.PutUint32(payload[12:16], uint32(m.MeanX))
	binary.LittleEndian.PutUint32(payload[16:20], uint32(m.MeanY))
	binary.LittleEndian.PutUint32(payload[20:24], uint32(m.MeanZ))
	payload[24] = byte(m.MeanXHP)
	payload[25] = byte(m.MeanYHP)
	payload[26] = byte(m.MeanZHP)
	binary.LittleEndian.PutUint32(payload[28:32], m.MeanAcc)
	binary.LittleEndian.PutUint32(payload[32:36], m.Obs)
	payload[36] = m.Valid
	payload[37] = m.Active

	return payload, nil
}

func (m *NavSvin) UnmarshalPayload(payload []byte) error {
	if len(payload) != 40 {
		return fmt.Errorf("nav-svin payload length: %d", len(payload))
	}
	m.Version = payload[0]
	m.ITow = binary.LittleEndian.Uint32(payload[4:8])
	m.Dur = binary.LittleEndian.Uint32(payload[8:12])
	m.MeanX = int32(binary.LittleEndian.Uint32(payload[12:16]))
	m.MeanY = int32(binary.LittleEndian.Uint32(payload[16:20]))
	m.MeanZ = int32(binary.LittleEndian.Uint32(payload[20:24]))
	m.MeanXHP = int8(payload[24])
	m.MeanYHP = int8(payload[25])
	m.MeanZHP = int8(payload[26])
	m.MeanAcc = binary.LittleEndian.Uint32(payload[28:32])
	m.Obs = binary.LittleEndian.Uint32(payload[32:36])
	m.Valid = payload[36]
	m.Active = payload[37]

	return nil
}
