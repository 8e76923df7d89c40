package ubx

import (
	"bytes"
	"testing"
)

func TestEncodeCfgRateProducesDecodableFrame(t *testing.T) {
	msg := &CfgRate{MeasRate: 1000, NavRate: 1, TimeRef: 1}
	raw, err := Encode(msg)
	if err != nil {
		t.Fatalf("encode cfg-rate: %v", err)
	}

	var s Scanner
	s.Push(raw)
	frame, status := s.Next()
	if status != ScanComplete {
		t.Fatalf("expected complete frame, got status %d", status)
	}
	if frame.Key != msg.Key() {
		t.Fatalf("key mismatch: got %s want %s", frame.Key, msg.Key())
	}

	var decoded CfgRate
	if err := decoded.UnmarshalPayload(frame.Payload); err != nil {
		t.Fatalf("decode cfg-rate: %v", err)
	}
	if decoded != *msg {
		t.Fatalf("round trip mismatch: got %+v want %+v", decoded, *msg)
	}
}

func TestNavPvtDecodesPositionFields(t *testing.T) {
	src := &NavPvt{
		ITow:    123456,
		FixType: FixType3D,
		Flags:   PvtFlagGnssFixOK,
		NumSV:   11,
		Lat:     523456789, // 52.3456789 deg
		Lon:     -43210000,
		HMSL:    48000,
		GSpeed:  1500,
	}
	payload, err := src.MarshalPayload()
	if err != nil {
		t.Fatalf("marshal nav-pvt: %v", err)
	}
	if len(payload) != 92 {
		t.Fatalf("nav-pvt payload length: %d", len(payload))
	}

	var got NavPvt
	if err := got.UnmarshalPayload(payload); err != nil {
		t.Fatalf("unmarshal nav-pvt: %v", err)
	}
	if got.Lat != src.Lat || got.Lon != src.Lon || got.HMSL != src.HMSL {
		t.Fatalf("position mismatch: got %+v", got)
	}
	if got.LatDeg() < 52.34 || got.LatDeg() > 52.35 {
		t.Fatalf("lat degrees out of range: %f", got.LatDeg())
	}
	if got.FixType != FixType3D || got.NumSV != 11 {
		t.Fatalf("fix fields mismatch: got %+v", got)
	}
}

func TestAckPayloadCarriesAnsweredKey(t *testing.T) {
	ack := &AckAck{ClsID: ClassCfg, MsgID: IDCfgNav5}
	payload, err := ack.MarshalPayload()
	if err != nil {
		t.Fatalf("marshal ack-ack: %v", err)
	}
	if !bytes.Equal(payload, []byte{ClassCfg, IDCfgNav5}) {
		t.Fatalf("ack payload mismatch: %x", payload)
	}

	var nak AckNak
	if err := nak.UnmarshalPayload([]byte{0x06}); err == nil {
		t.Fatalf("expected error for short ack-nak payload")
	}
}

func TestCfgTmode3ModeFlags(t *testing.T) {
	var msg CfgTmode3
	msg.SetMode(Tmode3Fixed, true)
	if msg.Mode() != Tmode3Fixed {
		t.Fatalf("mode mismatch: %d", msg.Mode())
	}
	if !msg.IsLLA() {
		t.Fatalf("expected lla flag set")
	}

	msg.SetMode(Tmode3SurveyIn, false)
	if msg.IsLLA() {
		t.Fatalf("expected lla flag cleared")
	}
}

func TestMonVerDecodesExtensions(t *testing.T) {
	src := &MonVer{
		SWVersion:  "EXT CORE 3.01",
		HWVersion:  "00080000",
		Extensions: []string{"FWVER=HPG 1.13", "PROTVER=27.12"},
	}
	payload, err := src.MarshalPayload()
	if err != nil {
		t.Fatalf("marshal mon-ver: %v", err)
	}

	var got MonVer
	if err := got.UnmarshalPayload(payload); err != nil {
		t.Fatalf("unmarshal mon-ver: %v", err)
	}
	if got.SWVersion != src.SWVersion || got.HWVersion != src.HWVersion {
		t.Fatalf("version mismatch: %+v", got)
	}
	if len(got.Extensions) != 2 || got.Extensions[1] != "PROTVER=27.12" {
		t.Fatalf("extensions mismatch: %v", got.Extensions)
	}
}
