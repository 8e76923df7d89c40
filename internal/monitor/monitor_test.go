package monitor

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"ubxgo/internal/bus"
	"ubxgo/internal/ubx"
)

func newTestMonitor(t *testing.T) (*Monitor, bus.MessageBus) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := bus.New(logger)
	t.Cleanup(b.Close)

	return New(logger, b), b
}

func receive(t *testing.T, sub bus.Subscription) any {
	t.Helper()
	select {
	case msg := <-sub:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for bus event")
		return nil
	}
}

func TestPublishFixCarriesScaledCoordinates(t *testing.T) {
	m, b := newTestMonitor(t)
	sub := b.Subscribe(TopicFix)

	m.PublishFix(ubx.NavPvt{
		Year: 2024, Month: 5, Day: 17, Hour: 12, Min: 30, Sec: 15,
		FixType: ubx.FixType3D,
		Flags:   ubx.PvtFlagGnssFixOK,
		NumSV:   11,
		Lat:     523456789,
		Lon:     -41234567,
		Height:  48000,
		HAcc:    1200,
	})

	fix, ok := receive(t, sub).(FixUpdate)
	if !ok {
		t.Fatalf("unexpected event type")
	}
	if fix.Lat != 52.3456789 || fix.Lon != -4.1234567 {
		t.Fatalf("coordinate scaling wrong: %f %f", fix.Lat, fix.Lon)
	}
	if !fix.FixOK || fix.FixType != ubx.FixType3D || fix.NumSV != 11 {
		t.Fatalf("fix fields mismatch: %+v", fix)
	}
	if fix.Time.Year() != 2024 || fix.Time.Month() != time.May {
		t.Fatalf("fix time mismatch: %v", fix.Time)
	}
}

func TestFrameObserverRoutesByDirection(t *testing.T) {
	m, b := newTestMonitor(t)
	inSub := b.Subscribe(TopicFrameIn)
	outSub := b.Subscribe(TopicFrameOut)

	observer := m.FrameObserver()
	observer(true, ubx.Key{Class: ubx.ClassNav, ID: ubx.IDNavPvt}, 92)
	observer(false, ubx.Key{Class: ubx.ClassCfg, ID: ubx.IDCfgRate}, 6)

	in, ok := receive(t, inSub).(FrameEvent)
	if !ok || !in.Inbound || in.Key != "01-07" || in.Len != 92 {
		t.Fatalf("inbound frame event mismatch: %+v", in)
	}
	out, ok := receive(t, outSub).(FrameEvent)
	if !ok || out.Inbound || out.Key != "06-08" {
		t.Fatalf("outbound frame event mismatch: %+v", out)
	}
}

func TestPublishStatusIncludesError(t *testing.T) {
	m, b := newTestMonitor(t)
	sub := b.Subscribe(TopicConnStatus)

	m.PublishStatus(ConnectionStateConnected, "serial", "/dev/ttyACM0", nil)

	status, ok := receive(t, sub).(ConnectionStatus)
	if !ok {
		t.Fatalf("unexpected event type")
	}
	if status.State != ConnectionStateConnected || status.Target != "/dev/ttyACM0" || status.Err != "" {
		t.Fatalf("status mismatch: %+v", status)
	}
}
