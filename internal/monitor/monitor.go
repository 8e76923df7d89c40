// Package monitor publishes driver events on the message bus so the CLI
// and the track recorder can observe a session without touching it.
package monitor

import (
	"log/slog"
	"time"

	"ubxgo/internal/bus"
	"ubxgo/internal/session"
	"ubxgo/internal/ubx"
)

type Monitor struct {
	logger *slog.Logger
	bus    bus.MessageBus
}

func New(logger *slog.Logger, b bus.MessageBus) *Monitor {
	return &Monitor{logger: logger, bus: b}
}

// PublishStatus emits a connection status snapshot.
func (m *Monitor) PublishStatus(state ConnectionState, transportName, target string, err error) {
	status := ConnectionStatus{
		State:         state,
		TransportName: transportName,
		Target:        target,
		Timestamp:     time.Now(),
	}
	if err != nil {
		status.Err = err.Error()
	}
	m.bus.Publish(TopicConnStatus, status)
}

// FrameObserver returns a hook suitable for Session.SetFrameObserver.
// It runs on the session's reader goroutine, so it only publishes and
// returns.
func (m *Monitor) FrameObserver() session.FrameObserver {
	return func(inbound bool, key ubx.Key, size int) {
		topic := TopicFrameOut
		if inbound {
			topic = TopicFrameIn
		}
		m.bus.Publish(topic, FrameEvent{
			Inbound:   inbound,
			Key:       key.String(),
			Len:       size,
			Timestamp: time.Now(),
		})
	}
}

// PublishFix converts a navigation solution into a bus event.
func (m *Monitor) PublishFix(pvt ubx.NavPvt) {
	m.bus.Publish(TopicFix, FixUpdate{
		Time:     pvtTime(pvt),
		Lat:      pvt.LatDeg(),
		Lon:      pvt.LonDeg(),
		HeightMM: pvt.Height,
		FixType:  pvt.FixType,
		FixOK:    pvt.Flags&ubx.PvtFlagGnssFixOK != 0,
		NumSV:    pvt.NumSV,
		HAccMM:   pvt.HAcc,
		VAccMM:   pvt.VAcc,
	})
}

// PublishSurveyIn converts a survey-in status into a bus event.
func (m *Monitor) PublishSurveyIn(svin ubx.NavSvin) {
	m.bus.Publish(TopicSurveyIn, SurveyInStatus{
		ObservationTime: svin.Dur,
		Observations:    svin.Obs,
		MeanAccMM:       float64(svin.MeanAcc) * 0.1,
		Valid:           svin.Valid != 0,
		Active:          svin.Active != 0,
	})
}

func pvtTime(pvt ubx.NavPvt) time.Time {
	if pvt.Year == 0 {
		return time.Time{}
	}

	return time.Date(int(pvt.Year), time.Month(pvt.Month), int(pvt.Day),
		int(pvt.Hour), int(pvt.Min), int(pvt.Sec), int(pvt.Nano), time.UTC)
}
