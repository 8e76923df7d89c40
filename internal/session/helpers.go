package session

import (
	"context"
	"fmt"
	"math"
	"time"

	"ubxgo/internal/transport"
	"ubxgo/internal/ubx"
)

// Receivers apply a CFG-PRT baud change after acknowledging it; give the
// port this long to settle before traffic resumes at the new rate.
const baudChangeDelay = 500 * time.Millisecond

// InitializeSerial binds a serial transport and configures the receiver's
// UART1 port: protocol masks first at the transport's current baud rate,
// then the host side follows the receiver to the requested rate.
func (s *Session) InitializeSerial(ctx context.Context, tr *transport.SerialTransport, baudRate uint32, inProtoMask, outProtoMask uint16) error {
	if err := s.Initialize(ctx, tr); err != nil {
		return err
	}
	if err := s.ConfigUART1(ctx, baudRate, inProtoMask, outProtoMask); err != nil {
		return err
	}
	if uint32(tr.BaudRate()) != baudRate {
		if err := tr.SetBaudRate(int(baudRate)); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(baudChangeDelay):
		}
	}

	return nil
}

// ConfigRate sets the measurement period [ms] and the number of
// measurement cycles per navigation solution.
func (s *Session) ConfigRate(ctx context.Context, measRate, navRate uint16) error {
	return s.Configure(ctx, &ubx.CfgRate{
		MeasRate: measRate,
		NavRate:  navRate,
		TimeRef:  ubx.TimeRefGPS,
	}, true)
}

// ConfigDGNSS sets the differential corrections mode (CFG-DGNSS).
func (s *Session) ConfigDGNSS(ctx context.Context, mode uint8) error {
	return s.Configure(ctx, &ubx.CfgDgnss{DgnssMode: mode}, true)
}

// ConfigRTCM enables the given RTCM3 output messages at the given rate.
// Stops at the first rejected id.
func (s *Session) ConfigRTCM(ctx context.Context, ids []byte, rate uint8) error {
	for _, id := range ids {
		if err := s.SetRate(ctx, ubx.ClassRtcm3, id, rate); err != nil {
			return fmt.Errorf("set rtcm %#02x rate: %w", id, err)
		}
	}

	return nil
}

// ConfigTMODE3Fixed puts the receiver in fixed time mode at the given
// antenna reference point. Positions are LLA [deg, deg, m] when lla is
// true, ECEF [m] otherwise; the HP vector carries the high-precision
// remainder in the same units and fixedPosAcc is meters.
func (s *Session) ConfigTMODE3Fixed(ctx context.Context, lla bool, arpPosition, arpPositionHP [3]float64, fixedPosAcc float64) error {
	var msg ubx.CfgTmode3
	msg.SetMode(ubx.Tmode3Fixed, lla)
	if lla {
		msg.ECEFXOrLat = int32(math.Round(arpPosition[0] * 1e7))
		msg.ECEFYOrLon = int32(math.Round(arpPosition[1] * 1e7))
		msg.ECEFZOrAlt = int32(math.Round(arpPosition[2] * 1e2)) // [cm]
		msg.ECEFXOrLatHP = int8(math.Round(arpPositionHP[0] * 1e9))
		msg.ECEFYOrLonHP = int8(math.Round(arpPositionHP[1] * 1e9))
		msg.ECEFZOrAltHP = int8(math.Round(arpPositionHP[2] * 1e4)) // [0.1 mm]
	} else {
		msg.ECEFXOrLat = int32(math.Round(arpPosition[0] * 1e2))
		msg.ECEFYOrLon = int32(math.Round(arpPosition[1] * 1e2))
		msg.ECEFZOrAlt = int32(math.Round(arpPosition[2] * 1e2))
		msg.ECEFXOrLatHP = int8(math.Round(arpPositionHP[0] * 1e4))
		msg.ECEFYOrLonHP = int8(math.Round(arpPositionHP[1] * 1e4))
		msg.ECEFZOrAltHP = int8(math.Round(arpPositionHP[2] * 1e4))
	}
	msg.FixedPosAcc = uint32(math.Round(fixedPosAcc * 1e4)) // [0.1 mm]

	return s.Configure(ctx, &msg, true)
}

// ConfigTMODE3SurveyIn starts a survey-in with the given minimum duration
// [s] and position accuracy limit [m].
func (s *Session) ConfigTMODE3SurveyIn(ctx context.Context, minDur uint32, accLimit float64) error {
	var msg ubx.CfgTmode3
	msg.SetMode(ubx.Tmode3SurveyIn, false)
	msg.SvinMinDur = minDur
	msg.SvinAccLimit = uint32(math.Round(accLimit * 1e4)) // [0.1 mm]

	return s.Configure(ctx, &msg, true)
}

// DisableTMODE3 turns time mode off. Non-HPG receivers NAK this.
func (s *Session) DisableTMODE3(ctx context.Context) error {
	var msg ubx.CfgTmode3
	msg.SetMode(ubx.Tmode3Disabled, false)

	return s.Configure(ctx, &msg, true)
}

// ConfigUART1 configures the receiver's UART1 port. On success the
// parameters are recorded and the session counts as configured.
func (s *Session) ConfigUART1(ctx context.Context, baudRate uint32, inProtoMask, outProtoMask uint16) error {
	msg := ubx.CfgPrt{
		PortID:       ubx.PortUART1,
		Mode:         ubx.PrtMode8N1,
		BaudRate:     baudRate,
		InProtoMask:  inProtoMask,
		OutProtoMask: outProtoMask,
	}
	if err := s.Configure(ctx, &msg, true); err != nil {
		return err
	}
	s.recordUARTParams(baudRate, inProtoMask, outProtoMask)
	s.markConfigured(true)

	return nil
}

// DisableUART reads the current UART1 configuration, then clears its
// protocol masks. The previous configuration is returned so the caller
// can restore it later.
func (s *Session) DisableUART(ctx context.Context) (ubx.CfgPrt, error) {
	prev, err := PollAndReadWith[ubx.CfgPrt](ctx, s, []byte{ubx.PortUART1}, s.timeout)
	if err != nil {
		return ubx.CfgPrt{}, fmt.Errorf("poll current port config: %w", err)
	}

	disabled := prev
	disabled.InProtoMask = 0
	disabled.OutProtoMask = 0
	if err := s.Configure(ctx, &disabled, true); err != nil {
		return ubx.CfgPrt{}, err
	}

	return prev, nil
}

// SetRate sets the emission rate of one message type via CFG-MSG.
func (s *Session) SetRate(ctx context.Context, classID, messageID byte, rate uint8) error {
	return s.Configure(ctx, &ubx.CfgMsg{MsgClass: classID, MsgID: messageID, Rate: rate}, true)
}

// SetDynamicModel selects the CFG-NAV5 dynamic platform model.
func (s *Session) SetDynamicModel(ctx context.Context, model uint8) error {
	return s.Configure(ctx, &ubx.CfgNav5{Mask: ubx.Nav5MaskDyn, DynModel: model}, true)
}

// SetFixMode selects the CFG-NAV5 position fixing mode.
func (s *Session) SetFixMode(ctx context.Context, mode uint8) error {
	return s.Configure(ctx, &ubx.CfgNav5{Mask: ubx.Nav5MaskPosFixMode, FixMode: mode}, true)
}

// SetDeadReckonLimit sets the dead reckoning time limit [s].
func (s *Session) SetDeadReckonLimit(ctx context.Context, limit uint8) error {
	return s.Configure(ctx, &ubx.CfgNav5{Mask: ubx.Nav5MaskDrLim, DRLimit: limit}, true)
}

// SetPPPEnabled toggles precise point positioning (CFG-NAVX5 expert
// setting; check the receiver manual before use).
func (s *Session) SetPPPEnabled(ctx context.Context, enabled bool) error {
	return s.Configure(ctx, &ubx.CfgNavX5{Version: 2, Mask1: ubx.NavX5Mask1PPP, UsePPP: enabled}, true)
}

// SetUseADR toggles automotive dead reckoning (CFG-NAVX5 expert setting).
func (s *Session) SetUseADR(ctx context.Context, enabled bool) error {
	return s.Configure(ctx, &ubx.CfgNavX5{Version: 2, Mask2: ubx.NavX5Mask2ADR, UseADR: enabled}, true)
}

// EnableSBAS toggles satellite-based augmentation. Receivers without
// SBAS capability NAK this.
func (s *Session) EnableSBAS(ctx context.Context, enabled bool, usage, maxSBAS uint8) error {
	msg := ubx.CfgSbas{Usage: usage, MaxSBAS: maxSBAS}
	if enabled {
		msg.Mode = ubx.SbasModeEnabled
	}

	return s.Configure(ctx, &msg, true)
}

// Reset requests a receiver reset. CFG-RST is never acknowledged, so the
// command is fire-and-forget.
func (s *Session) Reset(ctx context.Context, navBbrMask uint16, resetMode uint8) error {
	return s.Configure(ctx, &ubx.CfgRst{NavBbrMask: navBbrMask, ResetMode: resetMode}, false)
}
