package monitor

import "time"

// ConnectionState describes the driver connection lifecycle.
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
)

// ConnectionStatus is a bus event snapshot of the transport state.
type ConnectionStatus struct {
	State         ConnectionState
	Err           string
	TransportName string
	Target        string
	Timestamp     time.Time
}

// FrameEvent carries per-frame diagnostics for debug views. Key is the
// "CC-II" form of the frame's class and id.
type FrameEvent struct {
	Inbound   bool
	Key       string
	Len       int
	Timestamp time.Time
}

// FixUpdate is a decoded navigation solution snapshot.
type FixUpdate struct {
	Time     time.Time
	Lat      float64
	Lon      float64
	HeightMM int32
	FixType  uint8
	FixOK    bool
	NumSV    uint8
	HAccMM   uint32
	VAccMM   uint32
}

// SurveyInStatus reports survey-in progress while TMODE3 survey-in runs.
type SurveyInStatus struct {
	ObservationTime uint32
	Observations    uint32
	MeanAccMM       float64
	Valid           bool
	Active          bool
}
