package session

import "errors"

// Failure modes surfaced by session operations. NACK and timeout are
// distinct errors so callers can tell "receiver refused" apart from "no
// answer" (the original boolean surface collapsed them).
var (
	ErrNotInitialized = errors.New("session is not initialized")
	ErrClosed         = errors.New("session is closed")
	ErrTimeout        = errors.New("timed out waiting for receiver")
	ErrNack           = errors.New("receiver rejected configuration")
)
