package transport

import (
	"context"
	"log/slog"
)

// Transport carries raw UBX bytes to and from a receiver. Framing is not
// a transport concern: the session's codec extracts frames from the chunk
// stream, so Read may return any number of bytes including zero (poll
// timeout on serial links).
type Transport interface {
	Name() string
	Connect(ctx context.Context) error
	Close() error
	Connected() bool
	Read(ctx context.Context, buf []byte) (int, error)
	Write(ctx context.Context, buf []byte) error
}

// StatusTargetResolver is implemented by transports that can describe
// their endpoint for status reporting.
type StatusTargetResolver interface {
	StatusTarget() string
}

func transportLogger(name string, attrs ...any) *slog.Logger {
	logger := slog.With("component", "transport", "transport", name)
	if len(attrs) == 0 {
		return logger
	}

	return logger.With(attrs...)
}
