package oracle

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// CallEvent records metadata about a single oracle invocation.
type CallEvent struct {
	Role      string
	Model     string
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives events about oracle calls for logging and metrics.
type Observer interface {
	OnCallComplete(ctx context.Context, event CallEvent)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(context.Context, CallEvent) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an Observer that writes structured call events to w.
func NewLogObserver(w io.Writer) Observer {
	if w == nil {
		return NoopObserver{}
	}
	return &logObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *logObserver) OnCallComplete(ctx context.Context, event CallEvent) {
	attrs := []any{
		"role", event.Role,
		"model", event.Model,
		"latency_ms", event.LatencyMs,
		"success", event.Success,
	}
	if !event.Success {
		attrs = append(attrs, "error_code", event.ErrorCode)
		o.logger.ErrorContext(ctx, "oracle_call", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "oracle_call", attrs...)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	default:
		return "UNKNOWN"
	}
}
