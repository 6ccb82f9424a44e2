package syncagent

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// SyncEvent captures lightweight telemetry for one sync operation: a fetch,
// a remote write, a subscription or a received change.
type SyncEvent struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

// Observer receives sync events.
type Observer interface {
	ObserveSync(ctx context.Context, event SyncEvent)
}

// NoopObserver ignores all events.
type NoopObserver struct{}

func (NoopObserver) ObserveSync(context.Context, SyncEvent) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver writes sync events to w.
func NewLogObserver(w io.Writer) Observer {
	if w == nil {
		return NoopObserver{}
	}
	return &logObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

// NewSlogObserver writes sync events to an existing logger.
func NewSlogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		return NoopObserver{}
	}
	return &logObserver{logger: logger}
}

func (o *logObserver) ObserveSync(ctx context.Context, event SyncEvent) {
	attrs := make([]any, 0, 8+len(event.Fields)*2)
	attrs = append(attrs,
		"op", event.Name,
		"duration_ms", event.Duration.Milliseconds(),
		"success", event.Success,
	)
	for k, v := range event.Fields {
		attrs = append(attrs, k, v)
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.ErrorContext(ctx, "sync_op", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "sync_op", attrs...)
}
