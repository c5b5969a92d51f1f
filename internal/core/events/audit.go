package events

import (
	"context"
	"log/slog"
)

// AuditLogger writes one structured line per lifecycle event.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger.With("component", "audit")}
}

func (a *AuditLogger) Register(bus *EventBus) {
	bus.Subscribe(AllEvents, a.Handle)
}

func (a *AuditLogger) Handle(ctx context.Context, event Event) error {
	level := slog.LevelInfo
	switch event.EventType() {
	case EventTypeLoginFailed, EventTypeTokenRevoked:
		level = slog.LevelWarn
	case EventTypeTokenReplayDetected:
		level = slog.LevelError
	}

	attrs := []any{
		"event_id", event.EventID(),
		"event_type", event.EventType(),
		"occurred_at", event.OccurredAt(),
	}
	for k, v := range event.Payload() {
		attrs = append(attrs, k, v)
	}

	a.logger.Log(ctx, level, "audit event", attrs...)
	return nil
}
