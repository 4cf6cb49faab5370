package messaging

import (
	"log/slog"

	"github.com/servicehours/hours-hub/internal/domain/shared"
)

// NewAuditHandler returns a handler that writes every event to the audit log.
func NewAuditHandler(logger *slog.Logger) shared.EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "audit")

	return func(event shared.Event) error {
		attrs := []any{
			"event_type", event.EventType(),
			"aggregate_id", event.AggregateID(),
			"occurred_at", event.OccurredAt(),
		}
		for k, v := range event.Payload() {
			attrs = append(attrs, k, v)
		}
		logger.Info("domain event", attrs...)
		return nil
	}
}
