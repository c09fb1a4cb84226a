package audit

import (
	"context"
	"log/slog"

	"govportal/pkg/attrs"
	id "govportal/pkg/domain"
	"govportal/pkg/requestcontext"
)

// Emitter accepts audit events.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Record writes the audit log line and, when an emitter is configured, the
// stored audit event. The "user_id", "subject" and "reason" attributes populate
// the event; the acting user and request metadata come from ctx. Emit failures
// are logged and never returned.
func Record(ctx context.Context, logger *slog.Logger, emitter Emitter, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if logger != nil {
		args := append(attributes, "event", event, "log_type", "audit")
		logger.InfoContext(ctx, event, args...)
	}
	if emitter == nil {
		return
	}
	err := emitter.Emit(ctx, Event{
		UserID:    id.UserID(attrs.ExtractString(attributes, "user_id")),
		Subject:   attrs.ExtractString(attributes, "subject"),
		Action:    event,
		Reason:    attrs.ExtractString(attributes, "reason"),
		ActorID:   string(requestcontext.UserID(ctx)),
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
	})
	if err != nil && logger != nil {
		logger.WarnContext(ctx, "audit emit failed", "event", event, "error", err)
	}
}
