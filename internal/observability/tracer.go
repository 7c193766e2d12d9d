package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceContext carries the identifiers that tie a decision log line to its
// span (webhook request or polling batch).
type TraceContext struct {
	TraceID string
	SpanID  string
}

// ExtractTrace returns the active span's identifiers, or nil when the update
// arrived outside any recorded span.
func ExtractTrace(ctx context.Context) *TraceContext {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return nil
	}

	return &TraceContext{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}
