package otel

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Strob0t/fieldtoggle/internal/domain/toggle"
)

const tracerName = "fieldtoggle"

// StartToggleSpan starts a span covering one toggle from change to resolution.
func StartToggleSpan(ctx context.Context, key toggle.Key, desired bool) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "toggle",
		trace.WithAttributes(
			attribute.String("toggle.record_id", key.RecordID),
			attribute.String("toggle.field", key.Field),
			attribute.Bool("toggle.desired", desired),
		),
	)
}

// EndToggleSpan annotates span with o and ends it.
func EndToggleSpan(span trace.Span, o toggle.Outcome) {
	span.SetAttributes(attribute.String("toggle.outcome", string(o.Kind)))
	if !o.OK() {
		if o.Err != nil {
			span.RecordError(o.Err)
		}
		span.SetStatus(codes.Error, o.Message)
	}
	span.End()
}

// HTTPTransport wraps base so each outgoing request gets a client span and
// trace context headers.
func HTTPTransport(base http.RoundTripper) http.RoundTripper {
	return otelhttp.NewTransport(base)
}
