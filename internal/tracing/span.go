package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/errgen/internal/faults"
	"github.com/torosent/errgen/internal/metrics"
)

// Attribute keys shared by the driver and the target.
const (
	AttrErrorType = attribute.Key("error.type")
	AttrErrorRate = attribute.Key("error.rate")
	AttrLatencyMs = attribute.Key("error.latency_ms")
	AttrRunID     = attribute.Key("errgen.run_id")
	AttrInjected  = attribute.Key("error.injected")
)

// ParamAttributes describes the injected fault parameters.
func ParamAttributes(p faults.Params) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrErrorType.String(string(p.ErrorType)),
		AttrErrorRate.Float64(p.ErrorRate),
		AttrLatencyMs.Int(p.LatencyMs),
	}
}

// StartAttemptSpan starts the client span of one request attempt.
func StartAttemptSpan(ctx context.Context, tracer trace.Tracer, params faults.Params, runID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "GET "+faults.EndpointPath,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(attribute.String("http.request.method", http.MethodGet))
	span.SetAttributes(ParamAttributes(params)...)
	if runID != "" {
		span.SetAttributes(AttrRunID.String(runID))
	}
	return ctx, span
}

// EndAttemptSpan finishes an attempt span. Any outcome of the error class
// marks the span as failed.
func EndAttemptSpan(span trace.Span, o metrics.Outcome) {
	if o.HasStatus() {
		span.SetAttributes(attribute.Int("http.response.status_code", o.StatusCode))
	}
	switch {
	case o.Err != nil:
		span.RecordError(o.Err)
		span.SetStatus(codes.Error, o.Err.Error())
	case o.Failed():
		msg := http.StatusText(o.StatusCode)
		if o.Message != "" {
			msg = o.Message
		}
		span.SetStatus(codes.Error, msg)
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// StartHandlerSpan starts the server span of a fault-injection request,
// continuing any trace propagated in r's headers.
func StartHandlerSpan(r *http.Request, tracer trace.Tracer) (context.Context, trace.Span) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	return tracer.Start(ctx, r.Method+" "+r.URL.Path,
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
