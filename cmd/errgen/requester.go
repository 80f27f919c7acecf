package main

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/errgen/internal/faults"
	"github.com/torosent/errgen/internal/httpclient"
	"github.com/torosent/errgen/internal/metrics"
	"github.com/torosent/errgen/internal/tracing"
)

// httpRequester implements runner.Requester against the error generator
// endpoint. It draws fresh parameters for every attempt.
type httpRequester struct {
	client    *http.Client
	builder   *httpclient.RequestBuilder
	generator *faults.Generator
	tracer    trace.Tracer
	runID     string
}

// Do executes one attempt. It never retries.
func (r *httpRequester) Do(ctx context.Context) metrics.Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	params := r.generator.Next()

	var span trace.Span
	if r.tracer != nil {
		ctx, span = tracing.StartAttemptSpan(ctx, r.tracer, params, r.runID)
	}

	outcome := r.attempt(ctx, params)
	if span != nil {
		tracing.EndAttemptSpan(span, outcome)
	}
	return outcome
}

func (r *httpRequester) attempt(ctx context.Context, params faults.Params) metrics.Outcome {
	start := time.Now()
	req, err := r.builder.Build(ctx, params)
	if err != nil {
		return metrics.TransportOutcome(params, err, time.Since(start))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return metrics.TransportOutcome(params, err, time.Since(start))
	}

	// Body read errors are non-fatal; the status already decides the class.
	body, _ := httpclient.DrainBody(resp.Body, httpclient.MaxMessageBytes)
	outcome := metrics.ResponseOutcome(params, resp.StatusCode, time.Since(start))
	if outcome.Failed() {
		outcome.Message = httpclient.ResponseMessage(body)
	}
	return outcome
}
