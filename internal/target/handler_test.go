package target

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Request
	}{
		{"defaults", "", Request{ErrorType: "INTERNAL_ERROR", ErrorRate: 1, LatencyMs: 0}},
		{"explicit", "errorType=TIMEOUT_ERROR&errorRate=0.25&latencyMs=150", Request{ErrorType: "TIMEOUT_ERROR", ErrorRate: 0.25, LatencyMs: 150}},
		{"rate clamped high", "errorRate=3.5", Request{ErrorType: "INTERNAL_ERROR", ErrorRate: 1}},
		{"rate clamped low", "errorRate=-2", Request{ErrorType: "INTERNAL_ERROR", ErrorRate: 0}},
		{"bad rate never fails", "errorRate=often", Request{ErrorType: "INTERNAL_ERROR", ErrorRate: 0}},
		{"bad latency", "latencyMs=slow", Request{ErrorType: "INTERNAL_ERROR", ErrorRate: 1}},
		{"negative latency", "latencyMs=-5", Request{ErrorType: "INTERNAL_ERROR", ErrorRate: 1}},
		{"rate numeric prefix", "errorRate=0.5x", Request{ErrorType: "INTERNAL_ERROR", ErrorRate: 0.5}},
		{"rate leading dot", "errorRate=.25", Request{ErrorType: "INTERNAL_ERROR", ErrorRate: 0.25}},
		{"rate infinity clamped", "errorRate=Infinity", Request{ErrorType: "INTERNAL_ERROR", ErrorRate: 1}},
		{"latency truncated", "latencyMs=1.5", Request{ErrorType: "INTERNAL_ERROR", ErrorRate: 1, LatencyMs: 1}},
		{"latency numeric prefix", "latencyMs=250ms", Request{ErrorType: "INTERNAL_ERROR", ErrorRate: 1, LatencyMs: 250}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("ParseQuery() error = %v", err)
			}
			if got := ParseRequest(q); got != tt.want {
				t.Fatalf("ParseRequest(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

func TestFailureMessages(t *testing.T) {
	tests := map[string]string{
		"VALIDATION_ERROR": "Validation failed: Invalid input parameters",
		"TIMEOUT_ERROR":    "Operation timed out",
		"DEPENDENCY_ERROR": "Failed to reach dependent service",
		"INTERNAL_ERROR":   "Internal server error occurred",
		"SOMETHING_ELSE":   "Internal server error occurred",
	}
	for errorType, want := range tests {
		if got, _ := FailureMessages(errorType); got != want {
			t.Errorf("FailureMessages(%q) = %q, want %q", errorType, got, want)
		}
	}
}

func newTestHandler(draw float64, slept *time.Duration, opts ...Option) *Handler {
	base := []Option{
		WithRandom(func() float64 { return draw }),
		WithSleep(func(_ context.Context, d time.Duration) error {
			if slept != nil {
				*slept += d
			}
			return nil
		}),
		WithClock(func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 10_000_000, time.UTC) }),
	}
	return NewHandler(append(base, opts...)...)
}

func serve(t *testing.T, h http.Handler, query string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/error-generator?"+query, nil))
	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return rec, body
}

func TestHandlerInjectsFault(t *testing.T) {
	var slept time.Duration
	h := newTestHandler(0.3, &slept)

	rec, body := serve(t, h, "errorType=DEPENDENCY_ERROR&errorRate=0.5&latencyMs=120")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if body.Message != "Failed to reach dependent service" || body.ErrorType != "DEPENDENCY_ERROR" {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Timestamp != "2024-05-06T07:08:09.010Z" {
		t.Errorf("timestamp = %q", body.Timestamp)
	}
	if slept != 120*time.Millisecond {
		t.Errorf("slept %s, want 120ms", slept)
	}
}

func TestHandlerSucceedsAboveRate(t *testing.T) {
	h := newTestHandler(0.5, nil)

	rec, body := serve(t, h, "errorType=TIMEOUT_ERROR&errorRate=0.5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body.Message != SuccessMessage || body.ErrorType != "TIMEOUT_ERROR" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestHandlerDefaultsAlwaysFail(t *testing.T) {
	h := newTestHandler(0.999, nil)
	rec, body := serve(t, h, "")
	if rec.Code != http.StatusInternalServerError || body.ErrorType != "INTERNAL_ERROR" {
		t.Fatalf("expected default internal error, got %d %+v", rec.Code, body)
	}
}

func TestHandlerZeroRateNeverFails(t *testing.T) {
	h := newTestHandler(0, nil)
	rec, _ := serve(t, h, "errorRate=0")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandlerRealLatency(t *testing.T) {
	h := NewHandler(WithRandom(func() float64 { return 0.9 }))
	start := time.Now()
	rec, _ := serve(t, h, "errorRate=0&latencyMs=30")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("handler returned after %s, want at least 30ms", elapsed)
	}
}

func TestHandlerAbortsWhenClientLeaves(t *testing.T) {
	h := NewHandler()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/error-generator?latencyMs=5000", nil).WithContext(ctx))
	if rec.Body.Len() != 0 {
		t.Fatalf("expected no body after cancellation, got %q", rec.Body.String())
	}
}

func TestHandlerSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	h := newTestHandler(0.1, nil, WithTracer(tp.Tracer("test")))
	serve(t, h, "errorType=VALIDATION_ERROR&errorRate=0.8&latencyMs=10")
	serve(t, newTestHandler(0.9, nil, WithTracer(tp.Tracer("test"))), "errorRate=0.8")

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	failed := spans[0]
	if failed.Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", failed.Status.Code)
	}
	attrs := map[string]interface{}{}
	for _, kv := range failed.Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	if attrs["error.type"] != "VALIDATION_ERROR" || attrs["error.rate"] != 0.8 || attrs["error.latency_ms"] != int64(10) {
		t.Errorf("unexpected attributes %v", attrs)
	}
	if attrs["error.message"] != "Invalid input parameters" {
		t.Errorf("error.message = %v", attrs["error.message"])
	}
	if spans[1].Status.Code == codes.Error {
		t.Error("successful request should not be marked as error")
	}
}

func TestHandlerLogs(t *testing.T) {
	var buf bytes.Buffer
	h := newTestHandler(0.9, nil, WithLogger(log.New(&buf, "", 0)))
	serve(t, h, "errorType=TIMEOUT_ERROR&errorRate=0.5&latencyMs=5")
	if !strings.Contains(buf.String(), "/api/error-generator 200 type=TIMEOUT_ERROR rate=0.50 latency=5ms") {
		t.Fatalf("unexpected log %q", buf.String())
	}
}

func TestNewMux(t *testing.T) {
	server := httptest.NewServer(NewMux(newTestHandler(0, nil)))
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/api/error-generator?errorRate=0")
	if err != nil {
		t.Fatalf("GET endpoint error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("endpoint status = %d", resp.StatusCode)
	}
}
