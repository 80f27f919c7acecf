package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/torosent/errgen/internal/config"
	"github.com/torosent/errgen/internal/faults"
	"github.com/torosent/errgen/internal/httpclient"
	"github.com/torosent/errgen/internal/metrics"
)

func newTestRequester(t *testing.T, baseURL string) *httpRequester {
	t.Helper()
	cfg := config.Defaults()
	cfg.TargetURL = baseURL
	builder, err := httpclient.NewRequestBuilder(cfg)
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}
	opts := faults.DefaultGeneratorOptions()
	opts.Seed = 7
	gen, err := faults.NewGenerator(opts)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return &httpRequester{
		client:    httpclient.NewClient(2 * time.Second),
		builder:   builder,
		generator: gen,
	}
}

func TestHTTPRequesterSuccess(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != faults.EndpointPath {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"Request processed successfully"}`))
	}))
	defer srv.Close()

	req := newTestRequester(t, srv.URL)
	o := req.Do(context.Background())

	if o.Class != metrics.ClassSuccess || o.StatusCode != http.StatusOK {
		t.Fatalf("outcome = %+v, want success 200", o)
	}
	if o.Message != "" {
		t.Errorf("success outcomes carry no message, got %q", o.Message)
	}
	for _, key := range []string{"errorType=", "errorRate=", "latencyMs="} {
		if !strings.Contains(gotQuery, key) {
			t.Errorf("query %q missing %s", gotQuery, key)
		}
	}
}

func TestHTTPRequesterErrorStatusKeepsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"Service dependency failure","errorType":"DEPENDENCY_ERROR"}`))
	}))
	defer srv.Close()

	o := newTestRequester(t, srv.URL).Do(context.Background())
	if o.Class != metrics.ClassError || o.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("outcome = %+v, want error 503", o)
	}
	if o.Message != "Service dependency failure" {
		t.Errorf("message = %q", o.Message)
	}
	if o.Err != nil {
		t.Errorf("error status is not a transport failure: %v", o.Err)
	}
}

func TestHTTPRequesterTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	o := newTestRequester(t, url).Do(context.Background())
	if o.HasStatus() {
		t.Fatalf("expected no status, got %d", o.StatusCode)
	}
	if o.Err == nil || !o.Failed() {
		t.Fatalf("expected transport failure, got %+v", o)
	}
}

func TestHTTPRequesterRecordsSpan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	req := newTestRequester(t, srv.URL)
	req.tracer = tp.Tracer("test")
	req.runID = "01RUN"
	req.Do(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	var sawRunID, sawType bool
	for _, kv := range spans[0].Attributes {
		switch string(kv.Key) {
		case "errgen.run_id":
			sawRunID = kv.Value.AsString() == "01RUN"
		case "error.type":
			sawType = kv.Value.AsString() != ""
		}
	}
	if !sawRunID || !sawType {
		t.Errorf("span attributes = %v", spans[0].Attributes)
	}
}
