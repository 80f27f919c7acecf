package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/torosent/errgen/internal/config"
	"github.com/torosent/errgen/internal/faults"
)

func TestBuildRequestCarriesParams(t *testing.T) {
	cfg := config.Defaults()
	cfg.TargetURL = "http://example.com/"

	builder, err := NewRequestBuilder(cfg)
	if err != nil {
		t.Fatalf("expected builder, got error: %v", err)
	}
	if got := builder.Endpoint(); got != "http://example.com/api/error-generator" {
		t.Fatalf("Endpoint() = %q", got)
	}

	params := faults.Params{ErrorType: faults.TimeoutError, ErrorRate: 0.25, LatencyMs: 1500}
	req, err := builder.Build(context.Background(), params)
	if err != nil {
		t.Fatalf("expected request, got error: %v", err)
	}

	if req.Method != http.MethodGet {
		t.Fatalf("expected GET, got %s", req.Method)
	}
	if req.URL.Path != faults.EndpointPath {
		t.Fatalf("expected path %s, got %s", faults.EndpointPath, req.URL.Path)
	}
	q := req.URL.Query()
	if q.Get("errorType") != "TIMEOUT_ERROR" || q.Get("errorRate") != "0.25" || q.Get("latencyMs") != "1500" {
		t.Fatalf("unexpected query %q", req.URL.RawQuery)
	}
	if req.Header.Get("Accept") != "application/json" {
		t.Fatalf("expected Accept header, got %q", req.Header.Get("Accept"))
	}
	if req.Body != nil && req.Body != http.NoBody {
		t.Fatal("expected no request body")
	}
}

func TestBuildRequestKeepsBasePath(t *testing.T) {
	cfg := config.Defaults()
	cfg.TargetURL = "https://gateway.example.com/faults"

	builder, err := NewRequestBuilder(cfg)
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}
	req, err := builder.Build(context.Background(), faults.Params{ErrorType: faults.InternalError})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if req.URL.Path != "/faults/api/error-generator" {
		t.Fatalf("unexpected path %s", req.URL.Path)
	}
}

func TestBuildRequestAppliesHeaderInjector(t *testing.T) {
	builder, err := NewRequestBuilder(config.Defaults())
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}
	builder.WithHeaderInjector(func(_ context.Context, h http.Header) {
		h.Set("Traceparent", "00-abc-def-01")
	})

	first, _ := builder.Build(context.Background(), faults.Params{})
	second, _ := builder.Build(context.Background(), faults.Params{})
	if first.Header.Get("Traceparent") == "" || second.Header.Get("Traceparent") == "" {
		t.Fatal("expected injected header on every request")
	}
	first.Header.Set("X-Mutated", "1")
	if second.Header.Get("X-Mutated") != "" {
		t.Fatal("requests must not share header maps")
	}
}

func TestNewRequestBuilderRejectsBadConfig(t *testing.T) {
	if _, err := NewRequestBuilder(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	cfg := config.Defaults()
	cfg.TargetURL = "  "
	if _, err := NewRequestBuilder(cfg); err == nil {
		t.Fatal("expected error for empty URL")
	}
	cfg.TargetURL = "localhost"
	if _, err := NewRequestBuilder(cfg); err == nil {
		t.Fatal("expected error for relative URL")
	}
}

func TestClientTimeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(block)

	client := NewClient(50 * time.Millisecond)
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	_, err = client.Do(req)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var netErr interface{ Timeout() bool }
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestNewClientNegativeTimeout(t *testing.T) {
	if client := NewClient(-time.Second); client.Timeout != 0 {
		t.Fatalf("expected timeout to clamp to 0, got %s", client.Timeout)
	}
}

func TestDrainBody(t *testing.T) {
	body := strings.Repeat("x", 100)
	head, err := DrainBody(io.NopCloser(strings.NewReader(body)), 10)
	if err != nil {
		t.Fatalf("DrainBody() error = %v", err)
	}
	if string(head) != strings.Repeat("x", 10) {
		t.Fatalf("unexpected head %q", head)
	}

	if head, err := DrainBody(nil, 10); head != nil || err != nil {
		t.Fatalf("DrainBody(nil) = %q, %v", head, err)
	}
}

func TestResponseMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error body", `{"message":"Simulated timeout","errorType":"TIMEOUT_ERROR"}`, "Simulated timeout"},
		{"no message", `{"status":"ok"}`, ""},
		{"plain text", `Request processed successfully`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResponseMessage([]byte(tt.body)); got != tt.want {
				t.Fatalf("ResponseMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
