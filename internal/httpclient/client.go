package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/torosent/errgen/internal/config"
	"github.com/torosent/errgen/internal/faults"
)

// HeaderInjector adds headers to an outgoing request, e.g. trace context.
type HeaderInjector func(ctx context.Context, header http.Header)

// RequestBuilder builds fault-injection GET requests for one base URL.
type RequestBuilder struct {
	endpoint *url.URL
	headers  http.Header
	inject   HeaderInjector
}

func NewRequestBuilder(cfg *config.Config) (*RequestBuilder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	base := cfg.BaseURL()
	if base == "" {
		return nil, errors.New("target URL is required")
	}

	endpoint, err := url.Parse(base + faults.EndpointPath)
	if err != nil {
		return nil, fmt.Errorf("parse target URL: %w", err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("target URL %q must be absolute", cfg.TargetURL)
	}

	headers := http.Header{}
	headers.Set("Accept", "application/json")
	headers.Set("User-Agent", "errgen")

	return &RequestBuilder{
		endpoint: endpoint,
		headers:  headers,
	}, nil
}

// WithHeaderInjector returns the builder with inject applied to every request.
func (b *RequestBuilder) WithHeaderInjector(inject HeaderInjector) *RequestBuilder {
	b.inject = inject
	return b
}

// Endpoint returns the endpoint URL without query parameters.
func (b *RequestBuilder) Endpoint() string {
	return b.endpoint.String()
}

// Build creates a GET request carrying params as query parameters.
func (b *RequestBuilder) Build(ctx context.Context, params faults.Params) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	target := *b.endpoint
	target.RawQuery = params.Query().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header = b.headers.Clone()
	if b.inject != nil {
		b.inject(ctx, req.Header)
	}
	return req, nil
}

// NewClient returns a client with a pooled transport shared by all requests.
// A non-positive timeout disables the client-level deadline.
func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   256,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
