package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

type customFailure struct{}

func (*customFailure) Error() string { return "custom" }

func TestTransportReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "Unknown error"},
		{"deadline", &url.Error{Op: "Get", URL: "http://x", Err: context.DeadlineExceeded}, "Timeout"},
		{"net timeout", &url.Error{Op: "Get", URL: "http://x", Err: timeoutError{}}, "Timeout"},
		{"refused", &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}}, "Connection refused"},
		{"dns", &url.Error{Op: "Get", URL: "http://x", Err: &net.DNSError{Name: "nope.invalid", Err: "no such host"}}, "DNS lookup failed"},
		{"canceled", fmt.Errorf("wrapped: %w", context.Canceled), "Canceled"},
		{"unwraps url error", &url.Error{Op: "Get", URL: "http://x", Err: &customFailure{}}, "Custom Failure (metrics)"},
		{"plain", errors.New("boom"), "Error String (errors)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TransportReason(tt.err); got != tt.want {
				t.Errorf("TransportReason() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFriendlyErrorName(t *testing.T) {
	tests := map[string]string{
		"":                       "Unknown error",
		"*url.Error":             "Request URL error",
		"*net.OpError":           "Network operation failed",
		"main.customError":       "Custom Error",
		"*tls.RecordHeaderError": "Record Header Error (tls)",
	}
	for input, want := range tests {
		if got := FriendlyErrorName(input); got != want {
			t.Errorf("FriendlyErrorName(%q) = %q, want %q", input, got, want)
		}
	}
}
