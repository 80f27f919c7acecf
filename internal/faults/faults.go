// Package faults describes the fault-injection parameters errgen sends with
// every request and draws them at random for each attempt.
package faults

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// EndpointPath is the fault-injection route appended to the base URL.
const EndpointPath = "/api/error-generator"

// Query parameter names understood by the fault-injection endpoint.
const (
	ParamErrorType = "errorType"
	ParamErrorRate = "errorRate"
	ParamLatencyMs = "latencyMs"
)

type ErrorType string

const (
	InternalError   ErrorType = "INTERNAL_ERROR"
	ValidationError ErrorType = "VALIDATION_ERROR"
	TimeoutError    ErrorType = "TIMEOUT_ERROR"
	DependencyError ErrorType = "DEPENDENCY_ERROR"
)

// AllErrorTypes lists every error type the endpoint can simulate.
var AllErrorTypes = []ErrorType{
	InternalError,
	ValidationError,
	TimeoutError,
	DependencyError,
}

// Default parameter ranges.
const (
	DefaultErrorRateMin = 0.1
	DefaultErrorRateMax = 0.9
	DefaultLatencyMinMs = 0
	DefaultLatencyMaxMs = 2000
)

// ParseErrorType normalizes s and returns the matching ErrorType.
func ParseErrorType(s string) (ErrorType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for _, t := range AllErrorTypes {
		if string(t) == normalized {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown error type %q (supported: %s)", s, joinTypes(AllErrorTypes))
}

// ParseErrorTypes parses a list of error type names, dropping duplicates.
// An empty list yields AllErrorTypes.
func ParseErrorTypes(values []string) ([]ErrorType, error) {
	if len(values) == 0 {
		return append([]ErrorType(nil), AllErrorTypes...), nil
	}
	seen := make(map[ErrorType]struct{}, len(values))
	result := make([]ErrorType, 0, len(values))
	for _, v := range values {
		t, err := ParseErrorType(v)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		result = append(result, t)
	}
	return result, nil
}

// Params is the randomized triple attached to a single request.
type Params struct {
	ErrorType ErrorType `json:"error_type"`
	ErrorRate float64   `json:"error_rate"`
	LatencyMs int       `json:"latency_ms"`
}

// Query encodes p as endpoint query parameters.
func (p Params) Query() url.Values {
	q := url.Values{}
	q.Set(ParamErrorType, string(p.ErrorType))
	q.Set(ParamErrorRate, strconv.FormatFloat(p.ErrorRate, 'f', -1, 64))
	q.Set(ParamLatencyMs, strconv.Itoa(p.LatencyMs))
	return q
}

func (p Params) String() string {
	return fmt.Sprintf("%s rate=%.2f latency=%dms", p.ErrorType, p.ErrorRate, p.LatencyMs)
}

func joinTypes(types []ErrorType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
