// Package target implements a fault-injection endpoint: it delays each
// request by the asked-for latency and then fails it with the asked-for
// probability.
package target

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/errgen/internal/faults"
	"github.com/torosent/errgen/internal/tracing"
)

// SuccessMessage is returned when no fault is injected.
const SuccessMessage = "Request processed successfully"

// Request is the parsed query of a fault-injection call.
type Request struct {
	ErrorType string
	ErrorRate float64
	LatencyMs int
}

// Response is the JSON body of every reply.
type Response struct {
	Message   string `json:"message"`
	ErrorType string `json:"errorType"`
	Timestamp string `json:"timestamp"`
}

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
)

// leadingFloat parses the longest numeric prefix of s, so "0.5x" reads as 0.5.
func leadingFloat(s string) (float64, bool) {
	m := floatPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	return v, err == nil
}

// leadingInt parses the leading integer digits of s, so "1.5" reads as 1.
func leadingInt(s string) (int, bool) {
	m := intPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(m)
	return v, err == nil
}

// ParseRequest reads the fault parameters. errorType defaults to
// INTERNAL_ERROR, errorRate to 1 and latencyMs to 0. Numbers are read from
// their numeric prefix. The rate is clamped to [0, 1]; a rate with no
// numeric prefix never injects a fault.
func ParseRequest(q url.Values) Request {
	req := Request{
		ErrorType: string(faults.InternalError),
		ErrorRate: 1.0,
	}
	if v := q.Get(faults.ParamErrorType); v != "" {
		req.ErrorType = v
	}
	if v := q.Get(faults.ParamErrorRate); v != "" {
		rate, ok := leadingFloat(v)
		if !ok || math.IsNaN(rate) {
			rate = 0
		}
		req.ErrorRate = math.Min(math.Max(rate, 0), 1)
	}
	if v := q.Get(faults.ParamLatencyMs); v != "" {
		if ms, ok := leadingInt(v); ok && ms > 0 {
			req.LatencyMs = ms
		}
	}
	return req
}

// FailureMessages returns the response message and the short span message
// for an injected fault of the given type. Unknown types fail as internal
// errors.
func FailureMessages(errorType string) (message, detail string) {
	switch faults.ErrorType(errorType) {
	case faults.ValidationError:
		return "Validation failed: Invalid input parameters", "Invalid input parameters"
	case faults.TimeoutError:
		return "Operation timed out", "Request timed out"
	case faults.DependencyError:
		return "Failed to reach dependent service", "Downstream service unavailable"
	default:
		return "Internal server error occurred", "Internal server error"
	}
}

// Handler serves the fault-injection endpoint.
type Handler struct {
	tracer trace.Tracer
	logger *log.Logger

	mu     sync.Mutex
	random func() float64

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithTracer records a server span per request.
func WithTracer(tracer trace.Tracer) Option {
	return func(h *Handler) { h.tracer = tracer }
}

// WithLogger logs one line per request.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithRandom replaces the source of the fault draw; it must return values in [0, 1).
func WithRandom(random func() float64) Option {
	return func(h *Handler) { h.random = random }
}

// WithSleep replaces the latency wait.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(h *Handler) { h.sleep = sleep }
}

// WithClock replaces the clock used for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func NewHandler(opts ...Option) *Handler {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	h := &Handler{
		tracer: noop.NewTracerProvider().Tracer("errgen-target"),
		random: rnd.Float64,
		sleep:  sleepContext,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewMux routes the fault-injection endpoint and a health check.
func NewMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(faults.EndpointPath, h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartHandlerSpan(r, h.tracer)
	defer span.End()

	req := ParseRequest(r.URL.Query())
	span.SetAttributes(
		tracing.AttrErrorType.String(req.ErrorType),
		tracing.AttrErrorRate.Float64(req.ErrorRate),
		tracing.AttrLatencyMs.Int(req.LatencyMs),
	)

	if req.LatencyMs > 0 {
		if err := h.sleep(ctx, time.Duration(req.LatencyMs)*time.Millisecond); err != nil {
			// Client went away; nobody reads the reply.
			span.SetStatus(codes.Error, err.Error())
			return
		}
	}

	status := http.StatusOK
	message := SuccessMessage
	if h.draw() < req.ErrorRate {
		var detail string
		message, detail = FailureMessages(req.ErrorType)
		status = http.StatusInternalServerError
		span.SetAttributes(attribute.String("error.message", detail), tracing.AttrInjected.Bool(true))
		span.RecordError(errors.New(message))
		span.SetStatus(codes.Error, message)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	if h.logger != nil {
		h.logger.Printf("%s %d type=%s rate=%.2f latency=%dms", r.URL.Path, status, req.ErrorType, req.ErrorRate, req.LatencyMs)
	}

	respondJSON(w, status, Response{
		Message:   message,
		ErrorType: req.ErrorType,
		Timestamp: h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (h *Handler) draw() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.random()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
