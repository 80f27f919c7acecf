package runner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/torosent/errgen/internal/faults"
	"github.com/torosent/errgen/internal/metrics"
)

type staticRequester struct {
	outcome metrics.Outcome
}

func (s staticRequester) Do(context.Context) metrics.Outcome { return s.outcome }

type captureLogger struct {
	mu   sync.Mutex
	seen []metrics.Outcome
}

func (c *captureLogger) LogOutcome(o metrics.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, o)
}

func TestWithLoggingLogsEveryOutcome(t *testing.T) {
	logger := &captureLogger{}
	failure := metrics.TransportOutcome(faults.Params{}, errors.New("boom"), 0)
	req := WithLogging(staticRequester{outcome: failure}, logger)

	got := req.Do(context.Background())
	if got.Err == nil || !got.Failed() {
		t.Fatalf("expected outcome to pass through unchanged, got %+v", got)
	}

	success := metrics.ResponseOutcome(faults.Params{}, 200, 0)
	WithLogging(staticRequester{outcome: success}, logger).Do(context.Background())

	if len(logger.seen) != 2 {
		t.Fatalf("expected 2 logged outcomes, got %d", len(logger.seen))
	}
}

func TestWithLoggingNilLogger(t *testing.T) {
	inner := staticRequester{}
	if got := WithLogging(inner, nil); got != Requester(inner) {
		t.Fatal("expected inner requester to be returned when logger is nil")
	}
}

func TestPacerWithoutLimiterHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var p *pacer
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Fatal("expected context error after cancel")
	}
}
