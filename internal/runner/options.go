package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/torosent/errgen/internal/metrics"
)

// DefaultInterval is the spacing between batch starts.
const DefaultInterval = time.Second

// Requester performs a single request attempt and reports its outcome.
// Failures are part of the outcome, never returned separately.
type Requester interface {
	Do(ctx context.Context) metrics.Outcome
}

// Recorder receives every outcome exactly once, from the control goroutine.
type Recorder interface {
	Record(o metrics.Outcome)
}

// BatchHook is called after a batch has been recorded.
type BatchHook func(batch int, outcomes []metrics.Outcome)

// Options configure the Runner.
type Options struct {
	Rate           int           // concurrent requests per batch
	Duration       time.Duration // batches start only while elapsed < Duration
	Interval       time.Duration // pacer tick (default one second)
	Requester      Requester     // request executor (required)
	Recorder       Recorder      // results aggregate (optional)
	OnBatch        BatchHook     // optional
	LimiterFactory func(interval time.Duration) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() {
	if o.Rate < 0 {
		o.Rate = 0
	}
	if o.Duration < 0 {
		o.Duration = 0
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(interval time.Duration) *rate.Limiter {
			// Burst of one makes the first tick immediate and spaces the rest.
			return rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}
