package runner

import (
	"context"
	"sync"
	"time"

	"github.com/torosent/errgen/internal/metrics"
)

// Result captures execution summary.
type Result struct {
	Total     int64
	Successes int64
	Errors    int64
	Batches   int
	Duration  time.Duration
}

// Runner fires fixed-size batches of concurrent requests on a steady tick.
type Runner struct {
	opt   Options
	pacer *pacer
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, pacer: newPacer(opt)}
}

// Run fires batches until the duration has elapsed or ctx is cancelled.
// Cancellation and the duration only stop new batches from starting; a batch
// in flight always runs to completion and is recorded.
func (r *Runner) Run(ctx context.Context) Result {
	start := time.Now()
	var res Result

	if r.opt.Requester == nil || r.opt.Rate == 0 || r.opt.Duration == 0 {
		res.Duration = time.Since(start)
		return res
	}

	waitCtx, cancel := context.WithDeadline(ctx, start.Add(r.opt.Duration))
	defer cancel()
	reqCtx := context.WithoutCancel(ctx)

	for time.Since(start) < r.opt.Duration {
		if err := r.pacer.Wait(waitCtx); err != nil {
			break
		}
		if time.Since(start) >= r.opt.Duration {
			break
		}

		outcomes := r.fire(reqCtx)
		for _, o := range outcomes {
			if r.opt.Recorder != nil {
				r.opt.Recorder.Record(o)
			}
			res.Total++
			if o.Failed() {
				res.Errors++
			} else {
				res.Successes++
			}
		}
		res.Batches++
		if r.opt.OnBatch != nil {
			r.opt.OnBatch(res.Batches, outcomes)
		}
	}

	res.Duration = time.Since(start)
	return res
}

// fire launches one batch and waits for every attempt to resolve.
func (r *Runner) fire(ctx context.Context) []metrics.Outcome {
	outcomes := make([]metrics.Outcome, r.opt.Rate)
	var wg sync.WaitGroup
	wg.Add(len(outcomes))
	for i := range outcomes {
		go func(i int) {
			defer wg.Done()
			outcomes[i] = r.opt.Requester.Do(ctx)
		}(i)
	}
	wg.Wait()
	return outcomes
}
