package runner

import (
	"context"

	"golang.org/x/time/rate"
)

// pacer releases one batch per tick.
type pacer struct {
	limiter *rate.Limiter
}

func newPacer(opt Options) *pacer {
	return &pacer{limiter: opt.LimiterFactory(opt.Interval)}
}

// Wait blocks until the next tick. It fails without waiting when the tick
// would land after the context deadline.
func (p *pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
