package runner

import (
	"context"

	"github.com/torosent/errgen/internal/metrics"
)

// OutcomeLogger logs completed attempts.
type OutcomeLogger interface {
	LogOutcome(o metrics.Outcome)
}

// loggingRequester wraps a Requester with per-attempt logging.
type loggingRequester struct {
	inner  Requester
	logger OutcomeLogger
}

// WithLogging wraps a Requester to log every outcome as it resolves.
func WithLogging(req Requester, logger OutcomeLogger) Requester {
	if logger == nil {
		return req
	}
	return &loggingRequester{
		inner:  req,
		logger: logger,
	}
}

func (l *loggingRequester) Do(ctx context.Context) metrics.Outcome {
	o := l.inner.Do(ctx)
	l.logger.LogOutcome(o)
	return o
}
