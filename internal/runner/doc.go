// Package runner drives errgen's load loop.
//
// A [Runner] waits for a pacer tick, launches [Options.Rate] concurrent
// attempts, waits for all of them, and then records their outcomes one by
// one. The next batch never starts before the previous one has fully
// resolved, so a slow target lowers the effective rate rather than piling up
// requests:
//
//	r := runner.New(runner.Options{
//		Rate:      5,
//		Duration:  time.Minute,
//		Requester: requester,
//		Recorder:  collector,
//	})
//	result := r.Run(ctx)
//
// Ticks come from a [golang.org/x/time/rate.Limiter] with a burst of one, so
// the first batch starts immediately and later ones start at most once per
// [Options.Interval]. The duration is checked only between batches.
//
// # Middleware
//
// [WithLogging] reports each outcome to an [OutcomeLogger] as soon as the
// attempt resolves, before the batch is joined.
package runner
