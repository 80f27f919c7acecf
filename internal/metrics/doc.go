// Package metrics holds the results aggregate of an errgen run.
//
// Every request attempt produces exactly one [Outcome]. Outcomes fall into
// two classes: success (HTTP 200) and error (any other status, or a
// transport failure with no status at all). The [Collector] counts each
// class, keeps a per-status breakdown, and tracks latency percentiles with
// an HDR histogram:
//
//	collector := metrics.NewCollector()
//	collector.Start()
//	collector.Record(metrics.ResponseOutcome(params, 503, latency))
//	stats := collector.Stats(elapsed)
//
// Transport failures increment the error class total only. Their reasons are
// tallied separately in [Stats.Transport] and never appear as status codes.
package metrics
