package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/errgen/internal/metrics"
)

// ProgressReporter rewrites a single status line while a quiet run is going.
type ProgressReporter struct {
	collector *metrics.Collector
	total     time.Duration
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval. total is the configured run duration shown next to the elapsed time.
func NewProgressReporter(collector *metrics.Collector, total, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: collector,
		total:     total,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return
	}
	go p.run()
}

// Stop halts progress updates and ends the line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprintln(p.writer)
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, progressLine(p.collector.Stats(p.collector.Elapsed()), p.total))
		case <-p.done:
			return
		}
	}
}

func progressLine(stats metrics.Stats, total time.Duration) string {
	line := fmt.Sprintf("\rRequests: %d | Successes: %d | Failures: %d | RPS: %.1f",
		stats.Total, stats.Success.Count, stats.Error.Count, stats.RequestsPerSec)
	if stats.Total > 0 {
		line += fmt.Sprintf(" | P99: %.0fms", stats.P99LatencyMs)
	}
	if total > 0 {
		line += fmt.Sprintf(" | %s/%s", stats.Duration.Truncate(time.Second), total)
	}
	return line
}
