package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/torosent/errgen/internal/metrics"
)

const logTimestampLayout = "2006-01-02T15:04:05.000000"

// Banner describes a run before it starts.
type Banner struct {
	RunID    string
	BaseURL  string
	Duration time.Duration
	Rate     int
}

// RequestLog writes one line per attempt. Attempts of a batch resolve on
// their own goroutines, so writes are serialized.
type RequestLog struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func NewRequestLog(w io.Writer) *RequestLog {
	if w == nil {
		w = io.Discard
	}
	return &RequestLog{w: w, now: time.Now}
}

// PrintBanner writes the run header and the column legend.
func (l *RequestLog) PrintBanner(b Banner) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.w, "\nStarting error generation test:")
	if b.RunID != "" {
		fmt.Fprintf(l.w, "Run ID: %s\n", b.RunID)
	}
	fmt.Fprintf(l.w, "Base URL: %s\n", b.BaseURL)
	fmt.Fprintf(l.w, "Duration: %d seconds\n", int(b.Duration/time.Second))
	fmt.Fprintf(l.w, "Rate: %d requests/second\n", b.Rate)
	fmt.Fprintln(l.w, "\nTimestamp | Status | Error Type | Error Rate | Latency")
	fmt.Fprintln(l.w, strings.Repeat("-", 70))
}

// LogOutcome writes the line for a single attempt.
func (l *RequestLog) LogOutcome(o metrics.Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !o.HasStatus() {
		fmt.Fprintf(l.w, "Request failed: %v\n", o.Err)
		return
	}
	fmt.Fprintf(l.w, "%s | %d | %s | rate=%.2f | latency=%.0fms\n",
		l.now().Format(logTimestampLayout),
		o.StatusCode,
		o.Params.ErrorType,
		o.Params.ErrorRate,
		float64(o.Latency)/float64(time.Millisecond),
	)
}
