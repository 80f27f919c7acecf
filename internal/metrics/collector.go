package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const maxHistoryPoints = 3600

// Collector is the results aggregate of a single run. Record is expected to
// be called from one goroutine; the mutex only serves concurrent readers
// such as the progress reporter and the dashboard.
type Collector struct {
	mu         sync.Mutex
	hist       *hdrhistogram.Histogram
	success    classCounts
	failure    classCounts
	byType     map[string]*TypeStats
	transport  map[string]int64
	minLatency time.Duration
	maxLatency time.Duration
	sumLatency time.Duration
	start      time.Time
	history    []DataPoint
}

type classCounts struct {
	count    int64
	statuses map[int]int64
}

// ClassStats holds the total and per-status counts of one outcome class.
type ClassStats struct {
	Count    int64         `json:"count" yaml:"count"`
	Statuses map[int]int64 `json:"statuses,omitempty" yaml:"statuses,omitempty"`
}

// TypeStats breaks outcomes down by the injected error type.
type TypeStats struct {
	Total     int64 `json:"total" yaml:"total"`
	Successes int64 `json:"successes" yaml:"successes"`
	Failures  int64 `json:"failures" yaml:"failures"`
}

// DataPoint is a point-in-time snapshot used for charts.
type DataPoint struct {
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
	Total          int64     `json:"total" yaml:"total"`
	Successes      int64     `json:"successes" yaml:"successes"`
	Failures       int64     `json:"failures" yaml:"failures"`
	RequestsPerSec float64   `json:"requests_per_sec" yaml:"requests_per_sec"`
	MeanLatencyMs  float64   `json:"mean_latency_ms" yaml:"mean_latency_ms"`
	P99LatencyMs   float64   `json:"p99_latency_ms" yaml:"p99_latency_ms"`
}

// Stats represents aggregated metrics.
type Stats struct {
	Total          int64                `json:"total" yaml:"total"`
	Successes      int64                `json:"successes" yaml:"successes"`
	Failures       int64                `json:"failures" yaml:"failures"`
	Success        ClassStats           `json:"success" yaml:"success"`
	Error          ClassStats           `json:"error" yaml:"error"`
	ErrorTypes     map[string]TypeStats `json:"error_types,omitempty" yaml:"error_types,omitempty"`
	Transport      map[string]int64     `json:"transport_errors,omitempty" yaml:"transport_errors,omitempty"`
	RequestsPerSec float64              `json:"requests_per_sec" yaml:"requests_per_sec"`

	MinLatency  time.Duration `json:"-" yaml:"-"`
	MaxLatency  time.Duration `json:"-" yaml:"-"`
	MeanLatency time.Duration `json:"-" yaml:"-"`
	P50Latency  time.Duration `json:"-" yaml:"-"`
	P90Latency  time.Duration `json:"-" yaml:"-"`
	P95Latency  time.Duration `json:"-" yaml:"-"`
	P99Latency  time.Duration `json:"-" yaml:"-"`
	Duration    time.Duration `json:"-" yaml:"-"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms" yaml:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms" yaml:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms" yaml:"mean_latency_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms" yaml:"p50_latency_ms"`
	P90LatencyMs  float64 `json:"p90_latency_ms" yaml:"p90_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms" yaml:"p95_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms" yaml:"p99_latency_ms"`
	DurationMs    float64 `json:"duration_ms" yaml:"duration_ms"`
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:      h,
		success:   classCounts{statuses: make(map[int]int64)},
		failure:   classCounts{statuses: make(map[int]int64)},
		byType:    make(map[string]*TypeStats),
		transport: make(map[string]int64),
		start:     time.Now(),
	}
}

// Start marks the beginning of the run for elapsed-time calculations.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// Elapsed returns the time since Start.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}

// Record adds exactly one attempt to the aggregate.
func (c *Collector) Record(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recordLatency(o.Latency)

	target := &c.failure
	if o.Class == ClassSuccess {
		target = &c.success
	}
	target.count++
	if o.HasStatus() {
		target.statuses[o.StatusCode]++
	} else if o.Err != nil {
		c.transport[TransportReason(o.Err)]++
	}

	if name := string(o.Params.ErrorType); name != "" {
		ts, ok := c.byType[name]
		if !ok {
			ts = &TypeStats{}
			c.byType[name] = ts
		}
		ts.Total++
		if o.Class == ClassSuccess {
			ts.Successes++
		} else {
			ts.Failures++
		}
	}
}

func (c *Collector) recordLatency(latency time.Duration) {
	if latency <= 0 {
		return
	}
	us := latency.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)

	c.sumLatency += latency
	if c.minLatency == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statsLocked(elapsed)
}

func (c *Collector) statsLocked(elapsed time.Duration) Stats {
	total := c.success.count + c.failure.count
	stats := Stats{
		Total:      total,
		Successes:  c.success.count,
		Failures:   c.failure.count,
		Success:    c.success.snapshot(),
		Error:      c.failure.snapshot(),
		MinLatency: c.minLatency,
		MaxLatency: c.maxLatency,
	}

	if samples := c.hist.TotalCount(); samples > 0 {
		stats.MeanLatency = time.Duration(int64(c.sumLatency) / samples)
		stats.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Latency = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P95Latency = time.Duration(c.hist.ValueAtQuantile(95)) * time.Microsecond
		stats.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.MinLatencyMs = toMillis(stats.MinLatency)
	stats.MaxLatencyMs = toMillis(stats.MaxLatency)
	stats.MeanLatencyMs = toMillis(stats.MeanLatency)
	stats.P50LatencyMs = toMillis(stats.P50Latency)
	stats.P90LatencyMs = toMillis(stats.P90Latency)
	stats.P95LatencyMs = toMillis(stats.P95Latency)
	stats.P99LatencyMs = toMillis(stats.P99Latency)
	stats.Duration = elapsed
	stats.DurationMs = toMillis(elapsed)
	if elapsed > 0 && total > 0 {
		stats.RequestsPerSec = float64(total) / elapsed.Seconds()
	}

	if len(c.byType) > 0 {
		stats.ErrorTypes = make(map[string]TypeStats, len(c.byType))
		for name, ts := range c.byType {
			stats.ErrorTypes[name] = *ts
		}
	}
	if len(c.transport) > 0 {
		stats.Transport = make(map[string]int64, len(c.transport))
		for reason, n := range c.transport {
			stats.Transport[reason] = n
		}
	}
	return stats
}

// Snapshot appends the current totals to the history.
func (c *Collector) Snapshot() {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.statsLocked(time.Since(c.start))
	c.history = append(c.history, DataPoint{
		Timestamp:      time.Now(),
		Total:          stats.Total,
		Successes:      stats.Successes,
		Failures:       stats.Failures,
		RequestsPerSec: stats.RequestsPerSec,
		MeanLatencyMs:  stats.MeanLatencyMs,
		P99LatencyMs:   stats.P99LatencyMs,
	})
	if len(c.history) > maxHistoryPoints {
		c.history = c.history[len(c.history)-maxHistoryPoints:]
	}
}

// History returns a copy of the recorded snapshots.
func (c *Collector) History() []DataPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DataPoint(nil), c.history...)
}

func (cc classCounts) snapshot() ClassStats {
	out := ClassStats{Count: cc.count}
	if len(cc.statuses) > 0 {
		out.Statuses = make(map[int]int64, len(cc.statuses))
		for code, n := range cc.statuses {
			out.Statuses[code] = n
		}
	}
	return out
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
