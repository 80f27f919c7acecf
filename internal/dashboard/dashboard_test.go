package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/torosent/errgen/internal/faults"
	"github.com/torosent/errgen/internal/metrics"
)

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		elapsed, total time.Duration
		want           int
	}{
		{0, time.Minute, 0},
		{30 * time.Second, time.Minute, 50},
		{2 * time.Minute, time.Minute, 100},
		{time.Second, 0, 0},
	}
	for _, tt := range tests {
		if got := progressPercent(tt.elapsed, tt.total); got != tt.want {
			t.Errorf("progressPercent(%s, %s) = %d, want %d", tt.elapsed, tt.total, got, tt.want)
		}
	}
}

func TestStatusBars(t *testing.T) {
	stats := metrics.Stats{
		Success: metrics.ClassStats{Count: 3, Statuses: map[int]int64{200: 3}},
		Error:   metrics.ClassStats{Count: 5, Statuses: map[int]int64{503: 1, 500: 4}},
	}
	labels, data := statusBars(stats)
	if strings.Join(labels, ",") != "200,500,503" {
		t.Fatalf("labels = %v", labels)
	}
	if len(data) != 3 || data[0] != 3 || data[1] != 4 || data[2] != 1 {
		t.Fatalf("data = %v", data)
	}
}

func TestFormatRows(t *testing.T) {
	empty := metrics.Stats{}
	if rows := formatErrorTypeRows(empty); len(rows) != 1 || rows[0] != "Awaiting data" {
		t.Errorf("unexpected empty type rows %v", rows)
	}
	if rows := formatTransportRows(empty); len(rows) != 1 || !strings.Contains(rows[0], "None") {
		t.Errorf("unexpected empty transport rows %v", rows)
	}

	stats := metrics.Stats{
		ErrorTypes: map[string]metrics.TypeStats{
			"TIMEOUT_ERROR":  {Total: 3, Successes: 1, Failures: 2},
			"INTERNAL_ERROR": {Total: 1, Failures: 1},
		},
		Transport: map[string]int64{"Timeout": 2},
	}
	rows := formatErrorTypeRows(stats)
	if len(rows) != 2 || !strings.Contains(rows[0], "INTERNAL_ERROR") || !strings.Contains(rows[1], "1 ok / [2 failed]") {
		t.Errorf("unexpected type rows %v", rows)
	}
	if rows := formatTransportRows(stats); len(rows) != 1 || rows[0] != "[Timeout](fg:red) 2" {
		t.Errorf("unexpected transport rows %v", rows)
	}
}

func TestFormatRunInfo(t *testing.T) {
	text := formatRunInfo(RunInfo{
		RunID:      "01RUN",
		TargetURL:  "http://localhost:8080",
		Rate:       5,
		Duration:   time.Minute,
		Timeout:    30 * time.Second,
		ErrorTypes: []string{"TIMEOUT_ERROR"},
	})
	for _, fragment := range []string{"Target: http://localhost:8080 | Run: 01RUN", "Rate: 5/s", "Duration: 1m0s", "Timeout: 30s", "Types: TIMEOUT_ERROR"} {
		if !strings.Contains(text, fragment) {
			t.Errorf("expected %q in %q", fragment, text)
		}
	}
	if strings.Contains(text, "Config:") {
		t.Error("config file should be omitted when unset")
	}
}

func TestRefreshUpdatesWidgets(t *testing.T) {
	collector := metrics.NewCollector()
	collector.Start()
	params := faults.Params{ErrorType: faults.InternalError}
	collector.Record(metrics.ResponseOutcome(params, 200, 40*time.Millisecond))
	collector.Record(metrics.ResponseOutcome(params, 500, 60*time.Millisecond))

	d := newDashboard(collector, RunInfo{TargetURL: "http://localhost:8080", Rate: 2, Duration: 10 * time.Second})
	d.refresh(collector.Stats(5*time.Second), 5*time.Second)

	if d.progress.Percent != 50 {
		t.Errorf("progress = %d, want 50", d.progress.Percent)
	}
	if !strings.Contains(d.counts.Text, "Successful: 1 (50.0%)") || !strings.Contains(d.counts.Text, "Failed: 1") {
		t.Errorf("unexpected counts %q", d.counts.Text)
	}
	if len(d.latencyHistory) != 1 || d.latencyHistory[0] != 50 {
		t.Errorf("latency history = %v", d.latencyHistory)
	}
	if len(d.statusChart.Data) != 2 {
		t.Errorf("status chart data = %v", d.statusChart.Data)
	}
	if len(d.typeList.Rows) != 1 {
		t.Errorf("type rows = %v", d.typeList.Rows)
	}
}
