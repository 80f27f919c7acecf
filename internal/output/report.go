package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/torosent/errgen/internal/config"
	"github.com/torosent/errgen/internal/metrics"
	"github.com/torosent/errgen/internal/threshold"
)

// Summary is the final report of a run. Stats is inlined so the serialized
// form carries success and error classes at the top level.
type Summary struct {
	RunID           string             `json:"run_id" yaml:"run_id"`
	Target          string             `json:"target" yaml:"target"`
	Rate            int                `json:"rps" yaml:"rps"`
	DurationSeconds int                `json:"duration_seconds" yaml:"duration_seconds"`
	Batches         int                `json:"batches" yaml:"batches"`
	Interrupted     bool               `json:"interrupted,omitempty" yaml:"interrupted,omitempty"`
	Thresholds      []threshold.Result `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`

	metrics.Stats `yaml:",inline"`
}

// WriteSummary renders s in the requested format.
func WriteSummary(w io.Writer, format config.OutputFormat, s Summary) error {
	switch format {
	case config.OutputJSON:
		return PrintJSONReport(w, s)
	case config.OutputYAML:
		return PrintYAMLReport(w, s)
	default:
		PrintReport(w, s)
		return nil
	}
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, s Summary) {
	stats := s.Stats
	fmt.Fprintln(w, "\nTest completed! Results:")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Total Successful Requests: %d\n", stats.Success.Count)
	fmt.Fprintf(w, "Total Failed Requests: %d\n", stats.Error.Count)

	fmt.Fprintln(w, "\nStatus Code Distribution:")
	for _, row := range metrics.StatusDistribution(stats) {
		fmt.Fprintf(w, "  %d: %d\n", row.Code, row.Count)
	}

	if stats.Total > 0 {
		fmt.Fprintln(w, "\nLatency:")
		fmt.Fprintf(w, "  Min:   %s\n", stats.MinLatency)
		fmt.Fprintf(w, "  Mean:  %s\n", stats.MeanLatency)
		fmt.Fprintf(w, "  P50:   %s\n", stats.P50Latency)
		fmt.Fprintf(w, "  P90:   %s\n", stats.P90Latency)
		fmt.Fprintf(w, "  P95:   %s\n", stats.P95Latency)
		fmt.Fprintf(w, "  P99:   %s\n", stats.P99Latency)
		fmt.Fprintf(w, "  Max:   %s\n", stats.MaxLatency)
	}

	if len(stats.ErrorTypes) > 0 {
		fmt.Fprintln(w, "\nError Types:")
		for _, name := range metrics.SortedKeys(stats.ErrorTypes) {
			ts := stats.ErrorTypes[name]
			fmt.Fprintf(w, "  %s: total=%d, successes=%d, failures=%d\n", name, ts.Total, ts.Successes, ts.Failures)
		}
	}

	if len(stats.Transport) > 0 {
		fmt.Fprintln(w, "\nTransport Failures:")
		for _, reason := range metrics.SortedKeys(stats.Transport) {
			fmt.Fprintf(w, "  %s: %d\n", reason, stats.Transport[reason])
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run ID:       %s\n", s.RunID)
	fmt.Fprintf(w, "Batches:      %d\n", s.Batches)
	fmt.Fprintf(w, "Elapsed:      %s\n", stats.Duration)
	fmt.Fprintf(w, "Requests/sec: %.2f\n", stats.RequestsPerSec)
	if s.Interrupted {
		fmt.Fprintln(w, "Stopped early by interrupt.")
	}

	if len(s.Thresholds) > 0 {
		fmt.Fprintln(w, "\nThresholds:")
		for _, r := range s.Thresholds {
			fmt.Fprintf(w, "  %s\n", r.Message)
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}
