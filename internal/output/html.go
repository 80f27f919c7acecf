package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/errgen/internal/metrics"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Summary          Summary
	StatusRows       []metrics.StatusRow
	ErrorTypeNames   []string
	TransportReasons []string
	ThresholdsPassed int
	HistoryJSON      template.JS
}

// GenerateHTMLReport writes a standalone HTML report with an embedded
// timeline chart.
func GenerateHTMLReport(w io.Writer, s Summary, history []metrics.DataPoint) error {
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	passed := 0
	for _, r := range s.Thresholds {
		if r.Pass {
			passed++
		}
	}

	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		Summary:          s,
		StatusRows:       metrics.StatusDistribution(s.Stats),
		ErrorTypeNames:   metrics.SortedKeys(s.ErrorTypes),
		TransportReasons: metrics.SortedKeys(s.Transport),
		ThresholdsPassed: passed,
		HistoryJSON:      template.JS(historyJSON),
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatDuration": func(d time.Duration) string {
			return d.Round(time.Microsecond).String()
		},
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatPercent": func(part, total int64) string {
			if total == 0 {
				return "0.0"
			}
			return fmt.Sprintf("%.1f", (float64(part)/float64(total))*100)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>errgen Report {{.Summary.RunID}}</title>
    <style>
        body { font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; background: #f4f5f7; color: #1f2933; margin: 0; padding: 24px; }
        main { max-width: 1200px; margin: 0 auto; background: #fff; border-radius: 6px; box-shadow: 0 1px 4px rgba(0,0,0,0.08); }
        header { background: #b91c1c; color: #fff; padding: 24px 32px; border-radius: 6px 6px 0 0; }
        header h1 { margin: 0 0 8px; font-size: 1.7rem; }
        header .meta { font-size: 0.9rem; opacity: 0.9; }
        section { padding: 24px 32px; border-top: 1px solid #e4e7eb; }
        h2 { font-size: 1.2rem; margin: 0 0 16px; }
        .cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 16px; }
        .card { background: #f8f9fa; border-left: 4px solid #9aa5b1; padding: 16px; border-radius: 4px; }
        .card.success { border-left-color: #16a34a; }
        .card.error { border-left-color: #dc2626; }
        .card .label { font-size: 0.8rem; text-transform: uppercase; color: #616e7c; }
        .card .value { font-size: 1.8rem; font-weight: 600; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid #e4e7eb; }
        th { background: #f8f9fa; font-size: 0.8rem; text-transform: uppercase; color: #616e7c; }
        .pass { color: #16a34a; font-weight: 600; }
        .fail { color: #dc2626; font-weight: 600; }
        #timeline { width: 100%; height: 300px; }
    </style>
    <script src="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.iife.min.js"></script>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.min.css">
</head>
<body>
<main>
    <header>
        <h1>errgen Report</h1>
        <div class="meta">Target: {{.Summary.Target}} | Rate: {{.Summary.Rate}} req/s | Duration: {{.Summary.DurationSeconds}}s</div>
        <div class="meta">Run {{.Summary.RunID}} | Generated {{.GeneratedAt}}{{if .Summary.Interrupted}} | stopped early{{end}}</div>
    </header>

    <section>
        <div class="cards">
            <div class="card"><div class="label">Total Requests</div><div class="value">{{.Summary.Total}}</div></div>
            <div class="card success"><div class="label">Successful</div><div class="value">{{.Summary.Success.Count}}</div>{{formatPercent .Summary.Success.Count .Summary.Total}}%</div>
            <div class="card error"><div class="label">Failed</div><div class="value">{{.Summary.Error.Count}}</div>{{formatPercent .Summary.Error.Count .Summary.Total}}%</div>
            <div class="card"><div class="label">Requests/sec</div><div class="value">{{formatFloat .Summary.RequestsPerSec}}</div></div>
        </div>
    </section>

    <section>
        <h2>Status Code Distribution</h2>
        {{if .StatusRows}}
        <table>
            <thead><tr><th>Status</th><th>Class</th><th>Count</th></tr></thead>
            <tbody>
            {{range .StatusRows}}<tr><td>{{.Code}}</td><td>{{.Class}}</td><td>{{.Count}}</td></tr>
            {{end}}
            </tbody>
        </table>
        {{else}}<p>No responses received.</p>{{end}}
    </section>

    {{if .ErrorTypeNames}}
    <section>
        <h2>Error Types</h2>
        <table>
            <thead><tr><th>Type</th><th>Total</th><th>Successes</th><th>Failures</th></tr></thead>
            <tbody>
            {{range .ErrorTypeNames}}{{$ts := index $.Summary.ErrorTypes .}}<tr><td>{{.}}</td><td>{{$ts.Total}}</td><td>{{$ts.Successes}}</td><td>{{$ts.Failures}}</td></tr>
            {{end}}
            </tbody>
        </table>
    </section>
    {{end}}

    {{if .TransportReasons}}
    <section>
        <h2>Transport Failures</h2>
        <table>
            <thead><tr><th>Reason</th><th>Count</th></tr></thead>
            <tbody>
            {{range .TransportReasons}}<tr><td>{{.}}</td><td>{{index $.Summary.Transport .}}</td></tr>
            {{end}}
            </tbody>
        </table>
    </section>
    {{end}}

    <section>
        <h2>Latency</h2>
        <table>
            <thead><tr><th>Min</th><th>Mean</th><th>P50</th><th>P90</th><th>P95</th><th>P99</th><th>Max</th></tr></thead>
            <tbody><tr>
                <td>{{formatDuration .Summary.MinLatency}}</td>
                <td>{{formatDuration .Summary.MeanLatency}}</td>
                <td>{{formatDuration .Summary.P50Latency}}</td>
                <td>{{formatDuration .Summary.P90Latency}}</td>
                <td>{{formatDuration .Summary.P95Latency}}</td>
                <td>{{formatDuration .Summary.P99Latency}}</td>
                <td>{{formatDuration .Summary.MaxLatency}}</td>
            </tr></tbody>
        </table>
    </section>

    {{if .Summary.Thresholds}}
    <section>
        <h2>Thresholds ({{.ThresholdsPassed}}/{{len .Summary.Thresholds}} Passed)</h2>
        <table>
            <thead><tr><th>Threshold</th><th>Actual</th><th>Status</th></tr></thead>
            <tbody>
            {{range .Summary.Thresholds}}<tr><td>{{.Raw}}</td><td>{{formatFloat .Actual}}</td><td>{{if .Pass}}<span class="pass">PASS</span>{{else}}<span class="fail">FAIL</span>{{end}}</td></tr>
            {{end}}
            </tbody>
        </table>
    </section>
    {{end}}

    <section>
        <h2>Timeline</h2>
        <div id="timeline"></div>
    </section>
</main>
<script>
    const history = {{.HistoryJSON}};
    if (history && history.length > 0 && window.uPlot) {
        const start = new Date(history[0].timestamp).getTime();
        const xs = history.map(d => (new Date(d.timestamp).getTime() - start) / 1000);
        const el = document.getElementById('timeline');
        new uPlot({
            width: el.offsetWidth,
            height: 300,
            scales: { x: { time: false } },
            series: [
                { label: "Time (s)" },
                { label: "Successes", stroke: "#16a34a", width: 2 },
                { label: "Failures", stroke: "#dc2626", width: 2 },
                { label: "P99 (ms)", stroke: "#f59e0b", width: 2, scale: "ms" }
            ],
            axes: [
                { label: "Time (seconds)" },
                { label: "Requests" },
                { side: 1, scale: "ms", label: "Latency (ms)" }
            ]
        }, [xs, history.map(d => d.successes), history.map(d => d.failures), history.map(d => d.p99_latency_ms)], el);
    }
</script>
</body>
</html>
`
