package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/errgen/internal/metrics"
)

const (
	refreshInterval   = 500 * time.Millisecond
	maxSparklinePoint = 100
	maxListRows       = 10
)

// RunInfo holds the run parameters shown in the header.
type RunInfo struct {
	RunID      string
	TargetURL  string
	Rate       int
	Duration   time.Duration
	Timeout    time.Duration
	ErrorTypes []string
	ConfigFile string
}

// Dashboard renders a live terminal UI for a run.
type Dashboard struct {
	collector    *metrics.Collector
	info         RunInfo
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	grid         *ui.Grid
	header       *widgets.Paragraph
	progress     *widgets.Gauge
	counts       *widgets.Paragraph
	latency      *widgets.SparklineGroup
	latencyStats *widgets.Paragraph
	statusChart  *widgets.BarChart
	typeList     *widgets.List
	transport    *widgets.List

	latencyHistory []float64
}

// New initializes the terminal and builds the layout. shutdownFunc is called
// when the user presses q or Ctrl+C.
func New(collector *metrics.Collector, info RunInfo, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := newDashboard(collector, info)
	d.ctx = ctx
	d.cancel = cancel
	d.shutdownFunc = shutdownFunc
	d.setupGrid()
	return d, nil
}

func newDashboard(collector *metrics.Collector, info RunInfo) *Dashboard {
	d := &Dashboard{
		collector:      collector,
		info:           info,
		latencyHistory: make([]float64, 0, maxSparklinePoint),
	}

	d.header = widgets.NewParagraph()
	d.header.Title = "errgen"
	d.header.Text = formatRunInfo(info)
	d.header.BorderStyle.Fg = ui.ColorRed

	d.progress = widgets.NewGauge()
	d.progress.Title = "Progress"
	d.progress.BarColor = ui.ColorRed
	d.progress.BorderStyle.Fg = ui.ColorRed

	d.counts = widgets.NewParagraph()
	d.counts.Title = "Results"
	d.counts.Text = "Waiting for the first batch..."
	d.counts.BorderStyle.Fg = ui.ColorRed

	line := widgets.NewSparkline()
	line.LineColor = ui.ColorYellow
	line.Data = []float64{0}
	d.latency = widgets.NewSparklineGroup(line)
	d.latency.Title = "Mean Latency (ms)"
	d.latency.BorderStyle.Fg = ui.ColorRed

	d.latencyStats = widgets.NewParagraph()
	d.latencyStats.Title = "Latency"
	d.latencyStats.BorderStyle.Fg = ui.ColorRed

	d.statusChart = widgets.NewBarChart()
	d.statusChart.Title = "Status Codes"
	d.statusChart.BarWidth = 6
	d.statusChart.BarColors = []ui.Color{ui.ColorGreen, ui.ColorRed}
	d.statusChart.BorderStyle.Fg = ui.ColorRed

	d.typeList = widgets.NewList()
	d.typeList.Title = "Error Types"
	d.typeList.Rows = []string{"Awaiting data"}
	d.typeList.BorderStyle.Fg = ui.ColorRed

	d.transport = widgets.NewList()
	d.transport.Title = "Transport Failures"
	d.transport.Rows = []string{"[None](fg:green)"}
	d.transport.BorderStyle.Fg = ui.ColorRed

	return d
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)
	d.grid.Set(
		ui.NewRow(0.14, ui.NewCol(1.0, d.header)),
		ui.NewRow(0.12,
			ui.NewCol(0.5, d.progress),
			ui.NewCol(0.5, d.counts),
		),
		ui.NewRow(0.30,
			ui.NewCol(0.65, d.latency),
			ui.NewCol(0.35, d.latencyStats),
		),
		ui.NewRow(0.44,
			ui.NewCol(0.4, d.statusChart),
			ui.NewCol(0.3, d.typeList),
			ui.NewCol(0.3, d.transport),
		),
	)
}

// Start begins the update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop ends the update loop and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	uiEvents := ui.PollEvents()

	d.render()
	for {
		select {
		case <-d.ctx.Done():
			return
		case e := <-uiEvents:
			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.mu.Lock()
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				d.mu.Unlock()
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			elapsed := d.collector.Elapsed()
			d.refresh(d.collector.Stats(elapsed), elapsed)
			d.render()
		}
	}
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()
	ui.Render(d.grid)
}

// refresh copies stats into the widgets.
func (d *Dashboard) refresh(stats metrics.Stats, elapsed time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.progress.Percent = progressPercent(elapsed, d.info.Duration)
	d.progress.Label = fmt.Sprintf("%s / %s", elapsed.Round(time.Second), d.info.Duration)

	successRate := 0.0
	if stats.Total > 0 {
		successRate = float64(stats.Success.Count) / float64(stats.Total) * 100
	}
	d.counts.Text = fmt.Sprintf(
		"Total: %d | RPS: %.2f\nSuccessful: %d (%.1f%%)\nFailed: %d",
		stats.Total, stats.RequestsPerSec, stats.Success.Count, successRate, stats.Error.Count,
	)

	if stats.Total > 0 {
		d.latencyHistory = append(d.latencyHistory, stats.MeanLatencyMs)
		if len(d.latencyHistory) > maxSparklinePoint {
			d.latencyHistory = d.latencyHistory[1:]
		}
		d.latency.Sparklines[0].Data = d.latencyHistory
	}
	d.latencyStats.Text = fmt.Sprintf(
		"Min:  %.0fms\nMean: %.0fms\nP50:  %.0fms\nP95:  %.0fms\nP99:  %.0fms\nMax:  %.0fms",
		stats.MinLatencyMs, stats.MeanLatencyMs, stats.P50LatencyMs,
		stats.P95LatencyMs, stats.P99LatencyMs, stats.MaxLatencyMs,
	)

	d.statusChart.Labels, d.statusChart.Data = statusBars(stats)
	d.typeList.Rows = formatErrorTypeRows(stats)
	d.transport.Rows = formatTransportRows(stats)
}

func progressPercent(elapsed, total time.Duration) int {
	if total <= 0 {
		return 0
	}
	pct := int(elapsed * 100 / total)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

func statusBars(stats metrics.Stats) ([]string, []float64) {
	rows := metrics.StatusDistribution(stats)
	labels := make([]string, 0, len(rows))
	data := make([]float64, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, fmt.Sprintf("%d", row.Code))
		data = append(data, float64(row.Count))
	}
	return labels, data
}

func formatErrorTypeRows(stats metrics.Stats) []string {
	if len(stats.ErrorTypes) == 0 {
		return []string{"Awaiting data"}
	}
	names := metrics.SortedKeys(stats.ErrorTypes)
	rows := make([]string, 0, len(names))
	for _, name := range names {
		ts := stats.ErrorTypes[name]
		rows = append(rows, fmt.Sprintf("[%s](fg:cyan) %d ok / [%d failed](fg:red)", name, ts.Successes, ts.Failures))
	}
	return rows
}

func formatTransportRows(stats metrics.Stats) []string {
	if len(stats.Transport) == 0 {
		return []string{"[None](fg:green)"}
	}
	reasons := metrics.SortedKeys(stats.Transport)
	if len(reasons) > maxListRows {
		reasons = reasons[:maxListRows]
	}
	rows := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		rows = append(rows, fmt.Sprintf("[%s](fg:red) %d", reason, stats.Transport[reason]))
	}
	return rows
}

func formatRunInfo(info RunInfo) string {
	parts := []string{fmt.Sprintf("Rate: %d/s", info.Rate)}
	if info.Duration > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %s", info.Duration))
	}
	if info.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", info.Timeout))
	}
	if len(info.ErrorTypes) > 0 {
		parts = append(parts, fmt.Sprintf("Types: %s", strings.Join(info.ErrorTypes, ",")))
	}
	if info.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", info.ConfigFile))
	}

	header := fmt.Sprintf("Target: %s", info.TargetURL)
	if info.RunID != "" {
		header += fmt.Sprintf(" | Run: %s", info.RunID)
	}
	return header + "\n" + strings.Join(parts, " | ") + "\nPress q to stop scheduling new batches"
}
