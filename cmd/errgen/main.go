package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/torosent/errgen/internal/config"
	"github.com/torosent/errgen/internal/dashboard"
	"github.com/torosent/errgen/internal/faults"
	"github.com/torosent/errgen/internal/httpclient"
	"github.com/torosent/errgen/internal/metrics"
	"github.com/torosent/errgen/internal/output"
	"github.com/torosent/errgen/internal/runner"
	"github.com/torosent/errgen/internal/threshold"
	"github.com/torosent/errgen/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

// stderrLogger writes warnings that must not interleave with the summary.
type stderrLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *stderrLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[errgen] warning: "+format+"\n", args...)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	warn := &stderrLogger{w: stderr}
	for _, w := range cfg.Warnings() {
		warn.Warnf("%s", w)
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}

	genOpts, err := cfg.GeneratorOptions()
	if err != nil {
		return err
	}
	generator, err := faults.NewGenerator(genOpts)
	if err != nil {
		return err
	}

	builder, err := httpclient.NewRequestBuilder(cfg)
	if err != nil {
		return err
	}

	runID := ulid.Make().String()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing, "errgen", tracing.AttrRunID.String(runID))
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			warn.Warnf("tracing shutdown: %v", err)
		}
	}()
	if provider.ShouldPropagate() {
		builder = builder.WithHeaderInjector(tracing.InjectHTTPHeaders)
	}

	requester := &httpRequester{
		client:    httpclient.NewClient(cfg.Timeout),
		builder:   builder,
		generator: generator,
		runID:     runID,
	}
	if provider.Enabled() {
		requester.tracer = provider.Tracer()
	}

	// Machine-readable summaries own stdout; everything else goes to stderr.
	logOut := stdout
	if cfg.Output != config.OutputText {
		logOut = stderr
	}

	collector := metrics.NewCollector()
	var wrapped runner.Requester = requester
	reqLog := output.NewRequestLog(logOut)
	if !cfg.Quiet && !cfg.Dashboard {
		wrapped = runner.WithLogging(wrapped, reqLog)
	}

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.RunInfo{
			RunID:      runID,
			TargetURL:  builder.Endpoint(),
			Rate:       cfg.Rate,
			Duration:   cfg.Duration,
			Timeout:    cfg.Timeout,
			ErrorTypes: cfg.ErrorTypes,
			ConfigFile: cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
	} else {
		reqLog.PrintBanner(output.Banner{
			RunID:    runID,
			BaseURL:  cfg.BaseURL(),
			Duration: cfg.Duration,
			Rate:     cfg.Rate,
		})
	}

	var progress *output.ProgressReporter
	if cfg.Quiet && !cfg.Dashboard {
		progress = output.NewProgressReporter(collector, cfg.Duration, progressInterval, logOut)
	}

	r := runner.New(runner.Options{
		Rate:      cfg.Rate,
		Duration:  cfg.Duration,
		Requester: wrapped,
		Recorder:  collector,
		OnBatch: func(int, []metrics.Outcome) {
			collector.Snapshot()
		},
	})

	collector.Start()
	if dash != nil {
		dash.Start()
	}
	if progress != nil {
		progress.Start()
	}
	result := r.Run(ctx)
	if progress != nil {
		progress.Stop()
	}
	if dash != nil {
		dash.Stop()
	}

	summary := output.Summary{
		RunID:           runID,
		Target:          builder.Endpoint(),
		Rate:            cfg.Rate,
		DurationSeconds: int(cfg.Duration / time.Second),
		Batches:         result.Batches,
		Interrupted:     ctx.Err() != nil,
		Stats:           collector.Stats(result.Duration),
	}
	summary.Thresholds = threshold.NewEvaluator(thresholds).Evaluate(summary.Stats)

	if err := output.WriteSummary(stdout, cfg.Output, summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if cfg.HTMLOutput != "" {
		if err := writeHTMLReport(cfg.HTMLOutput, summary, collector.History()); err != nil {
			warn.Warnf("html report: %v", err)
		} else {
			fmt.Fprintf(stderr, "HTML report written to %s\n", cfg.HTMLOutput)
		}
	}

	if !threshold.AllPassed(summary.Thresholds) {
		return errors.New("one or more thresholds failed")
	}
	return nil
}

func writeHTMLReport(path string, summary output.Summary, history []metrics.DataPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := output.GenerateHTMLReport(f, summary, history); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
