package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/torosent/errgen/internal/faults"
)

// Defaults applied before config files and flags.
const (
	DefaultTargetURL = "http://localhost:8080"
	DefaultRate      = 5
	DefaultDuration  = 60 * time.Second
	DefaultTimeout   = 30 * time.Second
)

type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// Config is the immutable configuration of a single run.
type Config struct {
	TargetURL    string        `mapstructure:"url"`
	Rate         int           `mapstructure:"rps"`
	Duration     time.Duration `mapstructure:"duration"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ErrorTypes   []string      `mapstructure:"error_types"`
	ErrorRateMin float64       `mapstructure:"error_rate_min"`
	ErrorRateMax float64       `mapstructure:"error_rate_max"`
	LatencyMinMs int           `mapstructure:"latency_min"`
	LatencyMaxMs int           `mapstructure:"latency_max"`
	Seed         int64         `mapstructure:"seed"`
	Output       OutputFormat  `mapstructure:"output"`
	Quiet        bool          `mapstructure:"quiet"`
	Dashboard    bool          `mapstructure:"dashboard"`
	HTMLOutput   string        `mapstructure:"html_output"`
	Thresholds   []string      `mapstructure:"thresholds"`
	Tracing      TracingConfig `mapstructure:"tracing"`
	ConfigFile   string        `mapstructure:"-"`
}

// TracingConfig controls OpenTelemetry export and trace propagation.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   *bool   `mapstructure:"propagate"`
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	if strings.TrimSpace(t.Endpoint) != "" {
		return true
	}
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether W3C trace headers are injected into
// outgoing requests. It defaults to on whenever tracing is enabled.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

// Defaults returns a Config populated with the built-in defaults.
func Defaults() *Config {
	return &Config{
		TargetURL:    DefaultTargetURL,
		Rate:         DefaultRate,
		Duration:     DefaultDuration,
		Timeout:      DefaultTimeout,
		ErrorRateMin: faults.DefaultErrorRateMin,
		ErrorRateMax: faults.DefaultErrorRateMax,
		LatencyMinMs: faults.DefaultLatencyMinMs,
		LatencyMaxMs: faults.DefaultLatencyMaxMs,
		Output:       OutputText,
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1.0,
		},
	}
}

// BaseURL returns the target URL without trailing slashes.
func (c Config) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.TargetURL), "/")
}

// GeneratorOptions translates the parameter ranges into generator options.
func (c Config) GeneratorOptions() (faults.GeneratorOptions, error) {
	types, err := faults.ParseErrorTypes(c.ErrorTypes)
	if err != nil {
		return faults.GeneratorOptions{}, err
	}
	return faults.GeneratorOptions{
		ErrorTypes:   types,
		ErrorRateMin: c.ErrorRateMin,
		ErrorRateMax: c.ErrorRateMax,
		LatencyMinMs: c.LatencyMinMs,
		LatencyMaxMs: c.LatencyMaxMs,
		Seed:         c.Seed,
	}, nil
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// HighRateThreshold is the rate above which Warnings asks for authorization.
const HighRateThreshold = 1000

// Warnings reports settings that are valid but worth a second look.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Rate > HighRateThreshold {
		warnings = append(warnings, fmt.Sprintf("high request rate configured (%d RPS); ensure you have authorization to test the target system", c.Rate))
	}
	return warnings
}

func (c Config) Validate() error {
	var issues []string

	base := c.BaseURL()
	if base == "" {
		issues = append(issues, "url is required")
	} else if u, err := url.Parse(base); err != nil {
		issues = append(issues, fmt.Sprintf("url %q is invalid: %v", c.TargetURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		issues = append(issues, fmt.Sprintf("url %q must use http or https", c.TargetURL))
	} else if u.Host == "" {
		issues = append(issues, fmt.Sprintf("url %q is missing a host", c.TargetURL))
	}

	if c.Rate < 1 {
		issues = append(issues, "rps must be at least 1")
	}
	if c.Duration < time.Second {
		issues = append(issues, "duration must be at least 1 second")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be non-negative")
	}

	if _, err := faults.ParseErrorTypes(c.ErrorTypes); err != nil {
		issues = append(issues, err.Error())
	}
	if c.ErrorRateMin < 0 || c.ErrorRateMax > 1 {
		issues = append(issues, "error rate bounds must lie within [0, 1]")
	}
	if c.ErrorRateMin > c.ErrorRateMax {
		issues = append(issues, "error-rate-min must not exceed error-rate-max")
	}
	if c.LatencyMinMs < 0 {
		issues = append(issues, "latency-min must be non-negative")
	}
	if c.LatencyMinMs > c.LatencyMaxMs {
		issues = append(issues, "latency-min must not exceed latency-max")
	}

	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		issues = append(issues, fmt.Sprintf("output must be one of text, json, yaml (got %q)", c.Output))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		issues = append(issues, "tracing sample rate must be between 0.0 and 1.0")
	}
	switch strings.ToLower(c.Tracing.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol must be grpc or http (got %q)", c.Tracing.Protocol))
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
