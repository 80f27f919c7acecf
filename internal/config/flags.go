package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/torosent/errgen/internal/faults"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "errgen",
		Short:         "Generate randomized traffic against a fault-injection endpoint",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Load control
	flags.String("url", DefaultTargetURL, "Base URL of the service exposing "+faults.EndpointPath)
	flags.IntP("rps", "r", DefaultRate, "Requests per second, fired as one concurrent batch")
	flags.IntP("duration", "d", int(DefaultDuration/time.Second), "Test duration in seconds")
	flags.Duration("timeout", DefaultTimeout, "Per-request timeout (0 disables)")

	// Fault parameters
	flags.StringSlice("error-types", nil, "Error types to draw from (default: all)")
	flags.Float64("error-rate-min", faults.DefaultErrorRateMin, "Lower bound of the injected error rate")
	flags.Float64("error-rate-max", faults.DefaultErrorRateMax, "Upper bound of the injected error rate")
	flags.Int("latency-min", faults.DefaultLatencyMinMs, "Lower bound of the injected latency in milliseconds")
	flags.Int("latency-max", faults.DefaultLatencyMaxMs, "Upper bound of the injected latency in milliseconds")
	flags.Int64("seed", 0, "Random seed for parameter draws (0 picks one from the clock)")

	// Output
	flags.StringP("output", "o", string(OutputText), "Summary format: text, json or yaml")
	flags.BoolP("quiet", "q", false, "Suppress per-request lines and show a progress line instead")
	flags.Bool("dashboard", false, "Show live terminal dashboard with metrics")
	flags.String("html-output", "", "Generate HTML report to the specified file path")
	flags.StringSlice("threshold", nil, "Pass/fail thresholds (repeatable, e.g. 'http_req_failed:rate < 0.5')")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (enables tracing)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.String("tracing-service-name", "", "Service name reported on spans")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of requests to sample (0.0-1.0)")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Bool("tracing-propagate", false, "Inject W3C trace headers into requests (defaults to on when tracing is enabled)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\nUsage: %s\n\nFlags:\n", cmd.Short, cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("url") {
		val, err := fs.GetString("url")
		if err != nil {
			return err
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}
	if fs.Changed("rps") {
		val, err := fs.GetInt("rps")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("duration") {
		val, err := fs.GetInt("duration")
		if err != nil {
			return err
		}
		cfg.Duration = time.Duration(val) * time.Second
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}

	if fs.Changed("error-types") {
		val, err := fs.GetStringSlice("error-types")
		if err != nil {
			return err
		}
		cfg.ErrorTypes = val
	}
	if fs.Changed("error-rate-min") {
		val, err := fs.GetFloat64("error-rate-min")
		if err != nil {
			return err
		}
		cfg.ErrorRateMin = val
	}
	if fs.Changed("error-rate-max") {
		val, err := fs.GetFloat64("error-rate-max")
		if err != nil {
			return err
		}
		cfg.ErrorRateMax = val
	}
	if fs.Changed("latency-min") {
		val, err := fs.GetInt("latency-min")
		if err != nil {
			return err
		}
		cfg.LatencyMinMs = val
	}
	if fs.Changed("latency-max") {
		val, err := fs.GetInt("latency-max")
		if err != nil {
			return err
		}
		cfg.LatencyMaxMs = val
	}
	if fs.Changed("seed") {
		val, err := fs.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = val
	}

	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("quiet") {
		val, err := fs.GetBool("quiet")
		if err != nil {
			return err
		}
		cfg.Quiet = val
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("html-output") {
		val, err := fs.GetString("html-output")
		if err != nil {
			return err
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}

	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-service-name") {
		val, err := fs.GetString("tracing-service-name")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("tracing-propagate") {
		val, err := fs.GetBool("tracing-propagate")
		if err != nil {
			return err
		}
		cfg.Tracing.Propagate = &val
	}

	return nil
}
