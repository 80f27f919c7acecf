// Command errgen-target serves a local fault-injection endpoint with the
// same contract errgen drives.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/torosent/errgen/internal/config"
	"github.com/torosent/errgen/internal/target"
	"github.com/torosent/errgen/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

type options struct {
	addr    string
	quiet   bool
	tracing config.TracingConfig
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
	if err := serve(opts); err != nil {
		log.Fatal(err)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("errgen-target", pflag.ContinueOnError)
	fs.StringVar(&opts.addr, "addr", ":8080", "Listen address")
	fs.BoolVar(&opts.quiet, "quiet", false, "Do not log each request")
	fs.StringVar(&opts.tracing.Endpoint, "tracing-endpoint", "", "OTLP collector endpoint (enables tracing)")
	fs.StringVar(&opts.tracing.Protocol, "tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	fs.StringVar(&opts.tracing.ServiceName, "tracing-service-name", "", "Service name reported on spans")
	fs.Float64Var(&opts.tracing.SampleRate, "tracing-sample-rate", 1.0, "Fraction of requests to sample (0.0-1.0)")
	fs.BoolVar(&opts.tracing.Insecure, "tracing-insecure", false, "Disable TLS for the OTLP exporter")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", rest)
	}
	return opts, nil
}

func newServer(opts options, tracer *tracing.Provider, logger *log.Logger) *http.Server {
	handlerOpts := []target.Option{target.WithTracer(tracer.Tracer())}
	if !opts.quiet {
		handlerOpts = append(handlerOpts, target.WithLogger(logger))
	}
	return &http.Server{
		Addr:              opts.addr,
		Handler:           target.NewMux(target.NewHandler(handlerOpts...)),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func serve(opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := tracing.Init(ctx, opts.tracing, "errgen-target")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	srv := newServer(opts, provider, log.Default())
	errCh := make(chan error, 1)
	go func() {
		log.Printf("errgen-target listening on %s", opts.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Printf("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	return provider.Shutdown(shutdownCtx)
}
