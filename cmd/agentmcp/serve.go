package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentmcp"
	"github.com/hupe1980/agentmcp/observability"
	"github.com/hupe1980/agentmcp/server"
)

// ServeCmd starts the MCP server.
type ServeCmd struct {
	Transport      string `help:"Transport (stdio, sse, http); overrides the config."`
	Address        string `help:"Listen address of the sse and http transports; overrides the config."`
	MetricsAddress string `name:"metrics-address" help:"Separate listen address for /metrics; overrides the config."`
}

// Run serves until SIGINT or SIGTERM.
func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}

	if c.Transport != "" {
		cfg.Server.Transport = c.Transport
	}
	if c.Address != "" {
		cfg.Server.Address = c.Address
	}
	if c.MetricsAddress != "" {
		cfg.Server.MetricsAddress = c.MetricsAddress
	}
	cfg.Server.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracer, err := observability.InitTracer(ctx, cfg.Tracing, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Warn("Tracer shutdown failed", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	recorder, err := observability.New(func(o *observability.Options) {
		o.Registerer = reg
		o.TracerProvider = tp
	})
	if err != nil {
		return err
	}

	app, err := agentmcp.FromConfig(cfg, func(o *agentmcp.Options) {
		o.Logger = logger
		o.Observer = recorder
	})
	if err != nil {
		return err
	}

	transport, err := server.ParseTransport(cfg.Server.Transport)
	if err != nil {
		return err
	}

	metrics := observability.Handler(reg)

	opts := server.ServeOptions{Transport: transport, Address: cfg.Server.Address}
	if cfg.Server.MetricsAddress == "" && transport != server.TransportStdio {
		opts.Metrics = metrics
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Stdio ends when the client closes stdin; stop the metrics listener too.
		defer stop()
		return app.Serve(gctx, opts)
	})

	if cfg.Server.MetricsAddress != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.Server.MetricsAddress, metrics)
		})
		logger.Info("Metrics endpoint enabled", "address", cfg.Server.MetricsAddress)
	}

	return g.Wait()
}

func serveMetrics(ctx context.Context, addr string, h http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
