package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/anhcx0209/ontodia-search/errors"
	"github.com/anhcx0209/ontodia-search/gateway"
	"github.com/anhcx0209/ontodia-search/health"
	"github.com/anhcx0209/ontodia-search/metric"
	"github.com/anhcx0209/ontodia-search/pkg/tlsutil"
	"github.com/anhcx0209/ontodia-search/transport"
)

type serveOptions struct {
	addr            string
	corsOrigins     []string
	maxRequestSize  int64
	requestTimeout  time.Duration
	shutdownTimeout time.Duration
	probeInterval   time.Duration
}

func (c *cli) serveCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the provider operations over HTTP",
		Long: `serve exposes the provider operations as a JSON API under /api, a health
check at /healthz and prometheus metrics at /metrics. When metrics.addr is
configured, metrics are also served on that listener.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				c.cfg.Server.Addr = opts.addr
			}
			return c.serve(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "", "Listen address (env: ONTODIA_SERVER_ADDR)")
	f.StringSliceVar(&opts.corsOrigins, "cors-origin", nil, "Allowed CORS origin, repeatable; * allows any")
	f.Int64Var(&opts.maxRequestSize, "max-request-size", 1<<20, "Largest accepted request body in bytes")
	f.DurationVar(&opts.requestTimeout, "request-timeout", 0, "Per-request deadline (default: the configured timeout)")
	f.DurationVar(&opts.shutdownTimeout, "shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
	f.DurationVar(&opts.probeInterval, "probe-interval", health.DefaultInterval, "Endpoint health probe interval, 0 to disable")
	return cmd
}

func (c *cli) serve(ctx context.Context, opts serveOptions) error {
	registry := metric.NewMetricsRegistry()
	dialects, err := c.dialects()
	if err != nil {
		return err
	}
	p, err := c.newProvider(dialects, registry.CoreMetrics())
	if err != nil {
		return err
	}

	gcfg := gateway.DefaultConfig()
	gcfg.MaxRequestSize = opts.maxRequestSize
	gcfg.RequestTimeout = opts.requestTimeout
	if gcfg.RequestTimeout == 0 {
		gcfg.RequestTimeout = c.cfg.Timeout
	}
	if len(opts.corsOrigins) > 0 {
		gcfg.EnableCORS = true
		gcfg.CORSOrigins = opts.corsOrigins
	}

	var monitor *health.Monitor
	if opts.probeInterval > 0 {
		client, err := c.newClient(registry.CoreMetrics())
		if err != nil {
			return err
		}
		method, err := transport.ParseMethod(c.cfg.Method)
		if err != nil {
			return err
		}
		monitor = health.NewMonitor()
		prober := health.NewProber(client, c.cfg.Endpoint, monitor,
			health.WithInterval(opts.probeInterval),
			health.WithMethod(method),
			health.WithLogger(c.logger))
		probeCtx, stopProbe := context.WithCancel(ctx)
		defer stopProbe()
		go prober.Run(probeCtx)
	}

	gw, err := gateway.New(gcfg, gateway.Dependencies{
		Provider: p,
		Dialects: dialects,
		Registry: registry,
		Health:   monitor,
		Logger:   c.logger,
	})
	if err != nil {
		return err
	}
	defer gw.Close()

	if c.cfg.Metrics.Addr != "" {
		ms := metric.NewServer(c.cfg.Metrics.Addr, c.cfg.Metrics.Path, registry)
		if err := ms.Start(); err != nil {
			return err
		}
		c.logger.Info("Metrics server started", "address", ms.Address())
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
			defer cancel()
			if err := ms.Stop(stopCtx); err != nil {
				c.logger.Warn("Metrics server shutdown failed", "error", err)
			}
		}()
	}

	ln, err := net.Listen("tcp", c.cfg.Server.Addr)
	if err != nil {
		return errors.WrapFatal(err, "cli", "serve", "listen on "+c.cfg.Server.Addr)
	}
	tlsConfig, err := tlsutil.LoadServerTLSConfig(c.cfg.TLS.Server)
	if err != nil {
		_ = ln.Close()
		return err
	}
	srv := &http.Server{
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         tlsConfig,
	}

	serveErr := make(chan error, 1)
	go func() {
		if tlsConfig != nil {
			serveErr <- srv.ServeTLS(ln, "", "")
			return
		}
		serveErr <- srv.Serve(ln)
	}()
	c.logger.Info("Gateway started",
		"address", ln.Addr().String(),
		"tls", tlsConfig != nil,
		"endpoint", c.cfg.Endpoint,
		"dialect", p.Settings().Name)

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.WrapFatal(err, "cli", "serve", "serve HTTP")
	case <-ctx.Done():
	}

	c.logger.Info("Shutting down gateway", "timeout", opts.shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapTransient(err, "cli", "serve", "graceful shutdown")
	}
	return nil
}
