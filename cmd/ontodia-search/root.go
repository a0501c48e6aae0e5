package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/anhcx0209/ontodia-search/config"
	"github.com/anhcx0209/ontodia-search/dialect"
	"github.com/anhcx0209/ontodia-search/errors"
	"github.com/anhcx0209/ontodia-search/metric"
	"github.com/anhcx0209/ontodia-search/pkg/retry"
	"github.com/anhcx0209/ontodia-search/pkg/tlsutil"
	"github.com/anhcx0209/ontodia-search/provider"
	"github.com/anhcx0209/ontodia-search/transport"
)

// rootOptions holds the persistent flags. Flags override the configuration
// file and ONTODIA_* variables only when set on the command line.
type rootOptions struct {
	configPath string
	envFile    string
	endpoint   string
	dialect    string
	method     string
	logLevel   string
	logFormat  string
	retries    int
	timeout    time.Duration
}

type cli struct {
	opts   rootOptions
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   appName,
		Short: "Browse a SPARQL endpoint the way an Ontodia diagram does",
		Long: `ontodia-search runs the data provider operations of an Ontodia diagram
against a SPARQL endpoint and prints the normalized result as JSON.

Configuration is read from --config (YAML or JSON), then ONTODIA_*
environment variables (a .env file is loaded first), then flags.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.PersistentFlags()
	f.StringVarP(&c.opts.configPath, "config", "c", "", "Path to a YAML or JSON configuration file (env: ONTODIA_CONFIG)")
	f.StringVar(&c.opts.envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	f.StringVar(&c.opts.endpoint, "endpoint", "", "SPARQL endpoint URL (env: ONTODIA_ENDPOINT)")
	f.StringVar(&c.opts.dialect, "dialect", "", "Dialect name (env: ONTODIA_DIALECT)")
	f.StringVar(&c.opts.method, "method", "", "Query method: GET or POST (env: ONTODIA_METHOD)")
	f.StringVar(&c.opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (env: ONTODIA_LOG_LEVEL)")
	f.StringVar(&c.opts.logFormat, "log-format", "", "Log format: json, text (env: ONTODIA_LOG_FORMAT)")
	f.IntVar(&c.opts.retries, "retries", 0, "Attempts per operation on transient failures (env: ONTODIA_RETRY_MAX_ATTEMPTS)")
	f.DurationVar(&c.opts.timeout, "timeout", 0, "Per-request timeout (env: ONTODIA_TIMEOUT)")

	root.AddCommand(
		c.dialectsCmd(),
		c.conceptsCmd(),
		c.classTreeCmd(),
		c.classInfoCmd(),
		c.propertyInfoCmd(),
		c.linkTypesCmd(),
		c.linkTypesInfoCmd(),
		c.elementInfoCmd(),
		c.linksInfoCmd(),
		c.linkTypesOfCmd(),
		c.linkElementsCmd(),
		c.filterCmd(),
		c.triplesCmd(),
		c.constructCmd(),
		c.queryCmd(),
		c.serveCmd(),
	)
	return root
}

// setup loads the configuration once per invocation.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if err := loadEnvFile(c.opts.envFile, cmd.Flags().Changed("env-file")); err != nil {
		return err
	}

	path := c.opts.configPath
	if path == "" {
		path = getEnv(config.EnvPrefix+"_CONFIG", "")
	}
	loader := config.NewLoader()
	if path != "" {
		loader.AddLayer(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	c.applyFlags(cmd, cfg)

	c.cfg = cfg
	c.logger = setupLogger(c.stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(c.logger)
	return nil
}

func (c *cli) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("endpoint") {
		cfg.Endpoint = c.opts.endpoint
	}
	if changed("dialect") {
		cfg.Dialect = c.opts.dialect
	}
	if changed("method") {
		cfg.Method = c.opts.method
	}
	if changed("log-level") {
		cfg.Log.Level = c.opts.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = c.opts.logFormat
	}
	if changed("retries") {
		cfg.Retry.MaxAttempts = c.opts.retries
	}
	if changed("timeout") {
		cfg.Timeout = c.opts.timeout
	}
}

func (c *cli) dialects() (*dialect.Registry, error) {
	return dialect.NewRegistry(dialect.WithFiles(c.cfg.DialectFiles...))
}

// newProvider validates the configuration and builds a provider against it.
// Metrics may be nil.
func (c *cli) newProvider(dialects *dialect.Registry, metrics *metric.Metrics) (*provider.Provider, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	settings, err := dialects.Resolve(c.cfg.Dialect)
	if err != nil {
		return nil, errors.WrapInvalid(err, "cli", "newProvider", "resolve dialect")
	}
	method, err := transport.ParseMethod(c.cfg.Method)
	if err != nil {
		return nil, err
	}

	pcfg := provider.Config{
		EndpointURL:       c.cfg.Endpoint,
		Method:            method,
		ImagePropertyIRIs: c.cfg.ImageProperties,
		LabelProperty:     c.cfg.LabelProperty,
		Settings:          &settings,
		ConceptClassIRI:   c.cfg.ConceptClass,
	}
	if c.cfg.SearchDialect != "" {
		search, err := dialects.Resolve(c.cfg.SearchDialect)
		if err != nil {
			return nil, errors.WrapInvalid(err, "cli", "newProvider", "resolve search dialect")
		}
		pcfg.SearchSettings = &search
	}

	client, err := c.newClient(metrics)
	if err != nil {
		return nil, err
	}
	return provider.New(pcfg, provider.Dependencies{
		Executor: client,
		Logger:   c.logger,
		Metrics:  metrics,
	})
}

func (c *cli) newClient(metrics *metric.Metrics) (*transport.Client, error) {
	timeout := c.cfg.Timeout
	if timeout == 0 {
		timeout = transport.DefaultTimeout
	}
	hc := &http.Client{Timeout: timeout}
	if !c.cfg.TLS.Client.Empty() {
		tlsConfig, err := tlsutil.LoadClientTLSConfig(c.cfg.TLS.Client)
		if err != nil {
			return nil, err
		}
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = tlsConfig
		hc.Transport = tr
	}
	return transport.NewClient(
		transport.WithHTTPClient(hc),
		transport.WithRateLimit(c.cfg.RateLimit.RPS, c.cfg.RateLimit.Burst),
		transport.WithMetrics(metrics),
		transport.WithLogger(c.logger),
	), nil
}

func (c *cli) retryConfig(op string) retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxAttempts = c.cfg.Retry.MaxAttempts
	if c.cfg.Retry.InitialDelay > 0 {
		rc.InitialDelay = c.cfg.Retry.InitialDelay
		if rc.MaxDelay < rc.InitialDelay {
			rc.MaxDelay = rc.InitialDelay
		}
	}
	rc.Retryable = retryable
	rc.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.logger.Warn("Retrying operation",
			"operation", op,
			"attempt", attempt,
			"delay", delay,
			"error", err)
	}
	return rc
}

// retryable accepts transport failures and throttled or failing endpoints.
// Cancellation is never retried.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.IsTransient(err)
}

// call runs one provider operation with retries and prints its result.
func call[T any](ctx context.Context, c *cli, op string, fn func(ctx context.Context) (T, error)) error {
	result, err := retry.DoWithResult(ctx, c.retryConfig(op), func() (T, error) {
		return fn(ctx)
	})
	if err != nil {
		return err
	}
	return c.printJSON(result)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
