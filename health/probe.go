package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anhcx0209/ontodia-search/transport"
)

// EndpointComponent is the monitor name the prober reports under.
const EndpointComponent = "endpoint"

// probeQuery is answered by every SPARQL 1.1 endpoint without touching data.
const probeQuery = "ASK {}"

// Probe defaults.
const (
	DefaultInterval    = 30 * time.Second
	DefaultTimeout     = 5 * time.Second
	DefaultSlowLatency = 2 * time.Second
)

// Executor sends one query. transport.Client implements it.
type Executor interface {
	Execute(ctx context.Context, endpoint, query string, method transport.Method, format transport.Format) ([]byte, error)
}

// Prober checks that the endpoint answers queries.
type Prober struct {
	exec        Executor
	endpoint    string
	method      transport.Method
	monitor     *Monitor
	interval    time.Duration
	timeout     time.Duration
	slowLatency time.Duration
	logger      *slog.Logger

	mu          sync.Mutex
	fails       int
	lastSuccess time.Time
}

// ProbeOption configures a Prober.
type ProbeOption func(*Prober)

// WithInterval sets the delay between probes in Run.
func WithInterval(d time.Duration) ProbeOption {
	return func(p *Prober) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTimeout bounds a single probe.
func WithTimeout(d time.Duration) ProbeOption {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithSlowLatency marks successful probes slower than d as degraded.
func WithSlowLatency(d time.Duration) ProbeOption {
	return func(p *Prober) {
		if d > 0 {
			p.slowLatency = d
		}
	}
}

// WithMethod sets the query method used for probes.
func WithMethod(m transport.Method) ProbeOption {
	return func(p *Prober) {
		if m != "" {
			p.method = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ProbeOption {
	return func(p *Prober) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProber creates a prober that reports to monitor.
func NewProber(exec Executor, endpoint string, monitor *Monitor, opts ...ProbeOption) *Prober {
	p := &Prober{
		exec:        exec,
		endpoint:    endpoint,
		method:      transport.MethodGet,
		monitor:     monitor,
		interval:    DefaultInterval,
		timeout:     DefaultTimeout,
		slowLatency: DefaultSlowLatency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "health")
	return p
}

// Check runs one probe, records it and returns the recorded status. A probe
// cut short by ctx is not recorded.
func (p *Prober) Check(ctx context.Context) Status {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	_, err := p.exec.Execute(probeCtx, p.endpoint, probeQuery, p.method, transport.FormatBindings)
	latency := time.Since(start)
	if err != nil && ctx.Err() != nil {
		status, _ := p.monitor.Get(EndpointComponent)
		return status
	}

	p.mu.Lock()
	if err != nil {
		p.fails++
	} else {
		p.fails = 0
		p.lastSuccess = time.Now()
	}
	metrics := &Metrics{Latency: latency, ConsecutiveFails: p.fails, LastSuccess: p.lastSuccess}
	p.mu.Unlock()

	var status Status
	switch {
	case err != nil:
		status = NewUnhealthy(EndpointComponent, sanitizeErrorMessage(err.Error()))
		p.logger.Warn("Endpoint probe failed", "error", err, "consecutive_failures", metrics.ConsecutiveFails)
	case latency > p.slowLatency:
		status = NewDegraded(EndpointComponent, fmt.Sprintf("endpoint answered in %s", latency.Round(time.Millisecond)))
	default:
		status = NewHealthy(EndpointComponent, "endpoint answering")
	}
	status = status.WithMetrics(metrics)
	p.monitor.Update(EndpointComponent, status)
	return status
}

// Run probes immediately and then on every interval until ctx ends.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for ctx.Err() == nil {
		p.Check(ctx)
		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}
