// Package transport sends SPARQL queries to an endpoint over HTTP.
//
// GET puts the query in a percent-encoded query parameter, merged into any
// parameters already in the endpoint URL. POST sends the raw query as an
// application/sparql-query body. The Accept header selects SPARQL JSON
// results or Turtle.
//
// The client never retries. Failures come back as typed errors from the
// errors package: TransportError when no HTTP response was received or the
// body could not be read to the end (including context cancellation) and
// ProtocolError for a non-2xx status.
package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/anhcx0209/ontodia-search/errors"
	"github.com/anhcx0209/ontodia-search/metric"
)

// MaxErrorBody caps how much of a non-2xx body a ProtocolError keeps.
const MaxErrorBody = 64 << 10

// DefaultTimeout bounds a request when the client builds its own http.Client.
const DefaultTimeout = 60 * time.Second

// Media types.
const (
	ContentTypeQuery   = "application/sparql-query"
	MediaSPARQLResults = "application/sparql-results+json"
	MediaTurtle        = "text/turtle"
)

// Method is the HTTP encoding of a query.
type Method string

// Query methods.
const (
	MethodGet  Method = http.MethodGet
	MethodPost Method = http.MethodPost
)

// ParseMethod accepts GET or POST in any case. Empty means GET.
func ParseMethod(s string) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", http.MethodGet:
		return MethodGet, nil
	case http.MethodPost:
		return MethodPost, nil
	}
	return "", errors.WrapInvalid(errors.ErrInvalidConfig, "transport", "ParseMethod",
		"unsupported query method "+s)
}

// Format is the expected response format.
type Format string

// Response formats.
const (
	FormatBindings Format = "bindings"
	FormatTurtle   Format = "turtle"
)

// Accept returns the media type requested for f.
func (f Format) Accept() string {
	if f == FormatTurtle {
		return MediaTurtle
	}
	return MediaSPARQLResults
}

// Client executes queries against SPARQL endpoints. It is safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metric.Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit throttles requests to rps per second with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics records request metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client. Without options it uses an http.Client with
// DefaultTimeout, no throttling and no metrics.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute sends query and returns the whole response body.
func (c *Client) Execute(ctx context.Context, endpoint, query string, method Method, format Format) ([]byte, error) {
	body, err := c.Stream(ctx, endpoint, query, method, format)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Stream sends query and returns the response body for incremental
// decoding. The caller must close it. A failed body read returns a
// TransportError.
func (c *Client) Stream(ctx context.Context, endpoint, query string, method Method, format Format) (io.ReadCloser, error) {
	req, err := newRequest(ctx, endpoint, query, method, format)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.metrics.RecordTransportError(string(errors.KindTransport))
			return nil, &errors.TransportError{Endpoint: endpoint, Err: err}
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordTransportError(string(errors.KindTransport))
		c.logger.Debug("sparql request failed",
			"endpoint", endpoint, "method", method, "format", format,
			"duration", time.Since(start), "error", err)
		return nil, &errors.TransportError{Endpoint: endpoint, Err: err}
	}

	c.metrics.RecordTransportResponse(string(method), string(format), resp.StatusCode)
	c.logger.Debug("sparql request",
		"endpoint", endpoint, "method", method, "format", format,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBody))
		c.metrics.RecordTransportError(string(errors.KindProtocol))
		return nil, &errors.ProtocolError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(snippet),
		}
	}

	return &countingBody{
		ReadCloser: resp.Body,
		endpoint:   endpoint,
		format:     string(format),
		metrics:    c.metrics,
	}, nil
}

func newRequest(ctx context.Context, endpoint, query string, method Method, format Format) (*http.Request, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.NewComposition("transport", errors.ErrInvalidConfig, "endpoint %q is not an absolute URL", endpoint)
	}

	var req *http.Request
	switch method {
	case MethodGet, "":
		if u.RawQuery != "" {
			u.RawQuery += "&"
		}
		u.RawQuery += "query=" + EscapeQuery(query)
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	case MethodPost:
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(query))
		if err == nil {
			req.Header.Set("Content-Type", ContentTypeQuery)
		}
	default:
		return nil, errors.NewComposition("transport", errors.ErrInvalidConfig, "unsupported method %q", method)
	}
	if err != nil {
		return nil, errors.NewComposition("transport", err, "build request")
	}
	req.Header.Set("Accept", format.Accept())
	return req, nil
}

// EscapeQuery percent-encodes a query for a URL query component, with
// spaces as %20.
func EscapeQuery(query string) string {
	return strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
}

// countingBody records the response size when the body is closed and
// reports read failures as TransportErrors. The first failure sticks.
type countingBody struct {
	io.ReadCloser
	endpoint string
	format   string
	metrics  *metric.Metrics
	n        int
	err      error
	closed   bool
}

func (b *countingBody) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	n, err := b.ReadCloser.Read(p)
	b.n += n
	if err != nil && err != io.EOF {
		b.metrics.RecordTransportError(string(errors.KindTransport))
		b.err = &errors.TransportError{Endpoint: b.endpoint, Err: err}
		return n, b.err
	}
	return n, err
}

func (b *countingBody) Close() error {
	if !b.closed {
		b.closed = true
		b.metrics.RecordResponseBytes(b.format, b.n)
	}
	return b.ReadCloser.Close()
}
