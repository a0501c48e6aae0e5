package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/anhcx0209/ontodia-search/dialect"
	"github.com/anhcx0209/ontodia-search/errors"
	"github.com/anhcx0209/ontodia-search/health"
	"github.com/anhcx0209/ontodia-search/metric"
	"github.com/anhcx0209/ontodia-search/model"
	"github.com/anhcx0209/ontodia-search/provider"
)

// HeaderRequestID carries the request identity in both directions.
const HeaderRequestID = "X-Request-ID"

const serviceName = "ontodia-search"

// Dialects lists and resolves dialects. dialect.Registry implements it.
type Dialects interface {
	Names() []string
	Resolve(name string) (dialect.Settings, error)
}

// Dependencies are the collaborators of a Gateway. Provider is required.
// Without a Health monitor /healthz always reports healthy.
type Dependencies struct {
	Provider provider.DataProvider
	Dialects Dialects
	Registry *metric.MetricsRegistry
	Health   *health.Monitor
	Logger   *slog.Logger
}

// Gateway serves the JSON API.
type Gateway struct {
	config   Config
	provider provider.DataProvider
	dialects Dialects
	registry *metric.MetricsRegistry
	health   *health.Monitor
	logger   *slog.Logger
	requests *prometheus.CounterVec
	mux      *http.ServeMux
}

// New validates cfg and builds the route table.
func New(cfg Config, deps Dependencies) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Gateway", "New", "config validation")
	}
	if deps.Provider == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Gateway", "New", "data provider is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gateway{
		config:   cfg,
		provider: deps.Provider,
		dialects: deps.Dialects,
		registry: deps.Registry,
		health:   deps.Health,
		logger:   logger.With("component", "gateway"),
		mux:      http.NewServeMux(),
	}

	if deps.Registry != nil {
		g.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "HTTP API requests by route and status code",
		}, []string{"route", "code"})
		if err := deps.Registry.Register("gateway", "requests_total", g.requests); err != nil {
			return nil, errors.Wrap(err, "Gateway", "New", "register request metric")
		}
	}

	g.routes()
	return g, nil
}

// Close unregisters the gateway's metrics.
func (g *Gateway) Close() {
	if g.requests != nil {
		g.registry.Unregister("gateway", "requests_total")
	}
}

// Handler returns the root handler of the API.
func (g *Gateway) Handler() http.Handler {
	return g.mux
}

// RegisterHTTPHandlers mounts the API routes on mux under prefix.
func (g *Gateway) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	mux.Handle(prefix+"/", http.StripPrefix(prefix, g.mux))
}

func (g *Gateway) routes() {
	g.handle("GET /api/dialects", g.handleDialects)
	g.handle("GET /api/dialects/{name}", g.handleDialect)
	g.handle("GET /api/class-tree", g.handleClassTree)
	g.handle("GET /api/link-types", g.handleLinkTypes)
	g.handle("GET /api/schema", g.handleSchema)
	g.handle("GET /api/link-types-of", g.handleLinkTypesOf)
	g.handle("POST /api/class-info", g.handleClassInfo)
	g.handle("POST /api/property-info", g.handlePropertyInfo)
	g.handle("POST /api/link-types-info", g.handleLinkTypesInfo)
	g.handle("POST /api/element-info", g.handleElementInfo)
	g.handle("POST /api/links-info", g.handleLinksInfo)
	g.handle("POST /api/link-elements", g.handleLinkElements)
	g.handle("POST /api/filter", g.handleFilter(false))
	g.handle("POST /api/filter-extended", g.handleFilter(true))
	g.handle("POST /api/triples", g.handleTriples)
	g.handle("GET /healthz", g.handleHealth)

	if g.config.EnableCORS {
		g.mux.HandleFunc("OPTIONS /api/", func(w http.ResponseWriter, r *http.Request) {
			g.applyCORS(w, r)
			w.WriteHeader(http.StatusNoContent)
		})
	}

	if g.registry != nil {
		g.mux.Handle("GET /metrics", g.registry.Handler())
	}
}

// apiHandler returns the response value or an error.
type apiHandler func(w http.ResponseWriter, r *http.Request) (any, error)

// statusCoder lets a successful response choose its status code.
type statusCoder interface {
	StatusCode() int
}

// handle wraps h with request identity, CORS, the per-request deadline,
// JSON encoding and error mapping.
func (g *Gateway) handle(pattern string, h apiHandler) {
	g.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := getOrGenerateRequestID(r)
		w.Header().Set(HeaderRequestID, requestID)

		if g.config.EnableCORS {
			g.applyCORS(w, r)
		}

		ctx, cancel := context.WithTimeout(r.Context(), g.config.RequestTimeout)
		defer cancel()
		r = r.WithContext(ctx)
		r.Body = http.MaxBytesReader(w, r.Body, g.config.MaxRequestSize)

		resp, err := h(w, r)
		status := http.StatusOK
		if err != nil {
			status = g.writeError(w, requestID, err)
			g.logger.Warn("request failed",
				"route", pattern, "request_id", requestID, "status", status,
				"kind", errors.KindOf(err), "duration", time.Since(start), "error", err)
		} else {
			if sc, ok := resp.(statusCoder); ok {
				status = sc.StatusCode()
			}
			writeJSON(w, status, resp)
			g.logger.Debug("request completed",
				"route", pattern, "request_id", requestID, "duration", time.Since(start))
		}

		if g.requests != nil {
			g.requests.WithLabelValues(pattern, strconv.Itoa(status)).Inc()
		}
	})
}

// getOrGenerateRequestID extracts the request ID from headers or generates a new one.
func getOrGenerateRequestID(r *http.Request) string {
	if reqID := r.Header.Get(HeaderRequestID); reqID != "" {
		return reqID
	}
	return uuid.NewString()
}

// applyCORS applies CORS headers to the response.
func (g *Gateway) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	for _, allowed := range g.config.CORSOrigins {
		if allowed == "*" || allowed == origin {
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderRequestID)
			w.Header().Set("Access-Control-Max-Age", "3600")
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.WrapInvalid(errRequestTooLarge, "Gateway", "decode", "read request body")
		}
		return errors.WrapInvalid(err, "Gateway", "decode", "parse request body")
	}
	return nil
}

// Request bodies.

type idsRequest struct {
	IDs []string `json:"ids"`
}

type linksInfoRequest struct {
	ElementIDs  []string `json:"elementIds"`
	LinkTypeIDs []string `json:"linkTypeIds,omitempty"`
}

// Response bodies.

type dialectSummary struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	SearchModes []model.SearchMode `json:"searchModes,omitempty"`
}

type schemaResponse struct {
	ClassTree []*model.ClassNode `json:"classTree"`
	LinkTypes []*model.LinkType  `json:"linkTypes"`
}

type pageResponse struct {
	Items              *provider.Elements `json:"items"`
	MoreItemsAvailable bool               `json:"moreItemsAvailable"`
}

type healthResponse struct {
	health.Status
}

// StatusCode is 503 only when the service is unhealthy.
func (h healthResponse) StatusCode() int {
	if h.IsUnhealthy() {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func (g *Gateway) handleDialects(_ http.ResponseWriter, _ *http.Request) (any, error) {
	if g.dialects == nil {
		return []dialectSummary{}, nil
	}
	names := g.dialects.Names()
	out := make([]dialectSummary, 0, len(names))
	for _, name := range names {
		s, err := g.dialects.Resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, dialectSummary{Name: s.Name, Description: s.Description, SearchModes: s.Modes()})
	}
	return out, nil
}

func (g *Gateway) handleDialect(_ http.ResponseWriter, r *http.Request) (any, error) {
	if g.dialects == nil {
		return nil, errors.NewComposition("resolve dialect", errors.ErrUnknownDialect, "%q", r.PathValue("name"))
	}
	return g.dialects.Resolve(r.PathValue("name"))
}

func (g *Gateway) handleClassTree(_ http.ResponseWriter, r *http.Request) (any, error) {
	return g.provider.ClassTree(r.Context())
}

func (g *Gateway) handleLinkTypes(_ http.ResponseWriter, r *http.Request) (any, error) {
	return g.provider.LinkTypes(r.Context())
}

// handleSchema loads the class tree and the link types concurrently.
func (g *Gateway) handleSchema(_ http.ResponseWriter, r *http.Request) (any, error) {
	var resp schemaResponse
	eg, ctx := errgroup.WithContext(r.Context())
	eg.Go(func() error {
		tree, err := g.provider.ClassTree(ctx)
		resp.ClassTree = tree
		return err
	})
	eg.Go(func() error {
		links, err := g.provider.LinkTypes(ctx)
		resp.LinkTypes = links
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (g *Gateway) handleLinkTypesOf(_ http.ResponseWriter, r *http.Request) (any, error) {
	id := r.URL.Query().Get("id")
	if id == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Gateway", "handleLinkTypesOf", "query parameter id is required")
	}
	return g.provider.LinkTypesOf(r.Context(), id)
}

func (g *Gateway) handleClassInfo(_ http.ResponseWriter, r *http.Request) (any, error) {
	var req idsRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return g.provider.ClassInfo(r.Context(), req.IDs)
}

func (g *Gateway) handlePropertyInfo(_ http.ResponseWriter, r *http.Request) (any, error) {
	var req idsRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return g.provider.PropertyInfo(r.Context(), req.IDs)
}

func (g *Gateway) handleLinkTypesInfo(_ http.ResponseWriter, r *http.Request) (any, error) {
	var req idsRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return g.provider.LinkTypesInfo(r.Context(), req.IDs)
}

func (g *Gateway) handleElementInfo(_ http.ResponseWriter, r *http.Request) (any, error) {
	var req idsRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return g.provider.ElementInfo(r.Context(), req.IDs)
}

func (g *Gateway) handleLinksInfo(_ http.ResponseWriter, r *http.Request) (any, error) {
	var req linksInfoRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return g.provider.LinksInfo(r.Context(), req.ElementIDs, req.LinkTypeIDs)
}

func (g *Gateway) handleLinkElements(_ http.ResponseWriter, r *http.Request) (any, error) {
	var req provider.LinkElementsRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	elements, err := g.provider.LinkElements(r.Context(), req)
	if err != nil {
		return nil, err
	}
	page := model.FilterRequest{Limit: req.Limit}
	return pageResponse{Items: elements, MoreItemsAvailable: page.MoreAvailable(elements.Len())}, nil
}

func (g *Gateway) handleFilter(extended bool) apiHandler {
	return func(_ http.ResponseWriter, r *http.Request) (any, error) {
		var req model.FilterRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		run := g.provider.Filter
		if extended {
			run = g.provider.FilterExtended
		}
		elements, err := run(r.Context(), req)
		if err != nil {
			return nil, err
		}
		return pageResponse{Items: elements, MoreItemsAvailable: req.MoreAvailable(elements.Len())}, nil
	}
}

func (g *Gateway) handleTriples(_ http.ResponseWriter, r *http.Request) (any, error) {
	var req idsRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return g.provider.ElementTriples(r.Context(), req.IDs)
}

func (g *Gateway) handleHealth(_ http.ResponseWriter, _ *http.Request) (any, error) {
	if g.health == nil {
		return healthResponse{health.NewHealthy(serviceName, "no health probes configured")}, nil
	}
	return healthResponse{g.health.AggregateHealth(serviceName)}, nil
}
