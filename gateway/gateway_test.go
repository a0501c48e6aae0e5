package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anhcx0209/ontodia-search/dialect"
	"github.com/anhcx0209/ontodia-search/errors"
	"github.com/anhcx0209/ontodia-search/health"
	"github.com/anhcx0209/ontodia-search/metric"
	"github.com/anhcx0209/ontodia-search/model"
	"github.com/anhcx0209/ontodia-search/provider"
)

// stubProvider answers the operations a test sets and panics on the rest.
type stubProvider struct {
	provider.DataProvider

	classTree   func(ctx context.Context) ([]*model.ClassNode, error)
	linkTypes   func(ctx context.Context) ([]*model.LinkType, error)
	elementInfo func(ctx context.Context, ids []string) (*provider.Elements, error)
	filter      func(ctx context.Context, req model.FilterRequest) (*provider.Elements, error)
	linksInfo   func(ctx context.Context, elementIDs, linkTypeIDs []string) ([]model.Link, error)
}

func (s *stubProvider) ClassTree(ctx context.Context) ([]*model.ClassNode, error) {
	return s.classTree(ctx)
}

func (s *stubProvider) LinkTypes(ctx context.Context) ([]*model.LinkType, error) {
	return s.linkTypes(ctx)
}

func (s *stubProvider) ElementInfo(ctx context.Context, ids []string) (*provider.Elements, error) {
	return s.elementInfo(ctx, ids)
}

func (s *stubProvider) Filter(ctx context.Context, req model.FilterRequest) (*provider.Elements, error) {
	return s.filter(ctx, req)
}

func (s *stubProvider) FilterExtended(ctx context.Context, req model.FilterRequest) (*provider.Elements, error) {
	return s.filter(ctx, req)
}

func (s *stubProvider) LinksInfo(ctx context.Context, elementIDs, linkTypeIDs []string) ([]model.Link, error) {
	return s.linksInfo(ctx, elementIDs, linkTypeIDs)
}

func elements(ids ...string) *provider.Elements {
	d := model.NewDict[*model.Element](len(ids))
	for _, id := range ids {
		d.Set(id, model.NewElement(id))
	}
	return d
}

func newGateway(t *testing.T, cfg Config, deps Dependencies) *Gateway {
	t.Helper()
	g, err := New(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

func serve(g *Gateway, method, path, body string, header ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestNew_RequiresProvider(t *testing.T) {
	_, err := New(DefaultConfig(), Dependencies{})
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))

	_, err = New(Config{MaxRequestSize: -1}, Dependencies{Provider: &stubProvider{}})
	assert.True(t, errors.IsInvalid(err))
}

func TestRequestID(t *testing.T) {
	g := newGateway(t, DefaultConfig(), Dependencies{Provider: &stubProvider{}})

	rec := serve(g, http.MethodGet, "/healthz", "", HeaderRequestID, "abc-123")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	first := serve(g, http.MethodGet, "/healthz", "").Header().Get(HeaderRequestID)
	second := serve(g, http.MethodGet, "/healthz", "").Header().Get(HeaderRequestID)
	assert.Len(t, first, 36)
	assert.NotEqual(t, first, second)
}

func TestDialects(t *testing.T) {
	reg, err := dialect.NewRegistry()
	require.NoError(t, err)
	g := newGateway(t, DefaultConfig(), Dependencies{Provider: &stubProvider{}, Dialects: reg})

	rec := serve(g, http.MethodGet, "/api/dialects", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []dialectSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	names := make([]string, 0, len(list))
	for _, d := range list {
		names = append(names, d.Name)
		if d.Name == "stardog" {
			assert.Equal(t, model.SearchModes, d.SearchModes)
		}
	}
	assert.Equal(t, reg.Names(), names)

	rec = serve(g, http.MethodGet, "/api/dialects/wikidata", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var s dialect.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, "wikidata", s.Name)

	rec = serve(g, http.MethodGet, "/api/dialects/virtuoso", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.KindComposition, decodeError(t, rec).Kind)
}

func TestSchema_LoadsConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int32
	track := func() func() {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return func() { inFlight.Add(-1) }
	}

	count := 4
	stub := &stubProvider{
		classTree: func(context.Context) ([]*model.ClassNode, error) {
			defer track()()
			return []*model.ClassNode{{ID: "http://ex/Animal", Count: &count}}, nil
		},
		linkTypes: func(context.Context) ([]*model.LinkType, error) {
			defer track()()
			return []*model.LinkType{{ID: "http://ex/knows"}}, nil
		},
	}
	g := newGateway(t, DefaultConfig(), Dependencies{Provider: stub})

	rec := serve(g, http.MethodGet, "/api/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"classTree": [{"id": "http://ex/Animal", "count": 4}],
		"linkTypes": [{"id": "http://ex/knows"}]
	}`, rec.Body.String())
	assert.Equal(t, int32(2), peak.Load())
}

func TestSchema_FailureCancelsSibling(t *testing.T) {
	stub := &stubProvider{
		classTree: func(context.Context) ([]*model.ClassNode, error) {
			return nil, &errors.TransportError{Endpoint: "http://sparql", Err: io.ErrUnexpectedEOF}
		},
		linkTypes: func(ctx context.Context) ([]*model.LinkType, error) {
			<-ctx.Done()
			return nil, &errors.TransportError{Endpoint: "http://sparql", Err: ctx.Err()}
		},
	}
	g := newGateway(t, DefaultConfig(), Dependencies{Provider: stub})

	rec := serve(g, http.MethodGet, "/api/schema", "")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		kind     errors.Kind
		endpoint int
	}{
		{
			name:   "composition",
			err:    errors.NewComposition("filter", errors.ErrRefLinkWithoutElement, "link type %q", "http://ex/knows"),
			status: http.StatusBadRequest,
			kind:   errors.KindComposition,
		},
		{
			name:     "protocol",
			err:      &errors.ProtocolError{StatusCode: 400, Status: "400 Bad Request", Body: "Lexical error"},
			status:   http.StatusBadGateway,
			kind:     errors.KindProtocol,
			endpoint: 400,
		},
		{
			name:   "parse",
			err:    &errors.ParseError{Format: "sparql-json", Err: io.ErrUnexpectedEOF},
			status: http.StatusBadGateway,
			kind:   errors.KindParse,
		},
		{
			name:   "transport",
			err:    &errors.TransportError{Endpoint: "http://sparql", Err: context.DeadlineExceeded},
			status: http.StatusGatewayTimeout,
			kind:   errors.KindTransport,
		},
		{
			name:   "unclassified",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubProvider{
				elementInfo: func(context.Context, []string) (*provider.Elements, error) { return nil, tt.err },
			}
			g := newGateway(t, DefaultConfig(), Dependencies{Provider: stub})

			rec := serve(g, http.MethodPost, "/api/element-info", `{"ids": ["http://ex/1"]}`, HeaderRequestID, "req-1")
			assert.Equal(t, tt.status, rec.Code)

			resp := decodeError(t, rec)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.Equal(t, "req-1", resp.RequestID)
			assert.Equal(t, tt.endpoint, resp.EndpointStatus)
			assert.NotContains(t, resp.Error, "Lexical error")
		})
	}
}

func TestFilter(t *testing.T) {
	var got model.FilterRequest
	stub := &stubProvider{
		filter: func(_ context.Context, req model.FilterRequest) (*provider.Elements, error) {
			got = req
			return elements("http://ex/1", "http://ex/2"), nil
		},
	}
	g := newGateway(t, DefaultConfig(), Dependencies{Provider: stub})

	rec := serve(g, http.MethodPost, "/api/filter-extended",
		`{"text": "tree", "searchMode": "fuzzy", "elementTypeId": "http://ex/Plant", "limit": 2, "offset": 4}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, model.FilterRequest{
		Text: "tree", SearchMode: model.SearchFuzzy, ElementTypeID: "http://ex/Plant", Limit: 2, Offset: 4,
	}, got)
	assert.JSONEq(t, `{
		"items": {
			"http://ex/1": {"id": "http://ex/1", "types": []},
			"http://ex/2": {"id": "http://ex/2", "types": []}
		},
		"moreItemsAvailable": true
	}`, rec.Body.String())
}

func TestBadRequests(t *testing.T) {
	g := newGateway(t, Config{MaxRequestSize: 64}, Dependencies{Provider: &stubProvider{}})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed json", http.MethodPost, "/api/element-info", `{"ids": [`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/element-info", `{"elements": []}`, http.StatusBadRequest},
		{"too large", http.MethodPost, "/api/element-info", `{"ids": ["` + strings.Repeat("x", 100) + `"]}`, http.StatusRequestEntityTooLarge},
		{"missing id", http.MethodGet, "/api/link-types-of", "", http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/api/filter", "", http.StatusMethodNotAllowed},
		{"unknown route", http.MethodGet, "/api/nothing", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(g, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableCORS = true
	cfg.CORSOrigins = []string{"https://diagram.example.com"}
	g := newGateway(t, cfg, Dependencies{Provider: &stubProvider{}})

	rec := serve(g, http.MethodOptions, "/api/filter", "", "Origin", "https://diagram.example.com")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://diagram.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(g, http.MethodGet, "/healthz", "", "Origin", "https://evil.example.com")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	_, err := New(Config{EnableCORS: true}, Dependencies{Provider: &stubProvider{}})
	assert.True(t, errors.IsInvalid(err))
}

func TestMetricsRoute(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	g := newGateway(t, DefaultConfig(), Dependencies{Provider: &stubProvider{}, Registry: registry})

	serve(g, http.MethodGet, "/healthz", "")
	rec := serve(g, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ontodia_gateway_requests_total{code="200",route="GET /healthz"} 1`)

	_, err := New(DefaultConfig(), Dependencies{Provider: &stubProvider{}, Registry: registry})
	assert.Error(t, err, "a second gateway cannot register the same metric")
}

func TestRegisterHTTPHandlers(t *testing.T) {
	g := newGateway(t, DefaultConfig(), Dependencies{Provider: &stubProvider{
		linksInfo: func(_ context.Context, elementIDs, linkTypeIDs []string) ([]model.Link, error) {
			assert.Equal(t, []string{"http://ex/1", "http://ex/2"}, elementIDs)
			assert.Nil(t, linkTypeIDs)
			return []model.Link{{SourceID: "http://ex/1", TypeID: "http://ex/knows", TargetID: "http://ex/2"}}, nil
		},
	}})
	mux := http.NewServeMux()
	g.RegisterHTTPHandlers("/ontodia", mux)

	req := httptest.NewRequest(http.MethodPost, "/ontodia/api/links-info", strings.NewReader(`{"elementIds": ["http://ex/1", "http://ex/2"]}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"sourceId": "http://ex/1", "linkTypeId": "http://ex/knows", "targetId": "http://ex/2"}]`, rec.Body.String())
}

func TestEndToEnd_ElementInfo(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("query"), "(<http://ex/1>)")
		_, _ = io.WriteString(w, `{"head": {"vars": ["inst", "class", "label"]}, "results": {"bindings": [
			{"inst": {"type": "uri", "value": "http://ex/1"}, "class": {"type": "uri", "value": "http://ex/C1"}},
			{"inst": {"type": "uri", "value": "http://ex/1"}, "label": {"type": "literal", "value": "Foo", "xml:lang": "en"}}
		]}}`)
	}))
	defer endpoint.Close()

	p, err := provider.New(provider.Config{EndpointURL: endpoint.URL}, provider.Dependencies{})
	require.NoError(t, err)
	g := newGateway(t, DefaultConfig(), Dependencies{Provider: p})

	rec := serve(g, http.MethodPost, "/api/element-info", `{"ids": ["http://ex/1"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"http://ex/1": {
		"id": "http://ex/1",
		"types": ["http://ex/C1"],
		"label": [{"text": "Foo", "lang": "en"}]
	}}`, rec.Body.String())
}

func TestHealth_ReportsMonitor(t *testing.T) {
	monitor := health.NewMonitor()
	g := newGateway(t, DefaultConfig(), Dependencies{Provider: &stubProvider{}, Health: monitor})

	monitor.Update(health.EndpointComponent, health.NewDegraded("", "endpoint answered in 3s"))
	rec := serve(g, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body health.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, health.StateDegraded, body.Status)
	require.Len(t, body.SubStatuses, 1)
	assert.Equal(t, health.EndpointComponent, body.SubStatuses[0].Component)

	monitor.Update(health.EndpointComponent, health.NewUnhealthy("", "connection refused"))
	rec = serve(g, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
}
