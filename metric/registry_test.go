package metric

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatheredNames(t *testing.T, registry *MetricsRegistry) map[string]bool {
	t.Helper()
	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.Same(t, registry.Metrics, registry.CoreMetrics())
}

func TestMetricsRegistry_CoreMetricsInitialization(t *testing.T) {
	registry := NewMetricsRegistry()
	m := registry.CoreMetrics()

	m.RecordQuery("classTree", 20*time.Millisecond, nil)
	m.RecordEnrichmentDegraded("resolver")
	m.RecordTransportResponse("GET", "bindings", 200)
	m.RecordTransportError("transport")
	m.RecordResponseBytes("bindings", 1024)

	names := gatheredNames(t, registry)
	for _, want := range []string{
		"ontodia_queries_total",
		"ontodia_query_duration_seconds",
		"ontodia_enrichment_degraded_total",
		"ontodia_transport_requests_total",
		"ontodia_transport_errors_total",
		"ontodia_response_bytes",
		"go_goroutines",
	} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestCoreMetrics_RecordMethods(t *testing.T) {
	m := NewMetrics()

	m.RecordQuery("filter", time.Millisecond, nil)
	m.RecordQuery("filter", time.Millisecond, errors.New("boom"))
	m.RecordQuery("filter", time.Millisecond, errors.New("boom"))
	m.RecordTransportResponse("POST", "turtle", 502)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("filter", StatusOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("filter", StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransportRequests.WithLabelValues("POST", "turtle", "502")))
}

func TestCoreMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordQuery("x", time.Second, nil)
		m.RecordEnrichmentDegraded("x")
		m.RecordTransportResponse("GET", "bindings", 200)
		m.RecordTransportError("x")
		m.RecordResponseBytes("x", 1)
	})

	var r *MetricsRegistry
	assert.Nil(t, r.CoreMetrics())
}

func TestMetricsRegistry_Register(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "A test counter",
	})

	require.NoError(t, registry.Register("gateway", "test_counter", counter))
	counter.Inc()

	assert.True(t, gatheredNames(t, registry)["test_counter"])
}

func TestMetricsRegistry_PreventDuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	first := prometheus.NewCounter(prometheus.CounterOpts{Name: "dup_counter", Help: "first"})
	second := prometheus.NewCounter(prometheus.CounterOpts{Name: "dup_counter", Help: "second"})

	require.NoError(t, registry.Register("gateway", "dup_counter", first))

	err := registry.Register("gateway", "dup_counter", second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate metric registration")

	err = registry.Register("other", "dup_counter", second)
	require.Error(t, err, "prometheus rejects the same fully qualified name")
}

func TestMetricsRegistry_Unregister(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_gauge", Help: "gauge"})
	require.NoError(t, registry.Register("gateway", "test_gauge", gauge))

	assert.True(t, registry.Unregister("gateway", "test_gauge"))
	assert.False(t, registry.Unregister("gateway", "test_gauge"))
	assert.False(t, gatheredNames(t, registry)["test_gauge"])

	require.NoError(t, registry.Register("gateway", "test_gauge", gauge))
}

func TestMetricsRegistry_ThreadSafety(t *testing.T) {
	registry := NewMetricsRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("concurrent_counter_%d", i)
			counter := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: "concurrent"})
			assert.NoError(t, registry.Register("gateway", name, counter))
			registry.CoreMetrics().RecordQuery("elementInfo", time.Millisecond, nil)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10.0, testutil.ToFloat64(
		registry.CoreMetrics().QueriesTotal.WithLabelValues("elementInfo", StatusOK)))
}

func TestMetricsRegistrar_Interface(t *testing.T) {
	var _ MetricsRegistrar = NewMetricsRegistry()
}

func TestHandler(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().RecordQuery("linkTypes", time.Millisecond, nil)

	srv := httptest.NewServer(registry.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `ontodia_queries_total{operation="linkTypes",status="ok"} 1`)
}

func TestServer_StartStop(t *testing.T) {
	srv := NewServer("127.0.0.1:0", "", NewMetricsRegistry())
	require.NoError(t, srv.Start())
	require.Error(t, srv.Start(), "second start must fail")

	addr := srv.Address()
	assert.True(t, strings.HasSuffix(addr, "/metrics"))

	resp, err := http.Get(addr)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, srv.Stop(ctx))
}
