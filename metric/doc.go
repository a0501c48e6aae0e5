// Package metric provides the Prometheus metrics of the provider, the
// transport client and the gateway.
//
// A MetricsRegistry owns a private prometheus.Registry with the core
// metrics (Metrics), the Go runtime collector and the process collector.
// Components that own further metrics register them through the
// MetricsRegistrar interface.
//
// Core metrics:
//
//   - ontodia_queries_total{operation,status}: provider operations by outcome
//   - ontodia_query_duration_seconds{operation}: end-to-end operation latency
//   - ontodia_enrichment_degraded_total{source}: image passes dropped
//   - ontodia_transport_requests_total{method,format,code}: HTTP responses
//   - ontodia_transport_errors_total{kind}: failed requests by error kind
//   - ontodia_response_bytes{format}: response body sizes
//
// Every Record method is safe on a nil *Metrics, so a component built
// without metrics needs no guards:
//
//	registry := metric.NewMetricsRegistry()
//	m := registry.CoreMetrics()
//	m.RecordQuery("elementInfo", time.Since(start), err)
//
// The registry is served either by mounting Handler on an existing mux or
// by running a Server on its own address:
//
//	srv := metric.NewServer(":9090", "/metrics", registry)
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Stop(ctx)
package metric
