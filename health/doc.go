// Package health tracks whether the SPARQL endpoint behind the provider is
// answering.
//
// A Prober sends a trivial ASK query on an interval and records the outcome
// in a Monitor under the name "endpoint". The gateway reports the aggregated
// state at /healthz:
//
//	monitor := health.NewMonitor()
//	prober := health.NewProber(client, endpointURL, monitor,
//		health.WithInterval(30*time.Second))
//	go prober.Run(ctx)
//
//	status := monitor.AggregateHealth("ontodia-search")
//
// Aggregation rules: any unhealthy sub-status makes the aggregate unhealthy;
// otherwise any degraded sub-status makes it degraded. Messages derived from
// errors are sanitized so endpoint URLs, addresses and credentials do not
// reach health responses.
package health
