/*
Package metrics provides Prometheus instrumentation for pipework components.

Components accept a metrics.Config and record into a Registry of counters,
gauges and histograms under the "pipework" namespace. By default the
package-level DefaultRegistry registers with prometheus.DefaultRegisterer;
pass a custom Registerer to isolate metrics per component or per test:

	reg := prometheus.NewRegistry()
	cfg := metrics.Config{Enabled: true, Registry: reg}

	limiter := concurrency.NewWithMetrics(8, "ingest", cfg)

Exposition is the host application's concern, typically via
promhttp.Handler.
*/
package metrics
