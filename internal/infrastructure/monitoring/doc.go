/*
Package monitoring provides Prometheus metrics for the reading tracker backend.

# Overview

Each Metrics value owns a private registry. The server exposes it at
/metrics, and tests can build as many collectors as they like without
duplicate registration panics.

# Features

- HTTP request metrics (latency, throughput, size) keyed by route template
- Domain service call metrics (records, timeline)
- Cover lookup outcomes, attempt latency and queue depth
- Recommendation requests by kind and result source
- Window manager actions
- WebSocket connection and message metrics
- Uptime and Go runtime collectors

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "records", "create")
	// ... perform operation ...
	timer.StopErr(err)
*/
package monitoring
