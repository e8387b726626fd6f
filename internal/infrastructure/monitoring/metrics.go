package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Every recording method is safe to
// call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec

	// Record metrics
	RecordsStored prometheus.Gauge

	// Cover lookup metrics
	LookupOutcomes *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
	LookupQueued   prometheus.Gauge

	// Recommendation metrics
	Recommendations *prometheus.CounterVec

	// Desktop metrics
	DesktopActions *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveConnections int64   `json:"active_connections"`
	TotalDuration     float64 `json:"-"`
	RequestCount      int64   `json:"-"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector with its own registry, so several
// collectors can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reads_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reads_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reads_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reads_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Service metrics
		ServiceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reads_service_calls_total",
				Help: "Total number of domain service calls",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reads_service_duration_seconds",
				Help:    "Domain service call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service", "method"},
		),

		RecordsStored: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "reads_records_stored",
				Help: "Number of reading records in the store",
			},
		),

		// Cover lookup metrics
		LookupOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reads_lookup_outcomes_total",
				Help: "Book lookups by outcome (cache_hit, dispatched, retried, found, fallback)",
			},
			[]string{"outcome"},
		),
		LookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reads_lookup_attempt_duration_seconds",
				Help:    "Duration of a single upstream lookup attempt",
				Buckets: []float64{.05, .1, .25, .5, 1, 2, 4, 8},
			},
			[]string{"status"},
		),
		LookupQueued: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "reads_lookup_queue_depth",
				Help: "Lookups waiting for a dispatch slot",
			},
		),

		Recommendations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reads_recommendations_total",
				Help: "Recommendation requests by kind and result source",
			},
			[]string{"kind", "source"},
		),

		DesktopActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reads_desktop_actions_total",
				Help: "Window manager actions applied",
			},
			[]string{"action"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "reads_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reads_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "reads_uptime_seconds",
			Help: "Backend uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler exposes this collector's registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordServiceCall records a domain service call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// SetRecordsStored sets the number of stored reading records
func (m *Metrics) SetRecordsStored(count int) {
	if m == nil {
		return
	}
	m.RecordsStored.Set(float64(count))
}

// RecordLookupOutcome counts one lookup outcome
func (m *Metrics) RecordLookupOutcome(outcome string) {
	if m == nil {
		return
	}
	m.LookupOutcomes.WithLabelValues(outcome).Inc()
}

// RecordLookupAttempt records the duration of one upstream attempt
func (m *Metrics) RecordLookupAttempt(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LookupDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// SetLookupQueued sets the number of queued lookups
func (m *Metrics) SetLookupQueued(n int) {
	if m == nil {
		return
	}
	m.LookupQueued.Set(float64(n))
}

// RecordRecommendation counts one recommendation request
func (m *Metrics) RecordRecommendation(kind, source string) {
	if m == nil {
		return
	}
	m.Recommendations.WithLabelValues(kind, source).Inc()
}

// RecordDesktopAction counts one window manager action
func (m *Metrics) RecordDesktopAction(action string) {
	if m == nil {
		return
	}
	m.DesktopActions.WithLabelValues(action).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current summary values for the JSON health endpoint.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.RequestCount > 0 {
		s.AverageLatencyMs = s.TotalDuration / float64(s.RequestCount) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
