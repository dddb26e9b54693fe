// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec

	// Fetch metrics
	RequestLatency *prometheus.HistogramVec
	FetchRetries   *prometheus.CounterVec
	FetchExhausted *prometheus.CounterVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec
	CacheErrors  *prometheus.CounterVec

	// Reconciliation metrics
	Reconciliations     *prometheus.CounterVec
	ReconcileDuration   prometheus.Histogram
	ReconcilePanics     prometheus.Counter
	CatalogEntries      prometheus.Gauge
	CatalogLoadFailures *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP API metrics
	APIRequests *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pulse_token_board"
	}

	return &Metrics{
		ProviderRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total provider calls by provider, method and outcome",
		}, []string{"provider", "method", "outcome"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Provider failures absorbed at the adapter boundary, by kind",
		}, []string{"provider", "kind"}),

		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "request_duration_seconds",
			Help:      "Outbound HTTP request latency in seconds",
			Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}, []string{"name"}),
		FetchRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "retries_total",
			Help:      "Total retried outbound requests",
		}, []string{"name"}),
		FetchExhausted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "exhausted_total",
			Help:      "Outbound requests that failed on every attempt",
		}, []string{"name"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by provider and result (hit, miss, stale)",
		}, []string{"provider", "result"}),
		CacheErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "store_errors_total",
			Help:      "Cache backend errors by operation",
		}, []string{"operation"}),

		Reconciliations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "reconciliations_total",
			Help:      "Token reconciliations by outcome (live, catalog_only, fallback)",
		}, []string{"outcome"}),
		ReconcileDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "reconcile_duration_seconds",
			Help:      "Time to build one token record",
			Buckets:   prometheus.DefBuckets,
		}),
		ReconcilePanics: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "recovered_panics_total",
			Help:      "Panics recovered during reconciliation",
		}),
		CatalogEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "entries",
			Help:      "Number of catalog entries loaded",
		}),
		CatalogLoadFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "load_failures_total",
			Help:      "Catalog loads that fell back to an empty list, by source",
		}, []string{"source"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total database query errors",
		}, []string{"database", "operation"}),

		APIRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "HTTP API requests by route and status class",
		}, []string{"route", "status"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordProviderCall records one adapter call outcome ("ok", "empty", "error", "cached").
func RecordProviderCall(provider, method, outcome string) {
	DefaultMetrics.ProviderRequests.WithLabelValues(provider, method, outcome).Inc()
}

// RecordProviderError records a provider failure absorbed at the adapter boundary.
func RecordProviderError(provider, kind string) {
	DefaultMetrics.ProviderErrors.WithLabelValues(provider, kind).Inc()
}

// RecordRequestLatency records outbound request latency.
func RecordRequestLatency(name string, seconds float64) {
	DefaultMetrics.RequestLatency.WithLabelValues(name).Observe(seconds)
}

// RecordRetry increments the retry counter.
func RecordRetry(name string) {
	DefaultMetrics.FetchRetries.WithLabelValues(name).Inc()
}

// RecordExhausted increments the exhausted counter.
func RecordExhausted(name string) {
	DefaultMetrics.FetchExhausted.WithLabelValues(name).Inc()
}

// RecordCacheLookup records a cache lookup result.
func RecordCacheLookup(provider, result string) {
	DefaultMetrics.CacheLookups.WithLabelValues(provider, result).Inc()
}

// RecordCacheError records a cache backend error.
func RecordCacheError(operation string) {
	DefaultMetrics.CacheErrors.WithLabelValues(operation).Inc()
}

// RecordReconciliation records one reconciliation outcome and its duration.
func RecordReconciliation(outcome string, seconds float64) {
	DefaultMetrics.Reconciliations.WithLabelValues(outcome).Inc()
	DefaultMetrics.ReconcileDuration.Observe(seconds)
}

// RecordReconcilePanic increments the recovered panic counter.
func RecordReconcilePanic() {
	DefaultMetrics.ReconcilePanics.Inc()
}

// UpdateCatalogSize sets the catalog entries gauge.
func UpdateCatalogSize(n int) {
	DefaultMetrics.CatalogEntries.Set(float64(n))
}

// RecordCatalogLoadFailure records a catalog load that fell back to empty.
func RecordCatalogLoadFailure(source string) {
	DefaultMetrics.CatalogLoadFailures.WithLabelValues(source).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordAPIRequest records one HTTP API request.
func RecordAPIRequest(route string, status int) {
	DefaultMetrics.APIRequests.WithLabelValues(route, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
