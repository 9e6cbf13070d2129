package engine

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports engine metrics through a Prometheus
// registry, for deployments scraped by an external collector.
type PrometheusMetricsRecorder struct {
	durations *prometheus.HistogramVec
	results   *prometheus.CounterVec
	cache     *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder registers the engine collectors on reg
// (prometheus.DefaultRegisterer when nil).
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusMetricsRecorder{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cdmcore",
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Engine operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cdmcore",
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Engine operation outcomes.",
		}, []string{"operation", "status"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cdmcore",
			Subsystem: "engine",
			Name:      "analysis_cache_total",
			Help:      "Analysis cache lookups by result.",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{r.durations, r.results, r.cache} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}

// ObserveCache implements CacheMetrics.
func (r *PrometheusMetricsRecorder) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cache.WithLabelValues(result).Inc()
}
