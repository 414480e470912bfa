package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements Collector backed by Prometheus metrics.
type PrometheusCollector struct {
	config *Config

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram

	alertsGeneratedTotal *prometheus.CounterVec
	churnRiskTotal       *prometheus.CounterVec
	healthGradeTotal     *prometheus.CounterVec

	databaseQueryDuration *prometheus.HistogramVec

	sourceSyncTotal    *prometheus.CounterVec
	sourceSyncDuration *prometheus.HistogramVec

	cacheTotal *prometheus.CounterVec
}

// NewPrometheusCollector registers and returns the collector. Metrics are
// registered on the default registry, so only one collector may exist per
// process.
func NewPrometheusCollector(config *Config) *PrometheusCollector {
	if config == nil {
		config = &Config{Enabled: true, Prefix: "clientpulse"}
	}
	prefix := config.Prefix

	return &PrometheusCollector{
		config: config,

		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		evaluationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_evaluations_total",
				Help: "Total number of account evaluations",
			},
			[]string{"success"},
		),
		evaluationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    prefix + "_evaluation_duration_seconds",
				Help:    "Account evaluation duration in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
		),

		alertsGeneratedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_alerts_generated_total",
				Help: "Total number of alerts generated",
			},
			[]string{"type", "severity"},
		),
		churnRiskTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_churn_predictions_total",
				Help: "Total churn predictions by risk level",
			},
			[]string{"risk_level"},
		),
		healthGradeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_health_scores_total",
				Help: "Total health scores computed by grade",
			},
			[]string{"grade"},
		),

		databaseQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_database_query_duration_seconds",
				Help:    "Database query duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation"},
		),

		sourceSyncTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_source_sync_total",
				Help: "Total upstream source fetches",
			},
			[]string{"source", "success"},
		),
		sourceSyncDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_source_sync_duration_seconds",
				Help:    "Upstream source fetch duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
			},
			[]string{"source"},
		),

		cacheTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_cache_operations_total",
				Help: "Total cache operations",
			},
			[]string{"operation", "result"},
		),
	}
}

// RecordHTTPRequest records request count and latency.
func (p *PrometheusCollector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if !p.config.Enabled {
		return
	}
	p.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	p.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordEvaluation records one account evaluation.
func (p *PrometheusCollector) RecordEvaluation(success bool, duration time.Duration) {
	if !p.config.Enabled {
		return
	}
	p.evaluationsTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
	p.evaluationDuration.Observe(duration.Seconds())
}

// RecordAlertGenerated counts a generated alert by type and severity.
func (p *PrometheusCollector) RecordAlertGenerated(alertType, severity string) {
	if !p.config.Enabled {
		return
	}
	p.alertsGeneratedTotal.WithLabelValues(alertType, severity).Inc()
}

// RecordChurnRisk counts a churn prediction by risk level.
func (p *PrometheusCollector) RecordChurnRisk(riskLevel string) {
	if !p.config.Enabled {
		return
	}
	p.churnRiskTotal.WithLabelValues(riskLevel).Inc()
}

// RecordHealthScore counts a computed health score by grade.
func (p *PrometheusCollector) RecordHealthScore(grade string) {
	if !p.config.Enabled {
		return
	}
	p.healthGradeTotal.WithLabelValues(grade).Inc()
}

// RecordDatabaseQuery records query latency by operation.
func (p *PrometheusCollector) RecordDatabaseQuery(operation string, duration time.Duration) {
	if !p.config.Enabled {
		return
	}
	p.databaseQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSourceSync records one upstream fetch.
func (p *PrometheusCollector) RecordSourceSync(source string, success bool, duration time.Duration) {
	if !p.config.Enabled {
		return
	}
	p.sourceSyncTotal.WithLabelValues(source, strconv.FormatBool(success)).Inc()
	p.sourceSyncDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordCache records one cache lookup or write.
func (p *PrometheusCollector) RecordCache(operation string, hit bool) {
	if !p.config.Enabled {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cacheTotal.WithLabelValues(operation, result).Inc()
}
