// Package metrics registers Prometheus collectors for the extraction
// service: pipeline counters, scoring distributions and database pool
// gauges.
package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service collectors. Construct with New, which
// registers everything on the default registry.
type Metrics struct {
	ExtractionsTotal   *prometheus.CounterVec
	ExtractionDuration *prometheus.HistogramVec
	ScoreReportsTotal  *prometheus.CounterVec
	ScoreDistribution  prometheus.Histogram
	ProductsStored     prometheus.Gauge
	ProductAvgScore    prometheus.Gauge
}

// New creates the service metrics and registers them on reg. Pass
// prometheus.DefaultRegisterer in production; tests use a private
// registry so repeated construction does not collide.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ExtractionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Extraction requests by platform and outcome.",
		}, []string{"platform", "outcome"}),
		ExtractionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Time spent running the extraction pipeline.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"platform"}),
		ScoreReportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_reports_total",
			Help:      "Quality reports produced, by quality level.",
		}, []string{"quality_level"}),
		ScoreDistribution: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_distribution",
			Help:      "Distribution of overall quality scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		ProductsStored: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "products_stored",
			Help:      "Number of products currently stored.",
		}),
		ProductAvgScore: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "product_average_score",
			Help:      "Average quality score across stored products.",
		}),
	}
}

// ObserveExtraction records one pipeline run.
func (m *Metrics) ObserveExtraction(platform, outcome string, seconds float64) {
	if platform == "" {
		platform = "unknown"
	}
	m.ExtractionsTotal.WithLabelValues(platform, outcome).Inc()
	m.ExtractionDuration.WithLabelValues(platform).Observe(seconds)
}

// ObserveScore records one quality report.
func (m *Metrics) ObserveScore(qualityLevel string, score int) {
	m.ScoreReportsTotal.WithLabelValues(qualityLevel).Inc()
	m.ScoreDistribution.Observe(float64(score))
}

// DatabaseMetrics exposes connection pool gauges for a sql.DB.
type DatabaseMetrics struct {
	openConnections  prometheus.Gauge
	inUseConnections prometheus.Gauge
	idleConnections  prometheus.Gauge
	waitCount        prometheus.Gauge
}

// NewDatabaseMetrics registers pool gauges on reg.
func NewDatabaseMetrics(reg prometheus.Registerer, namespace string) *DatabaseMetrics {
	factory := promauto.With(reg)
	return &DatabaseMetrics{
		openConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_open_connections",
			Help:      "Open connections in the pool.",
		}),
		inUseConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_in_use_connections",
			Help:      "Connections currently in use.",
		}),
		idleConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_idle_connections",
			Help:      "Idle connections in the pool.",
		}),
		waitCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_wait_count",
			Help:      "Total number of connections waited for.",
		}),
	}
}

// UpdateDBStats refreshes the pool gauges from the live stats.
func (d *DatabaseMetrics) UpdateDBStats(db *sql.DB) {
	stats := db.Stats()
	d.openConnections.Set(float64(stats.OpenConnections))
	d.inUseConnections.Set(float64(stats.InUse))
	d.idleConnections.Set(float64(stats.Idle))
	d.waitCount.Set(float64(stats.WaitCount))
}
