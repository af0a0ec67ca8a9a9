package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "beach_search"

// Metrics holds the Prometheus counters, histograms, and gauges for search and
// change-feed processing.
type Metrics struct {
	// Search metrics.
	SearchRequests  *prometheus.CounterVec // labels: outcome={empty,local_only,merged,fallback,cancelled}
	SearchFallbacks prometheus.Counter
	SearchDuration  prometheus.Histogram
	IndexSize       prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Change feed metrics.
	ChangesConsumed         prometheus.Counter
	ChangesApplied          prometheus.Counter
	ChangeDecodeErrors      prometheus.Counter
	NotificationsPublished  prometheus.Counter
	ProcessorRunning        prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Beach searches by outcome.",
		}, []string{"outcome"}),
		SearchFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_fallbacks_total",
			Help:      "Searches answered from the local index after a geocoding failure.",
		}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of a complete local plus geocoding search.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		IndexSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_beaches",
			Help:      "Number of beaches held in the local index.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when external geocoding is enabled, 0 otherwise.",
		}),
		ChangesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_consumed_total",
			Help:      "Total change events read from the change topic.",
		}),
		ChangesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_applied_total",
			Help:      "Total change events applied to the local index.",
		}),
		ChangeDecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_decode_errors_total",
			Help:      "Total change events skipped because they could not be decoded.",
		}),
		NotificationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_published_total",
			Help:      "Total status notifications written to the notification topic.",
		}),
		ProcessorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "change_processor_running",
			Help:      "1 when the change processor is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "change_batch_size",
			Help:      "Number of change events per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "change_batch_duration_seconds",
			Help:      "Duration of a complete extract-apply-notify cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.SearchRequests,
		m.SearchFallbacks,
		m.SearchDuration,
		m.IndexSize,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.ChangesConsumed,
		m.ChangesApplied,
		m.ChangeDecodeErrors,
		m.NotificationsPublished,
		m.ProcessorRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SearchRequests:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "search_requests_total"}, []string{"outcome"}),
		SearchFallbacks:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "search_fallbacks_total"}),
		SearchDuration:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "search_duration_seconds"}),
		IndexSize:               prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "index_beaches"}),
		GeocodeRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geocode_cache_total"}, []string{"result"}),
		GeocodeAPIDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "geocode_api_duration_seconds"}),
		GeocodeEnabled:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "geocode_enabled"}),
		ChangesConsumed:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "changes_consumed_total"}),
		ChangesApplied:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "changes_applied_total"}),
		ChangeDecodeErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "change_decode_errors_total"}),
		NotificationsPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "notifications_published_total"}),
		ProcessorRunning:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "change_processor_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "change_batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "change_batch_duration_seconds"}),
	}
}
