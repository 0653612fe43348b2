package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "emissions_dashboard"

// Metrics holds the Prometheus collectors for the dashboard service.
type Metrics struct {
	RecordsLoaded       prometheus.Gauge
	PollutantsLoaded    prometheus.Gauge
	DatasetLoadDuration prometheus.Gauge

	// Selection metrics.
	Selections          *prometheus.CounterVec // labels: pollutant
	ReportBuildDuration prometheus.Histogram

	// Publishing metrics.
	ReportsPublished     prometheus.Counter
	ReportPublishErrors  prometheus.Counter
	ReportPublishEnabled prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsLoaded,
		m.PollutantsLoaded,
		m.DatasetLoadDuration,
		m.Selections,
		m.ReportBuildDuration,
		m.ReportsPublished,
		m.ReportPublishErrors,
		m.ReportPublishEnabled,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Facility records loaded from the input file.",
		}),
		PollutantsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pollutants_loaded",
			Help:      "Distinct pollutants in the loaded dataset.",
		}),
		DatasetLoadDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time taken to read and partition the input file at startup.",
		}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Pollutant selections served, by pollutant.",
		}, []string{"pollutant"}),
		ReportBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_build_duration_seconds",
			Help:      "Duration of aggregating and building one pollutant report.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Report events written to the report topic.",
		}),
		ReportPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_publish_errors_total",
			Help:      "Report events that failed to publish.",
		}),
		ReportPublishEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "report_publish_enabled",
			Help:      "1 when report publishing is enabled, 0 otherwise.",
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
			Help:      "1 when the search box geocoder is enabled, 0 otherwise.",
		}),
	}
}
