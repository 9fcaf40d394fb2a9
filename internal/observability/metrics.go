package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ingest pipeline.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec   // labels: outcome={success,fetch_error,parse_error,validation_error,store_error}
	ValidationFailures *prometheus.CounterVec   // labels: table, kind
	RowsAppended       *prometheus.CounterVec   // labels: table={current_weather,hourly_forecast}
	StageDuration      *prometheus.HistogramVec // labels: stage={fetch,normalize,validate,store}
	LastSuccess        *prometheus.GaugeVec     // labels: location

	// Open-Meteo client metrics.
	FetchRequests *prometheus.CounterVec // labels: outcome={success,error}
	FetchDuration prometheus.Histogram

	PublishErrors prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.ValidationFailures,
		m.RowsAppended,
		m.StageDuration,
		m.LastSuccess,
		m.FetchRequests,
		m.FetchDuration,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "location_runs_total",
			Help:      "Location runs by outcome.",
		}, []string{"outcome"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "validation_failures_total",
			Help:      "Rejected tables by table name and violated invariant.",
		}, []string{"table", "kind"}),
		RowsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "rows_appended_total",
			Help:      "Rows appended to the store by table.",
		}, []string{"table"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_etl",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "weather_etl",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run per location.",
		}, []string{"location"}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "openmeteo_requests_total",
			Help:      "Open-Meteo forecast requests by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_etl",
			Name:      "openmeteo_request_duration_seconds",
			Help:      "Open-Meteo request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "publish_errors_total",
			Help:      "Snapshot notifications that could not be published.",
		}),
	}
}
