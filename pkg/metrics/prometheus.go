// Package metrics provides Prometheus metrics for the shepherd analytics service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Training outcomes.
const (
	OutcomeOK               = "ok"
	OutcomeInsufficientData = "insufficient_data"
	OutcomeFitFailure       = "fit_failure"
)

// Manager owns the Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Forecasting
	trainings         *prometheus.CounterVec
	forecasts         *prometheus.CounterVec
	forecastErrors    *prometheus.CounterVec
	analysisLatency   *prometheus.HistogramVec
	trainingSamples   prometheus.Gauge
	trainingMean      prometheus.Gauge
	volunteerCount    prometheus.Gauge
	ministryCount     prometheus.Gauge
	annualYearsSeries prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "shepherd",
		subsystem:        "analytics",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.trainings = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trainings_total",
		Help:      "Model training attempts by component and outcome",
	}, []string{"component", "outcome"})

	m.forecasts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "forecasts_total",
		Help:      "Forecasts produced by component",
	}, []string{"component"})

	m.forecastErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "forecast_errors_total",
		Help:      "Forecast errors by component and kind",
	}, []string{"component", "kind"})

	m.analysisLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysis_latency_milliseconds",
		Help:      "Time spent in an analysis by component",
		Buckets:   m.histogramBuckets,
	}, []string{"component"})

	m.trainingSamples = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "attendance_training_samples",
		Help:      "Samples used by the last successful attendance training",
	})

	m.trainingMean = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "attendance_training_mean",
		Help:      "Mean attendance of the last successful attendance training",
	})

	m.volunteerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "volunteers_analyzed",
		Help:      "Volunteers in the last availability analysis",
	})

	m.ministryCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ministries_analyzed",
		Help:      "Ministries in the last availability analysis",
	})

	m.annualYearsSeries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "annual_series_years",
		Help:      "Historical years in the last annual series",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRateLimited = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	}, []string{"endpoint"})
}

// RecordTraining counts a training attempt.
func RecordTraining(component, outcome string) {
	globalManager.trainings.WithLabelValues(component, outcome).Inc()
}

// RecordForecast counts a produced forecast.
func RecordForecast(component string) {
	globalManager.forecasts.WithLabelValues(component).Inc()
}

// RecordForecastError counts a forecast error of the given kind.
func RecordForecastError(component, kind string) {
	globalManager.forecastErrors.WithLabelValues(component, kind).Inc()
}

// RecordAnalysisLatency records analysis latency in milliseconds.
func RecordAnalysisLatency(component string, latencyMs float64) {
	globalManager.analysisLatency.WithLabelValues(component).Observe(latencyMs)
}

// UpdateTrainingStats sets the gauges describing the last trained attendance model.
func UpdateTrainingStats(samples int, mean float64) {
	globalManager.trainingSamples.Set(float64(samples))
	globalManager.trainingMean.Set(mean)
}

// UpdateVolunteerStats sets the volunteer and ministry gauges.
func UpdateVolunteerStats(volunteers, ministries int) {
	globalManager.volunteerCount.Set(float64(volunteers))
	globalManager.ministryCount.Set(float64(ministries))
}

// UpdateAnnualSeriesYears sets the number of historical years seen.
func UpdateAnnualSeriesYears(years int) {
	globalManager.annualYearsSeries.Set(float64(years))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited(endpoint string) {
	globalManager.httpRateLimited.WithLabelValues(endpoint).Inc()
}

// GetRegistry returns the registry our collectors are registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
