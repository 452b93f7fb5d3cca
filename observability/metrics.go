package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Resolution metrics
	ResolutionRequestsTotal *prometheus.CounterVec
	ResolutionDuration      *prometheus.HistogramVec
	ResolutionOutcomes      *prometheus.CounterVec

	// Provider metrics
	ProviderRequestsTotal *prometheus.CounterVec
	ProviderErrorsTotal   *prometheus.CounterVec
	ProviderDuration      *prometheus.HistogramVec
	RateLimiterWaits      *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryTotal    *prometheus.CounterVec
	DBErrorsTotal   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// waitBuckets cover rate limiter sleeps, which can run into the tens of seconds
var waitBuckets = []float64{0, .1, .5, 1, 2, 5, 10, 15, 30, 60}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		ResolutionRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dividend_tracker",
				Subsystem: "resolution",
				Name:      "requests_total",
				Help:      "Total number of symbol resolution requests",
			},
			[]string{"symbol"},
		),
		ResolutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dividend_tracker",
				Subsystem: "resolution",
				Name:      "duration_seconds",
				Help:      "Duration of symbol resolution in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"outcome"},
		),
		ResolutionOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dividend_tracker",
				Subsystem: "resolution",
				Name:      "outcomes_total",
				Help:      "Resolution outcomes by winning source (or none)",
			},
			[]string{"source"},
		),

		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dividend_tracker",
				Subsystem: "provider",
				Name:      "requests_total",
				Help:      "Total number of provider API requests",
			},
			[]string{"provider", "operation"},
		),
		ProviderErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dividend_tracker",
				Subsystem: "provider",
				Name:      "errors_total",
				Help:      "Total number of provider API errors",
			},
			[]string{"provider", "operation", "error_type"},
		),
		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dividend_tracker",
				Subsystem: "provider",
				Name:      "duration_seconds",
				Help:      "Duration of provider API calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"provider", "operation"},
		),
		RateLimiterWaits: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dividend_tracker",
				Subsystem: "provider",
				Name:      "rate_limiter_wait_seconds",
				Help:      "Time spent blocked on per-provider rate limiters",
				Buckets:   waitBuckets,
			},
			[]string{"provider"},
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dividend_tracker",
				Subsystem: "database",
				Name:      "query_duration_seconds",
				Help:      "Duration of database queries in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation", "table"},
		),
		DBQueryTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dividend_tracker",
				Subsystem: "database",
				Name:      "queries_total",
				Help:      "Total number of database queries",
			},
			[]string{"operation", "table"},
		),
		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dividend_tracker",
				Subsystem: "database",
				Name:      "errors_total",
				Help:      "Total number of database errors",
			},
			[]string{"operation", "table"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dividend_tracker",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dividend_tracker",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),

		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "dividend_tracker",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dividend_tracker",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordResolutionRequest records a symbol resolution request
func (m *Metrics) RecordResolutionRequest(symbol string) {
	m.ResolutionRequestsTotal.WithLabelValues(symbol).Inc()
}

// RecordResolutionOutcome records which source won a resolution (or "none")
func (m *Metrics) RecordResolutionOutcome(source string) {
	m.ResolutionOutcomes.WithLabelValues(source).Inc()
}

// RecordResolutionDuration records the duration of one resolution
func (m *Metrics) RecordResolutionDuration(outcome string, duration time.Duration) {
	m.ResolutionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordProviderRequest records a provider API request
func (m *Metrics) RecordProviderRequest(provider, operation string) {
	m.ProviderRequestsTotal.WithLabelValues(provider, operation).Inc()
}

// RecordProviderError records a provider API error
func (m *Metrics) RecordProviderError(provider, operation, errorType string) {
	m.ProviderErrorsTotal.WithLabelValues(provider, operation, errorType).Inc()
}

// RecordProviderDuration records the duration of a provider API call
func (m *Metrics) RecordProviderDuration(provider, operation string, duration time.Duration) {
	m.ProviderDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordRateLimiterWait records time spent blocked on a provider's limiter
func (m *Metrics) RecordRateLimiterWait(provider string, duration time.Duration) {
	m.RateLimiterWaits.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordDBQuery records a database query
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	m.DBQueryTotal.WithLabelValues(operation, table).Inc()
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordDBError records a database error
func (m *Metrics) RecordDBError(operation, table string) {
	m.DBErrorsTotal.WithLabelValues(operation, table).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveResolution records the resolution duration with an outcome label
func (t *Timer) ObserveResolution(outcome string) {
	t.metrics.RecordResolutionDuration(outcome, time.Since(t.start))
}

// ObserveProvider records the provider call duration
func (t *Timer) ObserveProvider(provider, operation string) {
	t.metrics.RecordProviderDuration(provider, operation, time.Since(t.start))
}

// ObserveDB records the database query duration
func (t *Timer) ObserveDB(operation, table string) {
	t.metrics.RecordDBQuery(operation, table, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
