package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all task control service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Task metrics
	TasksAssigned    prometheus.Counter
	TasksUpdated     *prometheus.CounterVec
	TaskRejections   *prometheus.CounterVec
	ConstraintChecks *prometheus.CounterVec

	// Downstream metrics
	DownstreamDuration      *prometheus.HistogramVec
	CompletionNotifications *prometheus.CounterVec

	// Outbox metrics
	OutboxEventsPublished *prometheus.CounterVec
	OutboxPending         prometheus.Gauge

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "wms",
	}
}

// New creates a new Metrics instance on its own registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()

	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}
	service := prometheus.Labels{"service": config.ServiceName}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: service,
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			ConstLabels: service,
		},
		[]string{"method", "path"},
	)

	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: service,
		},
	)

	m.TasksAssigned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "tasks_assigned_total",
			Help:        "Total number of tasks created",
			ConstLabels: service,
		},
	)

	m.TasksUpdated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "tasks_updated_total",
			Help:        "Total number of accepted task updates by resulting status",
			ConstLabels: service,
		},
		[]string{"status"},
	)

	m.TaskRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "task_rejections_total",
			Help:        "Total number of rejected task requests by rejection code",
			ConstLabels: service,
		},
		[]string{"code"},
	)

	m.ConstraintChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "constraint_checks_total",
			Help:        "Remote constraint lookups by check and outcome",
			ConstLabels: service,
		},
		[]string{"check", "outcome"},
	)

	m.DownstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "downstream_request_duration_seconds",
			Help:        "Duration of requests to remote services",
			Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			ConstLabels: service,
		},
		[]string{"downstream", "operation", "status"},
	)

	m.CompletionNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "completion_notifications_total",
			Help:        "Logistics transfer notifications by outcome",
			ConstLabels: service,
		},
		[]string{"status"},
	)

	m.OutboxEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "outbox_events_published_total",
			Help:        "Outbox events relayed to Kafka",
			ConstLabels: service,
		},
		[]string{"event_type", "status"},
	)

	m.OutboxPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "outbox_pending",
			Help:        "Unpublished outbox events seen by the last poll",
			ConstLabels: service,
		},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "circuit_breaker_state",
			Help:        "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			ConstLabels: service,
		},
		[]string{"name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.TasksAssigned,
		m.TasksUpdated,
		m.TaskRejections,
		m.ConstraintChecks,
		m.DownstreamDuration,
		m.CompletionNotifications,
		m.OutboxEventsPublished,
		m.OutboxPending,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

func (m *Metrics) RecordTaskAssigned() {
	m.TasksAssigned.Inc()
}

func (m *Metrics) RecordTaskUpdated(status string) {
	m.TasksUpdated.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordTaskRejected(code string) {
	m.TaskRejections.WithLabelValues(code).Inc()
}

// RecordConstraintCheck records one product or shelf lookup
func (m *Metrics) RecordConstraintCheck(check, outcome string) {
	m.ConstraintChecks.WithLabelValues(check, outcome).Inc()
}

// RecordDownstreamRequest records the latency of a remote call
func (m *Metrics) RecordDownstreamRequest(downstream, operation string, status int, duration time.Duration) {
	m.DownstreamDuration.WithLabelValues(downstream, operation, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordNotification records the fate of a completion notification
func (m *Metrics) RecordNotification(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.CompletionNotifications.WithLabelValues(status).Inc()
}

// RecordOutboxPublish records an outbox relay attempt
func (m *Metrics) RecordOutboxPublish(eventType string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.OutboxEventsPublished.WithLabelValues(eventType, status).Inc()
}

// SetOutboxPending records the backlog seen by the relay
func (m *Metrics) SetOutboxPending(n int) {
	m.OutboxPending.Set(float64(n))
}

// SetCircuitBreakerState sets circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}
