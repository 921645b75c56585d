package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Business metrics
	PromptsProcessed   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	QuotaRejections    prometheus.Counter
	WebhookEvents      *prometheus.CounterVec
	CheckoutSessions   *prometheus.CounterVec
	ExportsCreated     *prometheus.CounterVec
	StalePromptsReaped prometheus.Counter
	BreakerState       *prometheus.GaugeVec
}

// New registers all metrics with the default Prometheus registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers all metrics with reg
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Business metrics
		PromptsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prompts_processed_total",
				Help: "Total number of prompts by final status",
			},
			[]string{"status"}, // completed, failed
		),
		GenerationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "content_generation_duration_seconds",
			Help:    "Completion call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		QuotaRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "quota_rejections_total",
			Help: "Total number of prompt submissions rejected by the monthly quota",
		}),
		WebhookEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_events_total",
				Help: "Total number of payment webhook events",
			},
			[]string{"type", "result"}, // handled, ignored, duplicate, error
		),
		CheckoutSessions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_sessions_total",
				Help: "Total number of checkout sessions created",
			},
			[]string{"plan"},
		),
		ExportsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exports_created_total",
				Help: "Total number of generated content exports",
			},
			[]string{"format"},
		),
		StalePromptsReaped: factory.NewCounter(prometheus.CounterOpts{
			Name: "stale_prompts_reaped_total",
			Help: "Total number of processing prompts marked failed by the reaper",
		}),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_open",
				Help: "1 when the named circuit breaker is open",
			},
			[]string{"name"},
		),
	}
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // route pattern, e.g. /prompts/:id

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// RecordPrompt increments the prompt outcome counter
func (m *Metrics) RecordPrompt(status string) {
	m.PromptsProcessed.WithLabelValues(status).Inc()
}

// RecordGeneration records completion latency
func (m *Metrics) RecordGeneration(duration time.Duration) {
	m.GenerationDuration.Observe(duration.Seconds())
}

// RecordQuotaRejection increments the quota rejection counter
func (m *Metrics) RecordQuotaRejection() {
	m.QuotaRejections.Inc()
}

// RecordWebhookEvent increments webhook events counter
func (m *Metrics) RecordWebhookEvent(eventType, result string) {
	m.WebhookEvents.WithLabelValues(eventType, result).Inc()
}

// RecordCheckoutSession increments checkout sessions counter
func (m *Metrics) RecordCheckoutSession(plan string) {
	m.CheckoutSessions.WithLabelValues(plan).Inc()
}

// RecordExportCreated increments exports created counter
func (m *Metrics) RecordExportCreated(format string) {
	m.ExportsCreated.WithLabelValues(format).Inc()
}

// RecordStaleReaped adds n reaped prompts
func (m *Metrics) RecordStaleReaped(n int64) {
	m.StalePromptsReaped.Add(float64(n))
}

// RecordBreakerState tracks breaker transitions; "open" sets the gauge
func (m *Metrics) RecordBreakerState(name, _, to string) {
	value := 0.0
	if to == "open" {
		value = 1
	}
	m.BreakerState.WithLabelValues(name).Set(value)
}
