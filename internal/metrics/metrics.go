// Package metrics exposes Prometheus collectors for the HTTP API, LLM
// calls, OCR and saved activities.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sertugser/assessai/internal/llm"
)

const namespace = "assessai"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	activities *prometheus.CounterVec
	ocr        *prometheus.CounterVec
	sseClients prometheus.Gauge
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "endpoint"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "LLM requests by provider, purpose and outcome",
		}, []string{"provider", "purpose", "outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request latency",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider", "purpose"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "LLM tokens consumed",
		}, []string{"provider", "direction"}),
		activities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_saved_total",
			Help:      "Completed exercises persisted, by type",
		}, []string{"type"}),
		ocr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_requests_total",
			Help:      "OCR uploads by outcome",
		}, []string{"outcome"}),
		sseClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_clients",
			Help:      "Open progress event streams",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.activities, m.ocr, m.sseClients,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware records request counts and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ObserveLLM matches llm.Observer.
func (m *Metrics) ObserveLLM(provider, purpose string, success bool, latency time.Duration, usage llm.Usage) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.llmRequests.WithLabelValues(provider, purpose, outcome).Inc()
	m.llmLatency.WithLabelValues(provider, purpose).Observe(latency.Seconds())
	m.llmTokens.WithLabelValues(provider, "input").Add(float64(usage.InputTokens))
	m.llmTokens.WithLabelValues(provider, "output").Add(float64(usage.OutputTokens))
}

// ActivitySaved counts one persisted activity.
func (m *Metrics) ActivitySaved(activityType string) {
	m.activities.WithLabelValues(activityType).Inc()
}

// OCRRequest counts one upload by outcome, e.g. "ok" or "too_large".
func (m *Metrics) OCRRequest(outcome string) {
	m.ocr.WithLabelValues(outcome).Inc()
}

// SSEOpened and SSEClosed track open event streams.
func (m *Metrics) SSEOpened() { m.sseClients.Inc() }
func (m *Metrics) SSEClosed() { m.sseClients.Dec() }
