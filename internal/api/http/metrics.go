package httpapi

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the request instruments and the registry they are exposed from.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates request metrics on a dedicated registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_requests_total",
			Help: "Total requests",
		}, []string{"endpoint", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agent_request_latency_seconds",
			Help:    "Request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	reg.MustRegister(
		m.requests,
		m.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// StatsFunc reports cumulative hits and misses of a cache.
type StatsFunc func() (hits, misses uint64)

// RegisterCache exposes a cache's hit and miss counts labelled with name.
func (m *Metrics) RegisterCache(name string, stats StatsFunc) error {
	labels := prometheus.Labels{"cache": name}
	hits := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name:        "lookup_cache_hits_total",
		Help:        "Lookup cache hits",
		ConstLabels: labels,
	}, func() float64 {
		h, _ := stats()
		return float64(h)
	})
	misses := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name:        "lookup_cache_misses_total",
		Help:        "Lookup cache misses",
		ConstLabels: labels,
	}, func() float64 {
		_, miss := stats()
		return float64(miss)
	})

	if err := m.registry.Register(hits); err != nil {
		return err
	}
	return m.registry.Register(misses)
}

// resultStatusKey holds the QueryResult status of a query route.
const resultStatusKey = "result_status"

// statusLabel is the query result status ("success" or "error") for query
// routes and the HTTP status code for everything else.
func statusLabel(c *fiber.Ctx, err error) string {
	if s, ok := c.Locals(resultStatusKey).(string); ok {
		return s
	}
	code := c.Response().StatusCode()
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}
	return strconv.Itoa(code)
}

// Middleware records a count and latency observation per request, labelled
// with the matched route rather than the raw path.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		endpoint := c.Route().Path

		m.requests.WithLabelValues(endpoint, utils.CopyString(c.Method()), statusLabel(c, err)).Inc()
		m.latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
