// Package metrics exposes Prometheus collectors for blueprint runs and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"blueprint/internal/engine"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blueprint"

// Metrics owns its registry so several instances can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	gasUsed         prometheus.Histogram
	nodesExecuted   *prometheus.CounterVec
	runDuration     prometheus.Histogram
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "runs_total",
		Help:      "Total number of blueprint runs by final status",
	}, []string{"status"})

	m.gasUsed = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "gas_used",
		Help:      "Gas consumed per run",
		Buckets:   prometheus.ExponentialBuckets(10, 2, 10), // 10 ~ 5120
	})

	m.nodesExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "nodes_executed_total",
		Help:      "Nodes that completed successfully, by kind",
	}, []string{"kind"})

	m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "run_duration_seconds",
		Help:      "Wall time of a blueprint run",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	m.requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of API requests",
	}, []string{"method", "path", "status"})

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "API request duration in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"method", "path"})

	m.registry.MustRegister(
		m.runsTotal,
		m.gasUsed,
		m.nodesExecuted,
		m.runDuration,
		m.requestCounter,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records the outcome of one finished run.
func (m *Metrics) ObserveRun(res engine.Result, elapsed time.Duration) {
	m.runsTotal.WithLabelValues(string(res.Status)).Inc()
	m.gasUsed.Observe(float64(res.GasUsed))
	m.runDuration.Observe(elapsed.Seconds())
	for _, entry := range res.Logs {
		if entry.Error == "" && entry.NodeKind != engine.KindSystem {
			m.nodesExecuted.WithLabelValues(entry.NodeKind).Inc()
		}
	}
}

// Middleware counts requests by route template, not raw path, to keep label cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.requestCounter.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
