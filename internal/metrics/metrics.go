// Package metrics exposes prometheus instrumentation for store queries and
// HTTP requests.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/simp-lee/membersearch/internal/query"
	"github.com/simp-lee/membersearch/internal/search"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	// QueryDuration is the latency of store queries by engine and operation.
	QueryDuration *prometheus.HistogramVec
	// QueryErrors counts failed store queries by engine and operation.
	QueryErrors *prometheus.CounterVec
	// RequestTotal counts HTTP requests by method, route, and status.
	RequestTotal *prometheus.CounterVec
	// RequestDuration is the latency of HTTP requests by method and route.
	RequestDuration *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "membersearch_query_duration_seconds",
				Help:    "Store query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"engine", "operation"},
		),
		QueryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membersearch_query_errors_total",
				Help: "Total number of failed store queries",
			},
			[]string{"engine", "operation"},
		),
		RequestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membersearch_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "membersearch_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RequestTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Executor wraps next so every call is timed under the given engine label.
func (m *Metrics) Executor(next search.Executor, engine string) search.Executor {
	return &instrumentedExecutor{next: next, engine: engine, m: m}
}

type instrumentedExecutor struct {
	next   search.Executor
	engine string
	m      *Metrics
}

func (e *instrumentedExecutor) Execute(ctx context.Context, q query.Query) ([]query.Record, error) {
	defer e.observe("execute", time.Now())
	records, err := e.next.Execute(ctx, q)
	e.fail("execute", err)
	return records, err
}

func (e *instrumentedExecutor) ExecuteWithTotal(ctx context.Context, q query.Query, offset, limit int) ([]query.Record, int64, error) {
	defer e.observe("execute_with_total", time.Now())
	records, total, err := e.next.ExecuteWithTotal(ctx, q, offset, limit)
	e.fail("execute_with_total", err)
	return records, total, err
}

func (e *instrumentedExecutor) ExecuteCount(ctx context.Context, q query.Query) (int64, error) {
	defer e.observe("count", time.Now())
	total, err := e.next.ExecuteCount(ctx, q)
	e.fail("count", err)
	return total, err
}

func (e *instrumentedExecutor) observe(op string, start time.Time) {
	e.m.QueryDuration.WithLabelValues(e.engine, op).Observe(time.Since(start).Seconds())
}

func (e *instrumentedExecutor) fail(op string, err error) {
	if err != nil {
		e.m.QueryErrors.WithLabelValues(e.engine, op).Inc()
	}
}
