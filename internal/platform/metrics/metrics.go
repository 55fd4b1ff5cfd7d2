// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a registry so tests and multiple servers in one process do
// not collide on the default registerer.
type Collector struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	auditWrites    *prometheus.CounterVec
	auditFallbacks prometheus.Counter
	exports        *prometheus.CounterVec
	worklistSize   prometheus.Gauge
}

// New registers the waitlist collectors plus the Go runtime and process
// collectors.
func New(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		auditWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_total",
			Help:      "Audit entries written, by action and outcome",
		}, []string{"action", "success"}),
		auditFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_fallback_writes_total",
			Help:      "Audit entries written to the fallback store after a primary failure",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Worklist exports, by format",
		}, []string{"format"}),
		worklistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worklist_patients",
			Help:      "Patients on the worklist at the last stats computation",
		}),
	}
	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.auditWrites,
		c.auditFallbacks,
		c.exports,
		c.worklistSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) RecordAuditEntry(action string, success bool) {
	if c == nil {
		return
	}
	c.auditWrites.WithLabelValues(action, strconv.FormatBool(success)).Inc()
}

func (c *Collector) RecordAuditFallback() {
	if c == nil {
		return
	}
	c.auditFallbacks.Inc()
}

func (c *Collector) RecordExport(format string) {
	if c == nil {
		return
	}
	c.exports.WithLabelValues(format).Inc()
}

func (c *Collector) SetWorklistSize(n int) {
	if c == nil {
		return
	}
	c.worklistSize.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Middleware records request counts and latency per matched route. Requests
// to the metrics endpoint itself are skipped.
func (c *Collector) Middleware(skipPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if ctx.Request().URL.Path == skipPath {
				return next(ctx)
			}
			start := time.Now()
			err := next(ctx)

			status := ctx.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			c.RecordHTTPRequest(ctx.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}
