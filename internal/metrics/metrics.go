// Package metrics collects Prometheus metrics and exposes them for scraping
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records application metrics
type Collector struct {
	authAttempts   *prometheus.CounterVec
	categoryOps    *prometheus.CounterVec
	pokeapiLookups *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "til_auth_attempts_total",
			Help: "Authentication attempts by credential kind and outcome",
		}, []string{"method", "outcome"}),
		categoryOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "til_category_operations_total",
			Help: "Category attach/detach operations by outcome",
		}, []string{"operation", "outcome"}),
		pokeapiLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "til_pokeapi_lookups_total",
			Help: "Pokemon registry lookups by source and result",
		}, []string{"source", "result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "til_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		c.authAttempts,
		c.categoryOps,
		c.pokeapiLookups,
		c.httpDuration,
	)

	return c
}

// ObserveAuth records an authentication attempt
func (c *Collector) ObserveAuth(method, outcome string) {
	c.authAttempts.WithLabelValues(method, outcome).Inc()
}

// ObserveCategoryOp records a single attach or detach performed while applying a category plan
func (c *Collector) ObserveCategoryOp(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.categoryOps.WithLabelValues(operation, outcome).Inc()
}

// ObservePokemonLookup records a registry lookup; source is "cache" or "remote"
func (c *Collector) ObservePokemonLookup(source, result string) {
	c.pokeapiLookups.WithLabelValues(source, result).Inc()
}

// Middleware measures request latency labelled with the matched chi route pattern
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		c.httpDuration.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus scrape handler
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the instrumented writer
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}
