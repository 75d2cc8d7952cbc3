// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Token endpoint results.
const (
	TokenIssued           = "issued"
	TokenInvalidClient    = "invalid_client"
	TokenInvalidGrant     = "invalid_grant"
	TokenInvalidScope     = "invalid_scope"
	TokenUnsupportedGrant = "unsupported_grant_type"
	TokenInvalidRequest   = "invalid_request"
	TokenStoreUnavailable = "store_unavailable"
	TokenServerError      = "server_error"
)

// Access decisions.
const (
	DecisionPublic       = "public"
	DecisionAllowed      = "allowed"
	DecisionUnauthorized = "unauthorized"
	DecisionForbidden    = "forbidden"
)

// Metrics methods are safe to call on a nil receiver, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	TokenRequestsTotal  *prometheus.CounterVec
	AccessDecisions     *prometheus.CounterVec
	RateLimitedTotal    *prometheus.CounterVec
}

func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dscatalog_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dscatalog_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		TokenRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dscatalog_token_requests_total",
				Help: "Token endpoint requests by result",
			},
			[]string{"result"},
		),
		AccessDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dscatalog_access_decisions_total",
				Help: "Route authorization decisions",
			},
			[]string{"decision"},
		),
		RateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dscatalog_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"bucket"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TokenRequestsTotal,
		m.AccessDecisions,
		m.RateLimitedTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method string, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) TokenRequest(result string) {
	if m == nil {
		return
	}
	m.TokenRequestsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) AccessDecision(decision string) {
	if m == nil {
		return
	}
	m.AccessDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) RateLimited(bucket string) {
	if m == nil {
		return
	}
	m.RateLimitedTotal.WithLabelValues(bucket).Inc()
}
