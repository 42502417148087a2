// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Membership operation outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the service's collectors on a private registry.
// A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	membershipOps *prometheus.CounterVec
	compensations *prometheus.CounterVec
	registrations prometheus.Counter
}

// New creates a registry with Go and process collectors plus the service
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "festivo_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "status"}),
		membershipOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "festivo_membership_ops_total",
			Help: "membership engine operations by operation and outcome",
		}, []string{"op", "outcome"}),
		compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "festivo_membership_compensations_total",
			Help: "membership operations rolled back by compensating writes",
		}, []string{"op"}),
		registrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "festivo_registrations_total",
			Help: "event registrations created",
		}),
	}
}

// Registry exposes the underlying registry (tests, extra collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MembershipOp counts one engine operation.
func (m *Metrics) MembershipOp(op string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.membershipOps.WithLabelValues(op, outcome).Inc()
}

// Compensation counts one compensating rollback.
func (m *Metrics) Compensation(op string) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(op).Inc()
}

// RegistrationCreated counts one new registration.
func (m *Metrics) RegistrationCreated() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

// Middleware counts requests by chi route pattern so path parameters do not
// explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
