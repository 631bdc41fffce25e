// Package metrics collects and exposes Prometheus metrics for the auth core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records auth events. Handlers and services hold the interface so
// tests can pass a no-op.
type MetricsCollector interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordSessionCreated()
	RecordSessionReused()
	RecordSessionRevoked()
	RecordGateDecision(outcome string)
}

// Gate decision outcomes recorded by RecordGateDecision.
const (
	GateAllowed     = "allowed"
	GateLogin       = "login_redirect"
	GateDenied      = "access_denied"
	GateUnavailable = "store_unavailable"
)

type Collector struct {
	loginSuccess   prometheus.Counter
	loginFailure   prometheus.Counter
	sessionCreated prometheus.Counter
	sessionReused  prometheus.Counter
	sessionRevoked prometheus.Counter
	gateDecisions  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nitro_login_success_total",
			Help: "Successful credential logins.",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nitro_login_failure_total",
			Help: "Rejected credential logins.",
		}),
		sessionCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nitro_sessions_created_total",
			Help: "Sessions created because no live session existed.",
		}),
		sessionReused: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nitro_sessions_reused_total",
			Help: "Logins that reused an existing live session.",
		}),
		sessionRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nitro_sessions_revoked_total",
			Help: "Sessions terminated by logout or explicit revocation.",
		}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nitro_gate_decisions_total",
			Help: "Authorization gate outcomes per decision.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFailure,
		c.sessionCreated,
		c.sessionReused,
		c.sessionRevoked,
		c.gateDecisions,
	)

	return c
}

func (c *Collector) RecordLoginSuccess()   { c.loginSuccess.Inc() }
func (c *Collector) RecordLoginFailure()   { c.loginFailure.Inc() }
func (c *Collector) RecordSessionCreated() { c.sessionCreated.Inc() }
func (c *Collector) RecordSessionReused()  { c.sessionReused.Inc() }
func (c *Collector) RecordSessionRevoked() { c.sessionRevoked.Inc() }

func (c *Collector) RecordGateDecision(outcome string) {
	c.gateDecisions.WithLabelValues(outcome).Inc()
}

// Noop is a MetricsCollector that discards everything. Handy in tests.
type Noop struct{}

func (Noop) RecordLoginSuccess()       {}
func (Noop) RecordLoginFailure()       {}
func (Noop) RecordSessionCreated()     {}
func (Noop) RecordSessionReused()      {}
func (Noop) RecordSessionRevoked()     {}
func (Noop) RecordGateDecision(string) {}

// Handler returns the HTTP handler that serves the Prometheus scrape page.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
