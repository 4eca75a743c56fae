// Package metrics exposes counters for the lifecycle actions the counter
// staff performs. All metrics live on a private registry served at
// /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts lifecycle actions and their rejections. A nil *Metrics is
// valid and counts nothing, so tests can pass nil.
type Metrics struct {
	registry      *prometheus.Registry
	visits        *prometheus.CounterVec
	renewals      prometheus.Counter
	recharges     prometheus.Counter
	registrations prometheus.Counter
	rejections    *prometheus.CounterVec
}

// New builds the full metric set on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	return &Metrics{
		registry: registry,
		visits: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "washdesk_visits_recorded_total",
			Help: "Visits recorded, by entitlement slot.",
		}, []string{"slot"}),
		renewals: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "washdesk_renewals_total",
			Help: "Subscription renewals applied.",
		}),
		recharges: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "washdesk_recharges_total",
			Help: "Punch-card recharges applied.",
		}),
		registrations: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "washdesk_registrations_total",
			Help: "New customers registered.",
		}),
		rejections: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "washdesk_action_rejections_total",
			Help: "Actions rejected by a business rule, by action and reason.",
		}, []string{"action", "reason"}),
	}
}

// Handler serves the registry in the standard exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncVisit(slot string) {
	if m == nil {
		return
	}
	m.visits.WithLabelValues(slot).Inc()
}

func (m *Metrics) IncRenewal() {
	if m == nil {
		return
	}
	m.renewals.Inc()
}

func (m *Metrics) IncRecharge() {
	if m == nil {
		return
	}
	m.recharges.Inc()
}

func (m *Metrics) IncRegistration() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

func (m *Metrics) IncRejection(action, reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(action, reason).Inc()
}
