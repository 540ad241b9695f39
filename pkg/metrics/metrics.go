// Package metrics holds the Prometheus collectors the service exports on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the idea and billing services report to.
type Recorder interface {
	IdeaCreated(plan string)
	IdeaDeleted()
	LimitReached(plan string)
	WebhookEvent(kind, outcome string)
}

// Metrics is a Recorder backed by a dedicated registry.
type Metrics struct {
	registry     *prometheus.Registry
	ideasCreated *prometheus.CounterVec
	ideasDeleted prometheus.Counter
	limitReached *prometheus.CounterVec
	webhooks     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ideasCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ideabox_ideas_created_total",
			Help: "Ideas created, by the owner's plan.",
		}, []string{"plan"}),
		ideasDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ideabox_ideas_deleted_total",
			Help: "Delete requests that completed.",
		}),
		limitReached: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ideabox_idea_limit_reached_total",
			Help: "Create requests rejected by the plan quota.",
		}, []string{"plan"}),
		webhooks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ideabox_webhook_events_total",
			Help: "Payment gateway webhook events by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}

func (m *Metrics) IdeaCreated(plan string)  { m.ideasCreated.WithLabelValues(plan).Inc() }
func (m *Metrics) IdeaDeleted()             { m.ideasDeleted.Inc() }
func (m *Metrics) LimitReached(plan string) { m.limitReached.WithLabelValues(plan).Inc() }

func (m *Metrics) WebhookEvent(kind, outcome string) {
	m.webhooks.WithLabelValues(kind, outcome).Inc()
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) IdeaCreated(string)          {}
func (Nop) IdeaDeleted()                {}
func (Nop) LimitReached(string)         {}
func (Nop) WebhookEvent(string, string) {}
