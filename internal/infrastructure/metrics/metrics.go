package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Record kinds used as the "kind" label.
const (
	KindEmployee = "employee"
	KindPatient  = "patient"
)

// IdentityMetrics tracks identifier assignment. A nil *IdentityMetrics is a
// valid no-op recorder.
type IdentityMetrics struct {
	registry *prometheus.Registry

	IdentifiersAssigned *prometheus.CounterVec
	KeyCollisions       *prometheus.CounterVec
	Rekeys              prometheus.Counter
	PendingMajority     prometheus.Gauge
}

func NewIdentityMetrics() *IdentityMetrics {
	m := &IdentityMetrics{
		registry: prometheus.NewRegistry(),
		IdentifiersAssigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Name:      "identifiers_assigned_total",
			Help:      "Primary keys assigned to new records.",
		}, []string{"kind"}),
		KeyCollisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Name:      "identifier_collisions_total",
			Help:      "Generated primary keys rejected by the store and retried.",
		}, []string{"kind"}),
		Rekeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hospital",
			Name:      "patient_rekeys_total",
			Help:      "Minor patients re-keyed under their own cin.",
		}),
		PendingMajority: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hospital",
			Name:      "patients_pending_majority",
			Help:      "Minor-keyed patients who have turned adult and still await a cin.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.IdentifiersAssigned,
		m.KeyCollisions,
		m.Rekeys,
		m.PendingMajority,
	)
	return m
}

func (m *IdentityMetrics) IdentifierAssigned(kind string) {
	if m == nil {
		return
	}
	m.IdentifiersAssigned.WithLabelValues(kind).Inc()
}

func (m *IdentityMetrics) KeyCollision(kind string) {
	if m == nil {
		return
	}
	m.KeyCollisions.WithLabelValues(kind).Inc()
}

func (m *IdentityMetrics) Rekeyed() {
	if m == nil {
		return
	}
	m.Rekeys.Inc()
}

func (m *IdentityMetrics) SetPendingMajority(n int) {
	if m == nil {
		return
	}
	m.PendingMajority.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *IdentityMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
