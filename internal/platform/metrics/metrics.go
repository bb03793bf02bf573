package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	PetitionsCreated    prometheus.Counter
	PetitionsPublished  prometheus.Counter
	Transitions         *prometheus.CounterVec
	TransitionConflicts prometheus.Counter
	EvidenceVerdicts    *prometheus.CounterVec
	UsersCreated        prometheus.Counter
	RequestLatency      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PetitionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "justice_petitions_created_total",
			Help: "Total number of petitions created",
		}),
		PetitionsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "justice_petitions_published_total",
			Help: "Total number of petitions published to the justice index",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "justice_petition_transitions_total",
			Help: "Petition lifecycle transitions by edge",
		}, []string{"from", "to"}),
		TransitionConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "justice_petition_transition_conflicts_total",
			Help: "Transitions rejected because a concurrent writer committed first",
		}),
		EvidenceVerdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "justice_evidence_verdicts_total",
			Help: "Evidence verification outcomes recorded by lawyers",
		}, []string{"outcome"}),
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "justice_users_created_total",
			Help: "Total number of users registered",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "justice_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.TransitionConflicts.Inc()
}

func (m *Metrics) ObserveEvidenceVerdict(outcome string) {
	if m == nil {
		return
	}
	m.EvidenceVerdicts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(route, method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(route, method, status).Observe(elapsed.Seconds())
}
