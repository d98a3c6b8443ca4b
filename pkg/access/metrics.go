package access

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks authorization decision outcomes.
type Metrics struct {
	decisions *prometheus.CounterVec
	cacheHits prometheus.Counter
}

// NewMetrics creates decision metrics and registers them with the given
// registerer. Pass prometheus.DefaultRegisterer for the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coverdesk",
			Subsystem: "access",
			Name:      "decisions_total",
			Help:      "Authorization decisions by operation and outcome",
		}, []string{"operation", "outcome"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coverdesk",
			Subsystem: "access",
			Name:      "decision_cache_hits_total",
			Help:      "Decisions served from the in-memory cache",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.decisions, m.cacheHits)
	}
	return m
}

func (m *Metrics) observe(operation string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	m.decisions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) observeCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}
