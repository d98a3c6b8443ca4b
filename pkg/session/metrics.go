package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks session lifecycle outcomes.
type Metrics struct {
	logins     *prometheus.CounterVec
	expiries   prometheus.Counter
	extensions prometheus.Counter
}

// NewMetrics creates session metrics and registers them with the given
// registerer. Pass prometheus.DefaultRegisterer for the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coverdesk",
			Subsystem: "session",
			Name:      "logins_total",
			Help:      "Login attempts by outcome",
		}, []string{"outcome"}),
		expiries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coverdesk",
			Subsystem: "session",
			Name:      "expiries_total",
			Help:      "Sessions cleared by lazy expiry",
		}),
		extensions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coverdesk",
			Subsystem: "session",
			Name:      "extensions_total",
			Help:      "Successful session extensions",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.logins, m.expiries, m.extensions)
	}
	return m
}

func (m *Metrics) observeLogin(ok bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if ok {
		outcome = "success"
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeExpiry() {
	if m == nil {
		return
	}
	m.expiries.Inc()
}

func (m *Metrics) observeExtension() {
	if m == nil {
		return
	}
	m.extensions.Inc()
}
