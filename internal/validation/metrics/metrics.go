package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks validation verdicts and the health of each lookup path.
type Metrics struct {
	Outcomes         *prometheus.CounterVec
	StrategyFailures *prometheus.CounterVec
	DegradedLookups  *prometheus.GaugeVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govportal_validation_outcomes_total",
			Help: "Validation verdicts by outcome",
		}, []string{"outcome"}),
		StrategyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "govportal_validation_strategy_failures_total",
			Help: "Existing-document lookups that failed, by strategy",
		}, []string{"strategy"}),
		DegradedLookups: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "govportal_validation_strategy_degraded",
			Help: "1 while a lookup strategy's circuit is open",
		}, []string{"strategy"}),
	}
}

func (m *Metrics) IncOutcome(outcome string) {
	if m != nil {
		m.Outcomes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncStrategyFailure(strategy string) {
	if m != nil {
		m.StrategyFailures.WithLabelValues(strategy).Inc()
	}
}

func (m *Metrics) SetDegraded(strategy string, degraded bool) {
	if m == nil {
		return
	}
	v := 0.0
	if degraded {
		v = 1
	}
	m.DegradedLookups.WithLabelValues(strategy).Set(v)
}
