package observability

import (
	"context"
	"errors"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "concierge"

// Saga outcomes used as the "outcome" label.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var phases = []domain.Phase{
	domain.PhaseAnonymous,
	domain.PhaseCredentialOnly,
	domain.PhaseEstablished,
}

// Metrics records lifecycle activity.
type Metrics struct {
	sagas       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    prometheus.Gauge
	transitions *prometheus.CounterVec
	phase       *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sagas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "sagas_total",
			Help:      "Lifecycle operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "saga_duration_seconds",
			Help:      "Time from claiming the session to settlement.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "sagas_in_flight",
			Help:      "Lifecycle operations currently running.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "phase_transitions_total",
			Help:      "Committed phase changes.",
		}, []string{"from", "to"}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "phase",
			Help:      "1 for the current session phase, 0 otherwise.",
		}, []string{"phase"}),
	}
	reg.MustRegister(m.sagas, m.duration, m.inFlight, m.transitions, m.phase)
	m.SetPhase(domain.PhaseAnonymous)
	return m
}

// SetPhase marks p as the current phase.
func (m *Metrics) SetPhase(p domain.Phase) {
	for _, candidate := range phases {
		v := 0.0
		if candidate == p {
			v = 1
		}
		m.phase.WithLabelValues(string(candidate)).Set(v)
	}
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSagaStart: func(_ context.Context, _ domain.Operation) {
			m.inFlight.Inc()
		},
		OnPhaseChange: func(_ context.Context, e *domain.PhaseEvent) {
			m.transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
			m.SetPhase(e.To)
		},
		OnSagaComplete: func(_ context.Context, e *domain.SagaEvent) {
			m.inFlight.Dec()
			m.sagas.WithLabelValues(string(e.Operation), Outcome(e.Err)).Inc()
			m.duration.WithLabelValues(string(e.Operation)).Observe(e.Duration.Seconds())
		},
	}
}

// Outcome classifies a saga result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrAuthentication):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

// Combine merges several hook sets; each callback runs in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSagaStart: func(ctx context.Context, op domain.Operation) {
			for _, h := range sets {
				if h.OnSagaStart != nil {
					h.OnSagaStart(ctx, op)
				}
			}
		},
		OnPhaseChange: func(ctx context.Context, e *domain.PhaseEvent) {
			for _, h := range sets {
				if h.OnPhaseChange != nil {
					h.OnPhaseChange(ctx, e)
				}
			}
		},
		OnSagaComplete: func(ctx context.Context, e *domain.SagaEvent) {
			for _, h := range sets {
				if h.OnSagaComplete != nil {
					h.OnSagaComplete(ctx, e)
				}
			}
		},
	}
}
