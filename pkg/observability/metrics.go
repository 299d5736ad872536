package observability

import (
	"context"
	"errors"

	"github.com/aretw0/orocos/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by CallHooks.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	states   *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orocos_task_calls_total",
				Help: "Total number of remote calls issued by task proxies",
			},
			[]string{"task", "operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orocos_task_call_duration_seconds",
				Help:    "Duration of remote calls issued by task proxies",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		states: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orocos_task_state",
				Help: "Last observed lifecycle state of a task (1 for the current state)",
			},
			[]string{"task", "state"},
		),
	}
	for _, c := range []prometheus.Collector{m.calls, m.duration, m.states} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Outcome classifies the result of a call for the "outcome" label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrStateTransition):
		return "refused"
	case errors.Is(err, domain.ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, domain.ErrCommunication):
		return "unreachable"
	}
	return "error"
}

// Hooks returns call hooks recording every call.
func (m *Metrics) Hooks() domain.CallHooks {
	return domain.CallHooks{
		OnReturn: func(ctx context.Context, e *domain.CallEvent) {
			m.calls.WithLabelValues(e.Task, e.Operation, Outcome(e.Err)).Inc()
			m.duration.WithLabelValues(e.Operation).Observe(e.Duration.Seconds())
		},
	}
}

// ObserveState records state as the current state of task.
func (m *Metrics) ObserveState(task string, state domain.TaskState) {
	for _, s := range domain.States {
		v := 0.0
		if s == state {
			v = 1
		}
		m.states.WithLabelValues(task, s.String()).Set(v)
	}
}

// Calls returns the call counter, labelled by task, operation and outcome.
func (m *Metrics) Calls() *prometheus.CounterVec { return m.calls }

// States returns the state gauge, labelled by task and state.
func (m *Metrics) States() *prometheus.GaugeVec { return m.states }
