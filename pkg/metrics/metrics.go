// Package metrics exposes Prometheus collectors for workflow activity. Each
// process owns one Metrics value and serves it from its own registry, so
// counters never mix across binaries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Transition result label values.
const (
	ResultExecuted = "executed"
	ResultRejected = "rejected"
)

// Metrics holds the collectors recorded by the API handlers and the
// scheduler worker.
type Metrics struct {
	Registry *prometheus.Registry

	DefinitionsCreated prometheus.Counter
	InstancesStarted   prometheus.Counter
	Transitions        *prometheus.CounterVec
	TransitionDuration prometheus.Histogram
	SchedulesTriggered prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		DefinitionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workflow_definitions_created_total",
			Help: "Total number of workflow definitions created",
		}),
		InstancesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workflow_instances_started_total",
			Help: "Total number of workflow instances started",
		}),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_transitions_total",
				Help: "Total number of action executions by result",
			},
			[]string{"result"},
		),
		TransitionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "workflow_transition_duration_seconds",
			Help: "Duration of action executions",
		}),
		SchedulesTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workflow_schedules_triggered_total",
			Help: "Total number of schedule firings",
		}),
	}

	m.Registry.MustRegister(
		m.DefinitionsCreated,
		m.InstancesStarted,
		m.Transitions,
		m.TransitionDuration,
		m.SchedulesTriggered,
	)

	return m
}
