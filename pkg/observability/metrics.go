package observability

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/weave/pkg/domain"
)

const namespace = "weave"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the Prometheus collectors fed by engine hooks.
type Metrics struct {
	nodeExecutions *prometheus.CounterVec
	nodeDuration   *prometheus.HistogramVec
	routes         *prometheus.CounterVec
	runs           *prometheus.CounterVec
	checkpoints    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A collector that is already registered is reused, so several engines may
// share one registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		nodeExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_executions_total",
			Help:      "Total number of node executions.",
		}, []string{"graph", "node", "outcome"}),
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Duration of node executions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"graph", "node"}),
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_total",
			Help:      "Total number of resolved transitions.",
		}, []string{"graph", "from", "to"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of finished runs.",
		}, []string{"graph", "outcome"}),
		checkpoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoints_total",
			Help:      "Total number of checkpoint writes.",
		}, []string{"graph", "outcome"}),
	}

	var err error
	m.nodeExecutions, err = register(reg, m.nodeExecutions)
	if err != nil {
		return nil, err
	}
	m.nodeDuration, err = register(reg, m.nodeDuration)
	if err != nil {
		return nil, err
	}
	m.routes, err = register(reg, m.routes)
	if err != nil {
		return nil, err
	}
	m.runs, err = register(reg, m.runs)
	if err != nil {
		return nil, err
	}
	m.checkpoints, err = register(reg, m.checkpoints)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeExecutions.WithLabelValues(e.Graph, e.Node, outcome(e.Err)).Inc()
			m.nodeDuration.WithLabelValues(e.Graph, e.Node).Observe(e.Duration.Seconds())
		},
		OnRoute: func(_ context.Context, e *domain.RouteEvent) {
			to := e.To
			if to == "" {
				to = "end"
			}
			m.routes.WithLabelValues(e.Graph, e.From, to).Inc()
		},
		OnRunEnd: func(_ context.Context, e *domain.RunEvent) {
			m.runs.WithLabelValues(e.Graph, outcome(e.Err)).Inc()
		},
		OnCheckpoint: func(_ context.Context, e *domain.CheckpointEvent) {
			m.checkpoints.WithLabelValues(e.Graph, outcome(e.Err)).Inc()
		},
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// NodeExecutions is weave_node_executions_total.
func (m *Metrics) NodeExecutions() *prometheus.CounterVec { return m.nodeExecutions }

// Routes is weave_routes_total.
func (m *Metrics) Routes() *prometheus.CounterVec { return m.routes }

// Runs is weave_runs_total.
func (m *Metrics) Runs() *prometheus.CounterVec { return m.runs }

// Checkpoints is weave_checkpoints_total.
func (m *Metrics) Checkpoints() *prometheus.CounterVec { return m.checkpoints }
