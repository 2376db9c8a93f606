package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weave"
	"github.com/aretw0/weave/pkg/adapters/memory"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/dsl"
	"github.com/aretw0/weave/pkg/graph"
	"github.com/aretw0/weave/pkg/observability"
)

func pass(_ context.Context, s domain.State) (domain.State, error) { return s, nil }

func pipeline(t *testing.T, assess graph.NodeFunc) *graph.Graph {
	t.Helper()
	b := dsl.New("review")
	b.Add("ingest").Do(pass).Go("assess")
	b.Add("assess").Do(assess).Route(func(s domain.State) string {
		if c, _ := s.Float("confidence"); c > 0.8 {
			return "accept"
		}
		return "review"
	}).Branch("accept", graph.End).Branch("review", "human")
	b.Add("human").Do(pass).Terminal()
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestMetrics_RecordsRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	e := weave.New(weave.WithLifecycleHooks(m.Hooks()), weave.WithCheckpointStore(memory.NewStore()))
	g := pipeline(t, func(_ context.Context, s domain.State) (domain.State, error) {
		s["confidence"] = 0.5
		return s, nil
	})

	_, err = e.Execute(context.Background(), g, domain.State{})
	require.NoError(t, err)

	execs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, execs)

	assert.Equal(t, 3, testutil.CollectAndCount(m.NodeExecutions()))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeExecutions().WithLabelValues("review", "assess", observability.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Routes().WithLabelValues("review", "assess", "human")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Routes().WithLabelValues("review", "human", "end")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs().WithLabelValues("review", observability.OutcomeOK)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Checkpoints().WithLabelValues("review", observability.OutcomeOK)))
}

func TestMetrics_RecordsFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	boom := errors.New("model unavailable")
	e := weave.New(weave.WithLifecycleHooks(m.Hooks()))
	g := pipeline(t, func(context.Context, domain.State) (domain.State, error) { return nil, boom })

	_, err = e.Execute(context.Background(), g, domain.State{})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeExecutions().WithLabelValues("review", "assess", observability.OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs().WithLabelValues("review", observability.OutcomeError)))
}

func TestNewMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	second, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	first.Runs().WithLabelValues("g", observability.OutcomeOK).Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(second.Runs().WithLabelValues("g", observability.OutcomeOK)))
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := weave.New(weave.WithLifecycleHooks(observability.LogHooks(logger)))
	g := pipeline(t, func(_ context.Context, s domain.State) (domain.State, error) {
		s["confidence"] = 0.95
		return s, nil
	})

	_, err := e.Execute(context.Background(), g, domain.State{})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"node_enter"`)
	assert.Contains(t, out, `"msg":"route"`)
	assert.Contains(t, out, `"node":"assess"`)
	assert.NotContains(t, out, `"node":"human"`)
}
