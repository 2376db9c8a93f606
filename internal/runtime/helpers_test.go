package runtime_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
	"github.com/stretchr/testify/require"
)

// tracker records node executions across a run.
type tracker struct {
	mu     sync.Mutex
	visits []string
}

func (tr *tracker) visited() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.visits...)
}

// setter returns a node that records its visit and sets field to value.
func (tr *tracker) setter(name, field string, value any) graph.NodeFunc {
	return func(_ context.Context, s domain.State) (domain.State, error) {
		tr.mu.Lock()
		tr.visits = append(tr.visits, name)
		tr.mu.Unlock()
		s[field] = value
		return s, nil
	}
}

// linear builds a graph whose nodes run in the given order through static edges.
func linear(t *testing.T, name string, tr *tracker, nodes ...string) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(name)
	for _, n := range nodes {
		require.NoError(t, b.AddNode(n, tr.setter(n, n, true)))
	}
	for i := 1; i < len(nodes); i++ {
		require.NoError(t, b.AddEdge(nodes[i-1], nodes[i]))
	}
	require.NoError(t, b.SetEntryPoint(nodes[0]))
	g, err := b.Compile()
	require.NoError(t, err)
	return g
}

func byConfidence(s domain.State) string {
	if c, ok := s.Float("confidence"); ok && c > 0.8 {
		return "accept"
	}
	return "review"
}
