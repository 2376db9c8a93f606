package compliance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weave"
	"github.com/aretw0/weave/internal/pipelines/compliance"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
	"github.com/aretw0/weave/pkg/registry"
)

const (
	cleanDoc = "Master agreement. Governing law: Portugal. Effective date: 2026-01-01. Signature: A. Silva."
	roughDoc = "Supplier accepts unlimited liability. Auto-renewal applies. Signature: B. Costa."
)

func graphs(t *testing.T, r compliance.Reasoner) []*graph.Graph {
	t.Helper()
	reg := registry.NewRegistry()
	compliance.Register(reg, r)
	gs, err := compliance.Graphs(reg)
	require.NoError(t, err)
	return gs
}

func find(t *testing.T, gs []*graph.Graph, name string) *graph.Graph {
	t.Helper()
	g, ok := compliance.Find(gs, name)
	require.True(t, ok, "graph %s", name)
	return g
}

func TestGraphs_Embedded(t *testing.T) {
	gs := graphs(t, compliance.NewStaticReasoner())
	require.Len(t, gs, 3)
	assert.Equal(t, compliance.GraphAgent, gs[0].Name())
	assert.Equal(t, compliance.GraphEnterprise, gs[1].Name())
	assert.Equal(t, compliance.GraphRisk, gs[2].Name())

	data, err := compliance.Definition("enterprise.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "enterprise-compliance")
}

func TestEnterprise_StreamsFourSteps(t *testing.T) {
	g := find(t, graphs(t, compliance.NewStaticReasoner()), compliance.GraphEnterprise)
	e := weave.New()

	var nodes []string
	var last weave.Step
	for step, err := range e.Run(context.Background(), g, domain.State{compliance.FieldDocument: "  " + roughDoc + "\n"}) {
		require.NoError(t, err)
		nodes = append(nodes, step.Node)
		last = step
	}

	assert.Equal(t, []string{"ingest", "compliance", "risk", "summary"}, nodes)
	assert.True(t, last.Done())
	assert.Equal(t, roughDoc, last.State[compliance.FieldDocument])
	assert.Equal(t, []string{"missing effective date", "missing governing law"}, last.State[compliance.FieldIssues])
	assert.Equal(t, []string{"unlimited liability clause", "auto-renewal clause"}, last.State[compliance.FieldRisks])
	assert.Contains(t, last.State[compliance.FieldSummary], "2 compliance issues")
}

func TestAgent_AcceptPath(t *testing.T) {
	g := find(t, graphs(t, compliance.NewStaticReasoner()), compliance.GraphAgent)

	res, err := weave.New().Execute(context.Background(), g, domain.State{compliance.FieldDocument: cleanDoc})
	require.NoError(t, err)
	assert.Equal(t, []string{"compliance", "verify"}, res.Path)
	assert.Equal(t, true, res.State[compliance.FieldVerified])
	assert.Equal(t, 1.0, res.State[compliance.FieldConfidence])
	assert.NotContains(t, res.State, compliance.FieldReview)
}

func TestAgent_ReviewPath(t *testing.T) {
	g := find(t, graphs(t, compliance.NewStaticReasoner()), compliance.GraphAgent)

	res, err := weave.New().Execute(context.Background(), g, domain.State{compliance.FieldDocument: roughDoc})
	require.NoError(t, err)
	assert.Equal(t, []string{"compliance", "flag", "verify"}, res.Path)
	assert.Equal(t, true, res.State[compliance.FieldReview])
}

func TestAgent_RequiresDocument(t *testing.T) {
	g := find(t, graphs(t, compliance.NewStaticReasoner()), compliance.GraphAgent)

	_, err := weave.New().Execute(context.Background(), g, domain.State{})
	var stateErr *domain.StateValidationError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "compliance", stateErr.Node)
}

func TestIngest_EmptyDocument(t *testing.T) {
	_, err := compliance.Ingest(context.Background(), domain.State{compliance.FieldDocument: "   "})
	assert.ErrorIs(t, err, compliance.ErrEmptyDocument)
}

func TestReasonerFailurePropagates(t *testing.T) {
	boom := errors.New("model unavailable")
	failing := compliance.ReasonerFunc(func(context.Context, string) (string, error) { return "", boom })
	g := find(t, graphs(t, failing), compliance.GraphEnterprise)

	var nodes []string
	var runErr error
	for step, err := range weave.New().Run(context.Background(), g, domain.State{compliance.FieldDocument: cleanDoc}) {
		if err != nil {
			runErr = err
			break
		}
		nodes = append(nodes, step.Node)
	}
	assert.ErrorIs(t, runErr, boom)
	assert.Equal(t, []string{"ingest"}, nodes)
}

func TestRouteByConfidence(t *testing.T) {
	tests := []struct {
		state domain.State
		want  string
	}{
		{domain.State{"confidence": 0.9}, "accept"},
		{domain.State{"confidence": 0.8}, "review"},
		{domain.State{"confidence": 0.5}, "review"},
		{domain.State{}, "review"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compliance.RouteByConfidence(tt.state), "%v", tt.state)
	}
}

func TestStaticReasoner_UnsupportedPrompt(t *testing.T) {
	_, err := compliance.NewStaticReasoner().Complete(context.Background(), "Write a poem")
	assert.Error(t, err)
}

func TestService_Review(t *testing.T) {
	svc, err := compliance.NewService(weave.New(), compliance.NewStaticReasoner())
	require.NoError(t, err)

	report, err := svc.Review(context.Background(), roughDoc)
	require.NoError(t, err)
	assert.Equal(t, []string{"missing effective date", "missing governing law"}, report.Issues)
	assert.Equal(t, []string{"unlimited liability clause", "auto-renewal clause"}, report.Risks)
	assert.True(t, report.Verified)
	assert.True(t, report.Review)
}
