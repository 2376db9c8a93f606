package compliance

import (
	"context"
	"fmt"

	"github.com/aretw0/weave"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
	"github.com/aretw0/weave/pkg/registry"
)

// Report combines the findings of the compliance and risk agents.
type Report struct {
	Issues   []string `json:"compliance_issues"`
	Risks    []string `json:"risks"`
	Verified bool     `json:"verified"`
	Review   bool     `json:"needs_review"`
}

// Service runs the compliance agent and the risk agent on one document.
type Service struct {
	engine     *weave.Engine
	compliance *graph.Graph
	risk       *graph.Graph
}

// NewService compiles both agents with r.
func NewService(engine *weave.Engine, r Reasoner) (*Service, error) {
	reg := registry.NewRegistry()
	Register(reg, r)
	graphs, err := Graphs(reg)
	if err != nil {
		return nil, err
	}
	agent, _ := Find(graphs, GraphAgent)
	risk, _ := Find(graphs, GraphRisk)
	return &Service{engine: engine, compliance: agent, risk: risk}, nil
}

// Review runs both agents in turn and merges their results.
func (s *Service) Review(ctx context.Context, document string) (*Report, error) {
	input := domain.State{FieldDocument: document}

	checked, err := s.engine.Invoke(ctx, s.compliance, input)
	if err != nil {
		return nil, fmt.Errorf("compliance agent: %w", err)
	}
	assessed, err := s.engine.Invoke(ctx, s.risk, input)
	if err != nil {
		return nil, fmt.Errorf("risk agent: %w", err)
	}

	verified, _ := checked[FieldVerified].(bool)
	review, _ := checked[FieldReview].(bool)
	return &Report{
		Issues:   stringList(checked[FieldIssues]),
		Risks:    stringList(assessed[FieldRisks]),
		Verified: verified,
		Review:   review,
	}, nil
}
