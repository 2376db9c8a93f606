package cli

import (
	"fmt"

	"github.com/aretw0/weave/internal/pipelines/compliance"
	"github.com/aretw0/weave/pkg/graph"
	"github.com/aretw0/weave/pkg/loader"
	"github.com/aretw0/weave/pkg/registry"
)

// NewRegistry returns a registry holding the built-in nodes.
// The compliance nodes run on the offline reasoner.
func NewRegistry() *registry.Registry {
	reg := registry.NewRegistry()
	compliance.Register(reg, compliance.NewStaticReasoner())
	return reg
}

// LoadGraph resolves source to a compiled graph. An empty source selects the
// enterprise compliance pipeline, a built-in graph name selects that graph,
// anything else is read as a definition file.
func LoadGraph(source string, reg *registry.Registry) (*graph.Graph, error) {
	if source == "" {
		source = compliance.GraphEnterprise
	}
	builtin, err := compliance.Graphs(reg)
	if err != nil {
		return nil, err
	}
	if g, ok := compliance.Find(builtin, source); ok {
		return g, nil
	}
	g, err := loader.CompileFile(source, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph %s: %w", source, err)
	}
	return g, nil
}

// LoadGraphs returns the built-in graphs followed by the graphs defined in files.
func LoadGraphs(files []string, reg *registry.Registry) ([]*graph.Graph, error) {
	graphs, err := compliance.Graphs(reg)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		g, err := loader.CompileFile(file, reg)
		if err != nil {
			return nil, fmt.Errorf("failed to load graph %s: %w", file, err)
		}
		graphs = append(graphs, g)
	}
	return graphs, nil
}
