package compliance

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/aretw0/weave/pkg/graph"
	"github.com/aretw0/weave/pkg/loader"
	"github.com/aretw0/weave/pkg/registry"
)

//go:embed definitions/*.yaml
var definitions embed.FS

// Graph names of the embedded definitions.
const (
	GraphEnterprise = "enterprise-compliance"
	GraphAgent      = "compliance-agent"
	GraphRisk       = "risk-agent"
)

// Register adds the compliance nodes and router to reg under the "compliance." prefix.
func Register(reg *registry.Registry, r Reasoner) {
	reg.Register("compliance.ingest", Ingest)
	reg.Register("compliance.check", Compliance(r))
	reg.Register("compliance.risk", Risk(r))
	reg.Register("compliance.summary", Summary(r))
	reg.Register("compliance.verify", Verify(r))
	reg.Register("compliance.flag", Flag)
	reg.RegisterRouter("compliance.confidence", RouteByConfidence)
}

// Definition returns the raw YAML of an embedded definition file, e.g. "enterprise.yaml".
func Definition(file string) ([]byte, error) {
	return definitions.ReadFile(path.Join("definitions", file))
}

// Graphs compiles every embedded definition against reg, sorted by graph name.
func Graphs(reg *registry.Registry) ([]*graph.Graph, error) {
	files, err := fs.Glob(definitions, "definitions/*.yaml")
	if err != nil {
		return nil, err
	}

	out := make([]*graph.Graph, 0, len(files))
	for _, file := range files {
		data, err := definitions.ReadFile(file)
		if err != nil {
			return nil, err
		}
		def, err := loader.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		g, err := loader.Compile(def, reg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// Find returns the graph with the given name.
func Find(graphs []*graph.Graph, name string) (*graph.Graph, bool) {
	for _, g := range graphs {
		if g.Name() == name {
			return g, true
		}
	}
	return nil, false
}
