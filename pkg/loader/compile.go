package loader

import (
	"errors"
	"fmt"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
	"github.com/aretw0/weave/pkg/registry"
	"github.com/aretw0/weave/pkg/schema"
)

// Compile turns a definition into a graph, resolving node and router names in reg.
// Every problem found, in the definition or in the resulting graph, is reported
// in a single *domain.GraphValidationError.
func Compile(def *Definition, reg *registry.Registry) (*graph.Graph, error) {
	if def == nil {
		return nil, fmt.Errorf("definition is nil")
	}
	c := &compiler{reg: reg, building: make(map[buildKey]bool)}
	return c.compile(def, nil)
}

// CompileFile parses and compiles a definition file.
func CompileFile(path string, reg *registry.Registry) (*graph.Graph, error) {
	def, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(def, reg)
}

type compiler struct {
	reg      *registry.Registry
	building map[buildKey]bool
}

// buildKey names a subgraph definition by the scope that declares it,
// so an inner definition may embed an outer one with the same name.
type buildKey struct {
	owner *scope
	name  string
}

// scope resolves subgraph names, innermost definition first.
type scope struct {
	defs   map[string]*Definition
	parent *scope
	cache  map[string]*graph.Graph
}

func (s *scope) lookup(name string) (*Definition, *scope) {
	for cur := s; cur != nil; cur = cur.parent {
		if def, ok := cur.defs[name]; ok {
			return def, cur
		}
	}
	return nil, nil
}

func (c *compiler) compile(def *Definition, parent *scope) (*graph.Graph, error) {
	var issues []error
	report := func(err error) { issues = append(issues, err) }

	sc := &scope{defs: def.Subgraphs, parent: parent, cache: make(map[string]*graph.Graph)}
	b := graph.NewBuilder(def.Name)

	for _, n := range def.Nodes {
		var opts []graph.NodeOption
		if n.Description != "" {
			opts = append(opts, graph.WithDescription(n.Description))
		}
		if len(n.Requires) > 0 {
			s, err := schema.ParseTypeMap(n.Requires)
			if err != nil {
				report(fmt.Errorf("node %q requires: %w", n.Name, err))
			} else {
				opts = append(opts, graph.WithRequires(s))
			}
		}

		switch {
		case n.Use != "" && n.Subgraph != "":
			report(fmt.Errorf("node %q: use and subgraph are mutually exclusive", n.Name))
		case n.Subgraph != "":
			sub, err := c.subgraph(n.Subgraph, sc)
			if err != nil {
				report(fmt.Errorf("node %q: %w", n.Name, err))
				continue
			}
			_ = b.AddSubgraph(n.Name, sub, opts...)
		case n.Use != "":
			fn, ok := c.reg.Node(n.Use)
			if !ok {
				report(fmt.Errorf("node %q: no registered node function %q", n.Name, n.Use))
				continue
			}
			_ = b.AddNode(n.Name, fn, opts...)
		default:
			report(fmt.Errorf("node %q: one of use or subgraph is required", n.Name))
		}
	}

	// Edges go in after every node so definitions can be written in any order.
	for _, n := range def.Nodes {
		if n.To != "" {
			_ = b.AddEdge(n.Name, n.To)
		}
	}
	for _, e := range def.Edges {
		_ = b.AddEdge(e.From, e.To)
	}
	for _, r := range def.Routes {
		router, ok := c.reg.Router(r.Router)
		if !ok {
			report(fmt.Errorf("route from %q: no registered router %q", r.From, r.Router))
			continue
		}
		_ = b.AddConditionalEdge(r.From, router, r.Mapping)
	}

	// A missing entry is reported by Compile below.
	if def.Entry != "" {
		_ = b.SetEntryPoint(def.Entry)
	}

	g, err := b.Compile()
	if err != nil {
		var gve *domain.GraphValidationError
		if errors.As(err, &gve) {
			issues = append(issues, gve.Issues...)
		} else {
			issues = append(issues, err)
		}
	}
	if len(issues) > 0 {
		return nil, &domain.GraphValidationError{Graph: def.Name, Issues: issues}
	}
	return g, nil
}

func (c *compiler) subgraph(name string, sc *scope) (*graph.Graph, error) {
	def, owner := sc.lookup(name)
	if def == nil {
		return nil, fmt.Errorf("unknown subgraph %q", name)
	}
	if g, ok := owner.cache[name]; ok {
		return g, nil
	}
	key := buildKey{owner: owner, name: name}
	if c.building[key] {
		return nil, fmt.Errorf("subgraph %q embeds itself", name)
	}

	c.building[key] = true
	defer delete(c.building, key)

	sub := *def
	if sub.Name == "" {
		sub.Name = name
	}
	g, err := c.compile(&sub, owner)
	if err != nil {
		return nil, fmt.Errorf("subgraph %q: %w", name, err)
	}
	owner.cache[name] = g
	return g, nil
}
