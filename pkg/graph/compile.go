package graph

import (
	"fmt"

	"github.com/aretw0/weave/pkg/domain"
)

// Compile validates a builder and freezes its contents into a Graph.
// Every issue found is reported in a single *domain.GraphValidationError.
func Compile(b *Builder) (*Graph, error) {
	if b == nil {
		return nil, fmt.Errorf("compile: builder is nil")
	}

	issues := append([]error(nil), b.errs...)
	report := func(err error) { issues = append(issues, err) }

	g := &Graph{
		name:  b.name,
		entry: b.entry,
		nodes: make(map[string]*Node, len(b.nodes)),
		order: make([]string, 0, len(b.order)),
		edges: make(map[string]Edge, len(b.edges)),
	}

	seen := make(map[string]bool, len(b.order))
	for _, name := range b.order {
		if seen[name] {
			report(&domain.DuplicateNodeError{Node: name})
			continue
		}
		seen[name] = true

		n := b.nodes[name]
		switch n.Kind {
		case KindLeaf:
			if n.Func == nil {
				report(fmt.Errorf("node %q: function is nil", name))
			}
		case KindSubgraph:
			if n.Subgraph == nil {
				report(fmt.Errorf("node %q: subgraph is nil", name))
			}
		default:
			report(fmt.Errorf("node %q: unknown kind %q", name, n.Kind))
		}
		g.nodes[name] = n.clone()
		g.order = append(g.order, name)
	}

	if b.entry == "" {
		report(fmt.Errorf("entry point is not set"))
	} else if !seen[b.entry] {
		report(&domain.UnknownNodeError{Node: b.entry, Ref: "entry point"})
	}

	outgoing := make(map[string]int, len(b.edges))
	for _, e := range b.edges {
		outgoing[e.From]++
	}

	for _, e := range b.edges {
		if !seen[e.From] {
			report(&domain.UnknownNodeError{Node: e.From, Ref: "edge from"})
			continue
		}
		if n := outgoing[e.From]; n > 1 {
			if _, reported := g.edges[e.From]; !reported {
				report(&domain.AmbiguousEdgeError{Node: e.From, Edges: n})
				g.edges[e.From] = Edge{}
			}
			continue
		}

		if e.Conditional() {
			for _, label := range e.Labels() {
				target := e.Mapping[label]
				if target != End && !seen[target] {
					report(&domain.UnknownNodeError{Node: target, Ref: fmt.Sprintf("route %q from %q", label, e.From)})
				}
			}
		} else if e.To != End && !seen[e.To] {
			report(&domain.UnknownNodeError{Node: e.To, Ref: fmt.Sprintf("edge from %q", e.From)})
		}
		g.edges[e.From] = e.clone()
	}

	if len(issues) > 0 {
		return nil, &domain.GraphValidationError{Graph: b.name, Issues: issues}
	}
	return g, nil
}
