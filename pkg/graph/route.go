package graph

import (
	"github.com/aretw0/weave/pkg/domain"
)

// Resolve returns the node that follows from, given the state it produced.
// The label is the raw router result for conditional edges, empty otherwise.
// next is End when the run is over, including when from has no outgoing edge.
func (g *Graph) Resolve(from string, state domain.State) (next, label string, err error) {
	e, ok := g.edges[from]
	if !ok {
		return End, "", nil
	}
	if !e.Conditional() {
		return e.To, "", nil
	}

	label = e.Router(state)
	next = label
	if e.Mapping != nil {
		target, mapped := e.Mapping[label]
		if !mapped {
			return "", label, &domain.InvalidRouteError{Node: from, Label: label}
		}
		next = target
	}

	if next == End {
		return End, label, nil
	}
	if _, exists := g.nodes[next]; !exists {
		return "", label, &domain.InvalidRouteError{Node: from, Label: label}
	}
	return next, label, nil
}
