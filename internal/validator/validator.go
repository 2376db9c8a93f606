package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/weave/pkg/graph"
)

// Report lists structural findings that compile accepts but authors usually want to see.
// Names of nodes inside subgraphs are prefixed with the embedding path, e.g. "verify/check".
type Report struct {
	// Unreachable nodes cannot be reached from the entry point.
	// Not computed for graphs with an unmapped router.
	Unreachable []string
	// ImplicitTerminals have no outgoing edge and end the run silently.
	ImplicitTerminals []string
	// DynamicRoutes leave through a router without a label mapping.
	DynamicRoutes []string
}

// Clean reports whether there are no unreachable nodes.
// Implicit terminals and dynamic routes are informational.
func (r Report) Clean() bool {
	return len(r.Unreachable) == 0
}

// Err returns an error listing unreachable nodes, or nil.
func (r Report) Err() error {
	if r.Clean() {
		return nil
	}
	return fmt.Errorf("found %d unreachable nodes:\n- %s", len(r.Unreachable), strings.Join(r.Unreachable, "\n- "))
}

// Lint inspects g and every embedded graph.
func Lint(g *graph.Graph) Report {
	var r Report
	lint(g, "", &r)
	sort.Strings(r.Unreachable)
	sort.Strings(r.ImplicitTerminals)
	sort.Strings(r.DynamicRoutes)
	return r
}

func lint(g *graph.Graph, prefix string, r *Report) {
	dynamic := false
	for _, name := range g.Nodes() {
		edge, ok := g.Edge(name)
		switch {
		case !ok:
			r.ImplicitTerminals = append(r.ImplicitTerminals, prefix+name)
		case edge.Conditional() && len(edge.Mapping) == 0:
			r.DynamicRoutes = append(r.DynamicRoutes, prefix+name)
			dynamic = true
		}
	}

	if !dynamic {
		visited := reachable(g)
		for _, name := range g.Nodes() {
			if !visited[name] {
				r.Unreachable = append(r.Unreachable, prefix+name)
			}
		}
	}

	for name, sub := range g.Subgraphs() {
		lint(sub, prefix+name+"/", r)
	}
}

// reachable walks static successors breadth first from the entry point.
func reachable(g *graph.Graph) map[string]bool {
	visited := make(map[string]bool)
	queue := []string{g.EntryPoint()}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == graph.End || visited[current] {
			continue
		}
		visited[current] = true
		for _, next := range g.Successors(current) {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}
	return visited
}
