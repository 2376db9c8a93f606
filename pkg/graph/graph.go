package graph

// Graph is a compiled, immutable pipeline.
// It is safe for concurrent use by multiple runs.
type Graph struct {
	name  string
	entry string
	nodes map[string]*Node
	order []string
	edges map[string]Edge
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// EntryPoint returns the name of the start node.
func (g *Graph) EntryPoint() string { return g.entry }

// Nodes returns node names in registration order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// Node returns a copy of the named node.
func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	if !ok {
		return Node{}, false
	}
	return *n.clone(), true
}

// Edge returns the outgoing edge of a node, if any.
func (g *Graph) Edge(from string) (Edge, bool) {
	e, ok := g.edges[from]
	if !ok {
		return Edge{}, false
	}
	return e.clone(), true
}

// IsConditional reports whether the node leaves through a router.
func (g *Graph) IsConditional(name string) bool {
	e, ok := g.edges[name]
	return ok && e.Conditional()
}

// Successors returns the statically known successors of a node, End included.
func (g *Graph) Successors(name string) []string {
	e, ok := g.edges[name]
	if !ok {
		return nil
	}
	return e.Targets()
}

// Subgraphs returns the embedded graphs keyed by the node that embeds them.
func (g *Graph) Subgraphs() map[string]*Graph {
	out := make(map[string]*Graph)
	for _, name := range g.order {
		if n := g.nodes[name]; n.Kind == KindSubgraph {
			out[name] = n.Subgraph
		}
	}
	return out
}
