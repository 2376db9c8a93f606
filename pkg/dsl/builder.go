package dsl

import (
	"github.com/aretw0/weave/pkg/graph"
)

// Builder manages the graph construction.
type Builder struct {
	name  string
	entry string
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new graph builder.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
// The first node added is the entry point unless Entry says otherwise.
func (b *Builder) Add(name string) *NodeBuilder {
	if nb, ok := b.nodes[name]; ok {
		return nb
	}
	nb := &NodeBuilder{name: name}
	b.nodes[name] = nb
	b.order = append(b.order, name)
	return nb
}

// Entry sets the start node.
func (b *Builder) Entry(name string) *Builder {
	b.entry = name
	return b
}

// Build compiles the graph.
// Nodes are registered before edges, so edges may point forward.
func (b *Builder) Build() (*graph.Graph, error) {
	gb := graph.NewBuilder(b.name)

	// Errors are collected by the graph builder and reported by Compile.
	for _, name := range b.order {
		nb := b.nodes[name]
		if nb.sub != nil {
			_ = gb.AddSubgraph(name, nb.sub, nb.opts...)
		} else {
			_ = gb.AddNode(name, nb.fn, nb.opts...)
		}
	}
	for _, name := range b.order {
		nb := b.nodes[name]
		switch {
		case nb.router != nil:
			_ = gb.AddConditionalEdge(name, nb.router, nb.mapping)
		case nb.next != "":
			_ = gb.AddEdge(name, nb.next)
		}
	}

	entry := b.entry
	if entry == "" && len(b.order) > 0 {
		entry = b.order[0]
	}
	if entry != "" {
		_ = gb.SetEntryPoint(entry)
	}
	return gb.Compile()
}
