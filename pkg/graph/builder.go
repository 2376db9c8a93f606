package graph

import (
	"fmt"

	"github.com/aretw0/weave/pkg/domain"
)

// Builder accumulates the description of a graph.
// It is not safe for concurrent use. It can be reused after Compile.
type Builder struct {
	name  string
	entry string
	nodes map[string]*Node
	order []string
	edges []Edge

	// errs keeps every failed call so Compile can report them together.
	errs []error
}

// NewBuilder creates an empty builder for a graph with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:  name,
		nodes: make(map[string]*Node),
	}
}

// Name returns the graph name.
func (b *Builder) Name() string {
	return b.name
}

// AddNode registers a leaf node.
func (b *Builder) AddNode(name string, fn NodeFunc, opts ...NodeOption) error {
	n := &Node{Name: name, Kind: KindLeaf, Func: fn}
	return b.add(n, opts)
}

// AddSubgraph registers a compiled graph as a single node.
func (b *Builder) AddSubgraph(name string, sub *Graph, opts ...NodeOption) error {
	n := &Node{Name: name, Kind: KindSubgraph, Subgraph: sub}
	return b.add(n, opts)
}

func (b *Builder) add(n *Node, opts []NodeOption) error {
	for _, opt := range opts {
		opt(n)
	}
	switch {
	case n.Name == "":
		return b.fail(fmt.Errorf("node name must not be empty"))
	case n.Name == End:
		return b.fail(fmt.Errorf("node name %q is reserved", End))
	}
	if _, exists := b.nodes[n.Name]; exists {
		return b.fail(&domain.DuplicateNodeError{Node: n.Name})
	}
	b.nodes[n.Name] = n
	b.order = append(b.order, n.Name)
	return nil
}

// AddEdge registers a static edge. The target may be End.
func (b *Builder) AddEdge(from, to string) error {
	if err := b.requireNode(from, "edge from"); err != nil {
		return err
	}
	if to != End {
		if err := b.requireNode(to, "edge to"); err != nil {
			return err
		}
	}
	b.edges = append(b.edges, Edge{From: from, To: to})
	return nil
}

// AddConditionalEdge registers a conditional edge.
// With a nil mapping the router returns node names (or End) directly.
// Mapping targets are checked by Compile, so nodes may be added later.
func (b *Builder) AddConditionalEdge(from string, router RouterFunc, mapping map[string]string) error {
	if err := b.requireNode(from, "conditional edge from"); err != nil {
		return err
	}
	if router == nil {
		return b.fail(fmt.Errorf("conditional edge from %q: router is nil", from))
	}
	b.edges = append(b.edges, Edge{From: from, Router: router, Mapping: mapping}.clone())
	return nil
}

// SetEntryPoint designates the start node.
// An unknown name is returned as an error now and reported again by Compile.
func (b *Builder) SetEntryPoint(name string) error {
	b.entry = name
	if _, ok := b.nodes[name]; !ok {
		return &domain.UnknownNodeError{Node: name, Ref: "entry point"}
	}
	return nil
}

// Compile validates the builder and returns an immutable graph.
func (b *Builder) Compile() (*Graph, error) {
	return Compile(b)
}

func (b *Builder) requireNode(name, ref string) error {
	if _, ok := b.nodes[name]; !ok {
		return b.fail(&domain.UnknownNodeError{Node: name, Ref: ref})
	}
	return nil
}

func (b *Builder) fail(err error) error {
	b.errs = append(b.errs, err)
	return err
}
