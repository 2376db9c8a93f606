package dsl

import (
	"github.com/aretw0/weave/pkg/graph"
	"github.com/aretw0/weave/pkg/schema"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	name string
	fn   graph.NodeFunc
	sub  *graph.Graph
	opts []graph.NodeOption

	next    string
	router  graph.RouterFunc
	mapping map[string]string
}

// Do sets the node function.
func (n *NodeBuilder) Do(fn graph.NodeFunc) *NodeBuilder {
	n.fn = fn
	n.sub = nil
	return n
}

// Embed runs a compiled graph as this node.
func (n *NodeBuilder) Embed(sub *graph.Graph) *NodeBuilder {
	n.sub = sub
	n.fn = nil
	return n
}

// Requires declares the state fields the node reads.
func (n *NodeBuilder) Requires(s schema.Schema) *NodeBuilder {
	n.opts = append(n.opts, graph.WithRequires(s))
	return n
}

// Describe attaches a description shown by tooling.
func (n *NodeBuilder) Describe(desc string) *NodeBuilder {
	n.opts = append(n.opts, graph.WithDescription(desc))
	return n
}

// Go adds an unconditional transition to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.next = target
	return n
}

// Route makes the transition conditional on router.
// Without Branch calls the router must return node names.
func (n *NodeBuilder) Route(router graph.RouterFunc) *NodeBuilder {
	n.router = router
	return n
}

// Branch maps a router label to a target node (or graph.End).
func (n *NodeBuilder) Branch(label, target string) *NodeBuilder {
	if n.mapping == nil {
		n.mapping = make(map[string]string)
	}
	n.mapping[label] = target
	return n
}

// Terminal marks the node as the end of the flow.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.next = graph.End
	n.router = nil
	n.mapping = nil
	return n
}
