package graph

import (
	"context"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/schema"
)

// End is the sentinel target that finishes a run.
// It can be used as a static edge target, a mapping value or a router result.
const End = "__end__"

// NodeFunc is the unit of work of a leaf node.
// Returning a nil state keeps the input state, including any in-place changes.
type NodeFunc func(ctx context.Context, state domain.State) (domain.State, error)

// RouterFunc picks the next node (or a label, when a mapping is given) from the
// state produced by the source node. It must not mutate the state.
type RouterFunc func(state domain.State) string

// NodeKind tags the node variant.
type NodeKind string

const (
	KindLeaf     NodeKind = "leaf"
	KindSubgraph NodeKind = "subgraph"
)

// Node is a registered processing step.
// Exactly one of Func or Subgraph is set, depending on Kind.
type Node struct {
	Name        string
	Kind        NodeKind
	Description string

	Func     NodeFunc
	Subgraph *Graph

	// Requires lists the state fields the node reads; the engine checks them before dispatch.
	Requires schema.Schema
}

// NodeOption configures a node at registration time.
type NodeOption func(*Node)

// WithRequires declares the state fields a node needs.
func WithRequires(s schema.Schema) NodeOption {
	return func(n *Node) {
		n.Requires = s
	}
}

// WithDescription attaches a human readable description, shown by tooling.
func WithDescription(desc string) NodeOption {
	return func(n *Node) {
		n.Description = desc
	}
}

func (n Node) clone() *Node {
	out := n
	if n.Requires != nil {
		out.Requires = make(schema.Schema, len(n.Requires))
		for k, v := range n.Requires {
			out.Requires[k] = v
		}
	}
	return &out
}
