package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
)

// Registry maps names to node functions and routers, so declarative
// definitions can refer to Go code by name.
type Registry struct {
	mu      sync.RWMutex
	nodes   map[string]graph.NodeFunc
	routers map[string]graph.RouterFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:   make(map[string]graph.NodeFunc),
		routers: make(map[string]graph.RouterFunc),
	}
}

// Register adds a node function.
// If a node with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn graph.NodeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[name] = fn
}

// RegisterRouter adds a routing function.
// If a router with the same name exists, it is overwritten.
func (r *Registry) RegisterRouter(name string, fn graph.RouterFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routers[name] = fn
}

// Node looks up a node function by name.
func (r *Registry) Node(name string) (graph.NodeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.nodes[name]
	return fn, ok
}

// Router looks up a routing function by name.
func (r *Registry) Router(name string) (graph.RouterFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.routers[name]
	return fn, ok
}

// Execute looks up a node function by name and runs it once, outside any graph.
// Returns an error if the node is not found.
func (r *Registry) Execute(ctx context.Context, name string, state domain.State) (domain.State, error) {
	fn, ok := r.Node(name)
	if !ok {
		return nil, fmt.Errorf("node not found: %s", name)
	}
	return fn(ctx, state)
}

// Names returns the registered node and router names, sorted.
func (r *Registry) Names() (nodes, routers []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name := range r.nodes {
		nodes = append(nodes, name)
	}
	for name := range r.routers {
		routers = append(routers, name)
	}
	sort.Strings(nodes)
	sort.Strings(routers)
	return nodes, routers
}
