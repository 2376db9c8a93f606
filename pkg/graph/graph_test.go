package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
	"github.com/aretw0/weave/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(_ context.Context, s domain.State) (domain.State, error) { return s, nil }

func TestBuilder_DuplicateNode(t *testing.T) {
	b := graph.NewBuilder("dup")
	require.NoError(t, b.AddNode("a", noop))

	err := b.AddNode("a", noop)
	var dup *domain.DuplicateNodeError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Node)
}

func TestBuilder_ReservedName(t *testing.T) {
	b := graph.NewBuilder("reserved")
	assert.Error(t, b.AddNode(graph.End, noop))
	assert.Error(t, b.AddNode("", noop))
}

func TestBuilder_UnknownEndpoints(t *testing.T) {
	b := graph.NewBuilder("unknown")
	require.NoError(t, b.AddNode("a", noop))

	var unknown *domain.UnknownNodeError
	require.ErrorAs(t, b.AddEdge("a", "b"), &unknown)
	assert.Equal(t, "b", unknown.Node)

	require.ErrorAs(t, b.AddEdge("x", "a"), &unknown)
	assert.Equal(t, "x", unknown.Node)

	require.ErrorAs(t, b.SetEntryPoint("missing"), &unknown)
	assert.NoError(t, b.AddEdge("a", graph.End))
}

func TestCompile_ReportsEveryIssue(t *testing.T) {
	b := graph.NewBuilder("broken")
	require.NoError(t, b.AddNode("a", noop))
	require.NoError(t, b.AddNode("b", nil))
	_ = b.AddEdge("a", "ghost")
	require.NoError(t, b.AddConditionalEdge("b", func(domain.State) string { return "x" }, map[string]string{"x": "nowhere"}))

	_, err := b.Compile()
	var gve *domain.GraphValidationError
	require.ErrorAs(t, err, &gve)
	assert.Equal(t, "broken", gve.Graph)
	// ghost edge, nil func, unset entry, unmapped target
	assert.Len(t, gve.Issues, 4)

	var unknown *domain.UnknownNodeError
	assert.ErrorAs(t, err, &unknown)
	assert.Contains(t, err.Error(), "4 validation errors")
}

func TestCompile_AmbiguousEdge(t *testing.T) {
	b := graph.NewBuilder("ambiguous")
	require.NoError(t, b.AddNode("a", noop))
	require.NoError(t, b.AddNode("b", noop))
	require.NoError(t, b.SetEntryPoint("a"))
	require.NoError(t, b.AddEdge("a", "b"))
	require.NoError(t, b.AddConditionalEdge("a", func(domain.State) string { return "b" }, nil))

	g, err := b.Compile()
	assert.Nil(t, g)

	var amb *domain.AmbiguousEdgeError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, "a", amb.Node)
	assert.Equal(t, 2, amb.Edges)
}

func TestCompile_IsolatedFromBuilder(t *testing.T) {
	mapping := map[string]string{"go": "b"}
	b := graph.NewBuilder("iso")
	require.NoError(t, b.AddNode("a", noop))
	require.NoError(t, b.AddNode("b", noop))
	require.NoError(t, b.SetEntryPoint("a"))
	require.NoError(t, b.AddConditionalEdge("a", func(domain.State) string { return "go" }, mapping))

	g, err := b.Compile()
	require.NoError(t, err)

	// Reusing the builder or the caller's map must not leak into the graph.
	mapping["go"] = graph.End
	require.NoError(t, b.AddNode("c", noop))

	assert.Equal(t, []string{"a", "b"}, g.Nodes())
	next, label, err := g.Resolve("a", domain.State{})
	require.NoError(t, err)
	assert.Equal(t, "b", next)
	assert.Equal(t, "go", label)
}

func TestResolve(t *testing.T) {
	route := func(s domain.State) string {
		if c, ok := s.Float("confidence"); ok && c > 0.8 {
			return "accept"
		}
		return "review"
	}

	b := graph.NewBuilder("routes")
	require.NoError(t, b.AddNode("ingest", noop))
	require.NoError(t, b.AddNode("compliance", noop))
	require.NoError(t, b.AddNode("direct", noop))
	require.NoError(t, b.AddNode("last", noop))
	require.NoError(t, b.SetEntryPoint("ingest"))
	require.NoError(t, b.AddEdge("ingest", "compliance"))
	require.NoError(t, b.AddConditionalEdge("compliance", route, map[string]string{"accept": graph.End}))
	require.NoError(t, b.AddConditionalEdge("direct", func(s domain.State) string {
		next, _ := s.String("next")
		return next
	}, nil))
	g, err := b.Compile()
	require.NoError(t, err)

	t.Run("static", func(t *testing.T) {
		next, label, err := g.Resolve("ingest", nil)
		require.NoError(t, err)
		assert.Equal(t, "compliance", next)
		assert.Empty(t, label)
	})

	t.Run("no outgoing edge ends the run", func(t *testing.T) {
		next, _, err := g.Resolve("last", nil)
		require.NoError(t, err)
		assert.Equal(t, graph.End, next)
	})

	t.Run("mapped label", func(t *testing.T) {
		next, label, err := g.Resolve("compliance", domain.State{"confidence": 0.9})
		require.NoError(t, err)
		assert.Equal(t, graph.End, next)
		assert.Equal(t, "accept", label)
	})

	t.Run("unmapped label", func(t *testing.T) {
		_, label, err := g.Resolve("compliance", domain.State{"confidence": 0.1})
		var invalid *domain.InvalidRouteError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "review", label)
		assert.Equal(t, "compliance", invalid.Node)
	})

	t.Run("router returns node names", func(t *testing.T) {
		next, _, err := g.Resolve("direct", domain.State{"next": "last"})
		require.NoError(t, err)
		assert.Equal(t, "last", next)

		_, _, err = g.Resolve("direct", domain.State{"next": "nope"})
		assert.True(t, errors.As(err, new(*domain.InvalidRouteError)))
	})
}

func TestGraph_Accessors(t *testing.T) {
	sub := graph.NewBuilder("sub")
	require.NoError(t, sub.AddNode("verify", noop))
	require.NoError(t, sub.SetEntryPoint("verify"))
	subGraph, err := sub.Compile()
	require.NoError(t, err)

	b := graph.NewBuilder("parent")
	require.NoError(t, b.AddNode("a", noop,
		graph.WithRequires(schema.Schema{"document": schema.String()}),
		graph.WithDescription("first")))
	require.NoError(t, b.AddSubgraph("v", subGraph))
	require.NoError(t, b.SetEntryPoint("a"))
	require.NoError(t, b.AddEdge("a", "v"))
	g, err := b.Compile()
	require.NoError(t, err)

	assert.Equal(t, "parent", g.Name())
	assert.Equal(t, "a", g.EntryPoint())
	assert.Equal(t, []string{"v"}, g.Successors("a"))
	assert.False(t, g.IsConditional("a"))

	n, ok := g.Node("a")
	require.True(t, ok)
	assert.Equal(t, graph.KindLeaf, n.Kind)
	assert.Equal(t, "first", n.Description)
	assert.Contains(t, n.Requires, "document")

	v, ok := g.Node("v")
	require.True(t, ok)
	assert.Equal(t, graph.KindSubgraph, v.Kind)
	assert.Same(t, subGraph, g.Subgraphs()["v"])
}
