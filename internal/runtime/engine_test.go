package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/weave/internal/runtime"
	"github.com/aretw0/weave/pkg/adapters/memory"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoke_StaticOrder(t *testing.T) {
	tr := &tracker{}
	b := graph.NewBuilder("enterprise")
	require.NoError(t, b.AddNode("ingest", tr.setter("ingest", "ingested", "text")))
	require.NoError(t, b.AddNode("compliance", tr.setter("compliance", "issues", []string{"gdpr"})))
	require.NoError(t, b.AddNode("risk", tr.setter("risk", "risks", []string{"fine"})))
	require.NoError(t, b.AddNode("summary", tr.setter("summary", "summary", "ok")))
	require.NoError(t, b.AddEdge("ingest", "compliance"))
	require.NoError(t, b.AddEdge("compliance", "risk"))
	require.NoError(t, b.AddEdge("risk", "summary"))
	require.NoError(t, b.SetEntryPoint("ingest"))
	g, err := b.Compile()
	require.NoError(t, err)

	engine := runtime.NewEngine()
	final, err := engine.Invoke(context.Background(), g, domain.State{"document": "text"})
	require.NoError(t, err)

	assert.Equal(t, []string{"ingest", "compliance", "risk", "summary"}, tr.visited())
	assert.Equal(t, domain.State{
		"document": "text",
		"ingested": "text",
		"issues":   []string{"gdpr"},
		"risks":    []string{"fine"},
		"summary":  "ok",
	}, final)
}

func TestRun_StreamsEveryStep(t *testing.T) {
	tr := &tracker{}
	g := linear(t, "enterprise", tr, "ingest", "compliance", "risk", "summary")
	engine := runtime.NewEngine()

	var steps []runtime.Step
	for step, err := range engine.Run(context.Background(), g, domain.State{"document": "text"}) {
		require.NoError(t, err)
		steps = append(steps, step)
	}

	require.Len(t, steps, 4)
	for i, name := range []string{"ingest", "compliance", "risk", "summary"} {
		assert.Equal(t, name, steps[i].Node)
		assert.Equal(t, i+1, steps[i].Index)
		assert.Equal(t, map[string]any{name: true}, steps[i].Delta)
	}
	assert.Equal(t, "compliance", steps[0].Next)
	assert.True(t, steps[3].Done())
	assert.Equal(t, steps[0].RunID, steps[3].RunID)
	assert.NotContains(t, steps[0].State, "summary", "streamed states are snapshots")
}

func TestRun_IsLazyAndSingleUse(t *testing.T) {
	tr := &tracker{}
	g := linear(t, "lazy", tr, "a", "b")
	seq := runtime.NewEngine().Run(context.Background(), g, nil)
	assert.Empty(t, tr.visited(), "nothing runs before iteration")

	count := 0
	for _, err := range seq {
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 2, count)

	var errs []error
	for _, err := range seq {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], domain.ErrStreamConsumed)
	assert.Len(t, tr.visited(), 2)
}

func TestRun_EarlyBreakStopsRun(t *testing.T) {
	tr := &tracker{}
	g := linear(t, "stop", tr, "a", "b", "c")

	for step, err := range runtime.NewEngine().Run(context.Background(), g, nil) {
		require.NoError(t, err)
		if step.Node == "a" {
			break
		}
	}
	assert.Equal(t, []string{"a"}, tr.visited())
}

func TestConditional_EndLabel(t *testing.T) {
	b := graph.NewBuilder("compliance-agent")
	require.NoError(t, b.AddNode("compliance", func(_ context.Context, s domain.State) (domain.State, error) { return s, nil }))
	require.NoError(t, b.SetEntryPoint("compliance"))
	require.NoError(t, b.AddConditionalEdge("compliance", byConfidence, map[string]string{
		"accept": graph.End,
		"review": graph.End,
	}))
	g, err := b.Compile()
	require.NoError(t, err)
	engine := runtime.NewEngine()

	cases := []struct {
		name  string
		state domain.State
		label string
	}{
		{"high confidence", domain.State{"confidence": 0.9}, "accept"},
		{"low confidence", domain.State{"confidence": 0.5}, "review"},
		{"missing confidence", domain.State{}, "review"},
		{"boundary", domain.State{"confidence": 0.8}, "review"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := engine.Execute(context.Background(), g, tc.state)
			require.NoError(t, err)
			assert.Equal(t, tc.label, res.Label)
			assert.Equal(t, []string{"compliance"}, res.Path)
			assert.Equal(t, 1, res.Steps)
		})
	}
}

func TestConditional_MappedTransition(t *testing.T) {
	tr := &tracker{}
	b := graph.NewBuilder("routing")
	require.NoError(t, b.AddNode("compliance", tr.setter("compliance", "checked", true)))
	require.NoError(t, b.AddNode("summary", tr.setter("summary", "summary", "done")))
	require.NoError(t, b.AddNode("review", tr.setter("review", "reviewed", true)))
	require.NoError(t, b.SetEntryPoint("compliance"))
	require.NoError(t, b.AddConditionalEdge("compliance", byConfidence, map[string]string{"accept": "summary"}))
	g, err := b.Compile()
	require.NoError(t, err)
	engine := runtime.NewEngine()

	res, err := engine.Execute(context.Background(), g, domain.State{"confidence": 0.95})
	require.NoError(t, err)
	assert.Equal(t, []string{"compliance", "summary"}, res.Path)

	// "review" is a node, but not a mapped label: never a silent fallthrough.
	_, err = engine.Invoke(context.Background(), g, domain.State{"confidence": 0.1})
	var invalid *domain.InvalidRouteError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "compliance", invalid.Node)
	assert.Equal(t, "review", invalid.Label)
	assert.NotContains(t, tr.visited(), "review")
}

func TestNodeFailure_StopsRun(t *testing.T) {
	boom := errors.New("reasoning service unavailable")
	tr := &tracker{}
	store := memory.NewStore()

	b := graph.NewBuilder("failing")
	require.NoError(t, b.AddNode("ingest", tr.setter("ingest", "ingested", true)))
	require.NoError(t, b.AddNode("compliance", func(context.Context, domain.State) (domain.State, error) {
		return nil, boom
	}))
	require.NoError(t, b.AddNode("risk", tr.setter("risk", "risks", true)))
	require.NoError(t, b.AddEdge("ingest", "compliance"))
	require.NoError(t, b.AddEdge("compliance", "risk"))
	require.NoError(t, b.SetEntryPoint("ingest"))
	g, err := b.Compile()
	require.NoError(t, err)

	engine := runtime.NewEngine(runtime.WithCheckpointStore(store))
	res, err := engine.Execute(context.Background(), g, domain.State{}, runtime.WithRunID("run-1"))
	assert.Same(t, boom, err, "node errors propagate unchanged")
	assert.Equal(t, []string{"ingest"}, tr.visited())
	assert.Equal(t, 1, res.Steps)

	cp, err := store.Load(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "ingest", cp.Node, "no checkpoint for the failed step")
	assert.Equal(t, "compliance", cp.Next)
	assert.Equal(t, 1, cp.Step)

	final, err := engine.Invoke(context.Background(), g, domain.State{})
	assert.Nil(t, final)
	assert.ErrorIs(t, err, boom)
}

func TestStepLimit_SelfLoop(t *testing.T) {
	tr := &tracker{}
	b := graph.NewBuilder("loop")
	require.NoError(t, b.AddNode("retry", tr.setter("retry", "tries", 1)))
	require.NoError(t, b.SetEntryPoint("retry"))
	require.NoError(t, b.AddConditionalEdge("retry", func(domain.State) string { return "retry" }, nil))
	g, err := b.Compile()
	require.NoError(t, err)

	engine := runtime.NewEngine(runtime.WithMaxSteps(10))
	_, err = engine.Invoke(context.Background(), g, nil)

	var limit *domain.StepLimitExceededError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, 10, limit.Limit)
	assert.Equal(t, "loop", limit.Graph)
	assert.Len(t, tr.visited(), 10)
}

func TestStepLimit_Default(t *testing.T) {
	engine := runtime.NewEngine(runtime.WithMaxSteps(0))
	assert.Equal(t, runtime.DefaultMaxSteps, engine.MaxSteps())
}

func TestSubgraph_Embedding(t *testing.T) {
	tr := &tracker{}
	verification := linear(t, "verification", tr, "verify", "sign")

	b := graph.NewBuilder("agent")
	require.NoError(t, b.AddNode("compliance", tr.setter("compliance", "issues", []string{})))
	require.NoError(t, b.AddSubgraph("verify", verification))
	require.NoError(t, b.AddEdge("compliance", "verify"))
	require.NoError(t, b.SetEntryPoint("compliance"))
	g, err := b.Compile()
	require.NoError(t, err)

	// Two steps per level fit, even though four nodes run in total.
	engine := runtime.NewEngine(runtime.WithMaxSteps(2))
	res, err := engine.Execute(context.Background(), g, domain.State{"document": "text"})
	require.NoError(t, err)

	assert.Equal(t, []string{"compliance", "verify"}, res.Path)
	assert.Equal(t, []string{"compliance", "verify", "sign"}, tr.visited())
	assert.Equal(t, true, res.State["verify"])
	assert.Equal(t, true, res.State["sign"])
	assert.Equal(t, "text", res.State["document"])
}

func TestSubgraph_FailurePropagates(t *testing.T) {
	boom := errors.New("sub failed")
	sb := graph.NewBuilder("sub")
	require.NoError(t, sb.AddNode("inner", func(context.Context, domain.State) (domain.State, error) { return nil, boom }))
	require.NoError(t, sb.SetEntryPoint("inner"))
	sub, err := sb.Compile()
	require.NoError(t, err)

	b := graph.NewBuilder("outer")
	require.NoError(t, b.AddSubgraph("nested", sub))
	require.NoError(t, b.SetEntryPoint("nested"))
	g, err := b.Compile()
	require.NoError(t, err)

	_, err = runtime.NewEngine().Invoke(context.Background(), g, nil)
	assert.Same(t, boom, err)
}

func TestCancellation_BetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := &tracker{}
	store := memory.NewStore()
	b := graph.NewBuilder("cancel")
	require.NoError(t, b.AddNode("a", func(_ context.Context, s domain.State) (domain.State, error) {
		cancel() // the node itself finishes; the next one must not start
		s["a"] = true
		return s, nil
	}))
	require.NoError(t, b.AddNode("b", tr.setter("b", "b", true)))
	require.NoError(t, b.AddEdge("a", "b"))
	require.NoError(t, b.SetEntryPoint("a"))
	g, err := b.Compile()
	require.NoError(t, err)

	engine := runtime.NewEngine(runtime.WithCheckpointStore(store))
	final, err := engine.Invoke(ctx, g, domain.State{})

	var canceled *domain.CanceledError
	require.ErrorAs(t, err, &canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "b", canceled.Node)
	assert.Equal(t, 1, canceled.Step)
	assert.Equal(t, domain.State{"a": true}, final)
	assert.Empty(t, tr.visited())

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 1, "the completed step is still checkpointed")
}

func TestCheckpoint_SnapshotPerStep(t *testing.T) {
	store := memory.NewStore()
	var saved []*domain.Checkpoint
	hooks := domain.LifecycleHooks{
		OnCheckpoint: func(ctx context.Context, e *domain.CheckpointEvent) {
			require.NoError(t, e.Err)
			cp, err := store.Load(ctx, e.RunID)
			require.NoError(t, err)
			saved = append(saved, cp)
		},
	}

	g := linear(t, "snap", &tracker{}, "a", "b")
	engine := runtime.NewEngine(runtime.WithCheckpointStore(store), runtime.WithLifecycleHooks(hooks))
	res, err := engine.Execute(context.Background(), g, domain.State{}, runtime.WithRunID("snap-1"))
	require.NoError(t, err)
	assert.Equal(t, "snap-1", res.RunID)

	require.Len(t, saved, 2)
	assert.Equal(t, domain.State{"a": true}, saved[0].State)
	assert.Equal(t, domain.StatusRunning, saved[0].Status)
	assert.Equal(t, "b", saved[0].Next)
	assert.Equal(t, domain.State{"a": true, "b": true}, saved[1].State)
	assert.True(t, saved[1].Done())
	assert.Equal(t, "snap", saved[1].Graph)
}

// keepingStore keeps every checkpoint it receives without copying it.
type keepingStore struct {
	ports.CheckpointStore
	mu    sync.Mutex
	saved []*domain.Checkpoint
}

func (s *keepingStore) Save(_ context.Context, _ string, cp *domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, cp)
	return nil
}

func TestCheckpoint_NestedValuesAreNotShared(t *testing.T) {
	b := graph.NewBuilder("nested")
	require.NoError(t, b.AddNode("a", func(_ context.Context, s domain.State) (domain.State, error) {
		s["findings"] = []map[string]any{{"severity": "high"}}
		s["counts"] = map[string]int{"issues": 1}
		return s, nil
	}))
	require.NoError(t, b.AddNode("b", func(_ context.Context, s domain.State) (domain.State, error) {
		s["findings"].([]map[string]any)[0]["severity"] = "low"
		s["counts"].(map[string]int)["issues"] = 99
		return s, nil
	}))
	require.NoError(t, b.AddEdge("a", "b"))
	require.NoError(t, b.SetEntryPoint("a"))
	g, err := b.Compile()
	require.NoError(t, err)

	store := &keepingStore{}
	engine := runtime.NewEngine(runtime.WithCheckpointStore(store))
	res, err := engine.Execute(context.Background(), g, nil)
	require.NoError(t, err)
	assert.Equal(t, "low", res.State["findings"].([]map[string]any)[0]["severity"])

	require.Len(t, store.saved, 2)
	first := store.saved[0].State
	assert.Equal(t, "high", first["findings"].([]map[string]any)[0]["severity"])
	assert.Equal(t, 1, first["counts"].(map[string]int)["issues"])
}

func TestCheckpoint_StoreFailure(t *testing.T) {
	g := linear(t, "s3-run", &tracker{}, "a", "b")
	engine := runtime.NewEngine(runtime.WithCheckpointStore(ports.UnimplementedStore{Backend: "s3"}))

	_, err := engine.Invoke(context.Background(), g, nil)
	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "save", storeErr.Op)

	var nie *domain.NotImplementedError
	assert.ErrorAs(t, err, &nie)
}

func TestResume(t *testing.T) {
	store := memory.NewStore()
	tr := &tracker{}
	fail := true

	b := graph.NewBuilder("resumable")
	require.NoError(t, b.AddNode("a", tr.setter("a", "a", true)))
	require.NoError(t, b.AddNode("b", func(ctx context.Context, s domain.State) (domain.State, error) {
		if fail {
			return nil, errors.New("transient")
		}
		return tr.setter("b", "b", true)(ctx, s)
	}))
	require.NoError(t, b.AddNode("c", tr.setter("c", "c", true)))
	require.NoError(t, b.AddEdge("a", "b"))
	require.NoError(t, b.AddEdge("b", "c"))
	require.NoError(t, b.SetEntryPoint("a"))
	g, err := b.Compile()
	require.NoError(t, err)

	engine := runtime.NewEngine(runtime.WithCheckpointStore(store))
	ctx := context.Background()

	_, err = engine.Execute(ctx, g, domain.State{}, runtime.WithRunID("r1"))
	require.Error(t, err)

	fail = false
	res, err := engine.Resume(ctx, g, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, res.Path)
	assert.Equal(t, 3, res.Steps)
	assert.Equal(t, domain.State{"a": true, "b": true, "c": true}, res.State)
	assert.Equal(t, []string{"a", "b", "c"}, tr.visited())

	// A completed run is not executed again.
	again, err := engine.Resume(ctx, g, "r1")
	require.NoError(t, err)
	assert.Empty(t, again.Path)
	assert.Equal(t, res.State, again.State)
	assert.Len(t, tr.visited(), 3)

	_, err = engine.Resume(ctx, g, "unknown")
	assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
}

func TestResume_Stream(t *testing.T) {
	store := memory.NewStore()
	g := linear(t, "stream-resume", &tracker{}, "a", "b", "c")
	engine := runtime.NewEngine(runtime.WithCheckpointStore(store))
	ctx := context.Background()

	for step, err := range engine.Run(ctx, g, nil, runtime.WithRunID("r2")) {
		require.NoError(t, err)
		if step.Node == "a" {
			break
		}
	}

	var nodes []string
	for step, err := range engine.ResumeStream(ctx, g, "r2") {
		require.NoError(t, err)
		nodes = append(nodes, step.Node)
	}
	assert.Equal(t, []string{"b", "c"}, nodes)
}

func TestResume_WrongGraph(t *testing.T) {
	store := memory.NewStore()
	engine := runtime.NewEngine(runtime.WithCheckpointStore(store))
	ctx := context.Background()

	_, err := engine.Execute(ctx, linear(t, "first", &tracker{}, "a"), nil, runtime.WithRunID("r"))
	require.NoError(t, err)

	_, err = engine.Resume(ctx, linear(t, "second", &tracker{}, "a"), "r")
	assert.ErrorContains(t, err, "belongs to graph")
}

func TestRequirements_CheckedBeforeDispatch(t *testing.T) {
	tr := &tracker{}
	b := graph.NewBuilder("typed")
	require.NoError(t, b.AddNode("risk", tr.setter("risk", "risks", true),
		graph.WithRequires(schema.Schema{"document": schema.String()})))
	require.NoError(t, b.SetEntryPoint("risk"))
	g, err := b.Compile()
	require.NoError(t, err)
	engine := runtime.NewEngine()

	_, err = engine.Invoke(context.Background(), g, domain.State{"document": 42})
	var sve *domain.StateValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, "risk", sve.Node)
	assert.Empty(t, tr.visited())

	_, err = engine.Invoke(context.Background(), g, domain.State{"document": "text"})
	assert.NoError(t, err)
}

func TestState_Isolation(t *testing.T) {
	b := graph.NewBuilder("iso")
	require.NoError(t, b.AddNode("mutate", func(_ context.Context, s domain.State) (domain.State, error) {
		s["document"] = "changed"
		s["tags"].([]any)[0] = "changed"
		return nil, nil // nil keeps the (mutated) input
	}))
	require.NoError(t, b.SetEntryPoint("mutate"))
	g, err := b.Compile()
	require.NoError(t, err)

	initial := domain.State{"document": "text", "tags": []any{"a"}}
	final, err := runtime.NewEngine().Invoke(context.Background(), g, initial)
	require.NoError(t, err)

	assert.Equal(t, "changed", final["document"])
	assert.Equal(t, domain.State{"document": "text", "tags": []any{"a"}}, initial)
}

func TestConcurrentRuns_ShareGraph(t *testing.T) {
	b := graph.NewBuilder("concurrent")
	require.NoError(t, b.AddNode("double", func(_ context.Context, s domain.State) (domain.State, error) {
		n, _ := s.Float("n")
		s["n"] = n * 2
		return s, nil
	}))
	require.NoError(t, b.SetEntryPoint("double"))
	g, err := b.Compile()
	require.NoError(t, err)
	engine := runtime.NewEngine(runtime.WithCheckpointStore(memory.NewStore()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := engine.Execute(context.Background(), g, domain.State{"n": float64(i)}, runtime.WithRunID(fmt.Sprintf("run-%d", i)))
			if assert.NoError(t, err) {
				assert.Equal(t, float64(2*i), res.State["n"])
			}
		}(i)
	}
	wg.Wait()
}

func TestNilGraph(t *testing.T) {
	_, err := runtime.NewEngine().Invoke(context.Background(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrNilGraph)
}
