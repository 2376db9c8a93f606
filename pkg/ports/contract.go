package ports

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCheckpointStoreContract verifies that a CheckpointStore implementation
// adheres to the interface contract. Adapters call it from their own tests.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	t.Helper()
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405.000000000")

	sample := func(id string) *domain.Checkpoint {
		return &domain.Checkpoint{
			RunID:  id,
			Graph:  "contract",
			Node:   "ingest",
			Next:   "compliance",
			Step:   1,
			Status: domain.StatusRunning,
			State: domain.State{
				"document": "text",
				"issues":   []any{"missing signature"},
				"meta":     map[string]any{"pages": 3.0},
			},
			UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		cp := sample(runID)
		require.NoError(t, store.Save(ctx, runID, cp))
		t.Cleanup(func() { _ = store.Delete(ctx, runID) })

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, cp.Node, loaded.Node)
		assert.Equal(t, cp.Next, loaded.Next)
		assert.Equal(t, cp.Step, loaded.Step)
		assert.Equal(t, cp.Status, loaded.Status)
		// JSON backends decode numbers as float64, so the fixture uses float64 only.
		assert.Equal(t, cp.State, loaded.State)
	})

	t.Run("Snapshot Isolation", func(t *testing.T) {
		id := runID + "-iso"
		cp := sample(id)
		findings := []map[string]any{{"severity": "high"}}
		counts := map[string]int{"issues": 1}
		cp.State["findings"] = findings
		cp.State["counts"] = counts
		require.NoError(t, store.Save(ctx, id, cp))
		t.Cleanup(func() { _ = store.Delete(ctx, id) })

		cp.State["document"] = "mutated"
		cp.State["issues"].([]any)[0] = "mutated"
		cp.Node = "mutated"
		findings[0]["severity"] = "low"
		counts["issues"] = 99

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "text", loaded.State["document"])
		assert.Equal(t, []any{"missing signature"}, loaded.State["issues"])
		assert.Equal(t, "ingest", loaded.Node)
		// JSON backends return these as []any and map[string]any, so compare encodings.
		assertJSON(t, `[{"severity":"high"}]`, loaded.State["findings"])
		assertJSON(t, `{"issues":1}`, loaded.State["counts"])

		// Changing a loaded value must not reach the store either.
		loaded.State["document"] = "changed after load"
		again, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "text", again.State["document"])
	})

	t.Run("Empty State Is Not Absent", func(t *testing.T) {
		id := runID + "-empty"
		cp := sample(id)
		cp.State = domain.State{}
		require.NoError(t, store.Save(ctx, id, cp))
		t.Cleanup(func() { _ = store.Delete(ctx, id) })

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Empty(t, loaded.State)
	})

	t.Run("Last Write Wins", func(t *testing.T) {
		id := runID + "-lww"
		first := sample(id)
		second := sample(id)
		second.Node = "risk"
		second.Step = 3
		require.NoError(t, store.Save(ctx, id, first))
		require.NoError(t, store.Save(ctx, id, second))
		t.Cleanup(func() { _ = store.Delete(ctx, id) })

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "risk", loaded.Node)
		assert.Equal(t, 3, loaded.Step)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		loaded, err := store.Load(ctx, "non-existent-"+runID)
		assert.Nil(t, loaded)
		assert.True(t, errors.Is(err, domain.ErrCheckpointNotFound), "got %v", err)
	})

	t.Run("Delete", func(t *testing.T) {
		id := runID + "-del"
		require.NoError(t, store.Save(ctx, id, sample(id)))
		require.NoError(t, store.Delete(ctx, id))

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)

		assert.NoError(t, store.Delete(ctx, id), "deleting an absent run is not an error")
	})

	lister, ok := store.(Lister)
	if !ok {
		return
	}

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-l1"
		id2 := runID + "-l2"
		require.NoError(t, store.Save(ctx, id1, sample(id1)))
		require.NoError(t, store.Save(ctx, id2, sample(id2)))
		t.Cleanup(func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		})

		ids, err := lister.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

func assertJSON(t *testing.T, want string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, want, string(data))
}
