package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/weave/pkg/ports"
)

// Middleware allows wrapping a CheckpointStore to add behavior.
type Middleware func(ports.CheckpointStore) ports.CheckpointStore

// Chain wraps store with mws. The first middleware sees checkpoints first on Save.
func Chain(store ports.CheckpointStore, mws ...Middleware) ports.CheckpointStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

// list forwards List to next when it can enumerate runs.
func list(ctx context.Context, next ports.CheckpointStore) ([]string, error) {
	lister, ok := next.(ports.Lister)
	if !ok {
		return nil, fmt.Errorf("checkpoint store %T cannot list runs", next)
	}
	return lister.List(ctx)
}
