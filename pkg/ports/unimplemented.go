package ports

import (
	"context"

	"github.com/aretw0/weave/pkg/domain"
)

// UnimplementedStore stands in for a declared backend that is not built yet.
// Every call fails with *domain.NotImplementedError instead of silently doing nothing.
type UnimplementedStore struct {
	Backend string
}

func (s UnimplementedStore) Save(ctx context.Context, runID string, cp *domain.Checkpoint) error {
	return &domain.NotImplementedError{Backend: s.Backend, Op: "save"}
}

func (s UnimplementedStore) Load(ctx context.Context, runID string) (*domain.Checkpoint, error) {
	return nil, &domain.NotImplementedError{Backend: s.Backend, Op: "load"}
}

func (s UnimplementedStore) Delete(ctx context.Context, runID string) error {
	return &domain.NotImplementedError{Backend: s.Backend, Op: "delete"}
}

func (s UnimplementedStore) List(ctx context.Context) ([]string, error) {
	return nil, &domain.NotImplementedError{Backend: s.Backend, Op: "list"}
}
