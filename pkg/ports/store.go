package ports

import (
	"context"

	"github.com/aretw0/weave/pkg/domain"
)

// CheckpointStore persists run checkpoints keyed by run identifier.
// Implementations must copy the checkpoint on Save, so later changes to the
// in-flight state never alter a stored snapshot.
type CheckpointStore interface {
	// Save persists the checkpoint for a run, replacing any previous one.
	Save(ctx context.Context, runID string, cp *domain.Checkpoint) error

	// Load retrieves the latest checkpoint of a run.
	// Returns domain.ErrCheckpointNotFound if nothing was saved for runID.
	Load(ctx context.Context, runID string) (*domain.Checkpoint, error)

	// Delete removes the checkpoint of a run. Deleting an absent run is not an error.
	Delete(ctx context.Context, runID string) error
}

// Lister is implemented by stores that can enumerate their run identifiers.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}
