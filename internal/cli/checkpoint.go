package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/weave/pkg/session"
)

// ListCheckpoints prints the run ids with a checkpoint.
func ListCheckpoints(ctx context.Context, sessions *session.Manager, w io.Writer) error {
	ids, err := sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing checkpoints: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No checkpoints found.")
		return nil
	}
	fmt.Fprintln(w, "Checkpoints:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// InspectCheckpoint prints one checkpoint as JSON.
func InspectCheckpoint(ctx context.Context, sessions *session.Manager, runID string, p *Printer) error {
	cp, err := sessions.Load(ctx, runID)
	if err != nil {
		return fmt.Errorf("error loading checkpoint '%s': %w", runID, err)
	}
	return p.JSON(cp)
}

// RemoveCheckpoints deletes every given run and reports each result.
// It fails if any removal failed.
func RemoveCheckpoints(ctx context.Context, sessions *session.Manager, runIDs []string, w io.Writer) error {
	failed := 0
	for _, id := range runIDs {
		if err := sessions.Delete(ctx, id); err != nil {
			fmt.Fprintf(w, "Error removing '%s': %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "Removed checkpoint '%s'\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("failed to remove %d of %d checkpoints", failed, len(runIDs))
	}
	return nil
}
