package domain

import "time"

// RunStatus describes how far a checkpointed run has progressed.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"   // More steps are pending
	StatusCompleted RunStatus = "completed" // End of run reached
)

// Checkpoint is the snapshot persisted after a completed step.
// It is keyed by RunID in a checkpoint store.
type Checkpoint struct {
	RunID string `json:"run_id"`
	Graph string `json:"graph,omitempty"`

	// Node is the last node that completed successfully.
	Node string `json:"node"`

	// Next is the node the run continues with on resume.
	// Empty when Status is StatusCompleted.
	Next string `json:"next,omitempty"`

	// Label is the routing label chosen after Node, if it had a conditional edge.
	Label string `json:"label,omitempty"`

	Step      int       `json:"step"`
	Status    RunStatus `json:"status"`
	State     State     `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy of the checkpoint whose state does not share memory with the original.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	out := *c
	out.State = c.State.Clone()
	return &out
}

// Done reports whether the run reached its end.
func (c *Checkpoint) Done() bool {
	return c.Status == StatusCompleted
}
