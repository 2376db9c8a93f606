package runtime

import (
	"github.com/aretw0/weave/pkg/domain"
)

// Step is one completed node execution, as seen by a streaming caller.
type Step struct {
	RunID string `json:"run_id"`
	// Index counts completed steps of the run, starting at 1.
	Index int          `json:"index"`
	Node  string       `json:"node"`
	State domain.State `json:"state"`
	// Delta holds the fields the node added, changed or removed (as null).
	Delta map[string]any `json:"delta,omitempty"`
	Label string         `json:"label,omitempty"`
	// Next is the node that runs after this one; empty when the run is over.
	Next string `json:"next,omitempty"`
}

// Done reports whether this was the last step of the run.
func (s Step) Done() bool {
	return s.Next == ""
}

// Result is the outcome of a whole run.
type Result struct {
	RunID string       `json:"run_id"`
	State domain.State `json:"state"`
	// Path lists the nodes executed by this call, in order.
	Path []string `json:"path"`
	// Label is the routing label that ended the run, if a router ended it.
	Label string `json:"label,omitempty"`
	// Steps is the run's completed step count, including steps before a resume.
	Steps int `json:"steps"`
}

// RunOption configures a single run.
type RunOption func(*runConfig)

type runConfig struct {
	runID string
}

// WithRunID sets the run identifier used as checkpoint key.
// Without it a fresh id is generated.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}
