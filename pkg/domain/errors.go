package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCheckpointNotFound is returned when no checkpoint exists for a run id.
// It is distinct from store failures so callers can tell "nothing saved" from "store broken".
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// ErrStreamConsumed is yielded when a step stream is ranged over a second time.
var ErrStreamConsumed = errors.New("step stream already consumed")

// ErrNilGraph is returned when an operation receives a nil graph.
var ErrNilGraph = errors.New("graph is nil")

// DuplicateNodeError is returned when a node name is registered twice.
type DuplicateNodeError struct {
	Node string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %q is already registered", e.Node)
}

// UnknownNodeError is returned when an edge or entry point references an unregistered node.
type UnknownNodeError struct {
	Node string
	Ref  string // where the reference came from, e.g. "edge from", "entry point"
}

func (e *UnknownNodeError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("unknown node %q", e.Node)
	}
	return fmt.Sprintf("unknown node %q (%s)", e.Node, e.Ref)
}

// AmbiguousEdgeError is returned when a node has more than one outgoing edge.
type AmbiguousEdgeError struct {
	Node  string
	Edges int
}

func (e *AmbiguousEdgeError) Error() string {
	return fmt.Sprintf("node %q has %d outgoing edges; exactly one static or conditional edge is allowed", e.Node, e.Edges)
}

// GraphValidationError aggregates every issue found while compiling a graph.
type GraphValidationError struct {
	Graph  string
	Issues []error
}

func (e *GraphValidationError) Error() string {
	name := e.Graph
	if name == "" {
		name = "graph"
	}
	if len(e.Issues) == 1 {
		return fmt.Sprintf("%s: invalid: %s", name, e.Issues[0])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d validation errors:", name, len(e.Issues))
	for i, issue := range e.Issues {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, issue)
	}
	return sb.String()
}

// Unwrap exposes the individual issues to errors.Is and errors.As.
func (e *GraphValidationError) Unwrap() []error {
	return e.Issues
}

// InvalidRouteError is returned when a routing function yields a label that
// is not mapped, or a node name that does not exist.
type InvalidRouteError struct {
	Node  string
	Label string
}

func (e *InvalidRouteError) Error() string {
	return fmt.Sprintf("invalid route from node %q: label %q does not resolve to a node", e.Node, e.Label)
}

// StepLimitExceededError signals a probable unintended cycle.
type StepLimitExceededError struct {
	Graph string
	Node  string // node that would have run next
	Limit int
}

func (e *StepLimitExceededError) Error() string {
	return fmt.Sprintf("graph %q exceeded step limit of %d before running node %q", e.Graph, e.Limit, e.Node)
}

// CanceledError is returned when a run stops between steps because its context ended.
// The run's last completed state is returned alongside it.
type CanceledError struct {
	Node string // node that would have run next
	Step int    // number of completed steps
	Err  error
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("run canceled after %d steps, before node %q: %v", e.Step, e.Node, e.Err)
}

func (e *CanceledError) Unwrap() error {
	return e.Err
}

// StateValidationError is returned when the state does not satisfy a node's declared requirements.
type StateValidationError struct {
	Node string
	Err  error
}

func (e *StateValidationError) Error() string {
	return fmt.Sprintf("node %q: state does not meet requirements: %v", e.Node, e.Err)
}

func (e *StateValidationError) Unwrap() error {
	return e.Err
}

// StoreError wraps a checkpoint store failure.
type StoreError struct {
	Op    string // "save", "load", "delete", "list"
	RunID string
	Err   error
}

func (e *StoreError) Error() string {
	if e.RunID == "" {
		return fmt.Sprintf("checkpoint %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("checkpoint %s %q: %v", e.Op, e.RunID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NotImplementedError is returned by checkpoint backends that are declared but not built.
type NotImplementedError struct {
	Backend string
	Op      string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("checkpoint backend %q: %s not implemented", e.Backend, e.Op)
}
