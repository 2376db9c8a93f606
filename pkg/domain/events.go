package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart   EventType = "run_start"
	EventRunEnd     EventType = "run_end"
	EventNodeEnter  EventType = "node_enter"
	EventNodeLeave  EventType = "node_leave"
	EventRoute      EventType = "route"
	EventCheckpoint EventType = "checkpoint"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Graph     string    `json:"graph"`
}

// RunEvent marks the start or the end of a run.
type RunEvent struct {
	EventBase
	Steps int   `json:"steps,omitempty"`
	Err   error `json:"-"`
}

// NodeEvent represents entry into or exit from a node.
type NodeEvent struct {
	EventBase
	Node     string        `json:"node"`
	Kind     string        `json:"kind"` // "leaf" or "subgraph"
	Step     int           `json:"step"`
	Duration time.Duration `json:"duration,omitempty"` // set on leave
	Err      error         `json:"-"`                  // set on leave when the node failed
}

// RouteEvent records the edge resolution after a node.
type RouteEvent struct {
	EventBase
	From  string `json:"from"`
	Label string `json:"label,omitempty"`
	To    string `json:"to"` // empty when the run ends
}

// CheckpointEvent records a checkpoint write.
type CheckpointEvent struct {
	EventBase
	Node string `json:"node"`
	Step int    `json:"step"`
	Err  error  `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnRunStart   func(context.Context, *RunEvent)
	OnRunEnd     func(context.Context, *RunEvent)
	OnNodeEnter  func(context.Context, *NodeEvent)
	OnNodeLeave  func(context.Context, *NodeEvent)
	OnRoute      func(context.Context, *RouteEvent)
	OnCheckpoint func(context.Context, *CheckpointEvent)
}

// Merge returns hooks that call h first and then other for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart:   chain(h.OnRunStart, other.OnRunStart),
		OnRunEnd:     chain(h.OnRunEnd, other.OnRunEnd),
		OnNodeEnter:  chain(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave:  chain(h.OnNodeLeave, other.OnNodeLeave),
		OnRoute:      chain(h.OnRoute, other.OnRoute),
		OnCheckpoint: chain(h.OnCheckpoint, other.OnCheckpoint),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
