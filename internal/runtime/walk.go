package runtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/weave/internal/logging"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
	"github.com/aretw0/weave/pkg/schema"
)

// errStopped ends a walk whose stream consumer stopped iterating.
var errStopped = errors.New("run stopped by consumer")

// cursor is the position of one run inside one graph level.
// It is owned by a single call and never shared.
type cursor struct {
	runID   string
	graph   *graph.Graph
	current string
	state   domain.State
	steps   int
	path    []string
	label   string
	depth   int
}

// walk advances c until the run ends or fails.
// Only the top level (depth 0) checkpoints and emits steps.
func (e *Engine) walk(ctx context.Context, c *cursor, emit func(Step) bool) error {
	g := c.graph
	logger := e.logger.With("run_id", c.runID, "graph", g.Name())

	for c.current != graph.End {
		if err := ctx.Err(); err != nil {
			return &domain.CanceledError{Node: c.current, Step: c.steps, Err: err}
		}
		if c.steps >= e.maxSteps {
			return &domain.StepLimitExceededError{Graph: g.Name(), Node: c.current, Limit: e.maxSteps}
		}

		node, ok := g.Node(c.current)
		if !ok {
			// Only reachable when resuming a checkpoint written by another graph version.
			return &domain.UnknownNodeError{Node: c.current, Ref: "run position"}
		}

		out, err := e.step(ctx, c, node, logger)
		if err != nil {
			return err
		}
		c.steps++

		next, label, err := g.Resolve(node.Name, out)
		if err != nil {
			logger.Debug("route failed", "node", node.Name, "label", label, "err", err)
			return err
		}
		e.emitRoute(ctx, c, node.Name, label, next)

		nextName := next
		if next == graph.End {
			nextName = ""
		}
		if c.depth == 0 {
			if err := e.checkpoint(ctx, c, node.Name, nextName, label, out, logger); err != nil {
				return err
			}
		}

		delta := domain.Diff(c.state, out)
		c.state = out
		c.path = append(c.path, node.Name)
		c.label = label
		c.current = next

		if emit != nil {
			s := Step{
				RunID: c.runID,
				Index: c.steps,
				Node:  node.Name,
				State: out.Clone(),
				Delta: delta,
				Label: label,
				Next:  nextName,
			}
			if !emit(s) {
				return errStopped
			}
		}
	}
	return nil
}

// step validates the node's requirements, then runs it with lifecycle hooks around it.
func (e *Engine) step(ctx context.Context, c *cursor, node graph.Node, logger *slog.Logger) (domain.State, error) {
	if err := schema.Validate(node.Requires, c.state); err != nil {
		return nil, &domain.StateValidationError{Node: node.Name, Err: err}
	}

	e.emitNodeEnter(ctx, c, node)
	start := time.Now()
	out, err := e.dispatch(ctx, c, node, logger)
	elapsed := time.Since(start)
	e.emitNodeLeave(ctx, c, node, elapsed, err)

	if err != nil {
		logger.Debug("node failed", "node", node.Name, "step", c.steps+1, "duration", elapsed, "err", err)
		return nil, err
	}
	logger.Debug("node completed", "node", node.Name, "kind", node.Kind, "step", c.steps+1, "duration", elapsed)
	return out, nil
}

// dispatch executes one node of either kind on a private copy of the state.
func (e *Engine) dispatch(ctx context.Context, c *cursor, node graph.Node, logger *slog.Logger) (domain.State, error) {
	in := c.state.Clone()
	if in == nil {
		in = domain.State{}
	}

	switch node.Kind {
	case graph.KindSubgraph:
		sub := &cursor{
			runID:   c.runID,
			graph:   node.Subgraph,
			current: node.Subgraph.EntryPoint(),
			state:   in,
			depth:   c.depth + 1,
		}
		if err := e.walk(ctx, sub, nil); err != nil {
			return nil, err
		}
		return sub.state, nil

	default:
		nodeCtx := logging.WithContext(ctx, logger.With("node", node.Name))
		out, err := node.Func(nodeCtx, in)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = in
		}
		return out, nil
	}
}

func (e *Engine) checkpoint(ctx context.Context, c *cursor, node, next, label string, state domain.State, logger *slog.Logger) error {
	if e.store == nil {
		return nil
	}

	status := domain.StatusRunning
	if next == "" {
		status = domain.StatusCompleted
	}
	cp := &domain.Checkpoint{
		RunID:     c.runID,
		Graph:     c.graph.Name(),
		Node:      node,
		Next:      next,
		Label:     label,
		Step:      c.steps,
		Status:    status,
		State:     state.Clone(),
		UpdatedAt: time.Now().UTC(),
	}

	// The step already happened; a canceled run still records it.
	err := e.store.Save(context.WithoutCancel(ctx), c.runID, cp)
	e.emitCheckpoint(ctx, c, node, err)
	if err != nil {
		logger.Warn("checkpoint save failed", "node", node, "step", c.steps, "err", err)
		return &domain.StoreError{Op: "save", RunID: c.runID, Err: err}
	}
	return nil
}
