package runtime

import (
	"context"
	"time"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
)

func (e *Engine) base(c *cursor, typ domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      typ,
		RunID:     c.runID,
		Graph:     c.graph.Name(),
	}
}

func (e *Engine) emitRunStart(ctx context.Context, c *cursor) {
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{EventBase: e.base(c, domain.EventRunStart)})
	}
}

func (e *Engine) emitRunEnd(ctx context.Context, c *cursor, err error) {
	if e.hooks.OnRunEnd != nil {
		e.hooks.OnRunEnd(ctx, &domain.RunEvent{
			EventBase: e.base(c, domain.EventRunEnd),
			Steps:     c.steps,
			Err:       err,
		})
	}
}

func (e *Engine) emitNodeEnter(ctx context.Context, c *cursor, node graph.Node) {
	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			EventBase: e.base(c, domain.EventNodeEnter),
			Node:      node.Name,
			Kind:      string(node.Kind),
			Step:      c.steps + 1,
		})
	}
}

func (e *Engine) emitNodeLeave(ctx context.Context, c *cursor, node graph.Node, d time.Duration, err error) {
	if e.hooks.OnNodeLeave != nil {
		e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
			EventBase: e.base(c, domain.EventNodeLeave),
			Node:      node.Name,
			Kind:      string(node.Kind),
			Step:      c.steps + 1,
			Duration:  d,
			Err:       err,
		})
	}
}

func (e *Engine) emitRoute(ctx context.Context, c *cursor, from, label, to string) {
	if e.hooks.OnRoute != nil {
		if to == graph.End {
			to = ""
		}
		e.hooks.OnRoute(ctx, &domain.RouteEvent{
			EventBase: e.base(c, domain.EventRoute),
			From:      from,
			Label:     label,
			To:        to,
		})
	}
}

func (e *Engine) emitCheckpoint(ctx context.Context, c *cursor, node string, err error) {
	if e.hooks.OnCheckpoint != nil {
		e.hooks.OnCheckpoint(ctx, &domain.CheckpointEvent{
			EventBase: e.base(c, domain.EventCheckpoint),
			Node:      node,
			Step:      c.steps,
			Err:       err,
		})
	}
}
