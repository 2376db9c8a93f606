package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/weave/pkg/domain"
)

// LogHooks returns lifecycle hooks that write every event to logger.
// Node and route events are logged at debug level, failures at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter",
				"run_id", e.RunID, "graph", e.Graph, "node", e.Node, "kind", e.Kind, "step", e.Step)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "node_failed",
					"run_id", e.RunID, "graph", e.Graph, "node", e.Node, "duration", e.Duration, "error", e.Err)
				return
			}
			logger.DebugContext(ctx, "node_leave",
				"run_id", e.RunID, "graph", e.Graph, "node", e.Node, "duration", e.Duration)
		},
		OnRoute: func(ctx context.Context, e *domain.RouteEvent) {
			logger.DebugContext(ctx, "route",
				"run_id", e.RunID, "graph", e.Graph, "from", e.From, "label", e.Label, "to", e.To)
		},
		OnCheckpoint: func(ctx context.Context, e *domain.CheckpointEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "checkpoint_failed",
					"run_id", e.RunID, "node", e.Node, "step", e.Step, "error", e.Err)
			}
		},
	}
}
