package cli

import (
	"context"
	"log/slog"

	"github.com/aretw0/weave"
	"github.com/aretw0/weave/internal/config"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/observability"
)

// NewEngine creates an engine with the configured store, step limit and hooks.
// Debug logging adds a hook that logs every node and route.
// The caller closes the returned Persistence.
func NewEngine(ctx context.Context, s config.Settings, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*weave.Engine, *Persistence, error) {
	p, err := OpenStore(ctx, s.Checkpoint, logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []weave.Option{
		weave.WithLogger(logger),
		weave.WithMaxSteps(s.MaxSteps),
	}
	if p.Store != nil {
		opts = append(opts, weave.WithCheckpointStore(p.Store))
	}
	if p.Locker != nil {
		opts = append(opts, weave.WithLocker(p.Locker))
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		opts = append(opts, weave.WithLifecycleHooks(observability.LogHooks(logger)))
	}
	for _, h := range hooks {
		opts = append(opts, weave.WithLifecycleHooks(h))
	}
	return weave.New(opts...), p, nil
}
