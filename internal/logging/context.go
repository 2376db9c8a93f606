package logging

import (
	"context"
	"log/slog"
)

type key struct{}

// WithContext returns a context carrying logger.
// The engine uses it to hand nodes a logger already scoped to the run.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, key{}, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(key{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return NewNop()
}
