package runtime

import (
	"log/slog"

	"github.com/aretw0/weave/internal/logging"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/ports"
	"github.com/google/uuid"
)

// DefaultMaxSteps bounds a run, per nesting level, when no limit is configured.
const DefaultMaxSteps = 1000

// Engine walks compiled graphs.
// It holds configuration only, so one Engine can serve concurrent runs.
type Engine struct {
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	store    ports.CheckpointStore
	maxSteps int
	newRunID func() string
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks. Repeated calls merge.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithCheckpointStore saves a checkpoint after every completed step.
func WithCheckpointStore(store ports.CheckpointStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithMaxSteps sets the step ceiling. Values below one keep the default.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithRunIDGenerator replaces the uuid run id generator.
func WithRunIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newRunID = fn
		}
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:   logging.NewNop(),
		maxSteps: DefaultMaxSteps,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the configured checkpoint store, or nil.
func (e *Engine) Store() ports.CheckpointStore {
	return e.store
}

// MaxSteps returns the step ceiling.
func (e *Engine) MaxSteps() int {
	return e.maxSteps
}
