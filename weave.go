package weave

import (
	"context"
	"iter"
	"log/slog"

	"github.com/aretw0/weave/internal/logging"
	"github.com/aretw0/weave/internal/runtime"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
)

// Version is the library version reported by the CLI and the HTTP adapter.
const Version = "0.4.0"

// DefaultMaxSteps is the step ceiling applied when none is configured.
const DefaultMaxSteps = runtime.DefaultMaxSteps

// Step is one completed node execution of a streamed run.
type Step = runtime.Step

// Result is the outcome of a whole run.
type Result = runtime.Result

// Engine is the high-level entry point of the library.
// It wraps the internal runtime and serializes runs that share a run id.
// An Engine is safe for concurrent use.
type Engine struct {
	runtime  *runtime.Engine
	sessions *session.Manager

	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	store    ports.CheckpointStore
	locker   ports.DistributedLocker
	maxSteps int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls merge.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithCheckpointStore saves a checkpoint after every completed step and enables Resume.
func WithCheckpointStore(store ports.CheckpointStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker coordinates runs with an explicit run id across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithMaxSteps sets the per-level step ceiling.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	rtOpts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithMaxSteps(e.maxSteps),
	}
	if e.store != nil {
		rtOpts = append(rtOpts, runtime.WithCheckpointStore(e.store))
	}
	e.runtime = runtime.NewEngine(rtOpts...)

	sessOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(e.locker))
	}
	store := e.store
	if store == nil {
		store = ports.UnimplementedStore{Backend: "none"}
	}
	e.sessions = session.NewManager(store, sessOpts...)
	return e
}

// RunOption configures a single run.
type RunOption func(*runSettings)

type runSettings struct {
	runID string
}

// WithRunID names the run. The id keys checkpoints and the run lock.
func WithRunID(id string) RunOption {
	return func(s *runSettings) {
		s.runID = id
	}
}

func settings(opts []RunOption) runSettings {
	var s runSettings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Invoke runs g against initial and returns the final state.
func (e *Engine) Invoke(ctx context.Context, g *graph.Graph, initial domain.State) (domain.State, error) {
	return e.runtime.Invoke(ctx, g, initial)
}

// Execute runs g to completion and returns the full result.
// With WithRunID the run lock is held for the whole call.
func (e *Engine) Execute(ctx context.Context, g *graph.Graph, initial domain.State, opts ...RunOption) (*Result, error) {
	s := settings(opts)
	if s.runID == "" {
		return e.runtime.Execute(ctx, g, initial)
	}

	var res *Result
	err := e.sessions.WithLock(ctx, s.runID, func(ctx context.Context) error {
		var err error
		res, err = e.runtime.Execute(ctx, g, initial, runtime.WithRunID(s.runID))
		return err
	})
	return res, err
}

// Run streams the steps of a run. The sequence is lazy and single-use.
func (e *Engine) Run(ctx context.Context, g *graph.Graph, initial domain.State, opts ...RunOption) iter.Seq2[Step, error] {
	s := settings(opts)
	if s.runID == "" {
		return e.runtime.Run(ctx, g, initial)
	}
	return e.locked(ctx, s.runID, e.runtime.Run(ctx, g, initial, runtime.WithRunID(s.runID)))
}

// Resume continues a checkpointed run under its run lock.
func (e *Engine) Resume(ctx context.Context, g *graph.Graph, runID string) (*Result, error) {
	var res *Result
	err := e.sessions.WithLock(ctx, runID, func(ctx context.Context) error {
		var err error
		res, err = e.runtime.Resume(ctx, g, runID)
		return err
	})
	return res, err
}

// ResumeStream streams the remaining steps of a checkpointed run.
func (e *Engine) ResumeStream(ctx context.Context, g *graph.Graph, runID string) iter.Seq2[Step, error] {
	return e.locked(ctx, runID, e.runtime.ResumeStream(ctx, g, runID))
}

// Sessions exposes the run lock manager, e.g. to inspect or delete checkpoints safely.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// locked holds the run lock while seq is being consumed.
func (e *Engine) locked(ctx context.Context, runID string, seq iter.Seq2[Step, error]) iter.Seq2[Step, error] {
	return func(yield func(Step, error) bool) {
		stopped := false
		err := e.sessions.WithLock(ctx, runID, func(context.Context) error {
			for step, err := range seq {
				if !yield(step, err) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(Step{}, err)
		}
	}
}
