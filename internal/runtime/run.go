package runtime

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
)

// Invoke runs g to completion and returns the final state.
// On cancellation it returns the last completed state along with a *domain.CanceledError.
// Any other failure returns a nil state; node errors are returned unchanged.
func (e *Engine) Invoke(ctx context.Context, g *graph.Graph, initial domain.State) (domain.State, error) {
	res, err := e.Execute(ctx, g, initial)
	if err != nil {
		var canceled *domain.CanceledError
		if res != nil && errors.As(err, &canceled) {
			return res.State, err
		}
		return nil, err
	}
	return res.State, nil
}

// Execute runs g to completion.
// The result is non-nil whenever g is, and on failure describes the last completed step.
func (e *Engine) Execute(ctx context.Context, g *graph.Graph, initial domain.State, opts ...RunOption) (*Result, error) {
	return e.start(ctx, g, initial, opts, nil)
}

// Run returns a lazy sequence of completed steps.
// Nothing executes until the sequence is ranged over; stopping early stops the run.
// A failure is yielded once as the final element. The sequence can be ranged
// over only once; a second attempt yields domain.ErrStreamConsumed.
func (e *Engine) Run(ctx context.Context, g *graph.Graph, initial domain.State, opts ...RunOption) iter.Seq2[Step, error] {
	return stream(func(emit func(Step) bool) error {
		_, err := e.start(ctx, g, initial, opts, emit)
		return err
	})
}

// Resume continues a run from its latest checkpoint.
// A completed run returns its stored result without executing anything.
func (e *Engine) Resume(ctx context.Context, g *graph.Graph, runID string) (*Result, error) {
	c, res, err := e.restore(ctx, g, runID)
	if err != nil || res != nil {
		return res, err
	}
	return e.execute(ctx, c, nil)
}

// ResumeStream is the streaming form of Resume.
func (e *Engine) ResumeStream(ctx context.Context, g *graph.Graph, runID string) iter.Seq2[Step, error] {
	return stream(func(emit func(Step) bool) error {
		c, res, err := e.restore(ctx, g, runID)
		if err != nil || res != nil {
			return err
		}
		_, err = e.execute(ctx, c, emit)
		return err
	})
}

func (e *Engine) start(ctx context.Context, g *graph.Graph, initial domain.State, opts []RunOption, emit func(Step) bool) (*Result, error) {
	if g == nil {
		return nil, domain.ErrNilGraph
	}
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.runID == "" {
		cfg.runID = e.newRunID()
	}

	state := initial.Clone()
	if state == nil {
		state = domain.State{}
	}
	c := &cursor{
		runID:   cfg.runID,
		graph:   g,
		current: g.EntryPoint(),
		state:   state,
	}
	return e.execute(ctx, c, emit)
}

// restore builds a cursor from the latest checkpoint of runID.
// For a completed run it returns the final result instead.
func (e *Engine) restore(ctx context.Context, g *graph.Graph, runID string) (*cursor, *Result, error) {
	if g == nil {
		return nil, nil, domain.ErrNilGraph
	}
	if e.store == nil {
		return nil, nil, fmt.Errorf("resume %q: no checkpoint store configured: %w", runID, &domain.NotImplementedError{Backend: "none", Op: "load"})
	}

	cp, err := e.store.Load(ctx, runID)
	if err != nil {
		if errors.Is(err, domain.ErrCheckpointNotFound) {
			return nil, nil, fmt.Errorf("resume %q: %w", runID, err)
		}
		return nil, nil, &domain.StoreError{Op: "load", RunID: runID, Err: err}
	}
	if cp.Graph != "" && cp.Graph != g.Name() {
		return nil, nil, fmt.Errorf("resume %q: checkpoint belongs to graph %q, not %q", runID, cp.Graph, g.Name())
	}

	if cp.Done() {
		e.logger.Debug("run already completed", "run_id", runID, "graph", g.Name(), "steps", cp.Step)
		return nil, &Result{RunID: runID, State: cp.State, Path: []string{}, Label: cp.Label, Steps: cp.Step}, nil
	}

	state := cp.State
	if state == nil {
		state = domain.State{}
	}
	return &cursor{
		runID:   runID,
		graph:   g,
		current: cp.Next,
		state:   state,
		steps:   cp.Step,
		label:   cp.Label,
	}, nil, nil
}

func (e *Engine) execute(ctx context.Context, c *cursor, emit func(Step) bool) (*Result, error) {
	logger := e.logger.With("run_id", c.runID, "graph", c.graph.Name())
	logger.Debug("run started", "entry", c.current, "step", c.steps)
	e.emitRunStart(ctx, c)

	err := e.walk(ctx, c, emit)

	res := &Result{
		RunID: c.runID,
		State: c.state,
		Path:  c.path,
		Label: c.label,
		Steps: c.steps,
	}
	if res.Path == nil {
		res.Path = []string{}
	}

	hookErr := err
	switch {
	case err == nil:
		logger.Info("run completed", "steps", c.steps, "label", c.label)
	case errors.Is(err, errStopped):
		logger.Debug("run stopped by consumer", "steps", c.steps)
		hookErr = nil
	default:
		logger.Warn("run failed", "steps", c.steps, "node", c.current, "err", err)
	}
	e.emitRunEnd(ctx, c, hookErr)
	return res, err
}

// stream adapts a walk to a single-use iterator.
func stream(exec func(emit func(Step) bool) error) iter.Seq2[Step, error] {
	var consumed atomic.Bool
	return func(yield func(Step, error) bool) {
		if consumed.Swap(true) {
			yield(Step{}, domain.ErrStreamConsumed)
			return
		}
		err := exec(func(s Step) bool {
			return yield(s, nil)
		})
		if err != nil && !errors.Is(err, errStopped) {
			yield(Step{}, err)
		}
	}
}
