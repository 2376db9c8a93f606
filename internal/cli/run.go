package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/aretw0/weave"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
)

// RunOptions configures a CLI run.
type RunOptions struct {
	// Source is the graph argument given on the command line.
	Source string
	// State is the initial state as a JSON object.
	State  string
	RunID  string
	Stream bool
	Resume bool
	Format Format
	Out    io.Writer
}

// ParseState decodes a JSON object into a state. Numbers stay json.Number.
func ParseState(raw string) (domain.State, error) {
	state := domain.State{}
	if strings.TrimSpace(raw) == "" {
		return state, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(&state); err != nil {
		return nil, fmt.Errorf("invalid --state: %w", err)
	}
	return state, nil
}

// RunGraph executes or resumes g and prints its steps or result.
// An interrupt is not an error: the last completed step is checkpointed and
// the command tells how to resume.
func RunGraph(ctx context.Context, engine *weave.Engine, g *graph.Graph, opts RunOptions) error {
	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	p := NewPrinter(opts.Out, opts.Format)
	if opts.Resume && opts.RunID == "" {
		return fmt.Errorf("--resume needs --run-id")
	}

	var (
		res *weave.Result
		err error
	)
	if opts.Stream {
		err = stream(sigCtx, engine, g, opts, p)
	} else {
		if opts.Resume {
			res, err = engine.Resume(sigCtx, g, opts.RunID)
		} else {
			var state domain.State
			if state, err = ParseState(opts.State); err != nil {
				return err
			}
			res, err = engine.Execute(sigCtx, g, state, runOptions(opts)...)
		}
		if err == nil {
			err = p.Result(res)
		}
	}

	if err != nil && IsInterrupted(err) && sigCtx.Signal() != nil {
		var canceled *domain.CanceledError
		steps := 0
		if errors.As(err, &canceled) {
			steps = canceled.Step
		}
		p.Message("%s", interruptMessage(sigCtx.Signal(), steps))
		if opts.RunID != "" {
			p.Message("Resume with: weave run %s --resume --run-id %s", opts.Source, opts.RunID)
		}
		return nil
	}
	return err
}

func stream(ctx context.Context, engine *weave.Engine, g *graph.Graph, opts RunOptions, p *Printer) error {
	var seq iter.Seq2[weave.Step, error]
	if opts.Resume {
		seq = engine.ResumeStream(ctx, g, opts.RunID)
	} else {
		state, err := ParseState(opts.State)
		if err != nil {
			return err
		}
		seq = engine.Run(ctx, g, state, runOptions(opts)...)
	}

	for step, err := range seq {
		if err != nil {
			return err
		}
		if err := p.Step(step); err != nil {
			return err
		}
	}
	return nil
}

func runOptions(opts RunOptions) []weave.RunOption {
	if opts.RunID == "" {
		return nil
	}
	return []weave.RunOption{weave.WithRunID(opts.RunID)}
}
