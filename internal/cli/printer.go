package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/aretw0/weave"
)

// Format selects how steps and results are printed.
type Format string

const (
	FormatAuto Format = "auto" // text on a terminal, JSON lines otherwise
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Printer writes run output.
type Printer struct {
	w    io.Writer
	json bool
}

// NewPrinter resolves FormatAuto against w.
func NewPrinter(w io.Writer, format Format) *Printer {
	asJSON := format == FormatJSON
	if format == FormatAuto || format == "" {
		asJSON = !isTerminal(w)
	}
	return &Printer{w: w, json: asJSON}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Step prints one streamed step.
func (p *Printer) Step(s weave.Step) error {
	if p.json {
		return p.JSON(s)
	}
	next := s.Next
	if next == "" {
		next = "end"
	}
	line := fmt.Sprintf("[%d] %s -> %s", s.Index, s.Node, next)
	if s.Label != "" {
		line += fmt.Sprintf(" (%s)", s.Label)
	}
	if changed := keys(s.Delta); len(changed) > 0 {
		line += "  changed: " + strings.Join(changed, ", ")
	}
	_, err := fmt.Fprintln(p.w, line)
	return err
}

// Result prints the outcome of a run.
func (p *Printer) Result(r *weave.Result) error {
	if p.json {
		return p.JSON(r)
	}
	msg := fmt.Sprintf("Run %s finished after %d steps", r.RunID, r.Steps)
	if r.Label != "" {
		msg += fmt.Sprintf(" (%s)", r.Label)
	}
	printSystemMessage(p.w, "%s.", msg)
	return p.indented(r.State)
}

// JSON writes v as one line of JSON, or indented on a terminal.
func (p *Printer) JSON(v any) error {
	if !p.json {
		return p.indented(v)
	}
	return json.NewEncoder(p.w).Encode(v)
}

// Message prints a system message in text mode only.
func (p *Printer) Message(format string, args ...any) {
	if !p.json {
		printSystemMessage(p.w, format, args...)
	}
}

func (p *Printer) indented(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
